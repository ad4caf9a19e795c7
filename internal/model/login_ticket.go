package model

// LoginTicket status. A ticket starts valid and can only move to
// revoked; revoked is terminal.
const (
	TicketStatusValid   = 0
	TicketStatusRevoked = 1
)

// LoginTicket is the bearer credential for an authenticated session.
// It lives only in the cache store; there is no durable table backing
// it, so losing tickets on a cache restart is accepted.
type LoginTicket struct {
	Ticket  string `json:"ticket"`
	UserID  int64  `json:"user_id"`
	Status  int    `json:"status"`
	Expired int64  `json:"expired"`
}

func (t *LoginTicket) Valid() bool {
	return t.Status == TicketStatusValid
}
