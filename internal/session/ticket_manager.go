package session

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agoraforum/agora/internal/cache"
	"github.com/agoraforum/agora/internal/model"
	appErr "github.com/agoraforum/agora/internal/pkg/errors"
)

// TicketManager issues, looks up and revokes login tickets. It is a
// dumb store on purpose: Find does not check status or expiry, callers
// decide whether a ticket still backs an active session. Tickets are
// written without a cache-level TTL; the Expired field is the only
// expiry there is.
type TicketManager struct {
	store cache.Store
}

func NewTicketManager(store cache.Store) *TicketManager {
	return &TicketManager{store: store}
}

// Issue creates a fresh valid ticket for the user and stores it keyed
// by its token.
func (m *TicketManager) Issue(ctx context.Context, userID int64, ttl time.Duration) (*model.LoginTicket, error) {
	ticket := &model.LoginTicket{
		Ticket:  newToken(),
		UserID:  userID,
		Status:  model.TicketStatusValid,
		Expired: time.Now().Add(ttl).Unix(),
	}
	if err := m.put(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Find is a raw lookup: it returns revoked and expired tickets as-is
// and ErrNotFound only when the token has no entry at all.
func (m *TicketManager) Find(ctx context.Context, token string) (*model.LoginTicket, error) {
	raw, err := m.store.Get(ctx, cache.TicketKey(token))
	if err != nil {
		return nil, err
	}
	var ticket model.LoginTicket
	if err := json.Unmarshal([]byte(raw), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Revoke marks the ticket revoked and writes it back; the entry is
// never removed. An unknown token is a silent no-op.
func (m *TicketManager) Revoke(ctx context.Context, token string) error {
	ticket, err := m.Find(ctx, token)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil
		}
		return err
	}
	ticket.Status = model.TicketStatusRevoked
	return m.put(ctx, ticket)
}

func (m *TicketManager) put(ctx context.Context, ticket *model.LoginTicket) error {
	encoded, err := json.Marshal(ticket)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, cache.TicketKey(ticket.Ticket), string(encoded), 0)
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
