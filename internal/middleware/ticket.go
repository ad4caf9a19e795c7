package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agoraforum/agora/internal/cache"
	"github.com/agoraforum/agora/internal/model"
	"github.com/agoraforum/agora/internal/pkg/errcode"
	"github.com/agoraforum/agora/internal/pkg/response"
	"github.com/agoraforum/agora/internal/session"
)

const (
	// TicketCookie carries the session ticket token.
	TicketCookie = "ticket"

	contextUserKey   = "login_user"
	contextTicketKey = "login_ticket"
)

// TicketAuth resolves the ticket cookie into a logged-in user. The
// ticket manager hands back raw tickets, so status and expiry are
// checked here before the session is trusted. Requests without a
// usable ticket pass through anonymously; RequireLogin draws the line.
func TicketAuth(tickets *session.TicketManager, users *cache.UserCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(TicketCookie)
		if err != nil || token == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		ticket, err := tickets.Find(ctx, token)
		if err != nil {
			c.Next()
			return
		}
		if !ticket.Valid() || ticket.Expired <= time.Now().Unix() {
			c.Next()
			return
		}
		user, err := users.Get(ctx, ticket.UserID)
		if err != nil {
			c.Next()
			return
		}
		c.Set(contextUserKey, user)
		c.Set(contextTicketKey, ticket)
		c.Next()
	}
}

func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if LoginUser(c) == nil {
			response.Error(c, errcode.ErrUnauthorized, "请先登录")
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoginUser returns the authenticated user, or nil for anonymous
// requests.
func LoginUser(c *gin.Context) *model.User {
	value, _ := c.Get(contextUserKey)
	user, _ := value.(*model.User)
	return user
}

// LoginTicket returns the ticket backing the current session, if any.
func LoginTicket(c *gin.Context) *model.LoginTicket {
	value, _ := c.Get(contextTicketKey)
	ticket, _ := value.(*model.LoginTicket)
	return ticket
}
