package cache

import (
	"strconv"
	"strings"
)

// Cache key derivation. Each entity kind owns a fixed prefix so the
// namespaces can never collide.
const (
	splitChar        = ":"
	prefixUser       = "user"
	prefixTicket     = "ticket"
	prefixCaptcha    = "captcha"
	prefixForgotCode = "forgot"
)

func UserKey(userID int64) string {
	return prefixUser + splitChar + strconv.FormatInt(userID, 10)
}

func TicketKey(token string) string {
	return prefixTicket + splitChar + token
}

func CaptchaKey(owner string) string {
	return prefixCaptcha + splitChar + owner
}

func ForgotCodeKey(email string) string {
	return prefixForgotCode + splitChar + strings.ToLower(email)
}
