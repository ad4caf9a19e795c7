package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agoraforum/agora/internal/cache"
	"github.com/agoraforum/agora/internal/middleware"
	"github.com/agoraforum/agora/internal/model"
	"github.com/agoraforum/agora/internal/pkg/errcode"
	appErr "github.com/agoraforum/agora/internal/pkg/errors"
	"github.com/agoraforum/agora/internal/pkg/response"
	"github.com/agoraforum/agora/internal/service"
)

const (
	captchaTTL    = 60 * time.Second
	forgotCodeTTL = 5 * time.Minute
)

type AuthHandler struct {
	users       *service.UserService
	store       cache.Store
	contextPath string
}

func NewAuthHandler(users *service.UserService, store cache.Store, contextPath string) *AuthHandler {
	return &AuthHandler{users: users, store: store, contextPath: contextPath}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	user := &model.User{
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
		Email:    strings.TrimSpace(req.Email),
	}
	if err := h.users.Register(c.Request.Context(), user); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true, "message": "注册成功，我们已经向您的邮箱发送了一封激活邮件，请尽快激活！"})
}

func (h *AuthHandler) Activation(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid user id")
		return
	}
	result, err := h.users.Activate(c.Request.Context(), userID, c.Param("code"))
	if err != nil {
		handleError(c, err)
		return
	}
	switch result {
	case service.ActivationSuccess:
		response.Success(c, gin.H{"ok": true, "message": "激活成功，您的账号已经可以正常使用了！"})
	case service.ActivationRepeat:
		response.Success(c, gin.H{"ok": false, "message": "无效操作，该账号已经激活过了！"})
	default:
		response.Success(c, gin.H{"ok": false, "message": "激活失败，您提供的激活码不正确！"})
	}
}

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Code       string `json:"code"`
	RememberMe bool   `json:"rememberme"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	ctx := c.Request.Context()

	owner, _ := c.Cookie(captchaOwnerCookie)
	expected := ""
	if owner != "" {
		expected, _ = h.store.Get(ctx, cache.CaptchaKey(owner))
	}
	if expected == "" || req.Code == "" || !strings.EqualFold(expected, req.Code) {
		response.FieldMessages(c, map[string]string{service.FieldCode: "验证码不正确"})
		return
	}

	expiredSeconds := service.DefaultExpiredSeconds
	if req.RememberMe {
		expiredSeconds = service.RememberExpiredSeconds
	}
	ticket, err := h.users.Login(ctx, req.Username, req.Password, expiredSeconds)
	if err != nil {
		handleError(c, err)
		return
	}
	c.SetCookie(middleware.TicketCookie, ticket.Ticket, expiredSeconds, h.cookiePath(), "", false, true)
	response.Success(c, gin.H{"ok": true, "ticket": ticket.Ticket, "expired": ticket.Expired})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token, err := c.Cookie(middleware.TicketCookie)
	if err != nil || token == "" {
		response.Success(c, gin.H{"ok": true})
		return
	}
	if err := h.users.Logout(c.Request.Context(), token); err != nil {
		handleError(c, err)
		return
	}
	c.SetCookie(middleware.TicketCookie, "", -1, h.cookiePath(), "", false, true)
	response.Success(c, gin.H{"ok": true})
}

// ForgetCode mails a verification code for the forgot-password flow
// and stashes it in the cache for the later comparison. The code is
// never written to the credential store.
func (h *AuthHandler) ForgetCode(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	ctx := c.Request.Context()
	code, _, err := h.users.VerifyEmailCode(ctx, email)
	if err != nil {
		if err == appErr.ErrInvalid {
			response.FieldMessages(c, map[string]string{service.FieldEmail: "邮箱不能为空"})
			return
		}
		if appErr.IsNotFound(err) {
			response.FieldMessages(c, map[string]string{service.FieldEmail: "查询不到该邮箱注册信息"})
			return
		}
		handleError(c, err)
		return
	}
	if err := h.store.Set(ctx, cache.ForgotCodeKey(email), code, forgotCodeTTL); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

type forgetPasswordRequest struct {
	Email      string `json:"email"`
	VerifyCode string `json:"verify_code"`
	Password   string `json:"password"`
}

func (h *AuthHandler) ForgetPassword(c *gin.Context) {
	var req forgetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	ctx := c.Request.Context()
	req.Email = strings.TrimSpace(req.Email)

	expected := ""
	if req.Email != "" {
		expected, _ = h.store.Get(ctx, cache.ForgotCodeKey(req.Email))
	}
	if expected == "" || req.VerifyCode == "" || !strings.EqualFold(expected, req.VerifyCode) {
		response.FieldMessages(c, map[string]string{service.FieldCode: "验证码不正确"})
		return
	}

	if _, err := h.users.ResetPassword(ctx, req.Email, req.Password); err != nil {
		handleError(c, err)
		return
	}
	_ = h.store.Del(ctx, cache.ForgotCodeKey(req.Email))
	response.Success(c, gin.H{"ok": true})
}

func (h *AuthHandler) cookiePath() string {
	if h.contextPath == "" {
		return "/"
	}
	return h.contextPath
}
