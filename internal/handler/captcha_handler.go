package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agoraforum/agora/internal/cache"
	"github.com/agoraforum/agora/internal/captcha"
	"github.com/agoraforum/agora/internal/pkg/errcode"
	"github.com/agoraforum/agora/internal/pkg/response"
)

// captchaOwnerCookie ties an anonymous visitor to the captcha text
// waiting for them in the cache.
const captchaOwnerCookie = "captcha_owner"

type CaptchaHandler struct {
	producer    captcha.Producer
	store       cache.Store
	contextPath string
}

func NewCaptchaHandler(producer captcha.Producer, store cache.Store, contextPath string) *CaptchaHandler {
	return &CaptchaHandler{producer: producer, store: store, contextPath: contextPath}
}

func (h *CaptchaHandler) Get(c *gin.Context) {
	text := h.producer.CreateText()
	img, err := h.producer.CreateImage(text)
	if err != nil {
		response.Error(c, errcode.ErrInternal, "generate captcha failed")
		return
	}
	owner := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := h.store.Set(c.Request.Context(), cache.CaptchaKey(owner), text, captchaTTL); err != nil {
		response.Error(c, errcode.ErrInternal, "store captcha failed")
		return
	}
	path := h.contextPath
	if path == "" {
		path = "/"
	}
	c.SetCookie(captchaOwnerCookie, owner, int(captchaTTL.Seconds()), path, "", false, true)
	c.Data(200, "image/png", img)
}
