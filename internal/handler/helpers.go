package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/agoraforum/agora/internal/pkg/errcode"
	appErr "github.com/agoraforum/agora/internal/pkg/errors"
	"github.com/agoraforum/agora/internal/pkg/response"
	"github.com/agoraforum/agora/internal/service"
)

func handleError(c *gin.Context, err error) {
	var fields service.FieldErrors
	switch {
	case err == nil:
		return
	case errors.As(err, &fields):
		response.FieldMessages(c, fields.Map())
	case appErr.IsNotFound(err):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case appErr.IsConflict(err):
		response.Error(c, errcode.ErrConflict, "conflict")
	default:
		logutil.GetLogger(c.Request.Context()).Error("request failed",
			zap.String("method", c.Request.Method), zap.String("path", c.Request.URL.Path), zap.Error(err))
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
