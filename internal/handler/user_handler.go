package handler

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agoraforum/agora/internal/filestore"
	"github.com/agoraforum/agora/internal/middleware"
	"github.com/agoraforum/agora/internal/model"
	"github.com/agoraforum/agora/internal/pkg/errcode"
	"github.com/agoraforum/agora/internal/pkg/response"
	"github.com/agoraforum/agora/internal/service"
)

type UserHandler struct {
	users  *service.UserService
	files  filestore.Store
	domain string
}

func NewUserHandler(users *service.UserService, files filestore.Store, domain string) *UserHandler {
	return &UserHandler{users: users, files: files, domain: domain}
}

type changePasswordRequest struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	user := middleware.LoginUser(c)
	if err := h.users.ChangePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// UploadHeader stores the uploaded image and points the user row at
// its public URL. The cache invalidation happens inside UpdateHeader.
func (h *UserHandler) UploadHeader(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "您还没有选择图片！")
		return
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	switch ext {
	case ".png", ".jpg", ".jpeg":
	default:
		response.Error(c, errcode.ErrInvalid, "文件格式不正确！")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, errcode.ErrUploadFailed, "上传文件失败！")
		return
	}
	defer file.Close()

	key := strings.ReplaceAll(uuid.NewString(), "-", "") + ext
	ctx := c.Request.Context()
	if err := h.files.Save(ctx, key, file, fileHeader.Size); err != nil {
		response.Error(c, errcode.ErrUploadFailed, "上传文件失败！")
		return
	}
	headerURL := h.files.URL(key, h.domain)
	user := middleware.LoginUser(c)
	if err := h.users.UpdateHeader(ctx, user.ID, headerURL); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true, "header_url": headerURL})
}

// Profile serves a user's public fields through the read-through
// cache.
func (h *UserHandler) Profile(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid user id")
		return
	}
	user, err := h.users.FindUserByID(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"header_url": user.HeaderURL,
		"role":       model.AuthorityFor(user.Type),
		"ctime":      user.Ctime,
	})
}
