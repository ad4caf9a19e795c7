package handler

import (
	"io"
	"mime"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/agoraforum/agora/internal/filestore"
	"github.com/agoraforum/agora/internal/pkg/errcode"
	"github.com/agoraforum/agora/internal/pkg/response"
)

type FileHandler struct {
	files filestore.Store
}

func NewFileHandler(files filestore.Store) *FileHandler {
	return &FileHandler{files: files}
}

func (h *FileHandler) Get(c *gin.Context) {
	key := c.Param("key")
	reader, err := h.files.Open(c.Request.Context(), key)
	if err != nil {
		response.Error(c, errcode.ErrNotFound, "file not found")
		return
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(200)
	_, _ = io.Copy(c.Writer, reader)
}
