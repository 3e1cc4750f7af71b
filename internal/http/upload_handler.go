package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hunter/internal/service"
)

// UploadHandler serves presigned upload URL requests.
type UploadHandler struct {
	logger  *zap.Logger
	uploads *service.UploadService
}

func NewUploadHandler(logger *zap.Logger, uploads *service.UploadService) *UploadHandler {
	return &UploadHandler{
		logger:  logger,
		uploads: uploads,
	}
}

// Presign handles POST /getPresignedUrl. Returns short-lived PUT URLs for each
// requested image.
func (h *UploadHandler) Presign(c *gin.Context) {
	userID := c.GetString(contextUserID)

	var req struct {
		Images []service.ImageInput `json:"images" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No images provided"})
		return
	}

	uploads, err := h.uploads.PresignUploads(c.Request.Context(), userID, req.Images)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoImages):
			c.JSON(http.StatusBadRequest, gin.H{"message": "No images provided"})
		case errors.Is(err, service.ErrInvalidImage):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid image descriptor"})
		default:
			h.logger.Error("presign uploads failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"uploads": uploads})
}
