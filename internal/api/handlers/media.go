package handlers

import (
	"net/http"

	"chat-relay/internal/database"

	"github.com/gin-gonic/gin"
)

type MediaHandler struct {
	media *database.MinIOClient
}

func NewMediaHandler(media *database.MinIOClient) *MediaHandler {
	return &MediaHandler{media: media}
}

// Upload godoc
// @Summary Upload a media attachment
// @Description Stores the file and returns a URL usable as a message mediaUrl
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File to upload"
// @Success 200 {object} map[string]string
// @Router /media-upload [post]
func (h *MediaHandler) Upload(c *gin.Context) {
	if h.media == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Media storage is not configured"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	url, err := h.media.UploadFile(c.Request.Context(), "media", file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
