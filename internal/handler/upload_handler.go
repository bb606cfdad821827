package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"tumaini/pkg/cloudinary"

	"github.com/gin-gonic/gin"
)

const maxUploadFiles = 10

type UploadHandler struct {
	cloud cloudinary.Client
}

func NewUploadHandler(cloud cloudinary.Client) *UploadHandler {
	return &UploadHandler{cloud: cloud}
}

// UploadMultiple handles POST /api/upload/multiple (admin): a multipart form
// with one or more files under "files". Returns the Cloudinary URLs in order.
func (h *UploadHandler) UploadMultiple(c *gin.Context) {
	if h.cloud == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "uploads are not available"})
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one file is required"})
		return
	}
	if len(files) > maxUploadFiles {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many files"})
		return
	}

	folder := c.DefaultPostForm("folder", "products")
	folder = "Tumaini/" + strings.Trim(folder, "/")

	uploads := make([]gin.H, 0, len(files))
	for _, file := range files {
		publicID := "img_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read " + file.Filename})
			return
		}
		url, thumb, err := h.cloud.UploadImage(c.Request.Context(), f, folder, publicID)
		f.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed for " + file.Filename})
			return
		}
		uploads = append(uploads, gin.H{
			"filename":      file.Filename,
			"url":           url,
			"thumbnail_url": thumb,
		})
	}
	c.JSON(http.StatusOK, gin.H{"uploads": uploads})
}
