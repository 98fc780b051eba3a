package handlers

import (
	"net/http"

	"velora-server/services"

	"github.com/gin-gonic/gin"
)

const maxUploadSize = 10 << 20 // 10 MB

// UploadImage accepts a multipart image and stores it in Cloudinary
// (admin only). The response carries the hosted URL for use in
// product, category and hero slide payloads.
func UploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image exceeds the 10MB limit"})
		return
	}

	if services.Cloudinary == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image hosting is not configured"})
		return
	}

	folder := c.DefaultPostForm("folder", "products")
	result, err := services.Cloudinary.UploadImage(file, folder)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"url":       result.SecureURL,
		"public_id": result.PublicID,
		"width":     result.Width,
		"height":    result.Height,
	})
}

// DeleteUploadedImage removes an image from Cloudinary by its URL
// (admin only).
func DeleteUploadedImage(c *gin.Context) {
	var req struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if services.Cloudinary == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image hosting is not configured"})
		return
	}

	publicID := services.ExtractPublicID(req.URL)
	if publicID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is not a recognized image URL"})
		return
	}

	if err := services.Cloudinary.DeleteImage(publicID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Image deleted"})
}
