package services

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type CloudinaryService struct {
	cld *cloudinary.Cloudinary
}

var Cloudinary *CloudinaryService

func InitializeCloudinary(cloudinaryURL string) error {
	if cloudinaryURL == "" {
		return fmt.Errorf("cloudinary URL is required")
	}

	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	Cloudinary = &CloudinaryService{cld: cld}
	return nil
}

func (cs *CloudinaryService) UploadImage(file multipart.File, folder string) (*uploader.UploadResult, error) {
	ctx := context.Background()

	publicID := fmt.Sprintf("%s/%d", folder, time.Now().UnixNano())

	result, err := cs.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:       publicID,
		Folder:         folder,
		UseFilename:    &[]bool{true}[0],
		UniqueFilename: &[]bool{true}[0],
		Overwrite:      &[]bool{false}[0],
		ResourceType:   "image",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	normalizeResultURLs(result)
	return result, nil
}

func (cs *CloudinaryService) UploadImageFromBytes(data []byte, folder, filename string) (*uploader.UploadResult, error) {
	ctx := context.Background()

	publicID := fmt.Sprintf("%s/%s_%d", folder, strings.TrimSuffix(filename, filepath.Ext(filename)), time.Now().UnixNano())

	result, err := cs.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:       publicID,
		Folder:         folder,
		UseFilename:    &[]bool{true}[0],
		UniqueFilename: &[]bool{true}[0],
		Overwrite:      &[]bool{false}[0],
		ResourceType:   "image",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	normalizeResultURLs(result)
	return result, nil
}

func (cs *CloudinaryService) DeleteImage(publicID string) error {
	ctx := context.Background()

	_, err := cs.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	return nil
}

// ExtractPublicID pulls the public id back out of a Cloudinary URL so
// a replaced image can be destroyed.
func ExtractPublicID(url string) string {
	parts := strings.Split(url, "/")
	if len(parts) < 4 {
		return ""
	}

	for i, part := range parts {
		if part == "upload" && i+1 < len(parts) {
			path := strings.Join(parts[i+1:], "/")
			// Remove version prefix (v1234567890/)
			if strings.Contains(path, "/") {
				pathParts := strings.Split(path, "/")
				if len(pathParts) > 1 && strings.HasPrefix(pathParts[0], "v") {
					path = strings.Join(pathParts[1:], "/")
				}
			}
			return strings.TrimSuffix(path, filepath.Ext(path))
		}
	}

	return ""
}

// normalizeResultURLs forces https so production clients don't block
// mixed content.
func normalizeResultURLs(result *uploader.UploadResult) {
	if result == nil {
		return
	}
	if result.URL != "" {
		result.URL = strings.Replace(strings.TrimSpace(result.URL), "http://", "https://", 1)
	}
	if result.SecureURL == "" && result.URL != "" {
		result.SecureURL = result.URL
	}
}
