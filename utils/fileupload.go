package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	// MaxFileSize is 5MB in bytes
	MaxFileSize = 5 * 1024 * 1024
)

// AllowedImageFormats are the file extensions accepted for listing images
var AllowedImageFormats = []string{".jpg", ".jpeg", ".png"}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.]`)

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateImageFile validates the uploaded file format and size
func ValidateImageFile(fileHeader *multipart.FileHeader) error {
	// Check file size
	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	// Check file extension
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	for _, allowed := range AllowedImageFormats {
		if ext == allowed {
			return nil
		}
	}

	return &FileUploadError{
		Code:    "INVALID_FILE_FORMAT",
		Message: fmt.Sprintf("Only %s files are allowed", strings.Join(AllowedImageFormats, ", ")),
	}
}

// StorageKey builds the object key for an uploaded image.
// Format: public/{userID}_{timestamp}_{sanitized filename}
func StorageKey(userID, filename string) string {
	safe := unsafeFilenameChars.ReplaceAllString(filepath.Base(filename), "")
	return fmt.Sprintf("public/%s_%d_%s", userID, time.Now().Unix(), safe)
}
