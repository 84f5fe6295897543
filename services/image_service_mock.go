package services

import (
	"fmt"
	"mime/multipart"
	"sync"

	"github.com/seed-sell/seedsell-api/utils"
)

// MockImageService is a mock implementation of ImageService for testing
type MockImageService struct {
	uploadedImages map[string][]byte // map of image key to file content
	mu             sync.RWMutex
}

// NewMockImageService creates a new mock image service
func NewMockImageService() *MockImageService {
	return &MockImageService{
		uploadedImages: make(map[string][]byte),
	}
}

// SetAsMockForTesting sets this mock as the global image service instance for testing
func (m *MockImageService) SetAsMockForTesting() {
	SetImageService(m)
}

// UploadImage simulates validating and uploading an image
func (m *MockImageService) UploadImage(userID string, fileHeader *multipart.FileHeader) (string, error) {
	// Validate the image file like the real implementation does
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	// Open and read the file
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// Read file content
	content := make([]byte, fileHeader.Size)
	_, err = file.Read(content)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	// Deterministic key so tests can assert on it
	key := fmt.Sprintf("public/mock_%s_%s", userID, fileHeader.Filename)

	m.mu.Lock()
	m.uploadedImages[key] = content
	m.mu.Unlock()

	return key, nil
}

// GetImageURL simulates building a public image URL
func (m *MockImageService) GetImageURL(imageKey string, transform *ImageTransform) string {
	if imageKey == "" {
		return ""
	}
	if transform != nil && transform.Width > 0 {
		return fmt.Sprintf("https://cdn.mock/%s?width=%d", imageKey, transform.Width)
	}
	return "https://cdn.mock/" + imageKey
}

// DeleteImage simulates deleting an image
func (m *MockImageService) DeleteImage(imageKey string) error {
	m.mu.Lock()
	delete(m.uploadedImages, imageKey)
	m.mu.Unlock()
	return nil
}

// HasImage checks whether a key exists in mock storage (for test assertions)
func (m *MockImageService) HasImage(imageKey string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.uploadedImages[imageKey]
	return ok
}
