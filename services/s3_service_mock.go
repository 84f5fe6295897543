package services

import (
	"fmt"
	"mime/multipart"
	"net/url"
	"sync"
)

// MockS3Service is a mock implementation of S3Service for testing
type MockS3Service struct {
	uploadedFiles map[string][]byte // map of S3 key to file content
	mu            sync.RWMutex
}

// NewMockS3Service creates a new mock S3 service
func NewMockS3Service() *MockS3Service {
	return &MockS3Service{
		uploadedFiles: make(map[string][]byte),
	}
}

// SetAsMockForTesting sets this mock as the global S3 service instance for testing
func (m *MockS3Service) SetAsMockForTesting() {
	SetS3Service(m)
}

// UploadFile simulates uploading a file to S3
func (m *MockS3Service) UploadFile(key string, fileHeader *multipart.FileHeader) error {
	// Open and read the file
	file, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// Read file content
	content := make([]byte, fileHeader.Size)
	_, err = file.Read(content)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	// Store in mock storage
	m.mu.Lock()
	m.uploadedFiles[key] = content
	m.mu.Unlock()

	return nil
}

// PublicURL simulates building a public object URL
func (m *MockS3Service) PublicURL(key string, transform *ImageTransform) string {
	if key == "" {
		return ""
	}

	base := "https://mock-bucket.s3.us-east-1.amazonaws.com/" + key
	if transform == nil {
		return base
	}

	params := url.Values{}
	if transform.Width > 0 {
		params.Set("width", fmt.Sprintf("%d", transform.Width))
	}
	if transform.Height > 0 {
		params.Set("height", fmt.Sprintf("%d", transform.Height))
	}
	if transform.Resize != "" {
		params.Set("resize", transform.Resize)
	}
	if len(params) == 0 {
		return base
	}

	return base + "?" + params.Encode()
}

// DeleteFile simulates deleting a file from S3
func (m *MockS3Service) DeleteFile(key string) error {
	if key == "" {
		return nil
	}

	m.mu.Lock()
	delete(m.uploadedFiles, key)
	m.mu.Unlock()

	return nil
}

// HasFile checks whether a key exists in mock storage (for test assertions)
func (m *MockS3Service) HasFile(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.uploadedFiles[key]
	return ok
}
