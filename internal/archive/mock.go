package archive

import "context"

// MockClient is a test double for the Client interface.
type MockClient struct {
	UploadErr error
	DeleteErr error

	// Track calls
	Objects         map[string][]byte // bucket/key → data
	DeletedPrefixes []string
}

// NewMockClient creates a MockClient with empty stores.
func NewMockClient() *MockClient {
	return &MockClient{Objects: make(map[string][]byte)}
}

func (m *MockClient) Upload(_ context.Context, bucket, key string, data []byte) error {
	if m.UploadErr != nil {
		return m.UploadErr
	}
	m.Objects[bucket+"/"+key] = data
	return nil
}

func (m *MockClient) DeletePrefix(_ context.Context, bucket, prefix string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.DeletedPrefixes = append(m.DeletedPrefixes, bucket+"/"+prefix)
	return nil
}
