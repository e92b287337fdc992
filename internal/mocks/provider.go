package mocks

import (
	"github.com/brettbedarf/embedfs"
	"github.com/brettbedarf/embedfs/image"
	"github.com/stretchr/testify/mock"
)

// MockImageProvider implements embedfs.ImageProvider for testing across packages
type MockImageProvider struct {
	mock.Mock
}

func (m *MockImageProvider) Load(location string) (*image.Layout, error) {
	args := m.Called(location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*image.Layout), args.Error(1)
}

var _ embedfs.ImageProvider = (*MockImageProvider)(nil)
