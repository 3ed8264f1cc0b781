// Package mocks provides shared mock implementations for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/kevin07696/virtualmerchant/internal/adapters/ports"
)

// MockTransport is a testify mock of ports.Transport
type MockTransport struct {
	mock.Mock
}

// Send records the call and returns the programmed body and error
func (m *MockTransport) Send(ctx context.Context, endpoint string, payload ports.Payload) ([]byte, error) {
	args := m.Called(ctx, endpoint, payload)
	var body []byte
	if b := args.Get(0); b != nil {
		body = b.([]byte)
	}
	return body, args.Error(1)
}

var _ ports.Transport = (*MockTransport)(nil)
