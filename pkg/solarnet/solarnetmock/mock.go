package solarnetmock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/taybkho/CI-CD-Energy/pkg/solarnet"
)

type MockExtractor struct {
	mock.Mock
}

var _ solarnet.Extractor = (*MockExtractor)(nil)

func (m *MockExtractor) Extract(ctx context.Context, query string) (solarnet.Response, error) {
	args := m.Called(ctx, query)
	if len(args) > 0 {
		return args.Get(0).(solarnet.Response), args.Error(1)
	}
	return solarnet.Response{}, nil
}
