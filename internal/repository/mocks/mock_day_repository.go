package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/iimmbipul/whattocook/internal/model"
	"github.com/iimmbipul/whattocook/internal/repository"
)

type MockDayRepository struct {
	mock.Mock
}

func (m *MockDayRepository) Get(ctx context.Context, key string) (*model.DayDocument, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DayDocument), args.Error(1)
}

func (m *MockDayRepository) Put(ctx context.Context, doc *model.DayDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDayRepository) MergeFields(ctx context.Context, key string, fields map[string]any) error {
	args := m.Called(ctx, key, fields)
	return args.Error(0)
}

func (m *MockDayRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockDayRepository) ListAll(ctx context.Context) ([]model.DayDocument, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DayDocument), args.Error(1)
}

func (m *MockDayRepository) RunBatch(ctx context.Context, ops []repository.BatchOp) error {
	args := m.Called(ctx, ops)
	return args.Error(0)
}
