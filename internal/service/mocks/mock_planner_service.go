package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/iimmbipul/whattocook/internal/model"
	"github.com/iimmbipul/whattocook/internal/service"
)

// MockPlannerService is a testify mock of service.PlannerService.
type MockPlannerService struct {
	mock.Mock
}

func (m *MockPlannerService) GetByDate(ctx context.Context, date string) (*model.DayDocument, error) {
	args := m.Called(ctx, date)
	var doc *model.DayDocument
	if v := args.Get(0); v != nil {
		doc = v.(*model.DayDocument)
	}
	return doc, args.Error(1)
}

func (m *MockPlannerService) ListDays(ctx context.Context) (*service.DayListResult, error) {
	args := m.Called(ctx)
	var res *service.DayListResult
	if v := args.Get(0); v != nil {
		res = v.(*service.DayListResult)
	}
	return res, args.Error(1)
}

func (m *MockPlannerService) Update(ctx context.Context, key string, patch model.DayPatch) error {
	args := m.Called(ctx, key, patch)
	return args.Error(0)
}

func (m *MockPlannerService) ToggleAttendance(ctx context.Context, dayKey, slot, userID string, skipping bool) error {
	args := m.Called(ctx, dayKey, slot, userID, skipping)
	return args.Error(0)
}

func (m *MockPlannerService) AssignResponsibility(ctx context.Context, dayKey, slot, userID string) error {
	args := m.Called(ctx, dayKey, slot, userID)
	return args.Error(0)
}

func (m *MockPlannerService) BulkAssignResponsibility(ctx context.Context, dayKeys []string, updates model.ResponsibilityPatch) (int, error) {
	args := m.Called(ctx, dayKeys, updates)
	return args.Int(0), args.Error(1)
}

func (m *MockPlannerService) MigrateToCurrentMonth(ctx context.Context) (service.MigrationResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(service.MigrationResult), args.Error(1)
}

func (m *MockPlannerService) SnapshotURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockPlannerService) MealsForUser(ctx context.Context, userID string) (*service.UserMeals, error) {
	args := m.Called(ctx, userID)
	var res *service.UserMeals
	if v := args.Get(0); v != nil {
		res = v.(*service.UserMeals)
	}
	return res, args.Error(1)
}
