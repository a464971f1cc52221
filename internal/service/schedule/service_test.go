package schedule

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	catalogRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/catalog"
	scheduleRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

type mockSettings struct{ mock.Mock }

func (m *mockSettings) GetSettingsWithHierarchy(ctx context.Context, tenantID int64, resourceID *int64) (*domain.ResourceSettings, error) {
	args := m.Called(ctx, tenantID, resourceID)
	s, _ := args.Get(0).(*domain.ResourceSettings)
	return s, args.Error(1)
}

func (m *mockSettings) Upsert(ctx context.Context, settings *domain.ResourceSettings) (*domain.ResourceSettings, error) {
	args := m.Called(ctx, settings)
	s, _ := args.Get(0).(*domain.ResourceSettings)
	return s, args.Error(1)
}

type mockCatalog struct{ mock.Mock }

func (m *mockCatalog) GetResource(ctx context.Context, tenantID, resourceID int64) (*domain.Resource, error) {
	args := m.Called(ctx, tenantID, resourceID)
	r, _ := args.Get(0).(*domain.Resource)
	return r, args.Error(1)
}

func TestGetEffective(t *testing.T) {
	custom := domain.DefaultWeeklySchedule()
	custom.Sunday = domain.DaySchedule{IsOpen: true, Start: "10:00", End: "14:00"}

	tests := []struct {
		name      string
		settings  *domain.ResourceSettings
		err       error
		wantLevel string
		wantErr   error
		check     func(t *testing.T, resp *models.ScheduleResponse)
	}{
		{
			name:      "resource level",
			settings:  &domain.ResourceSettings{ID: 4, TenantID: 1, ResourceID: ptr.Ptr(int64(5)), GranularityMinutes: 15, Timezone: "UTC", Schedule: &custom},
			wantLevel: models.LevelResource,
			check: func(t *testing.T, resp *models.ScheduleResponse) {
				assert.True(t, resp.Schedule.Sunday.IsOpen)
				assert.Equal(t, types.TimeString("14:00"), resp.Schedule.Sunday.End)
			},
		},
		{
			name:      "tenant level without schedule resolves default",
			settings:  &domain.ResourceSettings{ID: 1, TenantID: 1, GranularityMinutes: 30, Timezone: "UTC"},
			wantLevel: models.LevelTenant,
			check: func(t *testing.T, resp *models.ScheduleResponse) {
				assert.False(t, resp.Schedule.Sunday.IsOpen)
				assert.Equal(t, types.TimeString("18:00"), resp.Schedule.Monday.End)
			},
		},
		{
			name:      "nothing configured",
			err:       scheduleRepo.ErrSettingsNotFound,
			wantLevel: models.LevelDefault,
			check: func(t *testing.T, resp *models.ScheduleResponse) {
				assert.Equal(t, domain.DefaultGranularityMinutes, resp.GranularityMinutes)
				assert.Equal(t, domain.DefaultTimezone, resp.Timezone)
			},
		},
		{
			name:    "repository failure",
			err:     errors.New("timeout"),
			wantErr: ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockSettings{}
			repo.On("GetSettingsWithHierarchy", mock.Anything, int64(1), ptr.Ptr(int64(5))).Return(tt.settings, tt.err)

			resp, err := NewService(repo, &mockCatalog{}, logger.Discard()).GetEffective(context.Background(), 1, ptr.Ptr(int64(5)))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, resp.Level)
			tt.check(t, resp)
		})
	}
}

func TestUpdate_Validation(t *testing.T) {
	broken := domain.DefaultWeeklySchedule()
	broken.Monday.End = "08:00"

	tests := []struct {
		name string
		req  models.UpdateScheduleRequest
	}{
		{name: "granularity does not divide an hour", req: models.UpdateScheduleRequest{GranularityMinutes: 25, Timezone: "UTC"}},
		{name: "granularity too small", req: models.UpdateScheduleRequest{GranularityMinutes: 1, Timezone: "UTC"}},
		{name: "missing timezone", req: models.UpdateScheduleRequest{GranularityMinutes: 30}},
		{name: "unknown timezone", req: models.UpdateScheduleRequest{GranularityMinutes: 30, Timezone: "Mars/Olympus"}},
		{name: "end before start", req: models.UpdateScheduleRequest{GranularityMinutes: 30, Timezone: "UTC", Schedule: &broken}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockSettings{}
			_, err := NewService(repo, &mockCatalog{}, logger.Discard()).Update(context.Background(), 1, &tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
			repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		})
	}
}

func TestUpdate_ResourceLevel(t *testing.T) {
	repo := &mockSettings{}
	catalog := &mockCatalog{}

	catalog.On("GetResource", mock.Anything, int64(1), int64(5)).Return(&domain.Resource{ID: 5, TenantID: 1, IsActive: true}, nil)
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(s *domain.ResourceSettings) bool {
		return s.TenantID == 1 && s.ResourceID != nil && *s.ResourceID == 5 && s.GranularityMinutes == 20
	})).Return(&domain.ResourceSettings{ID: 9, TenantID: 1, ResourceID: ptr.Ptr(int64(5)), GranularityMinutes: 20, Timezone: "UTC"}, nil)

	resp, err := NewService(repo, catalog, logger.Discard()).Update(context.Background(), 1, &models.UpdateScheduleRequest{
		ResourceID: ptr.Ptr(int64(5)), GranularityMinutes: 20, Timezone: "UTC",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), resp.ID)
	assert.Equal(t, models.LevelResource, resp.Level)
	repo.AssertExpectations(t)
}

func TestUpdate_UnknownResource(t *testing.T) {
	repo := &mockSettings{}
	catalog := &mockCatalog{}
	catalog.On("GetResource", mock.Anything, int64(1), int64(77)).Return(nil, catalogRepo.ErrResourceNotFound)

	_, err := NewService(repo, catalog, logger.Discard()).Update(context.Background(), 1, &models.UpdateScheduleRequest{
		ResourceID: ptr.Ptr(int64(77)), GranularityMinutes: 30, Timezone: "UTC",
	})
	assert.ErrorIs(t, err, ErrResourceNotFound)
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestUpdate_TenantLevelSkipsCatalog(t *testing.T) {
	repo := &mockSettings{}
	catalog := &mockCatalog{}
	repo.On("Upsert", mock.Anything, mock.Anything).Return(&domain.ResourceSettings{ID: 1, TenantID: 1, GranularityMinutes: 30, Timezone: "UTC"}, nil)

	resp, err := NewService(repo, catalog, logger.Discard()).Update(context.Background(), 1, &models.UpdateScheduleRequest{
		GranularityMinutes: 30, Timezone: "UTC",
	})
	require.NoError(t, err)
	assert.Equal(t, models.LevelTenant, resp.Level)
	catalog.AssertNotCalled(t, "GetResource", mock.Anything, mock.Anything, mock.Anything)
}
