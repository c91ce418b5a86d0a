// Package mock provides testify mocks for the repository and storage
// interfaces.
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/resopt/internal/repository"
	"github.com/resopt/pkg/model"
)

// MockJobRepository is a mock implementation of the JobRepository interface.
type MockJobRepository struct {
	mock.Mock
}

// GetPendingJobs mocks the GetPendingJobs method.
func (m *MockJobRepository) GetPendingJobs(ctx context.Context, limit int) ([]*model.Job, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Job), args.Error(1)
}

// GetJobByID mocks the GetJobByID method.
func (m *MockJobRepository) GetJobByID(ctx context.Context, id int64) (*model.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

// GetJobByUUID mocks the GetJobByUUID method.
func (m *MockJobRepository) GetJobByUUID(ctx context.Context, uuid string) (*model.Job, error) {
	args := m.Called(ctx, uuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

// UpdateRemapStatus mocks the UpdateRemapStatus method.
func (m *MockJobRepository) UpdateRemapStatus(ctx context.Context, id int64, status model.RemapStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// UpdateRemapStatusWithInfo mocks the UpdateRemapStatusWithInfo method.
func (m *MockJobRepository) UpdateRemapStatusWithInfo(ctx context.Context, id int64, status model.RemapStatus, info string) error {
	args := m.Called(ctx, id, status, info)
	return args.Error(0)
}

// LockJobForRemap mocks the LockJobForRemap method.
func (m *MockJobRepository) LockJobForRemap(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// ExpectPendingJobs sets up an expectation for GetPendingJobs.
func (m *MockJobRepository) ExpectPendingJobs(jobs []*model.Job, err error) *mock.Call {
	return m.On("GetPendingJobs", mock.Anything, mock.Anything).Return(jobs, err)
}

// ExpectLock sets up an expectation for LockJobForRemap.
func (m *MockJobRepository) ExpectLock(id int64, claimed bool, err error) *mock.Call {
	return m.On("LockJobForRemap", mock.Anything, id).Return(claimed, err)
}

// ExpectStatusUpdate sets up an expectation for UpdateRemapStatus.
func (m *MockJobRepository) ExpectStatusUpdate(id int64, status model.RemapStatus, err error) *mock.Call {
	return m.On("UpdateRemapStatus", mock.Anything, id, status).Return(err)
}

// MockReportRepository is a mock implementation of the ReportRepository interface.
type MockReportRepository struct {
	mock.Mock
}

// SaveReport mocks the SaveReport method.
func (m *MockReportRepository) SaveReport(ctx context.Context, report *model.PassReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

// GetReportByJobUUID mocks the GetReportByJobUUID method.
func (m *MockReportRepository) GetReportByJobUUID(ctx context.Context, jobUUID string) (*model.PassReport, error) {
	args := m.Called(ctx, jobUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PassReport), args.Error(1)
}

// UpdateReport mocks the UpdateReport method.
func (m *MockReportRepository) UpdateReport(ctx context.Context, report *model.PassReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

// MockSuggestionRepository is a mock implementation of the SuggestionRepository interface.
type MockSuggestionRepository struct {
	mock.Mock
}

// SaveSuggestions mocks the SaveSuggestions method.
func (m *MockSuggestionRepository) SaveSuggestions(ctx context.Context, suggestions []model.Suggestion) error {
	args := m.Called(ctx, suggestions)
	return args.Error(0)
}

// GetSuggestionsByJobUUID mocks the GetSuggestionsByJobUUID method.
func (m *MockSuggestionRepository) GetSuggestionsByJobUUID(ctx context.Context, jobUUID string) ([]model.Suggestion, error) {
	args := m.Called(ctx, jobUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Suggestion), args.Error(1)
}

// GetSuggestionRules mocks the GetSuggestionRules method.
func (m *MockSuggestionRepository) GetSuggestionRules(ctx context.Context) ([]model.SuggestionRule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SuggestionRule), args.Error(1)
}

// ExpectRules sets up an expectation for GetSuggestionRules.
func (m *MockSuggestionRepository) ExpectRules(rules []model.SuggestionRule, err error) *mock.Call {
	return m.On("GetSuggestionRules", mock.Anything).Return(rules, err)
}

// MockBatchRepository is a mock implementation of the BatchRepository interface.
type MockBatchRepository struct {
	mock.Mock
}

// GetBatch mocks the GetBatch method.
func (m *MockBatchRepository) GetBatch(ctx context.Context, batchUUID string) (*repository.Batch, error) {
	args := m.Called(ctx, batchUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Batch), args.Error(1)
}

// UpdateBatchOutcome mocks the UpdateBatchOutcome method.
func (m *MockBatchRepository) UpdateBatchOutcome(ctx context.Context, batchUUID string, jobUUID string, outcome *model.JobOutcome) error {
	args := m.Called(ctx, batchUUID, jobUUID, outcome)
	return args.Error(0)
}

// UpdateBatchStatus mocks the UpdateBatchStatus method.
func (m *MockBatchRepository) UpdateBatchStatus(ctx context.Context, batchUUID string, status model.RemapStatus) error {
	args := m.Called(ctx, batchUUID, status)
	return args.Error(0)
}

// GetIncompleteJobCount mocks the GetIncompleteJobCount method.
func (m *MockBatchRepository) GetIncompleteJobCount(ctx context.Context, batchUUID string) (int, error) {
	args := m.Called(ctx, batchUUID)
	return args.Int(0), args.Error(1)
}

// CheckAndCompleteIfReady mocks the CheckAndCompleteIfReady method.
func (m *MockBatchRepository) CheckAndCompleteIfReady(ctx context.Context, batchUUID string) error {
	args := m.Called(ctx, batchUUID)
	return args.Error(0)
}
