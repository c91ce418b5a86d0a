package webui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/resopt/internal/repository"
	"github.com/resopt/internal/storage"
	"github.com/resopt/pkg/model"
)

// ReportService loads pass reports for the API, preferring the
// database and falling back to the JSON artifact in object storage.
// Loaded reports are cached; reports are immutable once a job ends.
type ReportService struct {
	reports repository.ReportRepository
	store   storage.Storage
	cache   sync.Map // jobUUID -> *model.PassReport
}

// NewReportService creates a new ReportService.
func NewReportService(reports repository.ReportRepository, store storage.Storage) *ReportService {
	return &ReportService{
		reports: reports,
		store:   store,
	}
}

// Get returns the pass report for a job.
func (s *ReportService) Get(ctx context.Context, jobUUID string) (*model.PassReport, error) {
	if cached, ok := s.cache.Load(jobUUID); ok {
		return cached.(*model.PassReport), nil
	}

	report, err := s.load(ctx, jobUUID)
	if err != nil {
		return nil, err
	}

	s.cache.Store(jobUUID, report)
	return report, nil
}

// Invalidate drops the cached report for a job, forcing a reload.
func (s *ReportService) Invalidate(jobUUID string) {
	s.cache.Delete(jobUUID)
}

func (s *ReportService) load(ctx context.Context, jobUUID string) (*model.PassReport, error) {
	if s.reports != nil {
		report, err := s.reports.GetReportByJobUUID(ctx, jobUUID)
		if err == nil && report != nil {
			return report, nil
		}
	}

	if s.store == nil {
		return nil, fmt.Errorf("report for job %s not found", jobUUID)
	}

	rc, err := s.store.Download(ctx, storage.ReportKeyFor(jobUUID))
	if err != nil {
		return nil, fmt.Errorf("report for job %s not found: %w", jobUUID, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read report for job %s: %w", jobUUID, err)
	}

	var report model.PassReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report for job %s: %w", jobUUID, err)
	}

	return &report, nil
}
