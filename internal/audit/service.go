package audit

import (
	"context"
	"time"
)

// RepositoryPort defines read and retention access to the trail.
type RepositoryPort interface {
	ListWindow(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// TimelineFilters narrows the decision timeline.
type TimelineFilters struct {
	ActorID  string
	Outcome  string
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

// TimelinePage is one page of the trail plus paging state.
type TimelinePage struct {
	Entries []Entry
	HasNext bool
}

const defaultPageSize = 50

// Service reads the decision trail.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Timeline returns one page of decisions, newest first. It fetches
// one row beyond the page to learn whether a next page exists.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (TimelinePage, error) {
	page := filters.Page
	if page < 1 {
		page = 1
	}
	size := filters.PageSize
	if size < 1 {
		size = defaultPageSize
	}
	offset := (page - 1) * size
	rows, err := s.repo.ListWindow(ctx, filters, size+1, offset)
	if err != nil {
		return TimelinePage{}, err
	}
	hasNext := len(rows) > size
	if hasNext {
		rows = rows[:size]
	}
	return TimelinePage{Entries: rows, HasNext: hasNext}, nil
}

// Purge removes entries older than the cutoff and reports how many
// were dropped. Used by the retention job.
func (s *Service) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.repo.DeleteBefore(ctx, time.Now().Add(-olderThan))
}
