package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	entries []Entry
	cutoff  time.Time
	err     error
}

func (s *stubRepo) ListWindow(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, error) {
	if s.err != nil {
		return nil, s.err
	}
	if offset >= len(s.entries) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.entries) {
		end = len(s.entries)
	}
	return s.entries[offset:end], nil
}

func (s *stubRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.cutoff = cutoff
	var n int64
	for _, e := range s.entries {
		if e.OccurredAt.Before(cutoff) {
			n++
		}
	}
	return n, nil
}

func trail(n int) []Entry {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]Entry, n)
	for i := range out {
		outcome := "allow"
		if i%2 == 1 {
			outcome = "deny"
		}
		out[i] = Entry{ID: int64(n - i), ActorID: "u1", Outcome: outcome, OccurredAt: base.Add(-time.Duration(i) * time.Minute)}
	}
	return out
}

func TestTimelinePaging(t *testing.T) {
	repo := &stubRepo{entries: trail(5)}
	svc := NewService(repo)

	page, err := svc.Timeline(context.Background(), TimelineFilters{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)
	assert.True(t, page.HasNext)
	assert.Equal(t, int64(5), page.Entries[0].ID)

	page, err = svc.Timeline(context.Background(), TimelineFilters{Page: 3, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.False(t, page.HasNext)
}

func TestTimelineDefaults(t *testing.T) {
	repo := &stubRepo{entries: trail(3)}
	svc := NewService(repo)

	page, err := svc.Timeline(context.Background(), TimelineFilters{Page: 0, PageSize: 0})
	require.NoError(t, err)
	assert.Len(t, page.Entries, 3)
	assert.False(t, page.HasNext)
}

func TestPurge(t *testing.T) {
	repo := &stubRepo{entries: trail(10)}
	svc := NewService(repo)

	dropped, err := svc.Purge(context.Background(), 5*time.Minute)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, dropped, int64(0))
	assert.WithinDuration(t, time.Now().Add(-5*time.Minute), repo.cutoff, time.Second)
}
