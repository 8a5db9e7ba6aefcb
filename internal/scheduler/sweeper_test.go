package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staleCount struct{ total int64 }

func (c *staleCount) RecordStaleSessions(n int64) { c.total += n }

type failingRepo struct{}

func (failingRepo) FailStale(context.Context, time.Time, string) (int64, error) {
	return 0, errors.New("db down")
}

func TestSweep_FailsOnlyIdleRunningSessions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo := store.Negotiations()

	for _, id := range []string{"running", "idle-init", "done"} {
		_, err := repo.Create(ctx, &domain.NegotiationSession{ID: id, CandidateID: "a", JobID: "j", EmployerBudget: 1, CandidateTarget: 1})
		require.NoError(t, err)
	}
	ok, err := repo.Begin(ctx, "running")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = repo.Begin(ctx, "done")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = repo.Finish(ctx, &domain.NegotiationSession{ID: "done", Status: domain.NegotiationRejected})
	require.NoError(t, err)
	require.True(t, ok)

	rec := &staleCount{}
	s, err := NewSweeper(repo, Config{Spec: "@every 1m", MaxAge: 30 * time.Minute}, rec, nil)
	require.NoError(t, err)

	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "fresh sessions are left alone")

	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	n, err = s.Sweep(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.EqualValues(t, 1, rec.total)

	got, err := repo.GetByID(ctx, "running")
	require.NoError(t, err)
	assert.Equal(t, domain.NegotiationFailed, got.Status)
	assert.Equal(t, ReasonStale, got.FailureReason)

	for id, want := range map[string]domain.NegotiationStatus{"idle-init": domain.NegotiationInit, "done": domain.NegotiationRejected} {
		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status, id)
	}
}

func TestSweep_PropagatesErrors(t *testing.T) {
	s, err := NewSweeper(failingRepo{}, Config{Spec: "@every 1m", MaxAge: time.Minute}, nil, nil)
	require.NoError(t, err)
	_, err = s.Sweep(context.Background())
	assert.Error(t, err)
}

func TestNewSweeper_RejectsBadConfig(t *testing.T) {
	_, err := NewSweeper(failingRepo{}, Config{Spec: "@every 1m"}, nil, nil)
	assert.Error(t, err)
	_, err = NewSweeper(failingRepo{}, Config{Spec: "whenever", MaxAge: time.Minute}, nil, nil)
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	s, err := NewSweeper(memory.NewStore().Negotiations(), Config{Spec: "@every 1h", MaxAge: time.Hour}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}
