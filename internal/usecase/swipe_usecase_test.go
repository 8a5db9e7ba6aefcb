package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/internal/swipe"
	"swiftjobs-backend/internal/usecase"
	"swiftjobs-backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	mu      sync.Mutex
	swipes  int
	matches int
	negs    map[string]int
}

func (r *countingRecorder) RecordSwipe(string, string) {
	r.mu.Lock()
	r.swipes++
	r.mu.Unlock()
}

func (r *countingRecorder) RecordMatch() {
	r.mu.Lock()
	r.matches++
	r.mu.Unlock()
}

func (r *countingRecorder) RecordNegotiation(status string, _ int) {
	r.mu.Lock()
	if r.negs == nil {
		r.negs = make(map[string]int)
	}
	r.negs[status]++
	r.mu.Unlock()
}

func (f *fixture) swipes(n domain.MatchNotifier, rec usecase.Recorder) domain.SwipeUsecase {
	return usecase.NewSwipeUsecase(usecase.SwipeDeps{
		Swipes:   f.store.Swipes(),
		Matches:  f.store.Matches(),
		Jobs:     f.store.Jobs(),
		Profiles: f.store.Profiles(),
		Scorer:   f.scorer,
		Notifier: n,
		Recorder: rec,
	})
}

func applicantLike(applicantID, jobID string) domain.SwipeCommand {
	return domain.SwipeCommand{ActorID: applicantID, TargetID: jobID, ActorRole: domain.RoleApplicant, Action: domain.ActionLike}
}

func employerSwipe(employerID, applicantID, jobID string, action domain.SwipeAction) domain.SwipeCommand {
	return domain.SwipeCommand{ActorID: employerID, TargetID: applicantID, JobID: jobID, ActorRole: domain.RoleEmployer, Action: action}
}

// expectNotifications waits for exactly n notifications.
func expectNotifications(t *testing.T, n *MockNotifier, want int) []string {
	t.Helper()
	var ids []string
	for len(ids) < want {
		select {
		case id := <-n.calls:
			ids = append(ids, id)
		case <-time.After(2 * time.Second):
			t.Fatalf("got %d notifications, want %d", len(ids), want)
		}
	}
	select {
	case id := <-n.calls:
		t.Fatalf("unexpected extra notification for %s", id)
	case <-time.After(50 * time.Millisecond):
	}
	return ids
}

func TestRecordSwipe_MutualLikeCreatesMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.applicant(t, "a1")
	f.employer(t, "e1")
	job := f.job(t, "e1")

	notifier := newMockNotifier(nil)
	rec := &countingRecorder{}
	uc := f.swipes(notifier, rec)

	res, err := uc.RecordSwipe(ctx, applicantLike("a1", job.ID))
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.False(t, res.IsMatch)

	state, err := uc.PairState(ctx, "a1", job.ID)
	require.NoError(t, err)
	assert.Equal(t, string(swipe.StateApplicantLiked), state)

	res, err = uc.RecordSwipe(ctx, employerSwipe("e1", "a1", job.ID, domain.ActionLike))
	require.NoError(t, err)
	assert.True(t, res.IsMatch)
	require.NotEmpty(t, res.MatchID)

	ids := expectNotifications(t, notifier, 1)
	assert.Equal(t, res.MatchID, ids[0])

	matches, err := uc.ListMatches(ctx, domain.MatchFilter{JobID: job.ID})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, "a1", m.ApplicantID)
	require.NotNil(t, m.MatchScore)
	assert.Equal(t, 100, *m.MatchScore)
	assert.NotNil(t, m.ApplicantLikedAt)
	assert.NotNil(t, m.EmployerLikedAt)
	assert.NotNil(t, m.MatchedAt)

	state, err = uc.PairState(ctx, "a1", job.ID)
	require.NoError(t, err)
	assert.Equal(t, string(swipe.StateMatched), state)

	assert.Equal(t, 2, rec.swipes)
	assert.Equal(t, 1, rec.matches)
}

func TestRecordSwipe_RepeatsAreIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.applicant(t, "a1")
	f.employer(t, "e1")
	job := f.job(t, "e1")
	notifier := newMockNotifier(nil)
	uc := f.swipes(notifier, nil)

	_, err := uc.RecordSwipe(ctx, applicantLike("a1", job.ID))
	require.NoError(t, err)
	res, err := uc.RecordSwipe(ctx, applicantLike("a1", job.ID))
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.False(t, res.IsMatch)

	first, err := uc.RecordSwipe(ctx, employerSwipe("e1", "a1", job.ID, domain.ActionLike))
	require.NoError(t, err)
	again, err := uc.RecordSwipe(ctx, employerSwipe("e1", "a1", job.ID, domain.ActionLike))
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.True(t, again.IsMatch)
	assert.Equal(t, first.MatchID, again.MatchID)

	expectNotifications(t, notifier, 1)
}

func TestRecordSwipe_ConcurrentMutualLikesCreateOneMatch(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newFixture(t)
		ctx := context.Background()
		f.applicant(t, "a1")
		f.employer(t, "e1")
		job := f.job(t, "e1")
		notifier := newMockNotifier(nil)
		uc := f.swipes(notifier, nil)

		var wg sync.WaitGroup
		results := make([]*domain.SwipeResult, 2)
		cmds := []domain.SwipeCommand{
			applicantLike("a1", job.ID),
			employerSwipe("e1", "a1", job.ID, domain.ActionLike),
		}
		for k := range cmds {
			wg.Add(1)
			go func(k int) {
				defer wg.Done()
				res, err := uc.RecordSwipe(ctx, cmds[k])
				assert.NoError(t, err)
				results[k] = res
			}(k)
		}
		wg.Wait()

		matches, err := uc.ListMatches(ctx, domain.MatchFilter{ApplicantID: "a1"})
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.True(t, results[0].IsMatch || results[1].IsMatch)
		for _, r := range results {
			if r.IsMatch {
				assert.Equal(t, matches[0].ID, r.MatchID)
			}
		}
		expectNotifications(t, notifier, 1)
	}
}

func TestRecordSwipe_OnlyLikedApplicantMatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.applicant(t, "a1")
	f.applicant(t, "a2")
	f.employer(t, "e1")
	job := f.job(t, "e1")
	notifier := newMockNotifier(nil)
	uc := f.swipes(notifier, nil)

	for _, id := range []string{"a1", "a2"} {
		_, err := uc.RecordSwipe(ctx, applicantLike(id, job.ID))
		require.NoError(t, err)
	}
	res, err := uc.RecordSwipe(ctx, employerSwipe("e1", "a1", job.ID, domain.ActionLike))
	require.NoError(t, err)
	assert.True(t, res.IsMatch)

	matches, err := uc.ListMatches(ctx, domain.MatchFilter{JobID: job.ID})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a1", matches[0].ApplicantID)

	state, err := uc.PairState(ctx, "a2", job.ID)
	require.NoError(t, err)
	assert.Equal(t, string(swipe.StateApplicantLiked), state)
	expectNotifications(t, notifier, 1)
}

func TestRecordSwipe_TwoApplicantsMatchOnEitherOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.applicant(t, "a1")
	f.applicant(t, "a2")
	f.employer(t, "e1")
	job := f.job(t, "e1")
	notifier := newMockNotifier(nil)
	rec := &countingRecorder{}
	uc := f.swipes(notifier, rec)

	// a1 likes before the employer does
	res, err := uc.RecordSwipe(ctx, applicantLike("a1", job.ID))
	require.NoError(t, err)
	assert.False(t, res.IsMatch)
	first, err := uc.RecordSwipe(ctx, employerSwipe("e1", "a1", job.ID, domain.ActionLike))
	require.NoError(t, err)
	require.True(t, first.IsMatch)

	// a2 likes after the employer does
	res, err = uc.RecordSwipe(ctx, employerSwipe("e1", "a2", job.ID, domain.ActionLike))
	require.NoError(t, err)
	assert.False(t, res.IsMatch)
	second, err := uc.RecordSwipe(ctx, applicantLike("a2", job.ID))
	require.NoError(t, err)
	require.True(t, second.IsMatch)
	assert.NotEqual(t, first.MatchID, second.MatchID)

	again, err := uc.RecordSwipe(ctx, applicantLike("a2", job.ID))
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.True(t, again.IsMatch)
	assert.Equal(t, second.MatchID, again.MatchID)

	matches, err := uc.ListMatches(ctx, domain.MatchFilter{JobID: job.ID})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	ids := expectNotifications(t, notifier, 2)
	assert.ElementsMatch(t, []string{first.MatchID, second.MatchID}, ids)
	assert.Equal(t, 2, rec.matches)
}

func TestRecordSwipe_DislikeAfterMatchKeepsMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.applicant(t, "a1")
	f.employer(t, "e1")
	job := f.job(t, "e1")
	uc := f.swipes(nil, nil)

	_, err := uc.RecordSwipe(ctx, applicantLike("a1", job.ID))
	require.NoError(t, err)
	matched, err := uc.RecordSwipe(ctx, employerSwipe("e1", "a1", job.ID, domain.ActionLike))
	require.NoError(t, err)
	require.True(t, matched.IsMatch)

	res, err := uc.RecordSwipe(ctx, employerSwipe("e1", "a1", job.ID, domain.ActionDislike))
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.True(t, res.IsMatch)
	assert.Equal(t, matched.MatchID, res.MatchID)

	dislike := applicantLike("a1", job.ID)
	dislike.Action = domain.ActionDislike
	res, err = uc.RecordSwipe(ctx, dislike)
	require.NoError(t, err)
	assert.True(t, res.IsMatch)
	assert.Equal(t, matched.MatchID, res.MatchID)

	state, err := uc.PairState(ctx, "a1", job.ID)
	require.NoError(t, err)
	assert.Equal(t, string(swipe.StateMatched), state)
}

func TestRecordSwipe_ChangeOfMind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.applicant(t, "a1")
	f.employer(t, "e1")
	job := f.job(t, "e1")
	uc := f.swipes(nil, nil)

	dislike := applicantLike("a1", job.ID)
	dislike.Action = domain.ActionDislike
	_, err := uc.RecordSwipe(ctx, dislike)
	require.NoError(t, err)

	state, err := uc.PairState(ctx, "a1", job.ID)
	require.NoError(t, err)
	assert.Equal(t, string(swipe.StateDisliked), state)

	_, err = uc.RecordSwipe(ctx, employerSwipe("e1", "a1", job.ID, domain.ActionLike))
	require.NoError(t, err)
	res, err := uc.RecordSwipe(ctx, applicantLike("a1", job.ID))
	require.NoError(t, err)
	assert.True(t, res.IsMatch)
}

func TestRecordSwipe_NotifierFailureDoesNotFailSwipe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.applicant(t, "a1")
	f.employer(t, "e1")
	job := f.job(t, "e1")
	notifier := newMockNotifier(errors.New("redis down"))
	uc := f.swipes(notifier, nil)

	_, err := uc.RecordSwipe(ctx, employerSwipe("e1", "a1", job.ID, domain.ActionLike))
	require.NoError(t, err)
	res, err := uc.RecordSwipe(ctx, applicantLike("a1", job.ID))
	require.NoError(t, err)
	assert.True(t, res.IsMatch)
	expectNotifications(t, notifier, 1)

	_, err = f.store.Matches().GetByPair(ctx, "a1", job.ID)
	assert.NoError(t, err)
}

func TestRecordSwipe_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.applicant(t, "a1")
	f.applicant(t, "a2")
	f.employer(t, "e1")
	f.employer(t, "e2")
	job := f.job(t, "e1")
	uc := f.swipes(nil, nil)

	tests := []struct {
		name string
		cmd  domain.SwipeCommand
		kind apperror.Kind
	}{
		{"unknown role", domain.SwipeCommand{ActorID: "a1", TargetID: job.ID, ActorRole: "admin", Action: domain.ActionLike}, apperror.KindValidation},
		{"unknown action", domain.SwipeCommand{ActorID: "a1", TargetID: job.ID, ActorRole: domain.RoleApplicant, Action: "superlike"}, apperror.KindValidation},
		{"missing target", domain.SwipeCommand{ActorID: "a1", ActorRole: domain.RoleApplicant, Action: domain.ActionLike}, apperror.KindValidation},
		{"applicant on applicant", applicantLike("a1", "a2"), apperror.KindValidation},
		{"applicant on missing job", applicantLike("a1", "no-such-job"), apperror.KindNotFound},
		{"role mismatch", domain.SwipeCommand{ActorID: "a1", TargetID: job.ID, ActorRole: domain.RoleEmployer, JobID: job.ID, Action: domain.ActionLike}, apperror.KindValidation},
		{"employer without job", employerSwipe("e1", "a1", "", domain.ActionLike), apperror.KindValidation},
		{"employer on foreign job", employerSwipe("e2", "a1", job.ID, domain.ActionLike), apperror.KindForbidden},
		{"employer on employer", employerSwipe("e1", "e2", job.ID, domain.ActionLike), apperror.KindValidation},
		{"unknown actor", applicantLike("ghost", job.ID), apperror.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.RecordSwipe(ctx, tt.cmd)
			assertKind(t, err, tt.kind)
		})
	}
}

func TestRecordSwipe_AcceptsLegacyRoleNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.applicant(t, "a1")
	f.employer(t, "e1")
	job := f.job(t, "e1")
	uc := f.swipes(nil, nil)

	res, err := uc.RecordSwipe(ctx, domain.SwipeCommand{ActorID: "a1", TargetID: job.ID, ActorRole: "candidate", Action: "LIKE"})
	require.NoError(t, err)
	assert.True(t, res.Created)

	res, err = uc.RecordSwipe(ctx, domain.SwipeCommand{ActorID: "e1", TargetID: "a1", JobID: job.ID, ActorRole: "hr", Action: "like"})
	require.NoError(t, err)
	assert.True(t, res.IsMatch)
}

func TestRecordSwipe_RejectsOtherCaller(t *testing.T) {
	f := newFixture(t)
	f.applicant(t, "a1")
	f.employer(t, "e1")
	job := f.job(t, "e1")
	uc := f.swipes(nil, nil)

	ctx := context.WithValue(context.Background(), domain.KeyUserID, "e1")
	_, err := uc.RecordSwipe(ctx, applicantLike("a1", job.ID))
	assertKind(t, err, apperror.KindForbidden)
}

func TestListMatches_RequiresFilter(t *testing.T) {
	f := newFixture(t)
	_, err := f.swipes(nil, nil).ListMatches(context.Background(), domain.MatchFilter{})
	assertKind(t, err, apperror.KindValidation)
}
