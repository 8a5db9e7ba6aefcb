package usecase_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/internal/negotiation"
	"swiftjobs-backend/internal/usecase"
	"swiftjobs-backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	employerOffers5000 = `{"message":"We can offer $5,000 a month.","offer":5000,"decision":"none"}`
	candidateAccepts   = `{"message":"That works for me, I accept.","offer":5000,"decision":"accept"}`
	employerRejects    = `{"message":"We will pass on this one.","decision":"reject"}`
)

func (f *fixture) negotiations(t *testing.T, gen *scriptedGenerator, rec usecase.Recorder) domain.NegotiationUsecase {
	t.Helper()
	engine, err := negotiation.NewEngine(gen, negotiation.DefaultConfig(), nil)
	require.NoError(t, err)
	return usecase.NewNegotiationUsecase(usecase.NegotiationDeps{
		Sessions: f.store.Negotiations(),
		Profiles: f.store.Profiles(),
		Jobs:     f.store.Jobs(),
		Scorer:   f.scorer,
		Engine:   engine,
		Recorder: rec,
	})
}

func negotiationFixture(t *testing.T) (*fixture, *domain.Job) {
	f := newFixture(t)
	f.applicant(t, "a1")
	f.employer(t, "e1")
	return f, f.job(t, "e1")
}

func TestNegotiate_HiredWhenOffersOverlap(t *testing.T) {
	f, job := negotiationFixture(t)
	gen := &scriptedGenerator{replies: []string{employerOffers5000, candidateAccepts}}
	rec := &countingRecorder{}
	uc := f.negotiations(t, gen, rec)

	res, err := uc.Negotiate(context.Background(), domain.NegotiationRequest{SessionID: "s1", CandidateID: "a1", JobID: job.ID})
	require.NoError(t, err)

	assert.Equal(t, "s1", res.SessionID)
	assert.Equal(t, domain.VerdictHired, res.Status)
	assert.Equal(t, domain.NegotiationAgreed, res.SessionStatus)
	require.NotNil(t, res.Score)
	assert.Equal(t, 100, *res.Score)
	require.NotNil(t, res.AgreedSalary)
	assert.Equal(t, 5000.0, *res.AgreedSalary)
	require.Len(t, res.Log, 2)
	assert.Equal(t, domain.SenderEmployer, res.Log[0].Sender)
	assert.Equal(t, domain.SenderCandidate, res.Log[1].Sender)
	assert.Equal(t, 1, rec.negs[string(domain.NegotiationAgreed)])

	stored, err := uc.GetResult(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, res, stored)
}

func TestNegotiate_ExplicitRejectIsRejected(t *testing.T) {
	f, job := negotiationFixture(t)
	gen := &scriptedGenerator{replies: []string{employerRejects}}
	uc := f.negotiations(t, gen, nil)

	res, err := uc.Negotiate(context.Background(), domain.NegotiationRequest{CandidateID: "a1", JobID: job.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, domain.VerdictRejected, res.Status)
	assert.Equal(t, domain.NegotiationRejected, res.SessionStatus)
	require.NotNil(t, res.Score)
	assert.Equal(t, 1, gen.callCount())
}

func TestNegotiate_NoAgreementEndsAtMaxTurns(t *testing.T) {
	f, job := negotiationFixture(t)
	gen := &scriptedGenerator{replies: []string{`{"message":"Let us keep talking.","decision":"none"}`}}
	uc := f.negotiations(t, gen, nil)

	res, err := uc.Negotiate(context.Background(), domain.NegotiationRequest{CandidateID: "a1", JobID: job.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictRejected, res.Status)
	assert.Len(t, res.Log, negotiation.DefaultConfig().MaxTurns)
	assert.Equal(t, negotiation.DefaultConfig().MaxTurns, gen.callCount())
}

func TestNegotiate_RequestOverridesBudgetAndTarget(t *testing.T) {
	f, job := negotiationFixture(t)
	gen := &scriptedGenerator{replies: []string{employerRejects}}
	uc := f.negotiations(t, gen, nil)

	_, err := uc.Negotiate(context.Background(), domain.NegotiationRequest{
		SessionID: "s1", CandidateID: "a1", JobID: job.ID,
		EmployerBudget: ptr(7000), CandidateTargetSalary: ptr(6000),
	})
	require.NoError(t, err)

	s, err := f.store.Negotiations().GetByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 7000.0, s.EmployerBudget)
	assert.Equal(t, 6000.0, s.CandidateTarget)
}

func TestNegotiate_RepeatedCallReturnsStoredSession(t *testing.T) {
	f, job := negotiationFixture(t)
	gen := &scriptedGenerator{replies: []string{employerOffers5000, candidateAccepts}}
	uc := f.negotiations(t, gen, nil)
	req := domain.NegotiationRequest{SessionID: "s1", CandidateID: "a1", JobID: job.ID}

	first, err := uc.Negotiate(context.Background(), req)
	require.NoError(t, err)
	second, err := uc.Negotiate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, gen.callCount())
}

// lostInsertRepo hides the first lookup so Negotiate reaches Create after
// another caller has already inserted the session.
type lostInsertRepo struct {
	domain.NegotiationRepository
	hidden atomic.Bool
}

func (r *lostInsertRepo) GetByID(ctx context.Context, id string) (*domain.NegotiationSession, error) {
	if r.hidden.CompareAndSwap(false, true) {
		return nil, domain.ErrNotFound
	}
	return r.NegotiationRepository.GetByID(ctx, id)
}

func TestNegotiate_PendingSessionRunsWithStoredTerms(t *testing.T) {
	f, job := negotiationFixture(t)
	f.applicant(t, "a2")
	ctx := context.Background()
	_, err := f.store.Negotiations().Create(ctx, &domain.NegotiationSession{
		ID: "s1", CandidateID: "a1", JobID: job.ID, EmployerBudget: 1000, CandidateTarget: 9000,
	})
	require.NoError(t, err)

	for name, repo := range map[string]domain.NegotiationRepository{
		"pending":     f.store.Negotiations(),
		"lost insert": &lostInsertRepo{NegotiationRepository: f.store.Negotiations()},
	} {
		t.Run(name, func(t *testing.T) {
			gen := &scriptedGenerator{replies: []string{employerRejects}}
			uc := usecase.NewNegotiationUsecase(usecase.NegotiationDeps{
				Sessions: repo, Profiles: f.store.Profiles(), Jobs: f.store.Jobs(), Scorer: f.scorer,
				Engine: mustEngine(t, gen),
			})

			_, err := uc.Negotiate(ctx, domain.NegotiationRequest{
				SessionID: "s1", CandidateID: "a2", JobID: job.ID,
				EmployerBudget: ptr(5000), CandidateTargetSalary: ptr(5000),
			})
			assertKind(t, err, apperror.KindConflict)

			s, err := f.store.Negotiations().GetByID(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, domain.NegotiationInit, s.Status)
			assert.Zero(t, gen.callCount())
		})
	}

	gen := &scriptedGenerator{replies: []string{employerOffers5000, candidateAccepts, employerRejects}}
	uc := usecase.NewNegotiationUsecase(usecase.NegotiationDeps{
		Sessions: &lostInsertRepo{NegotiationRepository: f.store.Negotiations()},
		Profiles: f.store.Profiles(), Jobs: f.store.Jobs(), Scorer: f.scorer,
		Engine: mustEngine(t, gen),
	})
	res, err := uc.Negotiate(ctx, domain.NegotiationRequest{
		SessionID: "s1", CandidateID: "a1", JobID: job.ID,
		EmployerBudget: ptr(5000), CandidateTargetSalary: ptr(5000),
	})
	require.NoError(t, err)
	// an accept of 5000 does not fit the stored 1000 budget
	assert.Equal(t, domain.NegotiationRejected, res.SessionStatus)
	assert.Nil(t, res.AgreedSalary)

	s, err := f.store.Negotiations().GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a1", s.CandidateID)
	assert.Equal(t, 1000.0, s.EmployerBudget)
	assert.Equal(t, 9000.0, s.CandidateTarget)
}

func mustEngine(t *testing.T, gen *scriptedGenerator) *negotiation.Engine {
	t.Helper()
	engine, err := negotiation.NewEngine(gen, negotiation.DefaultConfig(), nil)
	require.NoError(t, err)
	return engine
}

func TestNegotiate_ConcurrentStartsRunOnce(t *testing.T) {
	f, job := negotiationFixture(t)
	gen := &scriptedGenerator{replies: []string{employerOffers5000, candidateAccepts}}
	uc := f.negotiations(t, gen, nil)
	req := domain.NegotiationRequest{SessionID: "s1", CandidateID: "a1", JobID: job.ID}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := uc.Negotiate(context.Background(), req)
			assert.NoError(t, err)
			if assert.NotNil(t, res) {
				assert.Equal(t, "s1", res.SessionID)
			}
		}()
	}
	wg.Wait()

	s, err := f.store.Negotiations().GetByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.NegotiationAgreed, s.Status)
	assert.Len(t, s.Turns, 2)
	assert.Equal(t, 2, gen.callCount())
}

func TestNegotiate_GeneratorFailureKeepsData(t *testing.T) {
	f, job := negotiationFixture(t)
	gen := &scriptedGenerator{
		replies: []string{employerOffers5000},
		gate: func(_ context.Context, call int) error {
			if call > 1 {
				return errors.New("upstream 503")
			}
			return nil
		},
	}
	uc := f.negotiations(t, gen, nil)

	res, err := uc.Negotiate(context.Background(), domain.NegotiationRequest{SessionID: "s1", CandidateID: "a1", JobID: job.ID})
	assertKind(t, err, apperror.KindExternalService)
	require.NotNil(t, res)
	assert.Equal(t, domain.NegotiationFailed, res.SessionStatus)
	assert.Nil(t, res.Score)
	assert.NotEmpty(t, res.Error)
	assert.Len(t, res.Log, 1)

	_, err = uc.GetResult(context.Background(), "s1")
	assertKind(t, err, apperror.KindExternalService)
}

func TestNegotiate_Validation(t *testing.T) {
	f, job := negotiationFixture(t)
	uc := f.negotiations(t, &scriptedGenerator{replies: []string{employerRejects}}, nil)
	ctx := context.Background()

	_, err := uc.Negotiate(ctx, domain.NegotiationRequest{JobID: job.ID})
	assertKind(t, err, apperror.KindValidation)

	_, err = uc.Negotiate(ctx, domain.NegotiationRequest{CandidateID: "e1", JobID: job.ID})
	assertKind(t, err, apperror.KindValidation)

	_, err = uc.Negotiate(ctx, domain.NegotiationRequest{CandidateID: "a1", JobID: "missing"})
	assertKind(t, err, apperror.KindNotFound)

	open, err := f.jobs.CreateJob(ctx, "e1", &domain.Job{Title: "Open budget", Description: "Go"})
	require.NoError(t, err)
	_, err = uc.Negotiate(ctx, domain.NegotiationRequest{CandidateID: "a1", JobID: open.ID})
	assertKind(t, err, apperror.KindValidation)
}

func TestCancel_StopsRunningSession(t *testing.T) {
	f, job := negotiationFixture(t)
	started := make(chan struct{})
	gen := &scriptedGenerator{
		replies: []string{employerOffers5000},
		gate: func(ctx context.Context, call int) error {
			if call == 2 {
				close(started)
				<-ctx.Done()
				return ctx.Err()
			}
			return nil
		},
	}
	uc := f.negotiations(t, gen, nil)

	type outcome struct {
		res *domain.NegotiationResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := uc.Negotiate(context.Background(), domain.NegotiationRequest{SessionID: "s1", CandidateID: "a1", JobID: job.ID})
		done <- outcome{res, err}
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("negotiation never reached the second turn")
	}
	require.NoError(t, uc.Cancel(context.Background(), "s1"))

	var out outcome
	select {
	case out = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("negotiation did not stop after cancel")
	}
	assertKind(t, out.err, apperror.KindCancelled)
	require.NotNil(t, out.res)
	assert.Equal(t, domain.NegotiationFailed, out.res.SessionStatus)
	assert.Equal(t, negotiation.ReasonCancelled, out.res.Error)
	assert.Len(t, out.res.Log, 1)
	assert.Equal(t, 2, gen.callCount())

	err := uc.Cancel(context.Background(), "s1")
	assertKind(t, err, apperror.KindConflict)
}

func TestCancel_UnknownSession(t *testing.T) {
	f, _ := negotiationFixture(t)
	uc := f.negotiations(t, &scriptedGenerator{replies: []string{employerRejects}}, nil)
	err := uc.Cancel(context.Background(), "nope")
	assertKind(t, err, apperror.KindNotFound)
}
