package usecase

import (
	"context"
	"strings"
	"sync"

	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/internal/negotiation"
	"swiftjobs-backend/internal/scoring"
	"swiftjobs-backend/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type negotiationUsecase struct {
	sessionRepo domain.NegotiationRepository
	profileRepo domain.ProfileRepository
	jobRepo     domain.JobRepository
	scorer      *scoring.Scorer
	engine      *negotiation.Engine
	recorder    Recorder
	log         *zap.Logger

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

type NegotiationDeps struct {
	Sessions domain.NegotiationRepository
	Profiles domain.ProfileRepository
	Jobs     domain.JobRepository
	Scorer   *scoring.Scorer
	Engine   *negotiation.Engine
	Recorder Recorder
	Log      *zap.Logger
}

func NewNegotiationUsecase(d NegotiationDeps) domain.NegotiationUsecase {
	u := &negotiationUsecase{
		sessionRepo: d.Sessions,
		profileRepo: d.Profiles,
		jobRepo:     d.Jobs,
		scorer:      d.Scorer,
		engine:      d.Engine,
		recorder:    d.Recorder,
		log:         d.Log,
		running:     make(map[string]context.CancelFunc),
	}
	if u.recorder == nil {
		u.recorder = nopRecorder{}
	}
	if u.log == nil {
		u.log = zap.NewNop()
	}
	return u
}

// Negotiate runs a session at most once. A repeated call with the same
// session id returns the stored state instead of starting another run; a
// stored session that never started runs with its own terms.
func (u *negotiationUsecase) Negotiate(ctx context.Context, req domain.NegotiationRequest) (*domain.NegotiationResult, error) {
	req.CandidateID = strings.TrimSpace(req.CandidateID)
	req.JobID = strings.TrimSpace(req.JobID)
	if req.CandidateID == "" || req.JobID == "" {
		return nil, apperror.Validation("candidateId and jobId are required")
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	var stored *domain.NegotiationSession
	if existing, err := u.sessionRepo.GetByID(ctx, req.SessionID); err == nil {
		if existing.Status != domain.NegotiationInit {
			return u.resultOf(existing)
		}
		stored = existing
	} else if err != domain.ErrNotFound {
		return nil, err
	}
	if err := sameParties(stored, req); err != nil {
		return nil, err
	}

	profile, err := u.profileRepo.GetByID(ctx, req.CandidateID)
	if err != nil {
		return nil, notFoundOr(err, "Candidate profile not found")
	}
	if profile.Role != domain.RoleApplicant {
		return nil, apperror.Validation("candidateId must refer to an applicant")
	}
	job, err := u.jobRepo.GetByID(ctx, req.JobID)
	if err != nil {
		return nil, notFoundOr(err, "Job not found")
	}

	session := stored
	if session == nil {
		budget := firstPositive(req.EmployerBudget, job.BudgetMax)
		if budget == nil {
			return nil, apperror.Validation("employerBudget is required when the job has no budget_max")
		}
		target := firstPositive(req.CandidateTargetSalary, profile.SalaryExpectation)
		if target == nil {
			return nil, apperror.Validation("candidateTargetSalary is required when the profile has no salary_expectation")
		}
		session = &domain.NegotiationSession{
			ID:              req.SessionID,
			CandidateID:     req.CandidateID,
			JobID:           req.JobID,
			EmployerBudget:  *budget,
			CandidateTarget: *target,
		}
		created, err := u.sessionRepo.Create(ctx, session)
		if err != nil {
			return nil, err
		}
		if !created {
			// lost the insert race; run with the stored terms
			if session, err = u.sessionRepo.GetByID(ctx, req.SessionID); err != nil {
				return nil, err
			}
			if session.Status != domain.NegotiationInit {
				return u.resultOf(session)
			}
			if err := sameParties(session, req); err != nil {
				return nil, err
			}
		}
	}

	started, err := u.sessionRepo.Begin(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if !started {
		// someone else owns this run
		current, err := u.sessionRepo.GetByID(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		return u.resultOf(current)
	}

	return u.run(ctx, session, u.buildInput(session, profile, job))
}

func (u *negotiationUsecase) buildInput(s *domain.NegotiationSession, profile *domain.Profile, job *domain.Job) negotiation.Input {
	in := negotiation.Input{
		SessionID:       s.ID,
		ResumeSummary:   profileText(profile),
		JobTitle:        job.Title,
		JobDescription:  job.Description,
		EmployerBudget:  s.EmployerBudget,
		CandidateTarget: s.CandidateTarget,
	}

	if u.scorer != nil && len(profile.Embedding) > 0 && len(job.Embedding) > 0 {
		if res, err := u.scorer.Score(profile.Embedding, job.Embedding, profile.Skills, job.Requirements); err == nil {
			in.FitScore = &res.Score
			in.MatchedSkills, in.MissingSkills = res.MatchedSkills, res.MissingSkills
			return in
		}
	}
	in.MatchedSkills, in.MissingSkills = scoring.CompareSkills(profile.Skills, job.Requirements)
	if len(job.Requirements) > 0 {
		overlap := scoring.Overlap(len(in.MatchedSkills), len(in.MissingSkills))
		in.SkillOverlap = &overlap
	}
	return in
}

func (u *negotiationUsecase) run(ctx context.Context, s *domain.NegotiationSession, in negotiation.Input) (*domain.NegotiationResult, error) {
	runCtx, cancel := context.WithCancel(ctx)
	u.mu.Lock()
	u.running[s.ID] = cancel
	u.mu.Unlock()
	defer func() {
		u.mu.Lock()
		delete(u.running, s.ID)
		u.mu.Unlock()
		cancel()
	}()

	log := u.log.With(zap.String("session_id", s.ID))
	log.Info("negotiation started",
		zap.String("candidate_id", s.CandidateID),
		zap.String("job_id", s.JobID),
		zap.Float64("employer_budget", s.EmployerBudget),
		zap.Float64("candidate_target", s.CandidateTarget),
	)

	outcome, err := u.engine.Run(runCtx, in, func(ctx context.Context, turn domain.NegotiationTurn) error {
		return u.sessionRepo.AppendTurn(ctx, s.ID, turn)
	})
	// the terminal write must land even when the caller has gone away
	persistCtx := context.WithoutCancel(ctx)
	if err != nil {
		if _, ferr := u.sessionRepo.FailIfRunning(persistCtx, s.ID, err.Error()); ferr != nil {
			log.Error("failed to mark negotiation failed", zap.Error(ferr))
		}
		return nil, err
	}

	final := &domain.NegotiationSession{
		ID:           s.ID,
		Status:       outcome.Status,
		FinalScore:   outcome.FinalScore,
		AgreedSalary: outcome.AgreedSalary,
		Rationale:    outcome.Reason,
	}
	if outcome.Status == domain.NegotiationFailed {
		final.FailureReason = outcome.Reason
	}
	finished, err := u.sessionRepo.Finish(persistCtx, final)
	if err != nil {
		return nil, err
	}

	stored, err := u.sessionRepo.GetByID(persistCtx, s.ID)
	if err != nil {
		return nil, err
	}
	if !finished {
		// cancelled or swept while running; the stored state wins
		log.Info("negotiation ended elsewhere", zap.String("status", string(stored.Status)))
		return u.resultOf(stored)
	}

	u.recorder.RecordNegotiation(string(outcome.Status), len(outcome.Turns))
	result := u.toResult(stored)
	if outcome.Status == domain.NegotiationFailed {
		return result, outcome.Err
	}
	return result, nil
}

func (u *negotiationUsecase) GetResult(ctx context.Context, sessionID string) (*domain.NegotiationResult, error) {
	s, err := u.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, notFoundOr(err, "Negotiation session not found")
	}
	return u.resultOf(s)
}

// Cancel stops a running session. A run in this process is interrupted
// before its next turn; the stored status flips to FAILED either way.
func (u *negotiationUsecase) Cancel(ctx context.Context, sessionID string) error {
	s, err := u.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return notFoundOr(err, "Negotiation session not found")
	}
	if s.Status.IsTerminal() {
		return apperror.Conflict("Negotiation already finished with status " + string(s.Status))
	}
	if s.Status == domain.NegotiationInit {
		return apperror.Conflict("Negotiation has not started")
	}

	ok, err := u.sessionRepo.FailIfRunning(ctx, sessionID, negotiation.ReasonCancelled)
	if err != nil {
		return err
	}

	u.mu.Lock()
	cancel := u.running[sessionID]
	u.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	if !ok {
		return apperror.Conflict("Negotiation already finished")
	}
	u.log.Info("negotiation cancelled", zap.String("session_id", sessionID))
	return nil
}

// resultOf reports a stored session. FAILED sessions come back with both the
// data and an error so callers can show what happened before the failure.
func (u *negotiationUsecase) resultOf(s *domain.NegotiationSession) (*domain.NegotiationResult, error) {
	result := u.toResult(s)
	if s.Status != domain.NegotiationFailed {
		return result, nil
	}
	if s.FailureReason == negotiation.ReasonCancelled {
		return result, apperror.Cancelled("negotiation cancelled")
	}
	return result, apperror.ExternalService("negotiation failed: "+s.FailureReason, nil)
}

func (u *negotiationUsecase) toResult(s *domain.NegotiationSession) *domain.NegotiationResult {
	entries := make([]domain.NegotiationLogEntry, 0, len(s.Turns))
	for _, t := range s.Turns {
		entries = append(entries, domain.NegotiationLogEntry{
			Sender:  t.Sender,
			Message: t.Message,
			Offer:   t.Offer,
		})
	}
	result := &domain.NegotiationResult{
		SessionID:     s.ID,
		Score:         s.FinalScore,
		Status:        s.Verdict(u.engine.Config().HireThreshold),
		SessionStatus: s.Status,
		Reason:        s.Rationale,
		AgreedSalary:  s.AgreedSalary,
		Log:           entries,
	}
	if s.Status == domain.NegotiationFailed {
		result.Error = s.FailureReason
	}
	return result
}

// sameParties rejects reuse of a session id for a different candidate or job.
func sameParties(s *domain.NegotiationSession, req domain.NegotiationRequest) error {
	if s == nil {
		return nil
	}
	if s.CandidateID != req.CandidateID || s.JobID != req.JobID {
		return apperror.Conflict("sessionId already belongs to another candidate or job")
	}
	return nil
}

func firstPositive(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil && *v > 0 {
			return v
		}
	}
	return nil
}
