package usecase

import (
	"context"
	"strings"
	"time"

	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/internal/scoring"
	"swiftjobs-backend/internal/swipe"
	"swiftjobs-backend/pkg/apperror"

	"go.uber.org/zap"
)

const notifyTimeout = 5 * time.Second

type swipeUsecase struct {
	swipeRepo   domain.SwipeRepository
	matchRepo   domain.MatchRepository
	jobRepo     domain.JobRepository
	profileRepo domain.ProfileRepository
	scorer      *scoring.Scorer
	notifier    domain.MatchNotifier
	recorder    Recorder
	log         *zap.Logger
}

// SwipeDeps groups the collaborators of the swipe usecase. Notifier and
// Recorder are optional.
type SwipeDeps struct {
	Swipes   domain.SwipeRepository
	Matches  domain.MatchRepository
	Jobs     domain.JobRepository
	Profiles domain.ProfileRepository
	Scorer   *scoring.Scorer
	Notifier domain.MatchNotifier
	Recorder Recorder
	Log      *zap.Logger
}

func NewSwipeUsecase(d SwipeDeps) domain.SwipeUsecase {
	u := &swipeUsecase{
		swipeRepo:   d.Swipes,
		matchRepo:   d.Matches,
		jobRepo:     d.Jobs,
		profileRepo: d.Profiles,
		scorer:      d.Scorer,
		notifier:    d.Notifier,
		recorder:    d.Recorder,
		log:         d.Log,
	}
	if u.recorder == nil {
		u.recorder = nopRecorder{}
	}
	if u.log == nil {
		u.log = zap.NewNop()
	}
	return u
}

// resolveJob checks both parties of cmd and returns the job the swipe is
// about.
func (u *swipeUsecase) resolveJob(ctx context.Context, cmd domain.SwipeCommand) (*domain.Job, error) {
	actor, err := u.profileRepo.GetByID(ctx, cmd.ActorID)
	if err != nil {
		return nil, notFoundOr(err, "Actor profile not found")
	}
	if actor.Role != cmd.ActorRole {
		return nil, apperror.Validation("actor_role does not match the actor's profile")
	}

	if cmd.ActorRole == domain.RoleApplicant {
		job, err := u.jobRepo.GetByID(ctx, cmd.TargetID)
		if err == nil {
			return job, nil
		}
		if err != domain.ErrNotFound {
			return nil, err
		}
		if _, perr := u.profileRepo.GetByID(ctx, cmd.TargetID); perr == nil {
			return nil, apperror.Validation("applicants can only swipe on jobs")
		}
		return nil, apperror.NotFound("Job not found")
	}

	if cmd.JobID == "" {
		return nil, apperror.Validation("jobId is required for employer swipes")
	}
	job, err := u.jobRepo.GetByID(ctx, cmd.JobID)
	if err != nil {
		return nil, notFoundOr(err, "Job not found")
	}
	if job.OwnerID != cmd.ActorID {
		return nil, apperror.Forbidden("You do not own this job")
	}
	target, err := u.profileRepo.GetByID(ctx, cmd.TargetID)
	if err != nil {
		if err == domain.ErrNotFound {
			if _, jerr := u.jobRepo.GetByID(ctx, cmd.TargetID); jerr == nil {
				return nil, apperror.Validation("employers can only swipe on applicants")
			}
			return nil, apperror.NotFound("Applicant not found")
		}
		return nil, err
	}
	if target.Role != domain.RoleApplicant {
		return nil, apperror.Validation("employers can only swipe on applicants")
	}
	return job, nil
}

func (u *swipeUsecase) RecordSwipe(ctx context.Context, cmd domain.SwipeCommand) (*domain.SwipeResult, error) {
	cmd.ActorID = strings.TrimSpace(cmd.ActorID)
	cmd.TargetID = strings.TrimSpace(cmd.TargetID)
	cmd.JobID = strings.TrimSpace(cmd.JobID)
	if cmd.ActorID == "" || cmd.TargetID == "" {
		return nil, apperror.Validation("userId and targetId are required")
	}
	if cmd.ActorID == cmd.TargetID {
		return nil, apperror.Validation("cannot swipe on yourself")
	}
	role, err := domain.ParseRole(string(cmd.ActorRole))
	if err != nil {
		return nil, apperror.Validation("userRole must be applicant or employer")
	}
	cmd.ActorRole = role
	action, err := domain.ParseSwipeAction(string(cmd.Action))
	if err != nil {
		return nil, apperror.Validation("action must be like or dislike")
	}
	cmd.Action = action
	if err := checkCaller(ctx, cmd.ActorID); err != nil {
		return nil, err
	}

	job, err := u.resolveJob(ctx, cmd)
	if err != nil {
		return nil, err
	}
	pair := swipe.Resolve(cmd, job)

	record := &domain.Swipe{
		ActorID:   cmd.ActorID,
		TargetID:  cmd.TargetID,
		JobID:     job.ID,
		ActorRole: cmd.ActorRole,
		Action:    cmd.Action,
	}
	created, err := u.swipeRepo.Upsert(ctx, record)
	if err != nil {
		return nil, err
	}
	if created {
		u.recorder.RecordSwipe(string(cmd.ActorRole), string(cmd.Action))
	}

	result := &domain.SwipeResult{Created: created}
	// a match is permanent, so a later dislike still reports it
	if existing, err := u.matchRepo.GetByPair(ctx, pair.ApplicantID, pair.JobID); err == nil {
		result.IsMatch = true
		result.MatchID = existing.ID
		return result, nil
	} else if err != domain.ErrNotFound {
		return nil, err
	}
	if cmd.Action != domain.ActionLike {
		return result, nil
	}

	counter, err := u.swipeRepo.Get(ctx, pair.CounterActorID, pair.CounterTargetID, pair.JobID)
	if err != nil {
		if err == domain.ErrNotFound {
			return result, nil
		}
		return nil, err
	}
	if counter.Action != domain.ActionLike {
		return result, nil
	}

	match := &domain.Match{
		ApplicantID: pair.ApplicantID,
		JobID:       pair.JobID,
		MatchScore:  u.bestEffortScore(ctx, pair.ApplicantID, job),
	}
	applicantSwipe, employerSwipe := record, counter
	if cmd.ActorRole == domain.RoleEmployer {
		applicantSwipe, employerSwipe = counter, record
	}
	match.ApplicantLikedAt = timePtr(applicantSwipe.UpdatedAt)
	match.EmployerLikedAt = timePtr(employerSwipe.UpdatedAt)
	now := time.Now().UTC()
	match.MatchedAt = &now

	stored, isNew, err := u.matchRepo.CreateOnce(ctx, match)
	if err != nil {
		return nil, err
	}
	result.IsMatch = true
	result.MatchID = stored.ID

	if isNew {
		u.recorder.RecordMatch()
		u.log.Info("match created",
			zap.String("match_id", stored.ID),
			zap.String("applicant_id", stored.ApplicantID),
			zap.String("job_id", stored.JobID),
		)
		u.notify(ctx, stored)
	}
	return result, nil
}

// bestEffortScore scores the pair from stored embeddings only. It never calls
// out to the embedding service and never fails the swipe.
func (u *swipeUsecase) bestEffortScore(ctx context.Context, applicantID string, job *domain.Job) *int {
	if u.scorer == nil || len(job.Embedding) == 0 {
		return nil
	}
	profile, err := u.profileRepo.GetByID(ctx, applicantID)
	if err != nil || len(profile.Embedding) == 0 {
		return nil
	}
	res, err := u.scorer.Score(profile.Embedding, job.Embedding, profile.Skills, job.Requirements)
	if err != nil {
		u.log.Debug("match score skipped", zap.Error(err))
		return nil
	}
	return &res.Score
}

// notify runs detached from the request so a slow or failing notifier never
// delays or undoes the match.
func (u *swipeUsecase) notify(ctx context.Context, m *domain.Match) {
	if u.notifier == nil {
		return
	}
	match := *m
	go func() {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := u.notifier.NotifyMatch(nctx, &match); err != nil {
			u.log.Warn("match notification failed", zap.String("match_id", match.ID), zap.Error(err))
		}
	}()
}

func (u *swipeUsecase) PairState(ctx context.Context, applicantID, jobID string) (string, error) {
	job, err := u.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return "", notFoundOr(err, "Job not found")
	}

	var applicantAction, employerAction domain.SwipeAction
	if s, err := u.swipeRepo.Get(ctx, applicantID, job.ID, job.ID); err == nil {
		applicantAction = s.Action
	} else if err != domain.ErrNotFound {
		return "", err
	}
	if s, err := u.swipeRepo.Get(ctx, job.OwnerID, applicantID, job.ID); err == nil {
		employerAction = s.Action
	} else if err != domain.ErrNotFound {
		return "", err
	}

	matched := false
	if _, err := u.matchRepo.GetByPair(ctx, applicantID, job.ID); err == nil {
		matched = true
	} else if err != domain.ErrNotFound {
		return "", err
	}
	return string(swipe.Derive(applicantAction, employerAction, matched)), nil
}

func (u *swipeUsecase) ListMatches(ctx context.Context, filter domain.MatchFilter) ([]domain.Match, error) {
	if filter.ApplicantID == "" && filter.JobID == "" {
		return nil, apperror.Validation("filter by applicant_id or job_id")
	}
	return u.matchRepo.List(ctx, filter)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
