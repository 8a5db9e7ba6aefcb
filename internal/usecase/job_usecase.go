package usecase

import (
	"context"
	"math"
	"sort"
	"strings"

	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/internal/scoring"
	"swiftjobs-backend/pkg/apperror"
	"swiftjobs-backend/pkg/llm"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRecommendLimit = 20
	maxRecommendLimit     = 100
)

type jobUsecase struct {
	jobRepo     domain.JobRepository
	profileRepo domain.ProfileRepository
	scorer      *scoring.Scorer
	emb         *embeddings
	log         *zap.Logger
}

func NewJobUsecase(jobRepo domain.JobRepository, profileRepo domain.ProfileRepository, scorer *scoring.Scorer, embedder llm.Embedder, log *zap.Logger) domain.JobUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &jobUsecase{
		jobRepo:     jobRepo,
		profileRepo: profileRepo,
		scorer:      scorer,
		emb:         &embeddings{embedder: embedder, profiles: profileRepo, jobs: jobRepo, log: log},
		log:         log,
	}
}

func validateJob(job *domain.Job) error {
	job.Title = strings.TrimSpace(job.Title)
	if job.Title == "" {
		return apperror.BadRequest("Title is required")
	}
	for _, b := range []*float64{job.BudgetMin, job.BudgetMax} {
		if b != nil && (*b < 0 || math.IsNaN(*b) || math.IsInf(*b, 0)) {
			return apperror.Validation("budget must be a non-negative number")
		}
	}
	if job.BudgetMin != nil && job.BudgetMax != nil && *job.BudgetMin > *job.BudgetMax {
		return apperror.BadRequest("budget_min cannot be greater than budget_max")
	}
	job.Requirements = normalizeSkills(job.Requirements)
	return nil
}

func (u *jobUsecase) ownerProfile(ctx context.Context, ownerID string) error {
	if err := checkCaller(ctx, ownerID); err != nil {
		return err
	}
	owner, err := u.profileRepo.GetByID(ctx, ownerID)
	if err != nil {
		return notFoundOr(err, "Employer profile not found. Please create a profile first.")
	}
	if owner.Role != domain.RoleEmployer {
		return apperror.Forbidden("Only employers can manage jobs")
	}
	return nil
}

func (u *jobUsecase) embedJob(ctx context.Context, job *domain.Job) {
	job.Embedding = nil
	if u.emb.embedder == nil {
		return
	}
	text := jobText(job)
	if text == "" {
		return
	}
	vec, err := u.emb.embedder.Embed(ctx, text)
	if err != nil {
		u.log.Warn("job embedding failed", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	job.Embedding = vec
}

func (u *jobUsecase) CreateJob(ctx context.Context, ownerID string, job *domain.Job) (*domain.Job, error) {
	if err := u.ownerProfile(ctx, ownerID); err != nil {
		return nil, err
	}
	job.OwnerID = ownerID
	if err := validateJob(job); err != nil {
		return nil, err
	}

	u.embedJob(ctx, job)
	if err := u.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (u *jobUsecase) UpdateJob(ctx context.Context, ownerID string, job *domain.Job) (*domain.Job, error) {
	if err := u.ownerProfile(ctx, ownerID); err != nil {
		return nil, err
	}
	existing, err := u.jobRepo.GetByID(ctx, job.ID)
	if err != nil {
		return nil, notFoundOr(err, "Job not found")
	}
	if existing.OwnerID != ownerID {
		return nil, apperror.Forbidden("You do not own this job")
	}
	job.OwnerID = ownerID
	if err := validateJob(job); err != nil {
		return nil, err
	}

	if job.Description != existing.Description || !existing.HasEmbedding {
		u.embedJob(ctx, job)
	} else {
		job.Embedding = nil
	}
	if err := u.jobRepo.Update(ctx, job); err != nil {
		return nil, notFoundOr(err, "Job not found")
	}
	return job, nil
}

func (u *jobUsecase) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	job, err := u.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Job not found")
	}
	return job, nil
}

// RecommendJobs ranks the nearest jobs by embedding distance, then re-scores
// each with the full scorer so skill overlap counts too.
func (u *jobUsecase) RecommendJobs(ctx context.Context, applicantID string, limit int) ([]domain.JobRecommendation, error) {
	if limit <= 0 {
		limit = defaultRecommendLimit
	}
	if limit > maxRecommendLimit {
		limit = maxRecommendLimit
	}

	profile, err := u.profileRepo.GetByID(ctx, applicantID)
	if err != nil {
		return nil, notFoundOr(err, "Profile not found")
	}
	if profile.Role != domain.RoleApplicant {
		return nil, apperror.Validation("recommendations are only available to applicants")
	}

	emb, err := u.emb.forProfile(ctx, profile)
	if err != nil {
		return nil, err
	}
	if len(emb) == 0 {
		return nil, apperror.Validation("profile has no embedding; add resume text first")
	}

	jobs, err := u.jobRepo.NearestForApplicant(ctx, applicantID, emb, limit)
	if err != nil {
		return nil, err
	}

	recs := make([]domain.JobRecommendation, len(jobs))
	g := new(errgroup.Group)
	g.SetLimit(8)
	for i := range jobs {
		g.Go(func() error {
			res, err := u.scorer.Score(emb, jobs[i].Embedding, profile.Skills, jobs[i].Requirements)
			if err != nil {
				return err
			}
			recs[i] = domain.JobRecommendation{
				Job:           jobs[i],
				Score:         res.Score,
				MatchedSkills: res.MatchedSkills,
				MissingSkills: res.MissingSkills,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperror.Internal(err)
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	return recs, nil
}

// RecommendCandidates is the employer-side mirror of RecommendJobs. With a
// minimum score the store is asked for a wider window so filtering does not
// starve the result.
func (u *jobUsecase) RecommendCandidates(ctx context.Context, ownerID, jobID string, minScore, limit int) ([]domain.CandidateRecommendation, error) {
	if minScore < 0 || minScore > 100 {
		return nil, apperror.Validation("min_score must be within 0-100")
	}
	if limit <= 0 {
		limit = defaultRecommendLimit
	}
	if limit > maxRecommendLimit {
		limit = maxRecommendLimit
	}

	if err := u.ownerProfile(ctx, ownerID); err != nil {
		return nil, err
	}
	job, err := u.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, notFoundOr(err, "Job not found")
	}
	if job.OwnerID != ownerID {
		return nil, apperror.Forbidden("You do not own this job")
	}

	emb, err := u.emb.forJob(ctx, job)
	if err != nil {
		return nil, err
	}
	if len(emb) == 0 {
		return nil, apperror.Validation("job has no embedding; add a description first")
	}

	window := limit
	if minScore > 0 {
		window = maxRecommendLimit
	}
	profiles, err := u.profileRepo.NearestApplicants(ctx, ownerID, job.ID, emb, window)
	if err != nil {
		return nil, err
	}

	recs := make([]domain.CandidateRecommendation, len(profiles))
	g := new(errgroup.Group)
	g.SetLimit(8)
	for i := range profiles {
		g.Go(func() error {
			res, err := u.scorer.Score(profiles[i].Embedding, emb, profiles[i].Skills, job.Requirements)
			if err != nil {
				return err
			}
			recs[i] = domain.CandidateRecommendation{
				Profile:       profiles[i],
				Score:         res.Score,
				MatchedSkills: res.MatchedSkills,
				MissingSkills: res.MissingSkills,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperror.Internal(err)
	}

	kept := recs[:0]
	for _, rec := range recs {
		if rec.Score >= minScore {
			kept = append(kept, rec)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })
	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept, nil
}
