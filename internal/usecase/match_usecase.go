package usecase

import (
	"context"
	"fmt"
	"strings"

	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/internal/scoring"
	"swiftjobs-backend/pkg/apperror"
	"swiftjobs-backend/pkg/llm"

	"go.uber.org/zap"
)

const explainInstructions = `You explain job match scores to recruiters.
Write two or three plain sentences. Mention the strongest matching skills and the most important gaps.
Do not restate the numeric score more than once. No markdown.`

type matchUsecase struct {
	profileRepo domain.ProfileRepository
	jobRepo     domain.JobRepository
	scorer      *scoring.Scorer
	emb         *embeddings
	explainer   llm.Generator
	log         *zap.Logger
}

// NewMatchUsecase builds the scoring usecase. explainer may be nil; the
// explanation then comes from a fixed template.
func NewMatchUsecase(profileRepo domain.ProfileRepository, jobRepo domain.JobRepository, scorer *scoring.Scorer, embedder llm.Embedder, explainer llm.Generator, log *zap.Logger) domain.MatchUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &matchUsecase{
		profileRepo: profileRepo,
		jobRepo:     jobRepo,
		scorer:      scorer,
		emb:         &embeddings{embedder: embedder, profiles: profileRepo, jobs: jobRepo, log: log},
		explainer:   explainer,
		log:         log,
	}
}

func (u *matchUsecase) ScoreMatch(ctx context.Context, applicantID, jobID string) (*domain.MatchScore, error) {
	profile, err := u.profileRepo.GetByID(ctx, applicantID)
	if err != nil {
		return nil, notFoundOr(err, "Profile not found")
	}
	if profile.Role != domain.RoleApplicant {
		return nil, apperror.Validation("only applicant profiles can be scored against jobs")
	}
	job, err := u.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, notFoundOr(err, "Job not found")
	}

	profileEmb, err := u.emb.forProfile(ctx, profile)
	if err != nil {
		return nil, err
	}
	jobEmb, err := u.emb.forJob(ctx, job)
	if err != nil {
		return nil, err
	}
	if len(profileEmb) == 0 || len(jobEmb) == 0 {
		return nil, apperror.Validation("both the profile and the job need text to score")
	}

	res, err := u.scorer.Score(profileEmb, jobEmb, profile.Skills, job.Requirements)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	return &domain.MatchScore{
		ApplicantID:    applicantID,
		JobID:          jobID,
		Score:          res.Score,
		EmbeddingScore: res.EmbeddingScore,
		Explanation:    u.explain(ctx, profile, job, res),
		MatchedSkills:  res.MatchedSkills,
		MissingSkills:  res.MissingSkills,
	}, nil
}

func (u *matchUsecase) explain(ctx context.Context, profile *domain.Profile, job *domain.Job, res *scoring.Result) string {
	fallback := templateExplanation(job, res)
	if u.explainer == nil {
		return fallback
	}

	prompt := fmt.Sprintf("Job: %s\nCandidate: %s\nScore: %d/100 (semantic %d/100, skill overlap %.0f%%)\nMatched skills: %s\nMissing skills: %s",
		job.Title, profile.FullName, res.Score, res.EmbeddingScore, 100*res.SkillOverlap,
		listOrNone(res.MatchedSkills), listOrNone(res.MissingSkills))

	text, err := u.explainer.Generate(ctx, llm.Request{Instructions: explainInstructions, Prompt: prompt})
	if err != nil {
		u.log.Warn("match explanation failed, using template",
			zap.String("applicant_id", profile.ID),
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
		return fallback
	}
	if text = strings.TrimSpace(text); text == "" {
		return fallback
	}
	return text
}

func templateExplanation(job *domain.Job, res *scoring.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Match score %d/100 for %s: semantic similarity %d/100", res.Score, job.Title, res.EmbeddingScore)
	if len(res.MatchedSkills)+len(res.MissingSkills) > 0 {
		fmt.Fprintf(&b, ", %d of %d required skills present", len(res.MatchedSkills), len(res.MatchedSkills)+len(res.MissingSkills))
	}
	b.WriteString(".")
	if len(res.MatchedSkills) > 0 {
		fmt.Fprintf(&b, " Matched: %s.", strings.Join(res.MatchedSkills, ", "))
	}
	if len(res.MissingSkills) > 0 {
		fmt.Fprintf(&b, " Missing: %s.", strings.Join(res.MissingSkills, ", "))
	}
	return b.String()
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
