package domain

import (
	"context"
	"time"
)

type Job struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Requirements []string  `json:"requirements"`
	BudgetMin    *float64  `json:"budget_min"`
	BudgetMax    *float64  `json:"budget_max"`
	Embedding    []float32 `json:"-"`
	HasEmbedding bool      `json:"has_embedding"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// JobRecommendation is a job ranked for one applicant.
type JobRecommendation struct {
	Job           Job      `json:"job"`
	Score         int      `json:"score"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`
}

// CandidateRecommendation is an applicant ranked for one job.
type CandidateRecommendation struct {
	Profile       Profile  `json:"profile"`
	Score         int      `json:"score"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`
}

type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	Update(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, id string) (*Job, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
	// NearestForApplicant returns jobs with embeddings ordered by cosine
	// distance to embedding, skipping jobs the applicant already swiped on.
	NearestForApplicant(ctx context.Context, applicantID string, embedding []float32, limit int) ([]Job, error)
}

type JobUsecase interface {
	CreateJob(ctx context.Context, ownerID string, job *Job) (*Job, error)
	UpdateJob(ctx context.Context, ownerID string, job *Job) (*Job, error)
	GetJob(ctx context.Context, id string) (*Job, error)
	RecommendJobs(ctx context.Context, applicantID string, limit int) ([]JobRecommendation, error)
	// RecommendCandidates ranks applicants for a job owned by ownerID,
	// keeping those scoring at least minScore.
	RecommendCandidates(ctx context.Context, ownerID, jobID string, minScore, limit int) ([]CandidateRecommendation, error)
}
