package domain

import "context"

type MatchScore struct {
	ApplicantID    string   `json:"applicantId"`
	JobID          string   `json:"jobId"`
	Score          int      `json:"score"`
	EmbeddingScore int      `json:"embeddingScore"`
	Explanation    string   `json:"explanation"`
	MatchedSkills  []string `json:"matchedSkills"`
	MissingSkills  []string `json:"missingSkills"`
}

type MatchUsecase interface {
	ScoreMatch(ctx context.Context, applicantID, jobID string) (*MatchScore, error)
}
