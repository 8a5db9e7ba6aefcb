package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common domain errors
var ErrNotFound = errors.New("resource not found")

type Role string

const (
	RoleApplicant Role = "applicant"
	RoleEmployer  Role = "employer"
)

// ParseRole accepts "applicant", "employer" and the legacy "hr" alias.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "applicant", "candidate":
		return RoleApplicant, nil
	case "employer", "hr":
		return RoleEmployer, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type Profile struct {
	ID                string    `json:"id"`
	Role              Role      `json:"role"`
	FullName          string    `json:"full_name"`
	ResumeText        string    `json:"resume_text,omitempty"`
	Embedding         []float32 `json:"-"`
	HasEmbedding      bool      `json:"has_embedding"`
	Skills            []string  `json:"skills"`
	SalaryExpectation *float64  `json:"salary_expectation"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type ProfileRepository interface {
	// Upsert keeps the stored embedding when profile.Embedding is nil and the
	// resume text is unchanged.
	Upsert(ctx context.Context, profile *Profile) error
	GetByID(ctx context.Context, id string) (*Profile, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
	// NearestApplicants returns applicant profiles with embeddings ordered by
	// cosine distance to embedding, skipping applicants ownerID already swiped
	// on for jobID.
	NearestApplicants(ctx context.Context, ownerID, jobID string, embedding []float32, limit int) ([]Profile, error)
}

type ProfileUsecase interface {
	SaveProfile(ctx context.Context, profile *Profile) (*Profile, error)
	GetProfile(ctx context.Context, id string) (*Profile, error)
}
