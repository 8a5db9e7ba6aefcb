package usecase

import (
	"context"
	"math"
	"strings"

	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/pkg/apperror"
	"swiftjobs-backend/pkg/llm"

	"go.uber.org/zap"
)

type profileUsecase struct {
	profileRepo domain.ProfileRepository
	embedder    llm.Embedder
	log         *zap.Logger
}

// NewProfileUsecase builds the profile usecase. embedder may be nil, in which
// case profiles are stored without embeddings.
func NewProfileUsecase(profileRepo domain.ProfileRepository, embedder llm.Embedder, log *zap.Logger) domain.ProfileUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &profileUsecase{
		profileRepo: profileRepo,
		embedder:    embedder,
		log:         log,
	}
}

func (u *profileUsecase) SaveProfile(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	profile.ID = strings.TrimSpace(profile.ID)
	profile.FullName = strings.TrimSpace(profile.FullName)
	if profile.ID == "" {
		return nil, apperror.Validation("id is required")
	}
	if err := checkCaller(ctx, profile.ID); err != nil {
		return nil, err
	}

	role, err := domain.ParseRole(string(profile.Role))
	if err != nil {
		return nil, apperror.Validation("role must be applicant or employer")
	}
	profile.Role = role

	if s := profile.SalaryExpectation; s != nil && (*s < 0 || math.IsNaN(*s) || math.IsInf(*s, 0)) {
		return nil, apperror.Validation("salary_expectation must be a non-negative number")
	}
	profile.Skills = normalizeSkills(profile.Skills)

	existing, err := u.profileRepo.GetByID(ctx, profile.ID)
	if err != nil && err != domain.ErrNotFound {
		return nil, err
	}
	if existing != nil && existing.Role != profile.Role {
		return nil, apperror.Conflict("profile role cannot change")
	}

	// Re-embed only when the embedded text changed or no embedding exists yet.
	needsEmbedding := strings.TrimSpace(profile.ResumeText) != "" &&
		(existing == nil || !existing.HasEmbedding ||
			existing.ResumeText != profile.ResumeText || !sameSkills(existing.Skills, profile.Skills))
	profile.Embedding = nil
	embedded := false
	if needsEmbedding && u.embedder != nil {
		vec, err := u.embedder.Embed(ctx, profileText(profile))
		if err != nil {
			// stored without an embedding; scoring will retry lazily
			u.log.Warn("profile embedding failed", zap.String("profile_id", profile.ID), zap.Error(err))
		} else {
			profile.Embedding = vec
			embedded = true
		}
	}

	if err := u.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, err
	}
	if needsEmbedding && !embedded && profile.HasEmbedding {
		// Upsert kept a vector built from the old skills
		if err := u.profileRepo.UpdateEmbedding(ctx, profile.ID, nil); err != nil {
			return nil, err
		}
		profile.Embedding, profile.HasEmbedding = nil, false
	}
	return profile, nil
}

func (u *profileUsecase) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	profile, err := u.profileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Profile not found")
	}
	return profile, nil
}
