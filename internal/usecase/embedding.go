package usecase

import (
	"context"
	"strings"

	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/pkg/apperror"
	"swiftjobs-backend/pkg/llm"

	"go.uber.org/zap"
)

// Recorder receives domain events for metrics. metrics.Collector implements it.
type Recorder interface {
	RecordSwipe(role, action string)
	RecordMatch()
	RecordNegotiation(status string, turns int)
}

type nopRecorder struct{}

func (nopRecorder) RecordSwipe(string, string)    {}
func (nopRecorder) RecordMatch()                  {}
func (nopRecorder) RecordNegotiation(string, int) {}

// embeddings fills in missing profile and job embeddings through the
// embedding service and persists them.
type embeddings struct {
	embedder llm.Embedder
	profiles domain.ProfileRepository
	jobs     domain.JobRepository
	log      *zap.Logger
}

func profileText(p *domain.Profile) string {
	text := strings.TrimSpace(p.ResumeText)
	if len(p.Skills) > 0 {
		text = strings.TrimSpace(text + "\nSkills: " + strings.Join(p.Skills, ", "))
	}
	return text
}

func jobText(j *domain.Job) string {
	parts := []string{strings.TrimSpace(j.Title), strings.TrimSpace(j.Description)}
	if len(j.Requirements) > 0 {
		parts = append(parts, "Requirements: "+strings.Join(j.Requirements, ", "))
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// forProfile returns p's embedding, computing and storing it when missing.
// It returns nil without error when there is nothing to embed or no
// embedding service.
func (e *embeddings) forProfile(ctx context.Context, p *domain.Profile) ([]float32, error) {
	if len(p.Embedding) > 0 {
		return p.Embedding, nil
	}
	text := profileText(p)
	if text == "" || e.embedder == nil {
		return nil, nil
	}

	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := e.profiles.UpdateEmbedding(ctx, p.ID, vec); err != nil {
		e.log.Warn("failed to store profile embedding", zap.String("profile_id", p.ID), zap.Error(err))
	}
	p.Embedding = vec
	p.HasEmbedding = true
	return vec, nil
}

func (e *embeddings) forJob(ctx context.Context, j *domain.Job) ([]float32, error) {
	if len(j.Embedding) > 0 {
		return j.Embedding, nil
	}
	text := jobText(j)
	if text == "" || e.embedder == nil {
		return nil, nil
	}

	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := e.jobs.UpdateEmbedding(ctx, j.ID, vec); err != nil {
		e.log.Warn("failed to store job embedding", zap.String("job_id", j.ID), zap.Error(err))
	}
	j.Embedding = vec
	j.HasEmbedding = true
	return vec, nil
}

// callerID returns the authenticated user id, if any.
func callerID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(domain.KeyUserID).(string)
	return id, ok && id != ""
}

// checkCaller rejects requests made on behalf of someone else when the
// request is authenticated.
func checkCaller(ctx context.Context, actorID string) error {
	if id, ok := callerID(ctx); ok && id != actorID {
		return apperror.Forbidden("You can only act on your own behalf")
	}
	return nil
}

func notFoundOr(err error, msg string) error {
	if err == domain.ErrNotFound {
		return apperror.NotFound(msg)
	}
	return err
}

// sameSkills compares two skill sets ignoring case and order.
func sameSkills(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[strings.ToLower(strings.TrimSpace(s))]; !ok {
			return false
		}
	}
	return true
}

func normalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		k := strings.ToLower(s)
		if s == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}
