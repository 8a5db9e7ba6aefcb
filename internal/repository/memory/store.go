// Package memory is an in-process store used when no database is configured
// and in tests. It honors the same uniqueness and compare-and-set contract as
// the PostgreSQL repositories.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/internal/negotiation"
	"swiftjobs-backend/internal/scoring"

	"github.com/google/uuid"
)

// Store holds every entity behind one mutex. Repositories are views on it.
type Store struct {
	mu           sync.RWMutex
	profiles     map[string]domain.Profile
	jobs         map[string]domain.Job
	swipes       map[string]domain.Swipe
	matches      map[string]domain.Match
	negotiations map[string]domain.NegotiationSession
	now          func() time.Time
}

func NewStore() *Store {
	return &Store{
		profiles:     make(map[string]domain.Profile),
		jobs:         make(map[string]domain.Job),
		swipes:       make(map[string]domain.Swipe),
		matches:      make(map[string]domain.Match),
		negotiations: make(map[string]domain.NegotiationSession),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Profiles() *ProfileRepository         { return &ProfileRepository{s} }
func (s *Store) Jobs() *JobRepository                 { return &JobRepository{s} }
func (s *Store) Swipes() *SwipeRepository             { return &SwipeRepository{s} }
func (s *Store) Matches() *MatchRepository            { return &MatchRepository{s} }
func (s *Store) Negotiations() *NegotiationRepository { return &NegotiationRepository{s} }

// ---- profiles ----

type ProfileRepository struct{ s *Store }

func (r *ProfileRepository) Upsert(_ context.Context, p *domain.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if existing, ok := r.s.profiles[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
		if p.Embedding == nil && p.ResumeText == existing.ResumeText {
			p.Embedding = existing.Embedding
		}
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.HasEmbedding = len(p.Embedding) > 0
	r.s.profiles[p.ID] = cloneProfile(*p)
	return nil
}

func (r *ProfileRepository) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneProfile(p)
	return &out, nil
}

func (r *ProfileRepository) UpdateEmbedding(_ context.Context, id string, embedding []float32) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Embedding = append([]float32(nil), embedding...)
	p.HasEmbedding = len(embedding) > 0
	p.UpdatedAt = r.s.now()
	r.s.profiles[id] = p
	return nil
}

func (r *ProfileRepository) NearestApplicants(_ context.Context, ownerID, jobID string, embedding []float32, limit int) ([]domain.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	type ranked struct {
		profile domain.Profile
		cos     float64
	}
	var candidates []ranked
	for _, p := range r.s.profiles {
		if p.Role != domain.RoleApplicant || !p.HasEmbedding || len(p.Embedding) != len(embedding) {
			continue
		}
		if _, swiped := r.s.swipes[swipeKey(ownerID, p.ID, jobID)]; swiped {
			continue
		}
		cos, err := scoring.Cosine(embedding, p.Embedding)
		if err != nil {
			continue
		}
		candidates = append(candidates, ranked{profile: p, cos: cos})
	}

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].cos == candidates[b].cos {
			return candidates[a].profile.ID < candidates[b].profile.ID
		}
		return candidates[a].cos > candidates[b].cos
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]domain.Profile, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, cloneProfile(c.profile))
	}
	return out, nil
}

// ---- jobs ----

type JobRepository struct{ s *Store }

func (r *JobRepository) Create(_ context.Context, j *domain.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	now := r.s.now()
	j.CreatedAt, j.UpdatedAt = now, now
	j.HasEmbedding = len(j.Embedding) > 0
	r.s.jobs[j.ID] = cloneJob(*j)
	return nil
}

func (r *JobRepository) Update(_ context.Context, j *domain.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.jobs[j.ID]
	if !ok {
		return domain.ErrNotFound
	}
	j.CreatedAt = existing.CreatedAt
	j.UpdatedAt = r.s.now()
	if j.Embedding == nil && j.Description == existing.Description {
		j.Embedding = existing.Embedding
	}
	j.HasEmbedding = len(j.Embedding) > 0
	r.s.jobs[j.ID] = cloneJob(*j)
	return nil
}

func (r *JobRepository) GetByID(_ context.Context, id string) (*domain.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	j, ok := r.s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneJob(j)
	return &out, nil
}

func (r *JobRepository) UpdateEmbedding(_ context.Context, id string, embedding []float32) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	j, ok := r.s.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	j.Embedding = append([]float32(nil), embedding...)
	j.HasEmbedding = len(embedding) > 0
	j.UpdatedAt = r.s.now()
	r.s.jobs[id] = j
	return nil
}

func (r *JobRepository) NearestForApplicant(_ context.Context, applicantID string, embedding []float32, limit int) ([]domain.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	type ranked struct {
		job domain.Job
		cos float64
	}
	var candidates []ranked
	for _, j := range r.s.jobs {
		if !j.HasEmbedding || len(j.Embedding) != len(embedding) {
			continue
		}
		if _, swiped := r.s.swipes[swipeKey(applicantID, j.ID, j.ID)]; swiped {
			continue
		}
		cos, err := scoring.Cosine(embedding, j.Embedding)
		if err != nil {
			continue
		}
		candidates = append(candidates, ranked{job: j, cos: cos})
	}

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].cos == candidates[b].cos {
			return candidates[a].job.ID < candidates[b].job.ID
		}
		return candidates[a].cos > candidates[b].cos
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]domain.Job, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, cloneJob(c.job))
	}
	return out, nil
}

// ---- swipes ----

type SwipeRepository struct{ s *Store }

func swipeKey(actorID, targetID, jobID string) string {
	return strings.Join([]string{actorID, targetID, jobID}, "\x00")
}

func (r *SwipeRepository) Upsert(_ context.Context, sw *domain.Swipe) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := swipeKey(sw.ActorID, sw.TargetID, sw.JobID)
	now := r.s.now()
	if existing, ok := r.s.swipes[key]; ok {
		if existing.Action == sw.Action {
			*sw = existing
			return false, nil
		}
		existing.Action = sw.Action
		existing.ActorRole = sw.ActorRole
		existing.UpdatedAt = now
		r.s.swipes[key] = existing
		*sw = existing
		return true, nil
	}

	if sw.ID == "" {
		sw.ID = uuid.NewString()
	}
	sw.CreatedAt, sw.UpdatedAt = now, now
	r.s.swipes[key] = *sw
	return true, nil
}

func (r *SwipeRepository) Get(_ context.Context, actorID, targetID, jobID string) (*domain.Swipe, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sw, ok := r.s.swipes[swipeKey(actorID, targetID, jobID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &sw, nil
}

// ---- matches ----

type MatchRepository struct{ s *Store }

func matchKey(applicantID, jobID string) string {
	return applicantID + "\x00" + jobID
}

func (r *MatchRepository) CreateOnce(_ context.Context, m *domain.Match) (*domain.Match, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := matchKey(m.ApplicantID, m.JobID)
	if existing, ok := r.s.matches[key]; ok {
		out := existing
		return &out, false, nil
	}

	stored := *m
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := r.s.now()
	stored.CreatedAt = now
	if stored.MatchedAt == nil {
		stored.MatchedAt = &now
	}
	r.s.matches[key] = stored
	out := stored
	return &out, true, nil
}

func (r *MatchRepository) GetByPair(_ context.Context, applicantID, jobID string) (*domain.Match, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.matches[matchKey(applicantID, jobID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &m, nil
}

func (r *MatchRepository) List(_ context.Context, filter domain.MatchFilter) ([]domain.Match, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Match, 0)
	for _, m := range r.s.matches {
		if filter.ApplicantID != "" && m.ApplicantID != filter.ApplicantID {
			continue
		}
		if filter.JobID != "" && m.JobID != filter.JobID {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID < out[b].ID
		}
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out, nil
}

// ---- negotiations ----

type NegotiationRepository struct{ s *Store }

func (r *NegotiationRepository) Create(_ context.Context, sess *domain.NegotiationSession) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if _, ok := r.s.negotiations[sess.ID]; ok {
		return false, nil
	}
	now := r.s.now()
	sess.Status = domain.NegotiationInit
	sess.CreatedAt, sess.UpdatedAt = now, now
	sess.Turns = nil
	r.s.negotiations[sess.ID] = cloneSession(*sess)
	return true, nil
}

func (r *NegotiationRepository) Begin(_ context.Context, id string) (bool, error) {
	return r.transition(id, domain.NegotiationInit, domain.NegotiationNegotiating, nil)
}

func (r *NegotiationRepository) AppendTurn(_ context.Context, sessionID string, turn domain.NegotiationTurn) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.negotiations[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	if sess.Status != domain.NegotiationNegotiating {
		return domain.ErrSessionNotRunning
	}
	sess.Turns = append(sess.Turns, turn)
	sess.UpdatedAt = r.s.now()
	r.s.negotiations[sessionID] = sess
	return nil
}

func (r *NegotiationRepository) Finish(_ context.Context, final *domain.NegotiationSession) (bool, error) {
	return r.transition(final.ID, domain.NegotiationNegotiating, final.Status, func(sess *domain.NegotiationSession) {
		sess.FinalScore = final.FinalScore
		sess.AgreedSalary = final.AgreedSalary
		sess.Rationale = final.Rationale
		sess.FailureReason = final.FailureReason
	})
}

func (r *NegotiationRepository) FailIfRunning(_ context.Context, id, reason string) (bool, error) {
	return r.transition(id, domain.NegotiationNegotiating, domain.NegotiationFailed, func(sess *domain.NegotiationSession) {
		sess.FailureReason = reason
		sess.Rationale = reason
	})
}

func (r *NegotiationRepository) GetByID(_ context.Context, id string) (*domain.NegotiationSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sess, ok := r.s.negotiations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneSession(sess)
	return &out, nil
}

func (r *NegotiationRepository) FailStale(_ context.Context, cutoff time.Time, reason string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	now := r.s.now()
	for id, sess := range r.s.negotiations {
		if sess.Status != domain.NegotiationNegotiating || !sess.UpdatedAt.Before(cutoff) {
			continue
		}
		sess.Status = domain.NegotiationFailed
		sess.FailureReason = reason
		sess.Rationale = reason
		sess.UpdatedAt = now
		r.s.negotiations[id] = sess
		n++
	}
	return n, nil
}

// transition is the compare-and-set on session status.
func (r *NegotiationRepository) transition(id string, from, to domain.NegotiationStatus, apply func(*domain.NegotiationSession)) (bool, error) {
	if !negotiation.IsTransitionAllowed(from, to) {
		return false, domain.ErrInvalidTransition
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.negotiations[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if sess.Status != from {
		return false, nil
	}
	sess.Status = to
	if apply != nil {
		apply(&sess)
	}
	sess.UpdatedAt = r.s.now()
	r.s.negotiations[id] = sess
	return true, nil
}

func cloneProfile(p domain.Profile) domain.Profile {
	p.Embedding = append([]float32(nil), p.Embedding...)
	p.Skills = append([]string(nil), p.Skills...)
	return p
}

func cloneJob(j domain.Job) domain.Job {
	j.Embedding = append([]float32(nil), j.Embedding...)
	j.Requirements = append([]string(nil), j.Requirements...)
	return j
}

func cloneSession(s domain.NegotiationSession) domain.NegotiationSession {
	s.Turns = append([]domain.NegotiationTurn(nil), s.Turns...)
	return s
}
