package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type SwipeAction string

const (
	ActionLike    SwipeAction = "like"
	ActionDislike SwipeAction = "dislike"
)

func ParseSwipeAction(s string) (SwipeAction, error) {
	a := SwipeAction(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case ActionLike, ActionDislike:
		return a, nil
	}
	return "", fmt.Errorf("unknown swipe action %q", s)
}

// Swipe is the latest action of one actor on one target. Applicant swipes
// target a job (JobID == TargetID); employer swipes target an applicant on
// behalf of JobID.
type Swipe struct {
	ID        string      `json:"id"`
	ActorID   string      `json:"actor_id"`
	TargetID  string      `json:"target_id"`
	JobID     string      `json:"job_id"`
	ActorRole Role        `json:"actor_role"`
	Action    SwipeAction `json:"action"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Match is created once, when both sides of an (applicant, job) pair hold a
// like. MatchedAt is set at creation and never touched again.
type Match struct {
	ID               string     `json:"id"`
	ApplicantID      string     `json:"applicant_id"`
	JobID            string     `json:"job_id"`
	MatchScore       *int       `json:"match_score"`
	ApplicantLikedAt *time.Time `json:"applicant_liked_at"`
	EmployerLikedAt  *time.Time `json:"employer_liked_at"`
	MatchedAt        *time.Time `json:"matched_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

// SwipeCommand is the input of RecordSwipe.
type SwipeCommand struct {
	ActorID   string
	TargetID  string
	ActorRole Role
	Action    SwipeAction
	// JobID is required for employer swipes and ignored for applicants.
	JobID string
}

type SwipeResult struct {
	Created bool   `json:"created"`
	IsMatch bool   `json:"isMatch"`
	MatchID string `json:"matchId,omitempty"`
}

type MatchFilter struct {
	ApplicantID string
	JobID       string
}

type SwipeRepository interface {
	// Upsert stores s keyed by (ActorID, TargetID, JobID). It reports false
	// when an identical action was already stored, leaving the row untouched.
	Upsert(ctx context.Context, s *Swipe) (bool, error)
	Get(ctx context.Context, actorID, targetID, jobID string) (*Swipe, error)
}

type MatchRepository interface {
	// CreateOnce inserts m unless a match already exists for
	// (ApplicantID, JobID). It returns the stored match and whether this call
	// created it; concurrent callers observe exactly one creator.
	CreateOnce(ctx context.Context, m *Match) (*Match, bool, error)
	GetByPair(ctx context.Context, applicantID, jobID string) (*Match, error)
	List(ctx context.Context, filter MatchFilter) ([]Match, error)
}

// MatchNotifier is fire-and-forget; its failures never roll back a match.
type MatchNotifier interface {
	NotifyMatch(ctx context.Context, match *Match) error
}

type SwipeUsecase interface {
	RecordSwipe(ctx context.Context, cmd SwipeCommand) (*SwipeResult, error)
	PairState(ctx context.Context, applicantID, jobID string) (string, error)
	ListMatches(ctx context.Context, filter MatchFilter) ([]Match, error)
}
