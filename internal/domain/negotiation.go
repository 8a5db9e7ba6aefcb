package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSessionNotRunning = errors.New("negotiation session is not running")
	ErrInvalidTransition = errors.New("invalid negotiation status transition")
)

// NegotiationStatus values mirror the negotiation_status enum in PostgreSQL.
type NegotiationStatus string

const (
	NegotiationInit        NegotiationStatus = "INIT"
	NegotiationNegotiating NegotiationStatus = "NEGOTIATING"
	NegotiationAgreed      NegotiationStatus = "AGREED"
	NegotiationRejected    NegotiationStatus = "REJECTED"
	NegotiationFailed      NegotiationStatus = "FAILED"
)

func (s NegotiationStatus) IsTerminal() bool {
	return s == NegotiationAgreed || s == NegotiationRejected || s == NegotiationFailed
}

// Verdict is the hiring outcome exposed to callers.
type Verdict string

const (
	VerdictHired    Verdict = "HIRED"
	VerdictRejected Verdict = "REJECTED"
)

type Sender string

const (
	SenderEmployer  Sender = "EMPLOYER"
	SenderCandidate Sender = "CANDIDATE"
)

// Decision is what a turn signals about the negotiation as a whole.
type Decision string

const (
	DecisionNone   Decision = "none"
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

type NegotiationTurn struct {
	Seq       int       `json:"seq"`
	Sender    Sender    `json:"sender"`
	Message   string    `json:"message"`
	Offer     *float64  `json:"offer,omitempty"`
	Decision  Decision  `json:"decision"`
	CreatedAt time.Time `json:"created_at"`
}

type NegotiationSession struct {
	ID              string            `json:"id"`
	CandidateID     string            `json:"candidate_id"`
	JobID           string            `json:"job_id"`
	EmployerBudget  float64           `json:"employer_budget"`
	CandidateTarget float64           `json:"candidate_target"`
	Turns           []NegotiationTurn `json:"turns"`
	Status          NegotiationStatus `json:"status"`
	FinalScore      *int              `json:"final_score"`
	AgreedSalary    *float64          `json:"agreed_salary"`
	Rationale       string            `json:"rationale"`
	FailureReason   string            `json:"failure_reason,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Verdict maps a terminal session to HIRED/REJECTED. Non-terminal sessions
// have no verdict yet.
func (s *NegotiationSession) Verdict(hireThreshold int) Verdict {
	if !s.Status.IsTerminal() {
		return ""
	}
	if s.Status == NegotiationAgreed && s.FinalScore != nil && *s.FinalScore > hireThreshold {
		return VerdictHired
	}
	return VerdictRejected
}

type NegotiationRequest struct {
	SessionID             string
	CandidateID           string
	JobID                 string
	EmployerBudget        *float64
	CandidateTargetSalary *float64
}

type NegotiationLogEntry struct {
	Sender  Sender   `json:"sender"`
	Message string   `json:"message"`
	Offer   *float64 `json:"offer,omitempty"`
}

type NegotiationResult struct {
	SessionID     string                `json:"sessionId"`
	Score         *int                  `json:"score"`
	Status        Verdict               `json:"status,omitempty"`
	SessionStatus NegotiationStatus     `json:"sessionStatus"`
	Reason        string                `json:"reason"`
	AgreedSalary  *float64              `json:"agreedSalary,omitempty"`
	Log           []NegotiationLogEntry `json:"log"`
	Error         string                `json:"error,omitempty"`
}

type NegotiationRepository interface {
	// Create inserts s in INIT. It reports false when the id already exists.
	Create(ctx context.Context, s *NegotiationSession) (bool, error)
	// Begin moves INIT -> NEGOTIATING; false means another caller got there first.
	Begin(ctx context.Context, id string) (bool, error)
	AppendTurn(ctx context.Context, sessionID string, turn NegotiationTurn) error
	// Finish stores the terminal state of a NEGOTIATING session. False means
	// the session was no longer NEGOTIATING.
	Finish(ctx context.Context, s *NegotiationSession) (bool, error)
	// FailIfRunning marks a NEGOTIATING session FAILED with reason.
	FailIfRunning(ctx context.Context, id, reason string) (bool, error)
	GetByID(ctx context.Context, id string) (*NegotiationSession, error)
	// FailStale marks NEGOTIATING sessions last updated before cutoff FAILED.
	FailStale(ctx context.Context, cutoff time.Time, reason string) (int64, error)
}

type NegotiationUsecase interface {
	Negotiate(ctx context.Context, req NegotiationRequest) (*NegotiationResult, error)
	GetResult(ctx context.Context, sessionID string) (*NegotiationResult, error)
	Cancel(ctx context.Context, sessionID string) error
}
