package negotiation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/pkg/apperror"
	"swiftjobs-backend/pkg/llm"
	"swiftjobs-backend/pkg/logger"

	"go.uber.org/zap"
)

const ReasonCancelled = "cancelled"

// Config holds the tunables of a negotiation.
type Config struct {
	// MaxTurns bounds the total number of turns of both sides.
	MaxTurns      int
	HireThreshold int
	FitWeight     float64
	SalaryWeight  float64
	// CandidateFlex is how far below target the candidate will settle, as a
	// fraction of target.
	CandidateFlex float64
	// SalaryDecay is the salary gap, as a fraction of budget, that drives
	// salary alignment to 0.
	SalaryDecay float64
}

func DefaultConfig() Config {
	return Config{
		MaxTurns:      10,
		HireThreshold: 70,
		FitWeight:     0.5,
		SalaryWeight:  0.5,
		CandidateFlex: 0.1,
		SalaryDecay:   0.5,
	}
}

func (c Config) Validate() error {
	if c.MaxTurns < 1 {
		return fmt.Errorf("max turns must be positive, got %d", c.MaxTurns)
	}
	if c.HireThreshold < 0 || c.HireThreshold > 100 {
		return fmt.Errorf("hire threshold must be within 0-100, got %d", c.HireThreshold)
	}
	if c.FitWeight < 0 || c.SalaryWeight < 0 || math.Abs(c.FitWeight+c.SalaryWeight-1) > 1e-6 {
		return fmt.Errorf("fit and salary weights must be non-negative and sum to 1, got %.3f + %.3f",
			c.FitWeight, c.SalaryWeight)
	}
	if c.CandidateFlex < 0 || c.CandidateFlex >= 1 {
		return fmt.Errorf("candidate flex must be within [0, 1), got %.3f", c.CandidateFlex)
	}
	if c.SalaryDecay <= 0 {
		return fmt.Errorf("salary decay must be positive, got %.3f", c.SalaryDecay)
	}
	return nil
}

// Input is everything a negotiation needs. FitScore is the match score when
// both embeddings exist; SkillOverlap (0-1) is the fallback fit signal.
type Input struct {
	SessionID       string
	ResumeSummary   string
	JobTitle        string
	JobDescription  string
	EmployerBudget  float64
	CandidateTarget float64
	FitScore        *int
	SkillOverlap    *float64
	MatchedSkills   []string
	MissingSkills   []string
}

func (in Input) validate() error {
	if !positive(in.EmployerBudget) {
		return apperror.Validation("employer budget must be a positive number")
	}
	if !positive(in.CandidateTarget) {
		return apperror.Validation("candidate target salary must be a positive number")
	}
	if in.FitScore != nil && (*in.FitScore < 0 || *in.FitScore > 100) {
		return apperror.Validation("fit score must be within 0-100")
	}
	return nil
}

// Outcome is the terminal state of one run.
type Outcome struct {
	Status       domain.NegotiationStatus
	Turns        []domain.NegotiationTurn
	AgreedSalary *float64
	// FinalScore is nil for FAILED runs.
	FinalScore *int
	FitScore   int
	SalaryFit  int
	Reason     string
	// Err is set for FAILED runs: an external_service or cancelled apperror.
	Err error
}

// Verdict maps the outcome to HIRED/REJECTED.
func (o *Outcome) Verdict(hireThreshold int) domain.Verdict {
	if o.Status == domain.NegotiationAgreed && o.FinalScore != nil && *o.FinalScore > hireThreshold {
		return domain.VerdictHired
	}
	return domain.VerdictRejected
}

// TurnFunc is called after each turn, in order, before the next one starts.
// A non-nil error fails the run.
type TurnFunc func(ctx context.Context, turn domain.NegotiationTurn) error

// Engine owns the control logic of the negotiation. Message content comes
// from the generator.
type Engine struct {
	gen llm.Generator
	cfg Config
	log *zap.Logger
	now func() time.Time
}

func NewEngine(gen llm.Generator, cfg Config, log *zap.Logger) (*Engine, error) {
	if gen == nil {
		return nil, errors.New("negotiation engine needs a text generator")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{gen: gen, cfg: cfg, log: log, now: time.Now}, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

type run struct {
	in           Input
	candidateMin float64
	turns        []domain.NegotiationTurn
	lastOffer    map[domain.Sender]*float64
	fitSignals   []int
	log          *zap.Logger
}

// Run negotiates until a terminal condition: a compatible accept (AGREED),
// an explicit reject (REJECTED), MaxTurns without agreement (REJECTED),
// exhausted generator retries or cancellation (FAILED). Only invalid input
// is returned as an error.
func (e *Engine) Run(ctx context.Context, in Input, onTurn TurnFunc) (*Outcome, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	r := &run{
		in:           in,
		candidateMin: CandidateMinimum(in.CandidateTarget, e.cfg.CandidateFlex),
		lastOffer:    make(map[domain.Sender]*float64, 2),
		log:          e.log.With(zap.String("session_id", in.SessionID)),
	}

	for i := 0; i < e.cfg.MaxTurns; i++ {
		if err := ctx.Err(); err != nil {
			return e.cancelled(r), nil
		}

		sender := domain.SenderEmployer
		if i%2 == 1 {
			sender = domain.SenderCandidate
		}

		req := buildRequest(sender, in, r.turns, i+1, e.cfg.MaxTurns)
		r.log.Debug("generating turn",
			zap.Int("seq", i+1),
			zap.String("sender", string(sender)),
			zap.String("prompt", logger.Truncate(req.Prompt, 400)),
		)

		raw, err := e.gen.Generate(ctx, req)
		if err != nil {
			if ctx.Err() != nil || apperror.IsKind(err, apperror.KindCancelled) {
				return e.cancelled(r), nil
			}
			return e.failed(r, err), nil
		}

		parsed, failure := Interpret(raw)
		if failure != nil {
			r.log.Warn("turn did not match schema, reading as plain text",
				zap.Int("seq", i+1),
				zap.String("reason", failure.Reason),
				zap.String("raw", logger.Truncate(raw, 200)),
			)
		}

		// the engine decides who spoke, whatever the model claims
		turn := domain.NegotiationTurn{
			Seq:       i + 1,
			Sender:    sender,
			Message:   parsed.Message,
			Offer:     parsed.Offer,
			Decision:  parsed.Decision,
			CreatedAt: e.now(),
		}
		r.turns = append(r.turns, turn)
		if sender == domain.SenderEmployer && parsed.Fit != nil {
			r.fitSignals = append(r.fitSignals, *parsed.Fit)
		}

		if onTurn != nil {
			if err := onTurn(context.WithoutCancel(ctx), turn); err != nil {
				return e.failed(r, apperror.Internal(fmt.Errorf("record negotiation turn: %w", err))), nil
			}
		}

		switch turn.Decision {
		case domain.DecisionAccept:
			if agreed, ok := r.agreement(turn); ok {
				return e.finish(r, domain.NegotiationAgreed, &agreed,
					fmt.Sprintf("%s accepted %s", senderName(sender), money(agreed))), nil
			}
			r.log.Info("acceptance incompatible with constraints, continuing",
				zap.Int("seq", turn.Seq),
				zap.String("sender", string(sender)),
			)
		case domain.DecisionReject:
			return e.finish(r, domain.NegotiationRejected, nil,
				fmt.Sprintf("%s rejected", senderName(sender))), nil
		}

		if turn.Offer != nil {
			r.lastOffer[sender] = turn.Offer
		}
	}

	return e.finish(r, domain.NegotiationRejected, nil,
		fmt.Sprintf("no agreement within %d turns", e.cfg.MaxTurns)), nil
}

// agreement resolves the figure an accept refers to: the other side's last
// offer, else the accepting side's own offer. With no figure on the table
// the accept stands only if the budget already covers the target. The
// figure must sit within [candidateMin, budget].
func (r *run) agreement(turn domain.NegotiationTurn) (float64, bool) {
	var figure *float64
	if other := r.lastOffer[counterpart(turn.Sender)]; other != nil {
		figure = other
	} else if turn.Offer != nil {
		figure = turn.Offer
	} else if own := r.lastOffer[turn.Sender]; own != nil {
		figure = own
	}

	if figure == nil {
		if r.in.EmployerBudget >= r.in.CandidateTarget {
			return r.in.CandidateTarget, true
		}
		return 0, false
	}

	f := *figure
	if f > r.in.EmployerBudget || f < r.candidateMin {
		return 0, false
	}
	return f, true
}

func (e *Engine) finish(r *run, status domain.NegotiationStatus, agreed *float64, reason string) *Outcome {
	fit := r.fit()
	salary := SalaryAlignment(agreed, r.in.EmployerBudget, r.candidateMin, e.cfg.SalaryDecay)
	score := Blend(fit, salary, e.cfg.FitWeight, e.cfg.SalaryWeight)

	out := &Outcome{
		Status:       status,
		Turns:        r.turns,
		AgreedSalary: agreed,
		FinalScore:   &score,
		FitScore:     fit,
		SalaryFit:    salary,
		Reason:       reason,
	}
	r.log.Info("negotiation finished",
		zap.String("status", string(status)),
		zap.Int("turns", len(r.turns)),
		zap.Int("score", score),
		zap.Int("fit", fit),
		zap.Int("salary_fit", salary),
	)
	return out
}

func (e *Engine) failed(r *run, err error) *Outcome {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		err = apperror.ExternalService("text generation failed", err)
	}
	r.log.Warn("negotiation failed", zap.Int("turns", len(r.turns)), zap.Error(err))
	return &Outcome{
		Status: domain.NegotiationFailed,
		Turns:  r.turns,
		Reason: err.Error(),
		Err:    err,
	}
}

func (e *Engine) cancelled(r *run) *Outcome {
	r.log.Info("negotiation cancelled", zap.Int("turns", len(r.turns)))
	return &Outcome{
		Status: domain.NegotiationFailed,
		Turns:  r.turns,
		Reason: ReasonCancelled,
		Err:    apperror.Cancelled("negotiation cancelled"),
	}
}

// fit prefers the match score, then the employer's own reads of fit, then
// skill overlap. With none of those it is neutral.
func (r *run) fit() int {
	if r.in.FitScore != nil {
		return clamp(*r.in.FitScore)
	}
	if len(r.fitSignals) > 0 {
		sum := 0
		for _, f := range r.fitSignals {
			sum += f
		}
		return clamp(int(math.Round(float64(sum) / float64(len(r.fitSignals)))))
	}
	if r.in.SkillOverlap != nil {
		return clamp(int(math.Round(100 * *r.in.SkillOverlap)))
	}
	return 50
}

func counterpart(s domain.Sender) domain.Sender {
	if s == domain.SenderEmployer {
		return domain.SenderCandidate
	}
	return domain.SenderEmployer
}

func senderName(s domain.Sender) string {
	if s == domain.SenderEmployer {
		return "employer"
	}
	return "candidate"
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
