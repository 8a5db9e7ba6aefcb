package negotiation

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/pkg/llm"
	"swiftjobs-backend/pkg/validation"

	"github.com/mitchellh/mapstructure"
)

// ParsedTurn is a generated turn that passed the schema.
type ParsedTurn struct {
	Message  string
	Offer    *float64
	Decision domain.Decision
	// Fit is the speaker's 0-100 read of resume/job fit, when given.
	Fit *int
}

// ParseFailure carries the raw text of a turn that did not match the schema.
type ParseFailure struct {
	Raw    string
	Reason string
}

func (f *ParseFailure) Error() string {
	return "unparseable turn: " + f.Reason
}

// TurnResult is either a ParsedTurn or a ParseFailure, never both.
type TurnResult struct {
	Turn    *ParsedTurn
	Failure *ParseFailure
}

func (r TurnResult) OK() bool { return r.Turn != nil }

type turnPayload struct {
	Sender   string   `mapstructure:"sender"`
	Message  string   `mapstructure:"message" validate:"required,max=2000"`
	Offer    *float64 `mapstructure:"offer" validate:"omitempty,gt=0,finite"`
	Decision string   `mapstructure:"decision" validate:"omitempty,oneof=accept reject none"`
	Fit      *int     `mapstructure:"fit" validate:"omitempty,gte=0,lte=100"`
}

var turnValidator = validation.New()

// ParseTurn validates raw generator output against the turn schema
// {sender, message, offer?, decision?, fit?}.
func ParseTurn(raw string) TurnResult {
	body := llm.ExtractJSON(raw)
	if body == "" {
		return failure(raw, "empty response")
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return failure(raw, "not a JSON object: "+err.Error())
	}

	var p turnPayload
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       amountHook,
		WeaklyTypedInput: true,
		Result:           &p,
	})
	if err != nil {
		return failure(raw, err.Error())
	}
	if err := decoder.Decode(fields); err != nil {
		return failure(raw, err.Error())
	}

	p.Message = strings.TrimSpace(p.Message)
	p.Decision = normalizeDecision(p.Decision)
	if err := turnValidator.Struct(p); err != nil {
		return failure(raw, validation.Summary(err))
	}

	decision := domain.Decision(p.Decision)
	if decision == "" {
		decision = domain.DecisionNone
	}
	return TurnResult{Turn: &ParsedTurn{
		Message:  p.Message,
		Offer:    p.Offer,
		Decision: decision,
		Fit:      p.Fit,
	}}
}

var (
	acceptPattern = regexp.MustCompile(`\b(AGREED|HIRED|ACCEPT|ACCEPTED)\b`)
	rejectPattern = regexp.MustCompile(`\b(REJECTED|REJECT)\b`)
	amountPattern = regexp.MustCompile(`\$\s?(\d[\d,]*(?:\.\d+)?)\s*([kK])?`)
)

// FromPlainText reads a turn the way a person would read free text: the
// uppercase keywords AGREED, HIRED or ACCEPT accept, REJECTED rejects, and
// the last dollar amount is the offer. Both kinds of keyword cancel out.
func FromPlainText(raw string) ParsedTurn {
	text := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), "`"))

	accept := acceptPattern.MatchString(text)
	reject := rejectPattern.MatchString(text)
	decision := domain.DecisionNone
	switch {
	case accept && !reject:
		decision = domain.DecisionAccept
	case reject && !accept:
		decision = domain.DecisionReject
	}

	return ParsedTurn{
		Message:  text,
		Offer:    lastAmount(text),
		Decision: decision,
	}
}

// Interpret returns the schema reading of raw when it parses and the
// plain-text reading otherwise.
func Interpret(raw string) (ParsedTurn, *ParseFailure) {
	res := ParseTurn(raw)
	if res.OK() {
		return *res.Turn, nil
	}
	return FromPlainText(raw), res.Failure
}

func failure(raw, reason string) TurnResult {
	return TurnResult{Failure: &ParseFailure{Raw: raw, Reason: reason}}
}

func normalizeDecision(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ""
	case "accept", "accepted", "agree", "agreed", "hired":
		return string(domain.DecisionAccept)
	case "reject", "rejected", "decline", "declined":
		return string(domain.DecisionReject)
	case "none", "counter", "continue":
		return string(domain.DecisionNone)
	}
	return s
}

func lastAmount(text string) *float64 {
	matches := amountPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	m := matches[len(matches)-1]
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || v <= 0 {
		return nil
	}
	if m[2] != "" {
		v *= 1000
	}
	return &v
}

// amountHook lets offer and fit arrive as "$5,500", "5.5k" or "85%".
func amountHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int32, reflect.Int64:
	default:
		return data, nil
	}

	s := strings.TrimSpace(data.(string))
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	mult := 1.0
	if strings.HasSuffix(s, "k") || strings.HasSuffix(s, "K") {
		mult = 1000
		s = s[:len(s)-1]
	}
	if s == "" {
		return data, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", data)
	}
	return v * mult, nil
}
