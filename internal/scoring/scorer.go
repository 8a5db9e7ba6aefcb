// Package scoring computes applicant/job compatibility from embeddings and
// skill sets. Everything here is pure and safe for concurrent use.
//
//	embeddingScore = round(50 * (cos + 1))
//	overlap        = |candidate ∩ required| / max(1, |required|)
//	score          = clamp(round(wE*embeddingScore + wS*100*overlap), 0, 100)
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"swiftjobs-backend/pkg/apperror"
)

// Weights blends the embedding and skill-overlap terms. They must sum to 1.
type Weights struct {
	Embedding float64
	Skills    float64
}

// DefaultWeights is the 70/30 split between semantic and skill fit.
func DefaultWeights() Weights {
	return Weights{Embedding: 0.7, Skills: 0.3}
}

func (w Weights) Validate() error {
	if w.Embedding < 0 || w.Skills < 0 {
		return apperror.Validation("score weights must be non-negative")
	}
	if math.Abs(w.Embedding+w.Skills-1) > 1e-9 {
		return apperror.Validation(fmt.Sprintf("score weights must sum to 1, got %.4f", w.Embedding+w.Skills))
	}
	return nil
}

// Result is the outcome of a single scoring call.
type Result struct {
	Score          int      `json:"score"`
	EmbeddingScore int      `json:"embedding_score"`
	SkillOverlap   float64  `json:"skill_overlap"`
	MatchedSkills  []string `json:"matched_skills"`
	MissingSkills  []string `json:"missing_skills"`
}

type Scorer struct {
	weights Weights
}

func NewScorer(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: w}, nil
}

func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score combines cosine similarity of the two embeddings with the overlap of
// candidateSkills against requiredSkills. Skill sets are directional: missing
// skills are always relative to the job's requirements.
func (s *Scorer) Score(profileEmbedding, jobEmbedding []float32, candidateSkills, requiredSkills []string) (*Result, error) {
	embScore, err := EmbeddingScore(profileEmbedding, jobEmbedding)
	if err != nil {
		return nil, err
	}

	matched, missing := CompareSkills(candidateSkills, requiredSkills)
	overlap := Overlap(len(matched), len(missing))

	final := math.Round(s.weights.Embedding*float64(embScore) + s.weights.Skills*100*overlap)

	return &Result{
		Score:          clamp(int(final), 0, 100),
		EmbeddingScore: embScore,
		SkillOverlap:   overlap,
		MatchedSkills:  matched,
		MissingSkills:  missing,
	}, nil
}

// EmbeddingScore maps cosine similarity from [-1,1] onto [0,100].
func EmbeddingScore(a, b []float32) (int, error) {
	cos, err := Cosine(a, b)
	if err != nil {
		return 0, err
	}
	return clamp(int(math.Round(50*(cos+1))), 0, 100), nil
}

// Cosine returns dot(a,b) / (|a|*|b|). Empty vectors, mismatched dimensions,
// non-finite components and zero-norm vectors are validation errors.
func Cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, apperror.Validation("embeddings must not be empty")
	}
	if len(a) != len(b) {
		return 0, apperror.Validation(fmt.Sprintf("embedding dimension mismatch: %d vs %d", len(a), len(b)))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
			return 0, apperror.Validation("embeddings must contain only finite values")
		}
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, apperror.Validation("embedding has zero norm")
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// rounding can push |cos| slightly past 1
	return math.Max(-1, math.Min(1, cos)), nil
}

// CompareSkills returns the required skills the candidate has and the ones
// they lack. Comparison ignores case and surrounding whitespace; output keeps
// the job's spelling, deduplicated and sorted.
func CompareSkills(candidateSkills, requiredSkills []string) (matched, missing []string) {
	have := make(map[string]struct{}, len(candidateSkills))
	for _, s := range candidateSkills {
		if k := normalizeSkill(s); k != "" {
			have[k] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(requiredSkills))
	matched = []string{}
	missing = []string{}
	for _, s := range requiredSkills {
		k := normalizeSkill(s)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := have[k]; ok {
			matched = append(matched, strings.TrimSpace(s))
		} else {
			missing = append(missing, strings.TrimSpace(s))
		}
	}
	sort.Strings(matched)
	sort.Strings(missing)
	return matched, missing
}

// Overlap is |matched| / max(1, |required|).
func Overlap(matched, missing int) float64 {
	required := matched + missing
	if required < 1 {
		required = 1
	}
	return float64(matched) / float64(required)
}

func normalizeSkill(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
