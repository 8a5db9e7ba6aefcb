package validation_test

import (
	"math"
	"testing"

	"swiftjobs-backend/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type swipeInput struct {
	UserID string `validate:"required"`
	Action string `validate:"required,swipe_action"`
	Role   string `validate:"required,swipe_role"`
}

type vectorInput struct {
	Embedding []float32 `validate:"omitempty,finite"`
	Skills    []string  `validate:"dive,skill"`
}

func TestSwipeRules(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Struct(swipeInput{UserID: "u1", Action: "LIKE", Role: "hr"}))

	err := v.Struct(swipeInput{Action: "superlike", Role: "admin"})
	require.Error(t, err)

	msgs := validation.FormatValidationErrors(err)
	assert.ElementsMatch(t, []string{
		"userId is required",
		"action must be like or dislike",
		"role must be applicant or employer",
	}, msgs)
}

func TestFiniteAndSkill(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Struct(vectorInput{Embedding: []float32{0.1, 0.2}, Skills: []string{"C++", "node.js", "CI/CD"}}))

	err := v.Struct(vectorInput{Embedding: []float32{float32(math.NaN())}})
	require.Error(t, err)
	assert.Contains(t, validation.Summary(err), "embedding must be a finite number")

	err = v.Struct(vectorInput{Skills: []string{"go", "  "}})
	require.Error(t, err)
}
