// Package llm defines the text-generation and embedding collaborators and
// guarded adapters around them.
package llm

import (
	"context"
	"strings"

	"swiftjobs-backend/pkg/apperror"
	"swiftjobs-backend/pkg/resilience"
)

// Request is one text-generation call. Instructions carry the standing role
// of the model; Prompt carries the per-call context.
type Request struct {
	Instructions string
	Prompt       string
	// JSON asks the backend for a JSON-only response.
	JSON bool
}

type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type guardedGenerator struct {
	next  Generator
	guard *resilience.Guard
}

// Guard routes every Generate call through g.
func Guard(next Generator, g *resilience.Guard) Generator {
	return &guardedGenerator{next: next, guard: g}
}

func (gg *guardedGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", apperror.Validation("prompt must not be empty")
	}
	return resilience.Do(ctx, gg.guard, func(ctx context.Context) (string, error) {
		return gg.next.Generate(ctx, req)
	})
}

type guardedEmbedder struct {
	next  Embedder
	guard *resilience.Guard
}

// GuardEmbedder routes every Embed call through g.
func GuardEmbedder(next Embedder, g *resilience.Guard) Embedder {
	return &guardedEmbedder{next: next, guard: g}
}

func (ge *guardedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperror.Validation("text to embed must not be empty")
	}
	return resilience.Do(ctx, ge.guard, func(ctx context.Context) ([]float32, error) {
		return ge.next.Embed(ctx, text)
	})
}

// ExtractJSON strips markdown code fences models like to wrap JSON in.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

// Unavailable stands in when no model is configured. Every call fails as an
// external service error, which callers already handle.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, Request) (string, error) {
	return "", apperror.ExternalService("text generation is not configured", nil)
}

func (Unavailable) Embed(context.Context, string) ([]float32, error) {
	return nil, apperror.ExternalService("embedding service is not configured", nil)
}
