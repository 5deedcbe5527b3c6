// Package transform sends composed text through the external generation
// service: wholesale message rewriting and boilerplate synthesis from a job
// description. Boilerplate degrades to a deterministic local fallback when
// the service misbehaves; rewriting does not, and reports the failure
// instead.
package transform

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kalambet/outreach/internal/ollama"
)

// Generator is the slice of the Ollama client the gateway needs. Injected
// so tests can stand in a double.
type Generator interface {
	Generate(ctx context.Context, req ollama.GenerateRequest) (string, error)
}

// Gateway wraps a Generator with the two outreach transforms.
type Gateway struct {
	gen       Generator
	model     string
	programme string
}

// NewGateway creates a Gateway using the given model. programme names the
// course on whose behalf boilerplate is written.
func NewGateway(gen Generator, model, programme string) *Gateway {
	return &Gateway{gen: gen, model: model, programme: programme}
}

// Rewrite asks the service to rewrite the composed message for tone and
// clarity. There is no fallback: on failure the caller keeps the original
// text and surfaces the error.
func (g *Gateway) Rewrite(ctx context.Context, message string) (string, error) {
	out, err := g.gen.Generate(ctx, ollama.GenerateRequest{
		Model:  g.model,
		Prompt: message,
		System: rewriteSystemPrompt,
	})
	if err != nil {
		return "", fmt.Errorf("rewrite: %w", err)
	}
	return out, nil
}

// Boilerplate synthesizes an outreach pitch for the given job description.
// When the service is unreachable or errors, it returns the deterministic
// local fallback and reports fallback=true; the caller sees degraded
// success, not failure.
func (g *Gateway) Boilerplate(ctx context.Context, jobDescription string) (text string, fallback bool) {
	out, err := g.gen.Generate(ctx, ollama.GenerateRequest{
		Model:  g.model,
		System: boilerplateSystemPrompt(g.programme),
		Prompt: fmt.Sprintf(boilerplateUserPrompt, jobDescription),
		Options: &ollama.Options{
			Temperature:   0.6,
			TopP:          0.9,
			RepeatPenalty: 1.1,
		},
	})
	if err != nil {
		slog.Warn("generation service unavailable, using boilerplate fallback", "error", err)
		return fallbackBoilerplate(jobDescription), true
	}
	return out, false
}
