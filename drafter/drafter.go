// Package drafter asks a language model to pick reply-worthy posts and
// write a reply for each of them.
package drafter

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"reply-bot/config"
	"reply-bot/logger"
	"reply-bot/models"
)

// Generator produces raw model text for a system instruction and prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// GeminiGenerator calls the Gemini API.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGeminiGenerator(ctx context.Context, cfg config.LLMConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: cfg.ModelName, temperature: cfg.Temperature}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	temperature := g.temperature
	result, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
			Temperature:       &temperature,
			ResponseMIMEType:  "application/json",
		},
	)
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}

// Drafter selects posts and drafts replies for one batch per call.
type Drafter struct {
	gen         Generator
	limiter     *Limiter
	floor       int
	landingPage string
}

func New(gen Generator, limiter *Limiter, floor int, landingPage string) *Drafter {
	return &Drafter{gen: gen, limiter: limiter, floor: floor, landingPage: landingPage}
}

// SelectAndDraft returns postID -> reply for the posts the model selected.
// A malformed response yields *models.DraftParseError.
func (d *Drafter) SelectAndDraft(ctx context.Context, batch []models.ScoredPost, phrase string) (map[string]string, error) {
	if len(batch) == 0 {
		return map[string]string{}, nil
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	raw, err := d.gen.Generate(ctx, systemInstruction(d.landingPage), BuildPrompt(batch, phrase, d.floor))
	if err != nil {
		return nil, fmt.Errorf("draft request failed: %w", err)
	}

	drafts, err := ParseDrafts(raw)
	if err != nil {
		logger.Log.Warnf("[%s] could not parse draft response: %v", phrase, err)
		return nil, err
	}
	logger.Log.Debugf("[%s] model drafted %d of %d posts", phrase, len(drafts), len(batch))
	return drafts, nil
}
