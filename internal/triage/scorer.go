package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/medisync/frontdesk/pkg/config"
	"github.com/medisync/frontdesk/pkg/logger"
	"github.com/medisync/frontdesk/pkg/monitoring"
	"github.com/medisync/frontdesk/pkg/types"
)

const systemPrompt = "You are a medical triage expert. Analyze the patient's symptoms and vitals " +
	"to assign a triage score from 1-10, where 10 is most severe. Return only the number."

// ChatCompleter is the slice of the OpenAI client the scorer needs.
// *openai.Client satisfies it.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Scorer rates symptoms and vitals on a 1-10 severity scale by
// delegating to an LLM. Every failure path degrades to the default
// score; a scoring outage must never block patient intake.
type Scorer struct {
	client       ChatCompleter
	model        string
	timeout      time.Duration
	defaultScore int
	logger       *logger.Logger
}

// NewScorer creates a scorer backed by the OpenAI chat completion API
func NewScorer(cfg *config.TriageConfig, log *logger.Logger) *Scorer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return newScorer(openai.NewClientWithConfig(clientCfg), cfg, log)
}

// NewScorerWithClient creates a scorer with an injected completion client
func NewScorerWithClient(client ChatCompleter, cfg *config.TriageConfig, log *logger.Logger) *Scorer {
	return newScorer(client, cfg, log)
}

func newScorer(client ChatCompleter, cfg *config.TriageConfig, log *logger.Logger) *Scorer {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	defaultScore := cfg.DefaultScore
	if defaultScore < 1 || defaultScore > 10 {
		defaultScore = 5
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4
	}

	return &Scorer{
		client:       client,
		model:        model,
		timeout:      timeout,
		defaultScore: defaultScore,
		logger:       log,
	}
}

// Score returns a severity score in [1,10] for the given symptoms and
// vitals. Call failures and unparseable responses return the default.
func (s *Scorer) Score(ctx context.Context, symptoms string, vitals *types.Vitals) int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(symptoms, vitals),
			},
		},
		Temperature: 0,
		MaxTokens:   4,
	})
	if err != nil {
		s.logger.WithError(err).Warn("Triage scoring call failed, using default score")
		monitoring.RecordTriageFallback()
		return s.defaultScore
	}

	if len(resp.Choices) == 0 {
		s.logger.Warn("Triage scoring returned no choices, using default score")
		monitoring.RecordTriageFallback()
		return s.defaultScore
	}

	score, ok := parseScore(resp.Choices[0].Message.Content)
	if !ok {
		s.logger.Warnf("Unparseable triage response %q, using default score", resp.Choices[0].Message.Content)
		monitoring.RecordTriageFallback()
		return s.defaultScore
	}

	return clamp(score)
}

// buildPrompt formats the user message the way the scoring model expects
func buildPrompt(symptoms string, vitals *types.Vitals) string {
	vitalsJSON := "{}"
	if !vitals.IsEmpty() {
		if b, err := json.Marshal(vitals); err == nil {
			vitalsJSON = string(b)
		}
	}
	return fmt.Sprintf("Patient Symptoms: %s\nVitals: %s", symptoms, vitalsJSON)
}

// parseScore extracts the leading integer from the model response
func parseScore(content string) (int, bool) {
	trimmed := strings.TrimSpace(content)
	if v, err := strconv.Atoi(trimmed); err == nil {
		return v, true
	}

	// Fall back to the first run of digits in the response
	start := -1
	for i, r := range trimmed {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			v, err := strconv.Atoi(trimmed[start:i])
			return v, err == nil
		}
	}
	if start >= 0 {
		v, err := strconv.Atoi(trimmed[start:])
		return v, err == nil
	}
	return 0, false
}

// clamp bounds a raw score into [1,10]
func clamp(score int) int {
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}
