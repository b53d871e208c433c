// Package llm asks a chat model to name the values expressed in a set of
// posts.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	DefaultModel = "gpt-4o-mini"
	// maxPromptChars bounds the post text sent in one prompt.
	maxPromptChars = 24000
	maxValues      = 10
)

const promptHeader = `You are helping a community member discover their personal values.
Read the posts below and name the core values they express.
Reply with JSON only, in the form {"values": ["value", ...]}.
Each value is one or two lowercase words, for example "honesty" or "open source".
Return between 3 and 7 values.

Posts:
`

// Generator turns posts into value labels using an llms.Model.
type Generator struct {
	model       llms.Model
	temperature float64
}

// New wraps an existing model.
func New(model llms.Model) *Generator {
	return &Generator{model: model, temperature: 0.2}
}

// NewOpenAI builds a Generator backed by an OpenAI-compatible endpoint.
// baseURL may be empty.
func NewOpenAI(apiKey, model, baseURL string) (*Generator, error) {
	if model == "" {
		model = DefaultModel
	}
	opts := []openai.Option{
		openai.WithModel(model),
		openai.WithToken(apiKey),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	m, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("openai client: %w", err)
	}
	return New(m), nil
}

// GenerateValues returns the values the model names for items, deduplicated
// case-insensitively in reply order.
func (g *Generator) GenerateValues(ctx context.Context, items []string) ([]string, error) {
	reply, err := llms.GenerateFromSinglePrompt(ctx, g.model, buildPrompt(items),
		llms.WithTemperature(g.temperature),
		llms.WithJSONMode(),
	)
	if err != nil {
		return nil, fmt.Errorf("generate values: %w", err)
	}
	values, err := parseValues(reply)
	if err != nil {
		return nil, err
	}
	return values, nil
}

func buildPrompt(items []string) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	for _, it := range items {
		line := "- " + strings.ReplaceAll(it, "\n", " ") + "\n"
		if b.Len()+len(line) > maxPromptChars {
			break
		}
		b.WriteString(line)
	}
	return b.String()
}

// parseValues accepts {"values": [...]} or a bare array, optionally inside a
// fenced code block. A reply that parses but names no values yields an empty
// list; only unparseable replies are errors.
func parseValues(reply string) ([]string, error) {
	s := strings.TrimSpace(reply)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var raw []string
	var obj struct {
		Values []string `json:"values"`
	}
	if err := json.Unmarshal([]byte(s), &obj); err == nil {
		raw = obj.Values
	} else if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("parse model reply: %w", err)
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) == maxValues {
			break
		}
	}
	return out, nil
}
