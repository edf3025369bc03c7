// Package generator produces fallback messages with Gemini.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	logx "wisdombot/pkg/logx"
)

const DefaultModel = "gemini-2.0-flash"

type Config struct {
	APIKey string
	Model  string
	// SystemInstruction frames every request. Empty sends none.
	SystemInstruction string
	Temperature       float32
	Timeout           time.Duration
	// BaseURL overrides the API endpoint. Tests point it at a local server.
	BaseURL string
}

// Gemini is a message.Generator backed by the Gemini API.
type Gemini struct {
	client  *genai.Client
	model   string
	config  *genai.GenerateContentConfig
	timeout time.Duration
	log     logx.Logger
}

func New(ctx context.Context, cfg Config, log logx.Logger) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("generator: api key is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("generator: new client: %w", err)
	}

	gc := &genai.GenerateContentConfig{}
	if s := strings.TrimSpace(cfg.SystemInstruction); s != "" {
		gc.SystemInstruction = genai.NewContentFromText(s, genai.RoleUser)
	}
	if cfg.Temperature > 0 {
		gc.Temperature = genai.Ptr(cfg.Temperature)
	}

	return &Gemini{
		client:  client,
		model:   model,
		config:  gc,
		timeout: cfg.Timeout,
		log:     log.With(logx.String("comp", "generator"), logx.String("model", model)),
	}, nil
}

// Generate sends one prompt and returns the text of the first candidate.
// The text is returned verbatim.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	g.log.Debug("content generated", logx.Int("runes", len([]rune(text))), logx.Duration("took", time.Since(start)))
	return text, nil
}
