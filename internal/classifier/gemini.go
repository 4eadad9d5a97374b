package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/HansBhatia/genderscan/internal/config"
	"github.com/HansBhatia/genderscan/internal/model"
)

// systemPrompt pins the model to a terse YES/NO verdict format so the
// answer can be parsed by prefix.
const systemPrompt = "You are a gender detection assistant. " +
	"Analyze the profile picture when one is provided, together with the name, " +
	"to determine whether the person appears to be male. Be concise. " +
	"Return only: YES/NO and a brief reason."

// maxVerdictTokens caps the response size. A verdict is one word and a
// short clause; anything longer is wasted spend.
const maxVerdictTokens = 100

// Gemini is a Classifier backed by Google's Gemini API. One instance is
// shared by all classification goroutines; the underlying client is
// concurrency-safe.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *slog.Logger
}

// NewGemini creates the Gemini classifier with temperature zero for
// repeatable verdicts.
func NewGemini(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	m := client.GenerativeModel(cfg.Model)
	m.SetTemperature(0)
	m.SetMaxOutputTokens(maxVerdictTokens)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	return &Gemini{
		client: client,
		model:  m,
		logger: logger,
	}, nil
}

// Detect asks Gemini for a verdict. A failed call comes back as a
// {Success: false} value with the failure in Reasoning.
func (g *Gemini) Detect(ctx context.Context, req Request) model.Classification {
	parts := make([]genai.Part, 0, 2)
	if len(req.Avatar) > 0 {
		parts = append(parts, genai.ImageData(imageFormat(req.AvatarMIME), req.Avatar))
		parts = append(parts, genai.Text(fmt.Sprintf(
			"Is this person male? Name: %q, Username: %q", req.FullName, req.Username)))
	} else {
		parts = append(parts, genai.Text(fmt.Sprintf(
			"Is this person male based on the name? Name: %q, Username: %q", req.FullName, req.Username)))
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		g.logger.Warn("classification call failed",
			slog.String("username", req.Username),
			slog.String("error", err.Error()))
		return model.Classification{Reasoning: "error: " + err.Error()}
	}

	verdict, err := verdictText(resp)
	if err != nil {
		return model.Classification{Reasoning: "error: " + err.Error()}
	}
	return classificationFromVerdict(verdict)
}

// Close releases the underlying API client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// classificationFromVerdict parses the model's reply. The verdict format
// is a YES/NO prefix; anything that does not start with YES counts as
// not male, which errs on the side of rejection.
func classificationFromVerdict(verdict string) model.Classification {
	verdict = strings.TrimSpace(verdict)
	return model.Classification{
		IsMale:    strings.HasPrefix(strings.ToUpper(verdict), "YES"),
		Reasoning: verdict,
		Success:   true,
	}
}

// verdictText flattens the first candidate's text parts.
func verdictText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", errors.New("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}

// imageFormat converts a MIME type to the bare format genai.ImageData
// expects ("image/jpeg" -> "jpeg"). Unknown types default to jpeg, which
// is what the avatar CDN serves.
func imageFormat(mime string) string {
	if format, ok := strings.CutPrefix(mime, "image/"); ok && format != "" {
		return format
	}
	return "jpeg"
}
