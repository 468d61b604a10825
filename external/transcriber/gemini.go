package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/foxseedlab/kikitori/internal/transcriber"
)

// GeminiBackend transcribes whole recordings with a Gemini generateContent
// call. It has no streaming mode.
type GeminiBackend struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewGeminiBackend(baseURL, apiKey, model string, timeout time.Duration) *GeminiBackend {
	return &GeminiBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiBackend) StartSession(context.Context, transcriber.AudioFormat) (string, error) {
	return "", fmt.Errorf("gemini stream start: %w", transcriber.ErrUnsupported)
}

func (g *GeminiBackend) SendChunk(context.Context, string, []byte) error {
	return fmt.Errorf("gemini stream chunk: %w", transcriber.ErrUnsupported)
}

func (g *GeminiBackend) StopAndTranscribe(context.Context, string) (string, error) {
	return "", fmt.Errorf("gemini stream stop: %w", transcriber.ErrUnsupported)
}

func (g *GeminiBackend) AbortSession(context.Context, string) error {
	return nil
}

func (g *GeminiBackend) TranscribeBatch(ctx context.Context, req transcriber.BatchRequest) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: req.Instruction},
				{InlineData: &geminiInlineData{MimeType: req.MimeType, Data: req.AudioBase64}},
			},
		}},
		GenerationConfig: geminiGenerationConfig{Temperature: 0},
	})
	if err != nil {
		return "", fmt.Errorf("gemini: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini: %w: %w", transcriber.ErrTransport, redactURL(err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var out geminiResponse
	if err := decodeResponse("gemini", resp, &out); err != nil {
		return "", err
	}
	text, ok := out.candidateText()
	if !ok {
		return "", fmt.Errorf("gemini: %w: response has no candidate text", transcriber.ErrProtocol)
	}
	return strings.TrimSpace(text), nil
}

func (r geminiResponse) candidateText() (string, bool) {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return "", false
	}
	text := r.Candidates[0].Content.Parts[0].Text
	if text == nil {
		return "", false
	}
	return *text, true
}

// redactURL strips the query string, which carries the API key, from
// client errors.
func redactURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		if u, perr := url.Parse(ue.URL); perr == nil {
			u.RawQuery = ""
			ue.URL = u.String()
		}
	}
	return err
}
