package provider

import (
	"context"
	"net/http"

	"github.com/storyweave/videopipe/internal/domain/model"
)

const defaultPikaBaseURL = "https://api.pika.art/v1"

// PikaConfig holds configuration for the Pika adapter.
type PikaConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Pika is the adapter for Pika's synchronous generation endpoint: the submit
// call blocks server-side and returns the finished asset URLs directly.
type Pika struct {
	client apiClient
}

var _ Generator = (*Pika)(nil)

func NewPika(cfg PikaConfig) *Pika {
	base := cfg.BaseURL
	if base == "" {
		base = defaultPikaBaseURL
	}
	return &Pika{client: newAPIClient(base, cfg.APIKey, cfg.HTTPClient)}
}

func (p *Pika) Name() string     { return NamePika }
func (p *Pika) MaxDuration() int { return MaxDurationPika }

type pikaSubmitRequest struct {
	Prompt      string `json:"prompt"`
	Duration    int    `json:"duration"`
	AspectRatio string `json:"aspectRatio,omitempty"`
	Motion      string `json:"motion,omitempty"`
	Style       string `json:"style,omitempty"`
}

type pikaResponse struct {
	VideoURL     string `json:"videoUrl"`
	AudioURL     string `json:"audioUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Error        string `json:"error"`
}

func (p *Pika) Generate(ctx context.Context, req model.GenerationRequest) model.GenerationResult {
	if res := checkDuration(p.Name(), p.MaxDuration(), req); res != nil {
		return *res
	}

	payload := pikaSubmitRequest{
		Prompt:      req.Prompt,
		Duration:    req.Duration,
		AspectRatio: req.AspectRatio,
		Motion:      req.Motion,
		Style:       req.Style,
	}

	var resp pikaResponse
	if err := p.client.doJSON(ctx, http.MethodPost, "/videos/generate", payload, &resp); err != nil {
		return failure("pika generation failed: %v", err)
	}
	if resp.Error != "" {
		return failure("pika generation failed: %s", resp.Error)
	}
	if resp.VideoURL == "" {
		return failure("pika generation failed: response carried no video URL")
	}

	return model.GenerationResult{
		Success:      true,
		VideoURL:     resp.VideoURL,
		AudioURL:     resp.AudioURL,
		ThumbnailURL: resp.ThumbnailURL,
	}
}

// CheckStatus is not applicable to a synchronous provider.
func (p *Pika) CheckStatus(ctx context.Context, jobID string) model.GenerationResult {
	return failure("pika is a synchronous provider and has no status endpoint")
}
