package provider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/storyweave/videopipe/internal/domain/model"
)

const defaultLumaBaseURL = "https://api.lumalabs.ai/dream-machine/v1"

// LumaConfig holds configuration for the Luma adapter.
type LumaConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Luma is the adapter for Luma's asynchronous generation API. Keyframes map
// to Luma's frame0/frame1 image conditioning.
type Luma struct {
	client apiClient
}

var _ Generator = (*Luma)(nil)

func NewLuma(cfg LumaConfig) *Luma {
	base := cfg.BaseURL
	if base == "" {
		base = defaultLumaBaseURL
	}
	return &Luma{client: newAPIClient(base, cfg.APIKey, cfg.HTTPClient)}
}

func (l *Luma) Name() string     { return NameLuma }
func (l *Luma) MaxDuration() int { return MaxDurationLuma }

type lumaKeyframe struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type lumaSubmitRequest struct {
	Prompt      string                  `json:"prompt"`
	AspectRatio string                  `json:"aspect_ratio,omitempty"`
	Duration    string                  `json:"duration,omitempty"`
	Keyframes   map[string]lumaKeyframe `json:"keyframes,omitempty"`
}

type lumaGeneration struct {
	ID     string `json:"id"`
	State  string `json:"state"`
	Assets struct {
		Video     string `json:"video"`
		Thumbnail string `json:"thumbnail"`
	} `json:"assets"`
	FailureReason string `json:"failure_reason"`
}

func (l *Luma) Generate(ctx context.Context, req model.GenerationRequest) model.GenerationResult {
	if res := checkDuration(l.Name(), l.MaxDuration(), req); res != nil {
		return *res
	}

	payload := lumaSubmitRequest{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Duration:    fmt.Sprintf("%ds", req.Duration),
	}
	if req.StartKeyframe != "" || req.EndKeyframe != "" {
		payload.Keyframes = make(map[string]lumaKeyframe, 2)
		if req.StartKeyframe != "" {
			payload.Keyframes["frame0"] = lumaKeyframe{Type: "image", URL: req.StartKeyframe}
		}
		if req.EndKeyframe != "" {
			payload.Keyframes["frame1"] = lumaKeyframe{Type: "image", URL: req.EndKeyframe}
		}
	}

	var gen lumaGeneration
	if err := l.client.doJSON(ctx, http.MethodPost, "/generations", payload, &gen); err != nil {
		return failure("luma generation failed: %v", err)
	}

	return model.GenerationResult{
		Success:       true,
		JobID:         gen.ID,
		EstimatedTime: req.Duration * 15,
	}
}

func (l *Luma) CheckStatus(ctx context.Context, jobID string) model.GenerationResult {
	var gen lumaGeneration
	if err := l.client.doJSON(ctx, http.MethodGet, "/generations/"+jobID, nil, &gen); err != nil {
		return failure("luma status check failed: %v", err)
	}

	switch gen.State {
	case "completed":
		return model.GenerationResult{
			Success:      true,
			JobID:        gen.ID,
			VideoURL:     gen.Assets.Video,
			ThumbnailURL: gen.Assets.Thumbnail,
		}
	case "failed":
		msg := gen.FailureReason
		if msg == "" {
			msg = "generation failed"
		}
		return failure("luma generation failed: %s", msg)
	default:
		// queued, dreaming: still in flight.
		return model.GenerationResult{Success: true, JobID: gen.ID}
	}
}
