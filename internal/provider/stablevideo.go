package provider

import (
	"context"
	"net/http"

	"github.com/storyweave/videopipe/internal/domain/model"
)

const defaultStableVideoBaseURL = "https://api.stability.ai/v2beta"

// StableVideoConfig holds configuration for the Stable Video adapter.
type StableVideoConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// StableVideo is the adapter for Stability's short-clip generation endpoint.
// Clips are capped at two seconds and the call completes synchronously.
type StableVideo struct {
	client apiClient
}

var _ Generator = (*StableVideo)(nil)

func NewStableVideo(cfg StableVideoConfig) *StableVideo {
	base := cfg.BaseURL
	if base == "" {
		base = defaultStableVideoBaseURL
	}
	return &StableVideo{client: newAPIClient(base, cfg.APIKey, cfg.HTTPClient)}
}

func (s *StableVideo) Name() string     { return NameStableVideo }
func (s *StableVideo) MaxDuration() int { return MaxDurationStableVideo }

type stableVideoSubmitRequest struct {
	Prompt      string `json:"prompt"`
	Image       string `json:"image,omitempty"`
	Seconds     int    `json:"seconds"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	MotionLevel string `json:"motion_level,omitempty"`
}

type stableVideoResponse struct {
	VideoURL     string `json:"video_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Errors       []string `json:"errors"`
}

func (s *StableVideo) Generate(ctx context.Context, req model.GenerationRequest) model.GenerationResult {
	if res := checkDuration(s.Name(), s.MaxDuration(), req); res != nil {
		return *res
	}

	payload := stableVideoSubmitRequest{
		Prompt:      req.Prompt,
		Seconds:     req.Duration,
		AspectRatio: req.AspectRatio,
		MotionLevel: req.Motion,
	}
	if req.StartKeyframe != "" {
		payload.Image = req.StartKeyframe
	} else if len(req.ReferenceImages) > 0 {
		payload.Image = req.ReferenceImages[0]
	}

	var resp stableVideoResponse
	if err := s.client.doJSON(ctx, http.MethodPost, "/image-to-video", payload, &resp); err != nil {
		return failure("stable-video generation failed: %v", err)
	}
	if len(resp.Errors) > 0 {
		return failure("stable-video generation failed: %s", resp.Errors[0])
	}
	if resp.VideoURL == "" {
		return failure("stable-video generation failed: response carried no video URL")
	}

	return model.GenerationResult{
		Success:      true,
		VideoURL:     resp.VideoURL,
		ThumbnailURL: resp.ThumbnailURL,
	}
}

// CheckStatus is not applicable to a synchronous provider.
func (s *StableVideo) CheckStatus(ctx context.Context, jobID string) model.GenerationResult {
	return failure("stable-video is a synchronous provider and has no status endpoint")
}
