package provider

import (
	"context"
	"net/http"

	"github.com/storyweave/videopipe/internal/domain/model"
)

const defaultRunwayBaseURL = "https://api.runwayml.com/v1"

// RunwayConfig holds configuration for the Runway adapter.
type RunwayConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Runway is the adapter for Runway's asynchronous generation API: a submit
// call returns a task handle, and the task is polled until it settles.
type Runway struct {
	client apiClient
}

var _ Generator = (*Runway)(nil)

func NewRunway(cfg RunwayConfig) *Runway {
	base := cfg.BaseURL
	if base == "" {
		base = defaultRunwayBaseURL
	}
	return &Runway{client: newAPIClient(base, cfg.APIKey, cfg.HTTPClient)}
}

func (r *Runway) Name() string     { return NameRunway }
func (r *Runway) MaxDuration() int { return MaxDurationRunway }

type runwaySubmitRequest struct {
	PromptText string   `json:"promptText"`
	Duration   int      `json:"duration"`
	Ratio      string   `json:"ratio,omitempty"`
	PromptImgs []string `json:"promptImages,omitempty"`
}

type runwayTask struct {
	ID             string   `json:"id"`
	Status         string   `json:"status"`
	Output         []string `json:"output"`
	Failure        string   `json:"failure"`
	ETASeconds     int      `json:"etaSeconds"`
	ProgressRatio  float64  `json:"progressRatio"`
	ThumbnailURL   string   `json:"thumbnailUrl"`
	GeneratedAudio string   `json:"generatedAudio"`
}

func (r *Runway) Generate(ctx context.Context, req model.GenerationRequest) model.GenerationResult {
	if res := checkDuration(r.Name(), r.MaxDuration(), req); res != nil {
		return *res
	}

	payload := runwaySubmitRequest{
		PromptText: req.Prompt,
		Duration:   req.Duration,
		Ratio:      req.AspectRatio,
		PromptImgs: req.ReferenceImages,
	}

	var task runwayTask
	if err := r.client.doJSON(ctx, http.MethodPost, "/tasks", payload, &task); err != nil {
		return failure("runway generation failed: %v", err)
	}

	eta := task.ETASeconds
	if eta == 0 {
		eta = req.Duration * 10
	}

	return model.GenerationResult{
		Success:       true,
		JobID:         task.ID,
		EstimatedTime: eta,
	}
}

func (r *Runway) CheckStatus(ctx context.Context, jobID string) model.GenerationResult {
	var task runwayTask
	if err := r.client.doJSON(ctx, http.MethodGet, "/tasks/"+jobID, nil, &task); err != nil {
		return failure("runway status check failed: %v", err)
	}

	switch task.Status {
	case "SUCCEEDED":
		res := model.GenerationResult{
			Success:      true,
			JobID:        task.ID,
			ThumbnailURL: task.ThumbnailURL,
			AudioURL:     task.GeneratedAudio,
		}
		if len(task.Output) > 0 {
			res.VideoURL = task.Output[0]
		}
		return res
	case "FAILED", "CANCELLED":
		msg := task.Failure
		if msg == "" {
			msg = "task " + task.Status
		}
		return failure("runway generation failed: %s", msg)
	default:
		// PENDING, RUNNING, THROTTLED: still in flight.
		return model.GenerationResult{Success: true, JobID: task.ID}
	}
}
