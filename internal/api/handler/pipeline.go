package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/storyweave/videopipe/internal/domain/model"
	"github.com/storyweave/videopipe/internal/domain/repository"
	"github.com/storyweave/videopipe/internal/provider"
	"github.com/storyweave/videopipe/internal/usecase"
)

// Request/Response types

type SubmitPipelineRequest struct {
	ProjectID       string   `json:"project_id"`
	Provider        string   `json:"provider"`
	Prompt          string   `json:"prompt"`
	ReferenceImages []string `json:"reference_images,omitempty"`
	StartKeyframe   string   `json:"start_keyframe,omitempty"`
	EndKeyframe     string   `json:"end_keyframe,omitempty"`
	Duration        int      `json:"duration"`
	AspectRatio     string   `json:"aspect_ratio,omitempty"`
	Resolution      string   `json:"resolution,omitempty"`
	Motion          string   `json:"motion,omitempty"`
	Style           string   `json:"style,omitempty"`
}

type JobResponse struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	Provider    string `json:"provider"`
	VideoURL    string `json:"video_url,omitempty"`
	PlaylistURL string `json:"playlist_url,omitempty"`
	PosterURL   string `json:"poster_url,omitempty"`
	Error       string `json:"error,omitempty"`
	StartedAt   string `json:"started_at"`
	EndedAt     string `json:"ended_at,omitempty"`
}

type SubmitPipelineResponse struct {
	JobResponse
	EstimatedSeconds int `json:"estimated_seconds"`
}

// PipelineHandler handles pipeline-related HTTP requests.
type PipelineHandler struct {
	svc usecase.PipelineService
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(svc usecase.PipelineService) *PipelineHandler {
	return &PipelineHandler{svc: svc}
}

// Submit handles POST /v1/pipeline
func (h *PipelineHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitPipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if req.ProjectID == "" {
		Error(w, http.StatusBadRequest, "invalid_project_id", "Project ID is required")
		return
	}
	if req.Prompt == "" {
		Error(w, http.StatusBadRequest, "invalid_prompt", "Prompt is required")
		return
	}
	if req.Duration <= 0 {
		Error(w, http.StatusBadRequest, "invalid_duration", "Duration must be a positive number of seconds")
		return
	}

	output, err := h.svc.Submit(r.Context(), usecase.SubmitInput{
		ProjectID: req.ProjectID,
		Request: model.GenerationRequest{
			Provider:        req.Provider,
			Prompt:          req.Prompt,
			ReferenceImages: req.ReferenceImages,
			StartKeyframe:   req.StartKeyframe,
			EndKeyframe:     req.EndKeyframe,
			Duration:        req.Duration,
			AspectRatio:     req.AspectRatio,
			Resolution:      req.Resolution,
			Motion:          req.Motion,
			Style:           req.Style,
		},
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusAccepted, SubmitPipelineResponse{
		JobResponse:      toJobResponse(output.Job),
		EstimatedSeconds: output.EstimatedSeconds,
	})
}

// Get handles GET /v1/pipeline/{id}
func (h *PipelineHandler) Get(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid_job_id", "Job ID must be a valid UUID")
		return
	}

	job, err := h.svc.GetJob(r.Context(), jobID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, toJobResponse(job))
}

func (h *PipelineHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrJobNotFound):
		Error(w, http.StatusNotFound, "job_not_found", "Pipeline job not found")
	case errors.Is(err, provider.ErrUnknownProvider):
		Error(w, http.StatusBadRequest, "unknown_provider", "Unknown generation provider")
	case errors.Is(err, model.ErrEmptyProjectID):
		Error(w, http.StatusBadRequest, "invalid_project_id", "Project ID cannot be empty")
	case errors.Is(err, model.ErrEmptyPrompt):
		Error(w, http.StatusBadRequest, "invalid_prompt", "Prompt cannot be empty")
	default:
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

func toJobResponse(job *model.PipelineJob) JobResponse {
	resp := JobResponse{
		ID:          job.ID.String(),
		ProjectID:   job.ProjectID,
		Status:      job.Status.String(),
		Progress:    job.Progress,
		Provider:    job.Meta.Provider,
		VideoURL:    job.VideoURL,
		PlaylistURL: job.PlaylistURL,
		PosterURL:   job.PosterURL,
		Error:       job.Error,
		StartedAt:   job.StartedAt.Format(time.RFC3339),
	}
	if job.EndedAt != nil {
		resp.EndedAt = job.EndedAt.Format(time.RFC3339)
	}
	return resp
}
