package model

// GenerationRequest is the canonical, provider-independent description of a
// video generation call. It is an immutable value; validation against the
// provider's duration limit happens before dispatch.
type GenerationRequest struct {
	Provider        string
	Prompt          string
	ReferenceImages []string
	StartKeyframe   string
	EndKeyframe     string
	Duration        int    // seconds
	AspectRatio     string // e.g. "16:9"
	Resolution      string
	Motion          string
	Style           string
}

// GenerationResult is the normalized outcome of a provider call.
//
// For synchronous providers Success and VideoURL are populated directly.
// For asynchronous providers only JobID and EstimatedTime are set at first;
// the caller polls CheckStatus with the same result shape until
// Success && VideoURL != "" or Error is set.
type GenerationResult struct {
	Success       bool
	VideoURL      string
	AudioURL      string
	ThumbnailURL  string
	JobID         string
	EstimatedTime int // seconds
	Error         string

	// Mock marks results produced by the credential-free fallback adapter.
	// It is the only way callers can distinguish synthetic output.
	Mock bool
}

// Pending reports whether the result is the intermediate async state:
// accepted by the provider but not yet carrying a video URL.
func (r GenerationResult) Pending() bool {
	return r.Success && r.VideoURL == "" && r.JobID != ""
}
