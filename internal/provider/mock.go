package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/storyweave/videopipe/internal/domain/model"
)

const mockBaseURL = "https://mock.videopipe.local"

// Mock is the credential-free fallback adapter. It produces a deterministic
// synthetic result after a small artificial delay so the downstream pipeline
// can be exercised end-to-end offline. Duration limits are still enforced to
// keep the observable contract identical to the live adapter.
type Mock struct {
	name        string
	maxDuration int
	delay       time.Duration
}

var _ Generator = (*Mock)(nil)

// NewMock creates a mock adapter impersonating the named provider.
func NewMock(name string, maxDuration int, delay time.Duration) *Mock {
	return &Mock{
		name:        name,
		maxDuration: maxDuration,
		delay:       delay,
	}
}

func (m *Mock) Name() string     { return m.name }
func (m *Mock) MaxDuration() int { return m.maxDuration }

func (m *Mock) Generate(ctx context.Context, req model.GenerationRequest) model.GenerationResult {
	if res := checkDuration(m.name, m.maxDuration, req); res != nil {
		return *res
	}

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return failure("mock generation cancelled: %v", ctx.Err())
		}
	}

	id := m.assetID(req)
	return model.GenerationResult{
		Success:       true,
		VideoURL:      mockBaseURL + "/" + m.name + "/" + id + ".mp4",
		ThumbnailURL:  mockBaseURL + "/" + m.name + "/" + id + ".jpg",
		EstimatedTime: req.Duration,
		Mock:          true,
	}
}

// CheckStatus always reports completion: the mock has no async path.
func (m *Mock) CheckStatus(ctx context.Context, jobID string) model.GenerationResult {
	return model.GenerationResult{
		Success:  true,
		JobID:    jobID,
		VideoURL: mockBaseURL + "/" + m.name + "/" + jobID + ".mp4",
		Mock:     true,
	}
}

// assetID derives a stable identifier from the request so repeated calls
// with the same input yield the same synthetic URLs.
func (m *Mock) assetID(req model.GenerationRequest) string {
	sum := sha256.Sum256([]byte(m.name + "|" + req.Prompt + "|" + req.AspectRatio))
	return hex.EncodeToString(sum[:8])
}
