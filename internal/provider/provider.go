// Package provider adapts heterogeneous third-party video-generation APIs to
// a single Generator interface. Adapters hold no mutable state between calls;
// network and API errors are converted to failed GenerationResults and never
// propagate to the caller.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/storyweave/videopipe/internal/domain/model"
)

// Provider names understood by the registry.
const (
	NameRunway      = "runway"
	NameLuma        = "luma"
	NamePika        = "pika"
	NameStableVideo = "stable-video"
)

// Maximum generation durations per provider, in seconds.
const (
	MaxDurationRunway      = 10
	MaxDurationLuma        = 5
	MaxDurationPika        = 3
	MaxDurationStableVideo = 2
)

// ErrUnknownProvider is returned when a request names a provider the
// registry does not know.
var ErrUnknownProvider = errors.New("unknown provider")

// Generator is the capability interface every provider adapter satisfies.
//
// Generate submits one canonical request. Synchronous providers return a
// populated VideoURL directly; asynchronous providers return only JobID and
// EstimatedTime, and the caller polls CheckStatus until the result carries a
// VideoURL or an explicit failure. Adapters are stateless between calls.
type Generator interface {
	// Name returns the provider identifier.
	Name() string

	// MaxDuration returns the provider's maximum clip duration in seconds.
	MaxDuration() int

	// Generate submits a generation request. Failures are carried inside the
	// result, never returned as errors.
	Generate(ctx context.Context, req model.GenerationRequest) model.GenerationResult

	// CheckStatus polls a previously submitted asynchronous job.
	CheckStatus(ctx context.Context, jobID string) model.GenerationResult
}

// Credentials holds the per-provider API keys. An empty key degrades that
// provider to the deterministic mock adapter at registry construction time,
// so downstream code never checks credentials itself.
type Credentials struct {
	RunwayAPIKey    string
	LumaAPIKey      string
	PikaAPIKey      string
	StabilityAPIKey string
}

// Registry is the closed set of known providers, keyed by name.
type Registry struct {
	generators map[string]Generator
}

// NewRegistry builds the provider set. For every provider with a configured
// credential a live HTTP adapter is registered; otherwise the mock fallback
// takes its place behind the same interface.
func NewRegistry(creds Credentials, logger *slog.Logger) *Registry {
	generators := make(map[string]Generator, 4)

	register := func(name string, apiKey string, maxDuration int, live func() Generator) {
		if apiKey == "" {
			logger.Warn("no credential configured, using mock adapter",
				slog.String("provider", name),
			)
			generators[name] = NewMock(name, maxDuration, 200*time.Millisecond)
			return
		}
		generators[name] = live()
	}

	register(NameRunway, creds.RunwayAPIKey, MaxDurationRunway, func() Generator {
		return NewRunway(RunwayConfig{APIKey: creds.RunwayAPIKey})
	})
	register(NameLuma, creds.LumaAPIKey, MaxDurationLuma, func() Generator {
		return NewLuma(LumaConfig{APIKey: creds.LumaAPIKey})
	})
	register(NamePika, creds.PikaAPIKey, MaxDurationPika, func() Generator {
		return NewPika(PikaConfig{APIKey: creds.PikaAPIKey})
	})
	register(NameStableVideo, creds.StabilityAPIKey, MaxDurationStableVideo, func() Generator {
		return NewStableVideo(StableVideoConfig{APIKey: creds.StabilityAPIKey})
	})

	return &Registry{generators: generators}
}

// Get returns the adapter for the named provider.
func (r *Registry) Get(name string) (Generator, error) {
	gen, ok := r.generators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return gen, nil
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// failure builds a failed result with a formatted message.
func failure(format string, args ...any) model.GenerationResult {
	return model.GenerationResult{
		Success: false,
		Error:   fmt.Sprintf(format, args...),
	}
}

// checkDuration validates the request duration against the provider maximum.
// Returns a non-nil failed result when the limit is exceeded; no network
// call happens in that case.
func checkDuration(name string, maxDuration int, req model.GenerationRequest) *model.GenerationResult {
	if req.Duration > maxDuration {
		res := failure("Duration %ds exceeds maximum %ds for provider %s",
			req.Duration, maxDuration, name)
		return &res
	}
	return nil
}
