package provider

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/storyweave/videopipe/internal/domain/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRegistry_MockFallback(t *testing.T) {
	// No credentials at all: every provider degrades to the mock adapter.
	reg := NewRegistry(Credentials{}, discardLogger())

	for _, name := range []string{NameRunway, NameLuma, NamePika, NameStableVideo} {
		t.Run(name, func(t *testing.T) {
			gen, err := reg.Get(name)
			if err != nil {
				t.Fatalf("Get(%s) error: %v", name, err)
			}
			if _, ok := gen.(*Mock); !ok {
				t.Errorf("Get(%s) = %T, want *Mock", name, gen)
			}
		})
	}
}

func TestNewRegistry_LiveWhenCredentialed(t *testing.T) {
	reg := NewRegistry(Credentials{
		RunwayAPIKey:    "rk-test",
		StabilityAPIKey: "sk-test",
	}, discardLogger())

	gen, err := reg.Get(NameRunway)
	if err != nil {
		t.Fatalf("Get(runway) error: %v", err)
	}
	if _, ok := gen.(*Runway); !ok {
		t.Errorf("Get(runway) = %T, want *Runway", gen)
	}

	gen, err = reg.Get(NameStableVideo)
	if err != nil {
		t.Fatalf("Get(stable-video) error: %v", err)
	}
	if _, ok := gen.(*StableVideo); !ok {
		t.Errorf("Get(stable-video) = %T, want *StableVideo", gen)
	}

	// Uncredentialed providers stay mocked.
	gen, err = reg.Get(NameLuma)
	if err != nil {
		t.Fatalf("Get(luma) error: %v", err)
	}
	if _, ok := gen.(*Mock); !ok {
		t.Errorf("Get(luma) = %T, want *Mock", gen)
	}
}

func TestRegistry_UnknownProvider(t *testing.T) {
	reg := NewRegistry(Credentials{}, discardLogger())

	if _, err := reg.Get("sora"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry(Credentials{}, discardLogger())

	names := reg.Names()
	want := []string{NameLuma, NamePika, NameRunway, NameStableVideo}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestCheckDuration(t *testing.T) {
	tests := []struct {
		name        string
		duration    int
		maxDuration int
		wantReject  bool
	}{
		{"within limit", 2, 5, false},
		{"at limit", 5, 5, false},
		{"over limit", 6, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := checkDuration("luma", tt.maxDuration, model.GenerationRequest{Duration: tt.duration})
			if (res != nil) != tt.wantReject {
				t.Errorf("checkDuration rejected=%v, want %v", res != nil, tt.wantReject)
			}
			if res != nil && res.Success {
				t.Error("rejection result should not be a success")
			}
		})
	}
}

func TestStableVideo_DurationExceeded_NoNetworkCall(t *testing.T) {
	// Base URL that cannot resolve: any network attempt would surface as a
	// transport error instead of the duration message.
	sv := NewStableVideo(StableVideoConfig{
		BaseURL: "http://invalid.localdomain:1",
		APIKey:  "sk-test",
	})

	res := sv.Generate(context.Background(), model.GenerationRequest{
		Provider: NameStableVideo,
		Prompt:   "a drifting paper boat",
		Duration: 5,
	})

	if res.Success {
		t.Fatal("expected failure for over-limit duration")
	}
	if !strings.Contains(res.Error, "Duration 5s exceeds maximum 2s") {
		t.Errorf("error = %q, want duration-limit message", res.Error)
	}
}

func TestMock_Deterministic(t *testing.T) {
	mock := NewMock(NameRunway, MaxDurationRunway, 0)
	req := model.GenerationRequest{
		Provider:    NameRunway,
		Prompt:      "sunrise over a harbor",
		Duration:    4,
		AspectRatio: "16:9",
	}

	first := mock.Generate(context.Background(), req)
	second := mock.Generate(context.Background(), req)

	for _, res := range []model.GenerationResult{first, second} {
		if !res.Success {
			t.Fatalf("mock generation failed: %s", res.Error)
		}
		if !res.Mock {
			t.Error("mock result should carry the Mock provenance flag")
		}
		if res.VideoURL == "" || res.ThumbnailURL == "" {
			t.Error("mock result should populate synthetic URLs")
		}
	}
	if first.VideoURL != second.VideoURL || first.ThumbnailURL != second.ThumbnailURL {
		t.Errorf("mock results differ for identical input: %q vs %q", first.VideoURL, second.VideoURL)
	}

	// Different prompts produce different assets.
	other := mock.Generate(context.Background(), model.GenerationRequest{
		Provider: NameRunway,
		Prompt:   "a different prompt",
		Duration: 4,
	})
	if other.VideoURL == first.VideoURL {
		t.Error("distinct prompts should yield distinct synthetic URLs")
	}
}

func TestMock_DurationEnforced(t *testing.T) {
	mock := NewMock(NameStableVideo, MaxDurationStableVideo, 0)

	res := mock.Generate(context.Background(), model.GenerationRequest{
		Prompt:   "too long",
		Duration: 5,
	})

	if res.Success {
		t.Fatal("mock should enforce the provider duration limit")
	}
	if !strings.Contains(res.Error, "Duration 5s exceeds maximum 2s") {
		t.Errorf("error = %q, want duration-limit message", res.Error)
	}
}

func TestMock_CancelledContext(t *testing.T) {
	mock := NewMock(NamePika, MaxDurationPika, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := mock.Generate(ctx, model.GenerationRequest{Prompt: "p", Duration: 1})
	if res.Success {
		t.Error("expected failure when context is cancelled during the artificial delay")
	}
}
