package transcoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/storyweave/videopipe/internal/planner"
)

// FFmpegConfig holds configuration for the FFmpeg transcoder.
type FFmpegConfig struct {
	// FFmpegPath is the path to the ffmpeg binary.
	// If empty, "ffmpeg" will be used (assumes it's in PATH).
	FFmpegPath string

	// FFprobePath is the path to the ffprobe binary.
	// If empty, "ffprobe" will be used.
	FFprobePath string

	// VideoCodec is the video codec to use.
	// Default: libx264
	VideoCodec string

	// VideoPreset controls the encoding speed/quality tradeoff.
	// Default: fast
	VideoPreset string

	// AudioCodec is the audio codec to use.
	// Default: aac
	AudioCodec string

	// HLSSegmentDuration is the target duration of each HLS segment in seconds.
	// Default: 6 (Apple recommended)
	HLSSegmentDuration int

	// HLSPlaylistType sets the playlist type.
	// Use "vod" for Video on Demand (adds EXT-X-ENDLIST tag).
	// Default: vod
	HLSPlaylistType string

	// MaxConcurrent bounds how many renditions encode at once.
	// Default: 4
	MaxConcurrent int
}

// DefaultFFmpegConfig returns an FFmpegConfig with production-ready defaults.
func DefaultFFmpegConfig() FFmpegConfig {
	return FFmpegConfig{
		FFmpegPath:         "ffmpeg",
		FFprobePath:        "ffprobe",
		VideoCodec:         "libx264",
		VideoPreset:        "fast",
		AudioCodec:         "aac",
		HLSSegmentDuration: 6,
		HLSPlaylistType:    "vod",
		MaxConcurrent:      4,
	}
}

// commandRunner abstracts subprocess execution for testability.
type commandRunner interface {
	// Run executes a command and waits for it to exit.
	Run(ctx context.Context, name string, args ...string) error
	// Output executes a command and returns its stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = nil // Discard stdout
	cmd.Stderr = nil // Discard stderr (FFmpeg outputs progress to stderr)
	return cmd.Run()
}

func (execRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// FFmpegTranscoder implements Transcoder using the FFmpeg CLI, one subprocess
// per rendition.
type FFmpegTranscoder struct {
	config FFmpegConfig
	runner commandRunner
}

// Compile-time verification that FFmpegTranscoder implements Transcoder.
var _ Transcoder = (*FFmpegTranscoder)(nil)

// NewFFmpegTranscoder creates a new FFmpeg-based transcoder.
func NewFFmpegTranscoder(cfg FFmpegConfig) *FFmpegTranscoder {
	return newFFmpegTranscoderWithRunner(cfg, execRunner{})
}

// newFFmpegTranscoderWithRunner is used for dependency injection in tests.
func newFFmpegTranscoderWithRunner(cfg FFmpegConfig, runner commandRunner) *FFmpegTranscoder {
	return &FFmpegTranscoder{
		config: cfg,
		runner: runner,
	}
}

// TranscodeAdaptive encodes all profiles concurrently, extracts the poster
// frame, and writes the master playlist for the renditions that succeeded.
func (t *FFmpegTranscoder) TranscodeAdaptive(ctx context.Context, inputPath, outputDir string, profiles []planner.StreamingProfile) (*Output, error) {
	if err := t.validateInput(inputPath); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("at least one profile is required")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	results := t.encodeAll(ctx, inputPath, outputDir, profiles)

	output := &Output{OutputDir: outputDir}
	var succeeded []planner.StreamingProfile
	for i, err := range results {
		profile := profiles[i]
		profileDir := filepath.Join(outputDir, profile.Suffix)
		if err != nil {
			slog.Warn("rendition encode failed",
				slog.String("profile", profile.Name),
				slog.String("error", err.Error()),
			)
			output.Failed = append(output.Failed, RenditionFailure{Profile: profile, Err: err})
			continue
		}

		segments, err := t.collectSegments(profileDir)
		if err != nil {
			output.Failed = append(output.Failed, RenditionFailure{Profile: profile, Err: err})
			continue
		}

		succeeded = append(succeeded, profile)
		output.Renditions = append(output.Renditions, Rendition{
			Profile:      profile,
			OutputDir:    profileDir,
			PlaylistPath: filepath.Join(profileDir, "playlist.m3u8"),
			SegmentPaths: segments,
		})
	}

	if len(output.Renditions) == 0 {
		return nil, fmt.Errorf("all %d renditions failed, first error: %w", len(profiles), output.Failed[0].Err)
	}

	// Poster extraction is independent of rendition outcomes, but a missing
	// poster fails the whole operation: players require one.
	posterPath := filepath.Join(outputDir, "poster.jpg")
	if err := t.generatePoster(ctx, inputPath, posterPath); err != nil {
		return nil, fmt.Errorf("generate poster: %w", err)
	}
	output.PosterPath = posterPath

	masterPath := filepath.Join(outputDir, "master.m3u8")
	if err := planner.WriteMasterPlaylist(masterPath, succeeded); err != nil {
		return nil, fmt.Errorf("generate master playlist: %w", err)
	}
	output.MasterPlaylistPath = masterPath

	return output, nil
}

// encodeAll runs one encode per profile concurrently, bounded by
// MaxConcurrent, and returns the per-profile results in input order.
// Individual failures do not cancel the other encodes.
func (t *FFmpegTranscoder) encodeAll(ctx context.Context, inputPath, outputDir string, profiles []planner.StreamingProfile) []error {
	limit := t.config.MaxConcurrent
	if limit <= 0 {
		limit = len(profiles)
	}
	sem := semaphore.NewWeighted(int64(limit))

	results := make([]error, len(profiles))
	var wg sync.WaitGroup

	for i, profile := range profiles {
		wg.Add(1)
		go func(i int, profile planner.StreamingProfile) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = fmt.Errorf("acquire encode slot: %w", err)
				return
			}
			defer sem.Release(1)

			results[i] = t.encodeProfile(ctx, inputPath, outputDir, profile)
		}(i, profile)
	}

	wg.Wait()
	return results
}

// encodeProfile runs a single rendition encode.
func (t *FFmpegTranscoder) encodeProfile(ctx context.Context, inputPath, outputDir string, profile planner.StreamingProfile) error {
	profileDir := filepath.Join(outputDir, profile.Suffix)
	if err := os.MkdirAll(profileDir, 0755); err != nil {
		return fmt.Errorf("create rendition directory: %w", err)
	}

	playlistPath := filepath.Join(profileDir, "playlist.m3u8")
	segmentPattern := filepath.Join(profileDir, "segment_%03d.ts")

	args := t.buildProfileArgs(inputPath, playlistPath, segmentPattern, profile)
	if err := t.runner.Run(ctx, t.ffmpegPath(), args...); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("transcoding cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("ffmpeg execution failed: %w", err)
	}

	return nil
}

// buildProfileArgs constructs the FFmpeg argument list for one rendition.
// Pure function of (profile, paths): independently testable without spawning
// a process.
func (t *FFmpegTranscoder) buildProfileArgs(inputPath, playlistPath, segmentPattern string, profile planner.StreamingProfile) []string {
	args := []string{"-i", inputPath}

	if profile.HasScale() {
		// -2 keeps the width divisible by 2, required by most codecs.
		args = append(args, "-vf", fmt.Sprintf("scale=-2:%d", profile.Height))
	}

	args = append(args,
		"-c:v", t.config.VideoCodec,
		"-profile:v", "high",
		"-level", "4.0",
		"-preset", t.config.VideoPreset,
		// Fixed keyframe cadence, no scene-cut keyframes: segments stay
		// aligned across renditions.
		"-sc_threshold", "0",
		"-g", "48",
		"-keyint_min", "48",
		"-b:v", profile.VideoBitrate,
		"-maxrate", profile.VideoMaxrate,
		"-bufsize", profile.VideoBufsize,
		"-c:a", t.config.AudioCodec,
		"-b:a", profile.AudioBitrate,
		"-ar", strconv.Itoa(profile.AudioSampleRate),
		"-ac", strconv.Itoa(profile.AudioChannels),
		"-f", "hls",
		"-hls_time", strconv.Itoa(t.config.HLSSegmentDuration),
		"-hls_list_size", "0", // Include all segments in playlist
		"-hls_playlist_type", t.config.HLSPlaylistType,
		"-hls_flags", "independent_segments",
		"-hls_segment_filename", segmentPattern,
		"-y", // Overwrite output files without asking
		playlistPath,
	)

	return args
}

// generatePoster extracts a single frame at the first timestamp of the input.
func (t *FFmpegTranscoder) generatePoster(ctx context.Context, inputPath, posterPath string) error {
	args := t.buildPosterArgs(inputPath, posterPath)
	if err := t.runner.Run(ctx, t.ffmpegPath(), args...); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("poster extraction cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("ffmpeg execution failed: %w", err)
	}
	return nil
}

// buildPosterArgs constructs the FFmpeg argument list for poster extraction.
func (t *FFmpegTranscoder) buildPosterArgs(inputPath, posterPath string) []string {
	return []string{
		"-i", inputPath,
		"-ss", "00:00:00",
		"-vframes", "1",
		"-q:v", "2",
		"-y",
		posterPath,
	}
}

// Probe returns the source video's dimensions via ffprobe.
func (t *FFmpegTranscoder) Probe(ctx context.Context, inputPath string) (Dimensions, error) {
	if err := t.validateInput(inputPath); err != nil {
		return Dimensions{}, err
	}

	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		inputPath,
	}

	out, err := t.runner.Output(ctx, t.ffprobePath(), args...)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Dimensions{}, fmt.Errorf("ffprobe failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Dimensions{}, fmt.Errorf("ffprobe execution error: %w", err)
	}

	return parseDimensions(string(out))
}

// parseDimensions parses ffprobe's "WIDTHxHEIGHT" output.
func parseDimensions(s string) (Dimensions, error) {
	parts := strings.Split(strings.TrimSpace(s), "x")
	if len(parts) != 2 {
		return Dimensions{}, fmt.Errorf("unexpected ffprobe output: %q", s)
	}

	width, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Dimensions{}, fmt.Errorf("parse width: %w", err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Dimensions{}, fmt.Errorf("parse height: %w", err)
	}
	if width <= 0 || height <= 0 {
		return Dimensions{}, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}

	return Dimensions{Width: width, Height: height}, nil
}

// validateInput checks if the input file exists and is readable.
func (t *FFmpegTranscoder) validateInput(inputPath string) error {
	info, err := os.Stat(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input file does not exist: %s", inputPath)
		}
		return fmt.Errorf("failed to access input file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("input path is a directory, expected a file: %s", inputPath)
	}

	return nil
}

// collectSegments finds all generated .ts segment files in a rendition directory.
func (t *FFmpegTranscoder) collectSegments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read rendition directory: %w", err)
	}

	var segments []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".ts") {
			segments = append(segments, filepath.Join(dir, entry.Name()))
		}
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("no segments generated in rendition directory")
	}

	return segments, nil
}

func (t *FFmpegTranscoder) ffmpegPath() string {
	if t.config.FFmpegPath != "" {
		return t.config.FFmpegPath
	}
	return "ffmpeg"
}

func (t *FFmpegTranscoder) ffprobePath() string {
	if t.config.FFprobePath != "" {
		return t.config.FFprobePath
	}
	return "ffprobe"
}
