package transcoder

import (
	"context"

	"github.com/storyweave/videopipe/internal/planner"
)

// Rendition contains the result for a single successfully encoded profile.
type Rendition struct {
	// Profile is the streaming profile used for this output.
	Profile planner.StreamingProfile
	// OutputDir is the profile-specific subdirectory holding playlist and segments.
	OutputDir string
	// PlaylistPath is the path to the rendition's playlist.m3u8 file.
	PlaylistPath string
	// SegmentPaths contains paths to all .ts segment files for this rendition.
	SegmentPaths []string
}

// RenditionFailure records a profile whose encode did not complete.
type RenditionFailure struct {
	Profile planner.StreamingProfile
	Err     error
}

// Output contains the result of an adaptive transcoding operation.
//
// Renditions holds the profiles that encoded successfully; Failed holds the
// rest. The master playlist lists only the successful renditions.
type Output struct {
	// OutputDir is the per-job root containing all produced files.
	OutputDir string
	// MasterPlaylistPath is the path to the generated master.m3u8 file.
	MasterPlaylistPath string
	// PosterPath is the path to the extracted poster frame.
	PosterPath string
	Renditions []Rendition
	Failed     []RenditionFailure
}

// Dimensions holds a video's pixel dimensions.
type Dimensions struct {
	Width  int
	Height int
}

// Transcoder defines the interface for adaptive video transcoding.
type Transcoder interface {
	// Probe returns the source video's dimensions.
	Probe(ctx context.Context, inputPath string) (Dimensions, error)

	// TranscodeAdaptive encodes the input into one rendition per profile,
	// running all encodes concurrently and tracking success and failure per
	// profile: one profile failing does not cancel the others. It also
	// extracts a poster frame and writes the master playlist covering the
	// successful renditions.
	//
	// An error is returned only when the whole operation is unusable: every
	// profile failed, or the poster frame could not be produced.
	TranscodeAdaptive(ctx context.Context, inputPath, outputDir string, profiles []planner.StreamingProfile) (*Output, error)
}
