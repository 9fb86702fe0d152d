package planner

import (
	"fmt"
	"strconv"
	"strings"
)

// StreamingProfile describes one adaptive-bitrate output variant.
// Bitrates use ffmpeg's "k" notation (e.g. "400k").
type StreamingProfile struct {
	// Name is the identifier for this profile (e.g., "720p").
	Name string
	// Suffix is the output subdirectory for this profile's playlist and segments.
	Suffix string
	// VideoBitrate is the target video bitrate.
	VideoBitrate string
	// VideoMaxrate caps the video bitrate. Equal to VideoBitrate in the catalog.
	VideoMaxrate string
	// VideoBufsize is the rate-control buffer size, 2x the video bitrate.
	VideoBufsize string
	// Height is the scale directive target in pixels. Zero means no scaling
	// (legacy single-rendition mode); such profiles are always selected.
	Height int
	// AudioBitrate is the target AAC bitrate.
	AudioBitrate string
	// AudioSampleRate is the audio sample rate in Hz.
	AudioSampleRate int
	// AudioChannels is the audio channel count.
	AudioChannels int
}

// HasScale reports whether the profile carries a scale directive.
func (p StreamingProfile) HasScale() bool {
	return p.Height > 0
}

// Bandwidth returns the total HLS bandwidth in bits per second:
// video bitrate plus audio bitrate.
func (p StreamingProfile) Bandwidth() int {
	return parseBitrate(p.VideoBitrate) + parseBitrate(p.AudioBitrate)
}

// Resolution returns the profile's advertised resolution assuming a fixed
// 16:9 width, adjusted to an even value for codec compatibility.
// Returns ok=false for profiles without a scale directive.
func (p StreamingProfile) Resolution() (width, height int, ok bool) {
	if !p.HasScale() {
		return 0, 0, false
	}
	width = p.Height * 16 / 9
	if width%2 != 0 {
		width++
	}
	return width, p.Height, true
}

// parseBitrate converts an ffmpeg-style bitrate string to bits per second.
// Only the "k" suffix is used in the catalog; unsuffixed values are taken as-is.
func parseBitrate(s string) int {
	s = strings.TrimSpace(strings.ToLower(s))
	if v, ok := strings.CutSuffix(s, "k"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n * 1000
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// Catalog returns the fixed ordered set of adaptive-bitrate profiles,
// ascending quality. The catalog is read-only domain configuration; callers
// must not mutate the returned slice.
func Catalog() []StreamingProfile {
	return []StreamingProfile{
		{Name: "240p", Suffix: "240p", VideoBitrate: "400k", VideoMaxrate: "400k", VideoBufsize: "800k", Height: 240, AudioBitrate: "64k", AudioSampleRate: 44100, AudioChannels: 2},
		{Name: "360p", Suffix: "360p", VideoBitrate: "800k", VideoMaxrate: "800k", VideoBufsize: "1600k", Height: 360, AudioBitrate: "96k", AudioSampleRate: 44100, AudioChannels: 2},
		{Name: "480p", Suffix: "480p", VideoBitrate: "1400k", VideoMaxrate: "1400k", VideoBufsize: "2800k", Height: 480, AudioBitrate: "128k", AudioSampleRate: 44100, AudioChannels: 2},
		{Name: "540p", Suffix: "540p", VideoBitrate: "2000k", VideoMaxrate: "2000k", VideoBufsize: "4000k", Height: 540, AudioBitrate: "128k", AudioSampleRate: 44100, AudioChannels: 2},
		{Name: "720p", Suffix: "720p", VideoBitrate: "2800k", VideoMaxrate: "2800k", VideoBufsize: "5600k", Height: 720, AudioBitrate: "128k", AudioSampleRate: 44100, AudioChannels: 2},
		{Name: "1080p", Suffix: "1080p", VideoBitrate: "4000k", VideoMaxrate: "4000k", VideoBufsize: "8000k", Height: 1080, AudioBitrate: "192k", AudioSampleRate: 44100, AudioChannels: 2},
	}
}

// String implements fmt.Stringer for log output.
func (p StreamingProfile) String() string {
	return fmt.Sprintf("%s (%s/%s)", p.Name, p.VideoBitrate, p.AudioBitrate)
}
