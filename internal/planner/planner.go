// Package planner selects adaptive-bitrate renditions for a source video and
// generates the HLS master playlist that indexes them.
package planner

import "math"

// SelectProfiles returns the catalog profiles that apply to a source of the
// given dimensions, preserving aspect ratio and never upscaling.
//
// For each profile with a scale directive, the implied target width is
// round(height * source aspect ratio); the profile is included iff both the
// target height and target width fit within the source (boundary inclusive).
// Profiles without a scale directive are always included. If no profile
// fits, the single smallest profile is returned so downstream transcoding
// always has at least one rendition to produce.
func SelectProfiles(sourceWidth, sourceHeight int) []StreamingProfile {
	catalog := Catalog()

	if sourceWidth <= 0 || sourceHeight <= 0 {
		return catalog[:1]
	}

	aspect := float64(sourceWidth) / float64(sourceHeight)

	var selected []StreamingProfile
	for _, p := range catalog {
		if !p.HasScale() {
			selected = append(selected, p)
			continue
		}
		targetWidth := int(math.Round(float64(p.Height) * aspect))
		if p.Height <= sourceHeight && targetWidth <= sourceWidth {
			selected = append(selected, p)
		}
	}

	if len(selected) == 0 {
		return catalog[:1]
	}
	return selected
}
