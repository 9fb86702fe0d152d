package planner

import (
	"fmt"
	"os"
	"strings"
)

// MasterPlaylist renders the HLS master playlist for the given profiles,
// one #EXT-X-STREAM-INF stanza per profile in catalog order. The RESOLUTION
// attribute is omitted for profiles without a scale directive.
func MasterPlaylist(profiles []StreamingProfile) string {
	var sb strings.Builder
	sb.WriteString("#EXTM3U\n")
	sb.WriteString("#EXT-X-VERSION:6\n\n")

	for _, p := range profiles {
		if w, h, ok := p.Resolution(); ok {
			sb.WriteString(fmt.Sprintf(
				"#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%dx%d\n",
				p.Bandwidth(), w, h,
			))
		} else {
			sb.WriteString(fmt.Sprintf("#EXT-X-STREAM-INF:BANDWIDTH=%d\n", p.Bandwidth()))
		}
		sb.WriteString(fmt.Sprintf("%s/playlist.m3u8\n", p.Suffix))
	}

	return sb.String()
}

// WriteMasterPlaylist writes the master playlist to the given path.
func WriteMasterPlaylist(path string, profiles []StreamingProfile) error {
	if err := os.WriteFile(path, []byte(MasterPlaylist(profiles)), 0644); err != nil {
		return fmt.Errorf("write master playlist: %w", err)
	}
	return nil
}
