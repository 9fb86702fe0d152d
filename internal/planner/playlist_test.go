package planner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMasterPlaylist(t *testing.T) {
	profiles := []StreamingProfile{
		{Name: "240p", Suffix: "240p", VideoBitrate: "400k", AudioBitrate: "64k", Height: 240},
		{Name: "720p", Suffix: "720p", VideoBitrate: "2800k", AudioBitrate: "128k", Height: 720},
	}

	got := MasterPlaylist(profiles)

	want := "#EXTM3U\n" +
		"#EXT-X-VERSION:6\n" +
		"\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=464000,RESOLUTION=426x240\n" +
		"240p/playlist.m3u8\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=2928000,RESOLUTION=1280x720\n" +
		"720p/playlist.m3u8\n"

	if got != want {
		t.Errorf("MasterPlaylist() mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestMasterPlaylist_NoScaleOmitsResolution(t *testing.T) {
	profiles := []StreamingProfile{
		{Name: "default", Suffix: "default", VideoBitrate: "2000k", AudioBitrate: "128k"},
	}

	got := MasterPlaylist(profiles)

	if strings.Contains(got, "RESOLUTION") {
		t.Errorf("playlist for unscaled profile should omit RESOLUTION:\n%s", got)
	}
	if !strings.Contains(got, "#EXT-X-STREAM-INF:BANDWIDTH=2128000\n") {
		t.Errorf("playlist missing bandwidth-only stream-inf line:\n%s", got)
	}
}

func TestMasterPlaylist_FullCatalogOrder(t *testing.T) {
	got := MasterPlaylist(Catalog())

	// Stanzas appear in catalog order, ascending quality.
	order := []string{"240p/", "360p/", "480p/", "540p/", "720p/", "1080p/"}
	last := -1
	for _, suffix := range order {
		idx := strings.Index(got, suffix)
		if idx == -1 {
			t.Fatalf("playlist missing %splaylist.m3u8:\n%s", suffix, got)
		}
		if idx < last {
			t.Errorf("playlist out of catalog order at %s", suffix)
		}
		last = idx
	}
}

func TestWriteMasterPlaylist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.m3u8")

	if err := WriteMasterPlaylist(path, Catalog()[:1]); err != nil {
		t.Fatalf("WriteMasterPlaylist() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read playlist: %v", err)
	}
	if !strings.HasPrefix(string(data), "#EXTM3U\n#EXT-X-VERSION:6\n") {
		t.Errorf("unexpected playlist header:\n%s", data)
	}
}
