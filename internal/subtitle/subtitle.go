// Package subtitle discovers the subtitle file backing the currently loaded
// media. Discovery runs once per file load and the result is cached in the
// session; an absent subtitle is a normal outcome, not an error.
package subtitle

import (
	"os"
	"path/filepath"
	"strings"
)

// Descriptor is the cached result of subtitle discovery for one file load.
type Descriptor struct {
	Path     string `json:"path"`
	Language string `json:"language,omitempty"`
	Title    string `json:"title,omitempty"`
	External bool   `json:"external"`
}

// Track is a subtitle track as enumerated by the engine.
type Track struct {
	ID       int
	Language string
	Title    string
	External bool
	Filename string
	Selected bool
}

// Discover resolves the subtitle backing mediaPath. External tracks reported
// by the engine win; otherwise a sibling .srt file with the media's basename
// is looked up on disk. Returns nil when nothing is found.
func Discover(mediaPath string, tracks []Track) *Descriptor {
	// Prefer the selected external track, then any external track.
	var external *Track
	for i := range tracks {
		t := &tracks[i]
		if !t.External || t.Filename == "" {
			continue
		}
		if t.Selected {
			external = t
			break
		}
		if external == nil {
			external = t
		}
	}
	if external != nil {
		return &Descriptor{
			Path:     external.Filename,
			Language: external.Language,
			Title:    external.Title,
			External: true,
		}
	}

	if mediaPath == "" {
		return nil
	}
	return discoverSibling(mediaPath)
}

// discoverSibling looks for <basename>.srt next to the media file.
func discoverSibling(mediaPath string) *Descriptor {
	base := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath))
	candidate := base + ".srt"

	info, err := os.Stat(candidate)
	if err != nil || info.IsDir() {
		return nil
	}
	return &Descriptor{Path: candidate, External: true}
}
