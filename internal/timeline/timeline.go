// Package timeline holds baked per-frame positions of every path in a
// project, as consumed by external animation tools.
package timeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Version is written into every timeline file.
const Version = "1"

// Timeline is a baked project.
type Timeline struct {
	Version  string  `yaml:"version"`
	FPS      float64 `yaml:"fps"`
	Duration float64 `yaml:"duration"` // seconds
	Tracks   []Track `yaml:"tracks"`
}

// Track holds the frames of one path. Frames outside the path's playback
// window are omitted.
type Track struct {
	PathID string  `yaml:"path"`
	Frames []Frame `yaml:"frames"`
}

// Frame is a position at a time offset in seconds.
type Frame struct {
	Time float64 `yaml:"t"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

// Track returns the track of the given path, or nil.
func (tl *Timeline) Track(pathID string) *Track {
	for i := range tl.Tracks {
		if tl.Tracks[i].PathID == pathID {
			return &tl.Tracks[i]
		}
	}
	return nil
}

// FrameCount returns the total number of frames across all tracks.
func (tl *Timeline) FrameCount() int {
	n := 0
	for _, tr := range tl.Tracks {
		n += len(tr.Frames)
	}
	return n
}

// Write writes a timeline to a YAML file.
func Write(tl *Timeline, path string) error {
	data, err := yaml.Marshal(tl)
	if err != nil {
		return fmt.Errorf("timeline: encode: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Read reads a timeline from a YAML file.
func Read(path string) (*Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tl Timeline
	if err := yaml.Unmarshal(data, &tl); err != nil {
		return nil, fmt.Errorf("timeline: decode %s: %w", path, err)
	}

	return &tl, nil
}
