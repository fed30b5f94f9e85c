// Package project reads and writes project files: playback settings plus
// the paths of a drawing, keyframes in the compact normalised form and
// modifiers as raw offsets.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ivlev/motionpath/internal/codec"
	"github.com/ivlev/motionpath/internal/logx"
	"github.com/ivlev/motionpath/internal/path"
)

// ErrMalformed is returned when a project file cannot be loaded.
var ErrMalformed = errors.New("project: malformed project file")

// Settings are the playback settings of a project.
type Settings struct {
	PlaybackDuration  float64 `json:"playbackDuration"`
	PlaybackFrameRate float64 `json:"playbackFrameRate"`
}

// Project is a loaded project file.
type Project struct {
	Settings Settings
	Paths    []*path.Path
}

// Path returns the path with the given id, or nil.
func (p *Project) Path(id string) *path.Path {
	for _, pp := range p.Paths {
		if pp.ID == id {
			return pp
		}
	}
	return nil
}

type fileProject struct {
	Settings *Settings      `json:"settings"`
	Paths    json.RawMessage `json:"paths"`
}

type filePath struct {
	ID              string            `json:"id"`
	BBox            codec.BBox        `json:"bbox"`
	Keyframes       []codec.Keyframe  `json:"keyframes"`
	StartTime       float64           `json:"startTime"`
	Duration        float64           `json:"duration"`
	SketchModifiers []json.RawMessage `json:"sketchModifiers,omitempty"`
	GraphModifiers  []json.RawMessage `json:"graphModifiers,omitempty"`
}

// Load reads a project. Any structural problem rejects the whole file;
// malformed modifier entries are dropped individually.
func Load(r io.Reader) (*Project, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	var fp fileProject
	if err := json.Unmarshal(data, &fp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if fp.Settings == nil {
		return nil, fmt.Errorf("%w: missing settings", ErrMalformed)
	}
	if !positive(fp.Settings.PlaybackDuration) || !positive(fp.Settings.PlaybackFrameRate) {
		return nil, fmt.Errorf("%w: settings %+v must be positive", ErrMalformed, *fp.Settings)
	}
	var rawPaths []json.RawMessage
	if err := json.Unmarshal(fp.Paths, &rawPaths); err != nil || rawPaths == nil {
		return nil, fmt.Errorf("%w: paths is not an array", ErrMalformed)
	}

	prj := &Project{Settings: *fp.Settings}
	seen := make(map[string]bool, len(rawPaths))
	for i, raw := range rawPaths {
		p, err := decodePath(raw)
		if err != nil {
			return nil, fmt.Errorf("path %d: %w", i, err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: duplicate path id %q", ErrMalformed, p.ID)
		}
		seen[p.ID] = true
		prj.Paths = append(prj.Paths, p)
	}
	return prj, nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func decodePath(raw json.RawMessage) (*path.Path, error) {
	var fp filePath
	if err := json.Unmarshal(raw, &fp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	kfs, err := codec.DecodeKeyframes(codec.KeyframePath{ID: fp.ID, BBox: fp.BBox, Keyframes: fp.Keyframes})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	p, err := path.New(fp.ID, kfs, fp.StartTime, fp.Duration)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	p.SketchModifiers = decodeModifiers(p, path.Sketch, fp.SketchModifiers)
	p.GraphModifiers = decodeModifiers(p, path.Graph, fp.GraphModifiers)
	p.Touch()
	return p, nil
}

func decodeModifiers(p *path.Path, f path.Family, raws []json.RawMessage) []path.Modifier {
	var out []path.Modifier
	for i, raw := range raws {
		var m path.Modifier
		err := json.Unmarshal(raw, &m)
		if err == nil {
			err = validModifier(m, p.CurveCount())
		}
		if err != nil {
			logx.Logger().Warn("dropping malformed modifier", "path", p.ID, "family", f, "index", i, "err", err)
			continue
		}
		m.Strength = path.ClampStrength(m.Strength)
		out = append(out, m)
	}
	return out
}

func validModifier(m path.Modifier, curves int) error {
	if m.ID == "" {
		return errors.New("empty id")
	}
	if math.IsNaN(m.Strength) || math.IsInf(m.Strength, 0) {
		return fmt.Errorf("strength %v is not finite", m.Strength)
	}
	if len(m.Offsets) != curves {
		return fmt.Errorf("%d curve slots for %d curves", len(m.Offsets), curves)
	}
	for _, co := range m.Offsets {
		for _, o := range co {
			if o != nil && (math.IsNaN(o.DX) || math.IsInf(o.DX, 0) || math.IsNaN(o.DY) || math.IsInf(o.DY, 0)) {
				return errors.New("offset is not finite")
			}
		}
	}
	return nil
}

// Save writes prj as indented JSON.
func Save(w io.Writer, prj *Project) error {
	type outPath struct {
		ID              string           `json:"id"`
		BBox            codec.BBox       `json:"bbox"`
		Keyframes       []codec.Keyframe `json:"keyframes"`
		StartTime       float64          `json:"startTime"`
		Duration        float64          `json:"duration"`
		SketchModifiers []path.Modifier  `json:"sketchModifiers,omitempty"`
		GraphModifiers  []path.Modifier  `json:"graphModifiers,omitempty"`
	}
	out := struct {
		Settings Settings  `json:"settings"`
		Paths    []outPath `json:"paths"`
	}{Settings: prj.Settings, Paths: make([]outPath, 0, len(prj.Paths))}

	for _, p := range prj.Paths {
		kp := codec.EncodePath(p)
		out.Paths = append(out.Paths, outPath{
			ID:              p.ID,
			BBox:            kp.BBox,
			Keyframes:       kp.Keyframes,
			StartTime:       p.StartTime,
			Duration:        p.Duration,
			SketchModifiers: p.SketchModifiers,
			GraphModifiers:  p.GraphModifiers,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// LoadFile loads the project at name.
func LoadFile(name string) (*Project, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	prj, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return prj, nil
}

// SaveFile writes prj to name.
func SaveFile(name string, prj *Project) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := Save(f, prj); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FindLatest returns the most recently modified .json file in dir.
func FindLatest(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(strings.ToLower(f.Name()), ".json") {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no project files found in %s", dir)
	}
	return latestFile, nil
}
