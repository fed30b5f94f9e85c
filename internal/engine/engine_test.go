package engine

import (
	"context"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ivlev/motionpath/internal/bezier"
	"github.com/ivlev/motionpath/internal/config"
	"github.com/ivlev/motionpath/internal/path"
	"github.com/ivlev/motionpath/internal/project"
	"github.com/ivlev/motionpath/internal/timeline"
)

func testProject(t *testing.T) *project.Project {
	t.Helper()
	a, err := path.New("a", []path.Keyframe{
		{Time: 0, Pos: bezier.Pt(0, 0)},
		{Time: 1, Pos: bezier.Pt(100, 0)},
	}, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := path.New("b", []path.Keyframe{
		{Time: 0, Pos: bezier.Pt(0, 0)},
		{Time: 1, Pos: bezier.Pt(0, 40)},
	}, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	return &project.Project{
		Settings: project.Settings{PlaybackDuration: 2, PlaybackFrameRate: 4},
		Paths:    []*path.Path{a, b},
	}
}

func TestFrameTimes(t *testing.T) {
	tests := []struct {
		duration, fps float64
		want          int
	}{
		{2, 4, 9},
		{1, 30, 31},
		{0.1, 24, 3},
		{0, 30, 0},
		{1, 0, 0},
		{math.NaN(), 30, 0},
	}
	for _, tt := range tests {
		times := frameTimes(tt.duration, tt.fps)
		if len(times) != tt.want {
			t.Errorf("frameTimes(%v, %v): got %d frames, want %d", tt.duration, tt.fps, len(times), tt.want)
			continue
		}
		for i, ft := range times {
			if ft > tt.duration+1e-9 {
				t.Errorf("frame %d at %v is past the end %v", i, ft, tt.duration)
			}
		}
	}
}

func TestBake(t *testing.T) {
	prj := testProject(t)
	tl, err := Bake(context.Background(), prj, Options{Workers: 2})
	if err != nil {
		t.Fatal(err)
	}

	if len(tl.Tracks) != 2 || tl.Tracks[0].PathID != "a" || tl.Tracks[1].PathID != "b" {
		t.Fatalf("unexpected tracks %+v", tl.Tracks)
	}
	// a plays over [0, 1], b over [1, 2]
	if n := len(tl.Tracks[0].Frames); n != 5 {
		t.Errorf("track a: got %d frames, want 5", n)
	}
	if n := len(tl.Tracks[1].Frames); n != 5 {
		t.Errorf("track b: got %d frames, want 5", n)
	}
	last := tl.Tracks[0].Frames[4]
	if math.Abs(last.X-100) > 1e-6 || last.Time != 1 {
		t.Errorf("track a ends at %+v", last)
	}
	first := tl.Tracks[1].Frames[0]
	if first.Time != 1 || first.Y != 0 {
		t.Errorf("track b starts at %+v", first)
	}
}

func TestBakeOverridesFPS(t *testing.T) {
	tl, err := Bake(context.Background(), testProject(t), Options{FPS: 10})
	if err != nil {
		t.Fatal(err)
	}
	if tl.FPS != 10 || len(tl.Tracks[0].Frames) != 11 {
		t.Errorf("got fps %v and %d frames", tl.FPS, len(tl.Tracks[0].Frames))
	}
}

func TestBakeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Bake(ctx, testProject(t), Options{}); err == nil {
		t.Error("expected an error from a cancelled context")
	}
}

func TestBakeNoFrames(t *testing.T) {
	prj := testProject(t)
	prj.Settings.PlaybackFrameRate = 0
	if _, err := Bake(context.Background(), prj, Options{}); err != ErrNoFrames {
		t.Errorf("got %v, want ErrNoFrames", err)
	}
}

func TestBakeJobRunAndPreview(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Width, cfg.Height = 32, 32
	job := NewBakeJob(&cfg, testProject(t), "test.json")

	out := filepath.Join(dir, "out.yaml")
	if err := job.Run(context.Background(), out); err != nil {
		t.Fatal(err)
	}
	tl, err := timeline.Read(out)
	if err != nil {
		t.Fatal(err)
	}
	if tl.FrameCount() != 10 {
		t.Errorf("got %d frames, want 10", tl.FrameCount())
	}

	img := filepath.Join(dir, "preview.png")
	if err := job.Preview(img); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(img)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfgImg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfgImg.Width != 32 || cfgImg.Height != 32 {
		t.Errorf("preview is %dx%d", cfgImg.Width, cfgImg.Height)
	}
}
