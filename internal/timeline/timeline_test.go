package timeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteRead(t *testing.T) {
	tl := &Timeline{
		Version:  Version,
		FPS:      24,
		Duration: 2,
		Tracks: []Track{
			{PathID: "a", Frames: []Frame{{Time: 0, X: 1, Y: 2}, {Time: 0.5, X: 3.25, Y: -4}}},
			{PathID: "b", Frames: []Frame{{Time: 1, X: 0, Y: 0}}},
		},
	}

	file := filepath.Join(t.TempDir(), "out.yaml")
	if err := Write(tl, file); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(file)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if d := cmp.Diff(tl, got); d != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", d)
	}
	if n := got.FrameCount(); n != 3 {
		t.Errorf("FrameCount = %d, want 3", n)
	}
	if tr := got.Track("b"); tr == nil || len(tr.Frames) != 1 {
		t.Errorf("Track(b) = %+v", tr)
	}
	if got.Track("missing") != nil {
		t.Error("Track(missing) should be nil")
	}
}

func TestReadInvalid(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(file, []byte("tracks: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(file); err == nil {
		t.Error("expected an error for invalid YAML")
	}
	if _, err := Read(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
