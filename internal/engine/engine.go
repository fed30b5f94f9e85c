// Package engine bakes projects into per-frame timelines and preview
// images.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/motionpath/internal/bezier"
	"github.com/ivlev/motionpath/internal/config"
	"github.com/ivlev/motionpath/internal/logx"
	"github.com/ivlev/motionpath/internal/modifier"
	"github.com/ivlev/motionpath/internal/project"
	"github.com/ivlev/motionpath/internal/renderer"
	"github.com/ivlev/motionpath/internal/system"
	"github.com/ivlev/motionpath/internal/timeline"
)

// ErrNoFrames is returned when the project playback yields no frames.
var ErrNoFrames = errors.New("engine: project has no frames")

// Options tunes Bake.
type Options struct {
	// FPS overrides the project frame rate when positive.
	FPS float64
	// Workers bounds the number of paths sampled at once. Zero means one.
	Workers int
	// Cache is shared across bakes of the same project when set.
	Cache *modifier.Cache
}

// Bake samples every path of prj at each frame of the playback. Tracks
// are in project order regardless of scheduling.
func Bake(ctx context.Context, prj *project.Project, opts Options) (*timeline.Timeline, error) {
	fps := prj.Settings.PlaybackFrameRate
	if opts.FPS > 0 {
		fps = opts.FPS
	}
	times := frameTimes(prj.Settings.PlaybackDuration, fps)
	if len(times) == 0 {
		return nil, ErrNoFrames
	}
	cache := opts.Cache
	if cache == nil {
		cache = &modifier.Cache{}
	}

	tl := &timeline.Timeline{
		Version:  timeline.Version,
		FPS:      fps,
		Duration: prj.Settings.PlaybackDuration,
		Tracks:   make([]timeline.Track, len(prj.Paths)),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))
	for i, p := range prj.Paths {
		g.Go(func() error {
			curves := cache.Get(p)
			track := timeline.Track{PathID: p.ID}
			for _, t := range times {
				if err := ctx.Err(); err != nil {
					return err
				}
				pt, ok := renderer.Sample(curves, p, t)
				if !ok {
					continue
				}
				track.Frames = append(track.Frames, timeline.Frame{Time: t, X: pt.X, Y: pt.Y})
			}
			tl.Tracks[i] = track
			logx.Logger().Debug("path baked", "path", p.ID, "frames", len(track.Frames))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tl, nil
}

// frameTimes returns the frame times of a playback, aligned to the frame
// grid.
func frameTimes(duration, fps float64) []float64 {
	if !(duration > 0) || !(fps > 0) || math.IsInf(duration*fps, 0) {
		return nil
	}
	n := int(math.Floor(duration*fps+1e-9)) + 1
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i) / fps
	}
	return times
}

// BakeJob is a bake of one project file driven by the CLI settings.
type BakeJob struct {
	Config  *config.Config
	Project *project.Project
	Input   string
	cache   modifier.Cache
}

func NewBakeJob(cfg *config.Config, prj *project.Project, input string) *BakeJob {
	return &BakeJob{
		Config:  cfg,
		Project: prj,
		Input:   input,
	}
}

// Run bakes the project into out and, when stats are enabled, prints a
// performance report and appends it to benchmark.log.
func (j *BakeJob) Run(ctx context.Context, out string) error {
	startTime := time.Now()

	tl, err := Bake(ctx, j.Project, Options{
		Workers: j.Config.Workers,
		Cache:   &j.cache,
	})
	if err != nil {
		return fmt.Errorf("bake %s: %w", j.Input, err)
	}
	bakeTime := time.Since(startTime)

	writeStart := time.Now()
	if err := timeline.Write(tl, out); err != nil {
		return fmt.Errorf("write timeline: %w", err)
	}
	writeTime := time.Since(writeStart)
	totalTime := time.Since(startTime)

	frames := tl.FrameCount()
	fmt.Printf("[*] Timeline written: %s (%d paths, %d frames)\n", out, len(tl.Tracks), frames)

	if j.Config.ShowStats {
		j.report(len(tl.Tracks), frames, totalTime, bakeTime, writeTime)
	}
	return nil
}

func (j *BakeJob) report(paths, frames int, totalTime, bakeTime, writeTime time.Duration) {
	fps := float64(frames) / max(bakeTime.Seconds(), 1e-9)
	resources := "unavailable"
	if st, err := system.Stats(); err == nil {
		resources = st.String()
	} else {
		logx.Logger().Warn("cannot sample resources", "err", err)
	}

	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.3fs\n"+
			"Sampling: %.3fs\n"+
			"Writing: %.3fs\n"+
			"Frames/s: %.1f\n"+
			"%s\n"+
			"----------------------------\n",
		j.Config.BuildVersion, totalTime.Seconds(), bakeTime.Seconds(), writeTime.Seconds(), fps, resources,
	)
	fmt.Print(report)

	logEntry := fmt.Sprintf("[%s] Build: %s | Input: %s | Paths: %d | Frames: %d | Total: %.3fs | Sampling: %.3fs | Frames/s: %.1f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		j.Config.BuildVersion,
		filepath.Base(j.Input),
		paths,
		frames,
		totalTime.Seconds(),
		bakeTime.Seconds(),
		fps,
	)

	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		fmt.Printf("[!] Cannot write benchmark.log: %v\n", err)
	}
}

// Preview rasterises the effective sketch curves of every path into a PNG
// at out.
func (j *BakeJob) Preview(out string) error {
	sets := make([][]bezier.Cubic, 0, len(j.Project.Paths))
	for _, p := range j.Project.Paths {
		sets = append(sets, j.cache.Get(p).Sketch)
	}
	img := renderer.Rasterize(sets, renderer.RasterOptions{
		Width:       j.Config.Width,
		Height:      j.Config.Height,
		StrokeWidth: j.Config.StrokeWidth,
		Margin:      j.Config.StrokeWidth * 4,
	})
	defer system.PutAlpha(img)

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := renderer.WritePNG(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode preview: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("[*] Preview written: %s\n", out)
	return nil
}
