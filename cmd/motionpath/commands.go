package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/ivlev/motionpath/internal/bezier"
	"github.com/ivlev/motionpath/internal/codec"
	"github.com/ivlev/motionpath/internal/config"
	"github.com/ivlev/motionpath/internal/easing"
	"github.com/ivlev/motionpath/internal/engine"
	"github.com/ivlev/motionpath/internal/llm"
	"github.com/ivlev/motionpath/internal/modifier"
	"github.com/ivlev/motionpath/internal/path"
	"github.com/ivlev/motionpath/internal/project"
	"github.com/ivlev/motionpath/internal/renderer"
	"github.com/ivlev/motionpath/internal/suggest"
	"github.com/ivlev/motionpath/internal/system"
)

func runNew(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	outPtr := fs.String("o", "", "Project file to create (default: input/project_<timestamp>.json)")
	fs.Parse(args)

	out := *outPtr
	if out == "" {
		out = "input/project_" + time.Now().Format("2006-01-02_15-04-05") + ".json"
	}
	w, h := float64(cfg.Width), float64(cfg.Height)
	p, err := path.New(path.UUIDs{}.NewID(), []path.Keyframe{
		{Time: 0, Pos: bezier.Pt(w*0.25, h*0.5)},
		{Time: 1, Pos: bezier.Pt(w*0.75, h*0.5)},
	}, 0, cfg.TotalDuration)
	if err != nil {
		return err
	}
	prj := &project.Project{
		Settings: project.Settings{
			PlaybackDuration:  cfg.TotalDuration,
			PlaybackFrameRate: float64(cfg.FPS),
		},
		Paths: []*path.Path{p},
	}
	if err := ensureDir(out); err != nil {
		return err
	}
	if err := project.SaveFile(out, prj); err != nil {
		return err
	}
	fmt.Printf("[+] Project created: %s\n", out)
	return nil
}

func runInspect(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	fs.Parse(args)

	prj, _, err := loadProject(fs)
	if err != nil {
		return err
	}
	fmt.Printf("[*] Playback: %.2fs at %.2f fps, %d paths\n",
		prj.Settings.PlaybackDuration, prj.Settings.PlaybackFrameRate, len(prj.Paths))
	for _, p := range prj.Paths {
		base := modifier.Base(p)
		eff := modifier.Effective(p)
		fmt.Printf("  %s: %d keyframes, %d curves, window [%.2fs, %.2fs], length %.2f (base %.2f)\n",
			p.ID, len(p.Keyframes), p.CurveCount(), p.StartTime, p.StartTime+p.Duration, eff.Total(), base.Total())
		for _, f := range []path.Family{path.Sketch, path.Graph} {
			for _, m := range p.Modifiers(f) {
				fmt.Printf("    %s modifier %s %q strength %.2f\n", f, m.ID, m.Name, m.Strength)
			}
		}
	}
	return nil
}

func runBake(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("bake", flag.ExitOnError)
	outPtr := fs.String("o", "", "Timeline file (default: output/<project>_<timestamp>.yaml)")
	fs.Parse(args)

	prj, input, err := loadProject(fs)
	if err != nil {
		return err
	}
	out := *outPtr
	if out == "" {
		out = outputName(input, ".yaml")
	}
	if err := ensureDir(out); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return engine.NewBakeJob(cfg, prj, input).Run(ctx, out)
}

func runPreview(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	outPtr := fs.String("o", "", "PNG file (default: output/<project>_<timestamp>.png)")
	fs.Parse(args)

	prj, input, err := loadProject(fs)
	if err != nil {
		return err
	}
	out := *outPtr
	if out == "" {
		out = outputName(input, ".png")
	}
	if err := ensureDir(out); err != nil {
		return err
	}
	return engine.NewBakeJob(cfg, prj, input).Preview(out)
}

func runEase(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ease", flag.ExitOnError)
	presetPtr := fs.String("preset", "ease-in-out", "Timing preset: "+strings.Join(easing.Names(), ", "))
	pathPtr := fs.String("path", "", "Only change this path (default: all)")
	outPtr := fs.String("o", "", "Write the result here instead of over the input")
	fs.Parse(args)

	preset, err := easing.Lookup(*presetPtr)
	if err != nil {
		return err
	}
	prj, input, err := loadProject(fs)
	if err != nil {
		return err
	}
	changed := 0
	for _, p := range prj.Paths {
		if *pathPtr != "" && p.ID != *pathPtr {
			continue
		}
		preset.Apply(p)
		changed++
	}
	if changed == 0 {
		return fmt.Errorf("no path %q", *pathPtr)
	}
	out := *outPtr
	if out == "" {
		out = input
	}
	if err := project.SaveFile(out, prj); err != nil {
		return err
	}
	fmt.Printf("[+] Applied %s to %d paths: %s\n", preset.Name, changed, out)
	return nil
}

// parseRange parses "start:end" curve indices.
func parseRange(s string) (*path.SelectionRange, error) {
	if s == "" {
		return nil, nil
	}
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		b = a
	}
	start, err := strconv.Atoi(a)
	if err != nil {
		return nil, fmt.Errorf("bad range %q: %w", s, err)
	}
	end, err := strconv.Atoi(b)
	if err != nil {
		return nil, fmt.Errorf("bad range %q: %w", s, err)
	}
	return &path.SelectionRange{Start: start, End: end}, nil
}

func runSuggest(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	pathPtr := fs.String("path", "", "Path id (default: the first path)")
	familyPtr := fs.String("family", "sketch", "Curve family: sketch or graph")
	rangePtr := fs.String("range", "", "Curve range start:end (default: whole path)")
	instrPtr := fs.String("i", "", "Instruction for the model")
	acceptPtr := fs.Int("accept", -1, "Accept this suggestion and save the project")
	strengthPtr := fs.Float64("strength", 1, "Strength of the accepted modifier")
	previewPtr := fs.String("preview", "", "Write a PNG of the first suggestion at -strength")
	fs.Parse(args)

	if strings.TrimSpace(*instrPtr) == "" {
		return errors.New("an instruction is required (-i)")
	}
	family, err := path.ParseFamily(*familyPtr)
	if err != nil {
		return err
	}
	rng, err := parseRange(*rangePtr)
	if err != nil {
		return err
	}
	prj, input, err := loadProject(fs)
	if err != nil {
		return err
	}
	var target *path.Path
	if *pathPtr == "" && len(prj.Paths) > 0 {
		target = prj.Paths[0]
	} else {
		target = prj.Path(*pathPtr)
	}
	if target == nil {
		return fmt.Errorf("no path %q", *pathPtr)
	}

	client, err := llm.New(cfg.LLM.Provider, os.Getenv(cfg.LLM.APIKeyEnv), cfg.LLM.Model, cfg.LLM.BaseURL,
		time.Duration(cfg.LLM.Timeout*float64(time.Second)))
	if err != nil {
		return err
	}
	svc := &suggest.LLMService{Client: client, Retries: cfg.LLM.Retries, MaxTokens: cfg.LLM.MaxTokens}
	m := suggest.NewManager(family, svc, path.UUIDs{})
	m.SetTarget(target, rng)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	fmt.Printf("[*] Asking %s for %s suggestions on %s...\n", cfg.LLM.Provider, family, target.ID)
	if err := m.Generate(ctx, *instrPtr); err != nil {
		return err
	}
	for i, it := range m.Items() {
		fmt.Printf("  [%d] %s\n", i, it.Title)
	}

	if *previewPtr != "" {
		curves, err := m.Preview(max(*acceptPtr, 0), *strengthPtr)
		if err != nil {
			return err
		}
		img := renderer.Rasterize([][]bezier.Cubic{curves}, renderer.RasterOptions{
			Width: cfg.Width, Height: cfg.Height, StrokeWidth: cfg.StrokeWidth, Margin: cfg.StrokeWidth * 4,
		})
		defer system.PutAlpha(img)
		f, err := os.Create(*previewPtr)
		if err != nil {
			return err
		}
		if err := renderer.WritePNG(f, img); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("[*] Preview written: %s\n", *previewPtr)
	}

	if *acceptPtr < 0 {
		return nil
	}
	mod, err := m.Accept(*acceptPtr)
	if err != nil {
		return err
	}
	if *strengthPtr != 1 {
		modifier.SetStrength(target, family, mod.ID, *strengthPtr)
	}
	if err := project.SaveFile(input, prj); err != nil {
		return err
	}
	fmt.Printf("[+] Added %s modifier %q to %s: %s\n", family, mod.Name, target.ID, input)
	return nil
}

func runShare(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("share", flag.ExitOnError)
	pathPtr := fs.String("path", "", "Path id (default: the first path)")
	outPtr := fs.String("o", "", "PNG file (default: output/<project>_<timestamp>_qr.png)")
	sizePtr := fs.Int("size", 512, "QR code size in pixels")
	fs.Parse(args)

	prj, input, err := loadProject(fs)
	if err != nil {
		return err
	}
	var p *path.Path
	if *pathPtr == "" && len(prj.Paths) > 0 {
		p = prj.Paths[0]
	} else {
		p = prj.Path(*pathPtr)
	}
	if p == nil {
		return fmt.Errorf("no path %q", *pathPtr)
	}
	data, err := json.Marshal(codec.EncodePath(p))
	if err != nil {
		return err
	}
	out := *outPtr
	if out == "" {
		out = outputName(input, "_qr.png")
	}
	if err := ensureDir(out); err != nil {
		return err
	}
	if err := qrcode.WriteFile(string(data), qrcode.Medium, *sizePtr, out); err != nil {
		return fmt.Errorf("qr code for %s (%d bytes): %w", p.ID, len(data), err)
	}
	fmt.Printf("[+] QR code of %s written: %s\n", p.ID, out)
	return nil
}
