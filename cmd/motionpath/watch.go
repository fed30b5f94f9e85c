package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ivlev/motionpath/internal/config"
	"github.com/ivlev/motionpath/internal/engine"
	"github.com/ivlev/motionpath/internal/logx"
	"github.com/ivlev/motionpath/internal/project"
)

// settle is how long the project file must stay quiet before a re-bake.
// Editors often write a file in several steps.
const settle = 200 * time.Millisecond

func runWatch(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	outPtr := fs.String("o", "", "Timeline file, rewritten on every change (default: output/<project>.yaml)")
	fs.Parse(args)

	input, err := projectArg(fs)
	if err != nil {
		return err
	}
	input, err = filepath.Abs(input)
	if err != nil {
		return err
	}
	out := *outPtr
	if out == "" {
		name := filepath.Base(input)
		out = filepath.Join("output", name[:len(name)-len(filepath.Ext(name))]+".yaml")
	}
	if err := ensureDir(out); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	// Watch the directory: editors that save by rename replace the file.
	if err := watcher.Add(filepath.Dir(input)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bake := func() {
		prj, err := project.LoadFile(input)
		if err != nil {
			fmt.Printf("[!] %v\n", err)
			return
		}
		if err := engine.NewBakeJob(cfg, prj, input).Run(ctx, out); err != nil {
			fmt.Printf("[!] %v\n", err)
		}
	}
	bake()
	fmt.Printf("[*] Watching %s (Ctrl+C to stop)\n", input)

	timer := time.NewTimer(settle)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != input {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logx.Logger().Debug("project changed", "op", event.Op.String())
			timer.Reset(settle)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logx.Logger().Warn("watch error", "err", err)
		case <-timer.C:
			bake()
		}
	}
}
