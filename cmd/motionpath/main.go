package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ivlev/motionpath/internal/config"
	"github.com/ivlev/motionpath/internal/logx"
	"github.com/ivlev/motionpath/internal/project"
	"github.com/ivlev/motionpath/internal/system"
)

// buildVersion is set with -ldflags "-X main.buildVersion=...".
var buildVersion = "dev"

const usage = `usage: motionpath [flags] <command> [command flags] [project.json]

commands:
  new      create a project with one straight path
  inspect  print paths, lengths and modifiers
  bake     sample every path per frame into a YAML timeline
  preview  rasterise the effective curves into a PNG
  ease     apply a timing preset to paths
  suggest  ask the model for alternatives and optionally accept one
  share    write a QR code of a path
  watch    re-bake whenever the project file changes

Without a project argument the newest .json in input/ is used.

flags:
`

type command func(cfg *config.Config, args []string) error

var commands = map[string]command{
	"new":     runNew,
	"inspect": runInspect,
	"bake":    runBake,
	"preview": runPreview,
	"ease":    runEase,
	"suggest": runSuggest,
	"share":   runShare,
	"watch":   runWatch,
}

func main() {
	configPtr := flag.String("config", "", "Path to a YAML or TOML config file")
	verbosePtr := flag.Bool("v", false, "Log progress")
	debugPtr := flag.Bool("vv", false, "Log debug details")
	quietPtr := flag.Bool("q", false, "Log errors only")
	statsPtr := flag.Bool("stats", false, "Print a performance report after baking")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := config.Default()
	if *configPtr != "" {
		loaded, err := config.Load(*configPtr)
		if err != nil {
			log.Fatalf("[-] Config error: %v", err)
		}
		cfg = loaded
	}
	cfg.Verbose = cfg.Verbose || *verbosePtr
	cfg.Debug = cfg.Debug || *debugPtr
	cfg.Quiet = cfg.Quiet || *quietPtr
	cfg.ShowStats = cfg.ShowStats || *statsPtr
	cfg.BuildVersion = buildVersion
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Config error: %v", err)
	}

	logx.SetLogger(logx.NewText(os.Stderr, logx.LevelFromFlags(cfg.Debug, cfg.Verbose, cfg.Quiet)))
	system.InitResourceLimits()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	name := flag.Arg(0)
	run, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "[-] Unknown command %q\n\n", name)
		flag.Usage()
		os.Exit(2)
	}
	if err := run(&cfg, flag.Args()[1:]); err != nil {
		log.Fatalf("[-] %s: %v", name, err)
	}
}

// projectArg returns the project named on the command line or the newest
// one in input/.
func projectArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() > 0 {
		return fs.Arg(0), nil
	}
	latest, err := project.FindLatest("input")
	if err != nil {
		return "", fmt.Errorf("%w; put a project into input/", err)
	}
	fmt.Printf("[*] Selected project: %s\n", latest)
	return latest, nil
}

func loadProject(fs *flag.FlagSet) (*project.Project, string, error) {
	name, err := projectArg(fs)
	if err != nil {
		return nil, "", err
	}
	prj, err := project.LoadFile(name)
	if err != nil {
		return nil, "", err
	}
	return prj, name, nil
}

// outputName builds output/<input>_<timestamp><ext>.
func outputName(input, ext string) string {
	baseName := filepath.Base(input)
	nameOnly := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	cleanName := strings.ReplaceAll(nameOnly, " ", "_")
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join("output", fmt.Sprintf("%s_%s%s", cleanName, timestamp, ext))
}

func ensureDir(file string) error {
	return os.MkdirAll(filepath.Dir(file), 0755)
}
