package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/motionpath/internal/config"
	"github.com/ivlev/motionpath/internal/path"
	"github.com/ivlev/motionpath/internal/project"
	"github.com/ivlev/motionpath/internal/timeline"
)

func TestParseRange(t *testing.T) {
	rng, err := parseRange("1:3")
	require.NoError(t, err)
	assert.Equal(t, &path.SelectionRange{Start: 1, End: 3}, rng)

	rng, err = parseRange("2")
	require.NoError(t, err)
	assert.Equal(t, &path.SelectionRange{Start: 2, End: 2}, rng)

	rng, err = parseRange("")
	require.NoError(t, err)
	assert.Nil(t, rng)

	_, err = parseRange("a:b")
	assert.Error(t, err)
}

func TestOutputName(t *testing.T) {
	name := outputName("input/my project.json", ".yaml")
	assert.True(t, strings.HasPrefix(name, filepath.Join("output", "my_project_")), name)
	assert.True(t, strings.HasSuffix(name, ".yaml"), name)
}

func TestNewEaseBake(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	prjFile := filepath.Join(dir, "p.json")
	require.NoError(t, runNew(&cfg, []string{"-o", prjFile}))

	require.NoError(t, runEase(&cfg, []string{"-preset", "ease-in", prjFile}))
	prj, err := project.LoadFile(prjFile)
	require.NoError(t, err)
	require.Len(t, prj.Paths, 1)
	assert.NotNil(t, prj.Paths[0].Keyframes[0].GraphOut)

	out := filepath.Join(dir, "out.yaml")
	require.NoError(t, runBake(&cfg, []string{"-o", out, prjFile}))
	tl, err := timeline.Read(out)
	require.NoError(t, err)
	assert.Equal(t, cfg.FPS*int(cfg.TotalDuration)+1, tl.FrameCount())

	qr := filepath.Join(dir, "qr.png")
	require.NoError(t, runShare(&cfg, []string{"-o", qr, prjFile}))
	info, err := os.Stat(qr)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, runEase(&cfg, []string{"-preset", "bounce", prjFile}))
}
