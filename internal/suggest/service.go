// Package suggest drives curve suggestions from an external text-generation
// service: it serializes the target path, asks the service for
// alternatives, previews them at an adjustable strength and turns an
// accepted one into a modifier.
package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ivlev/motionpath/internal/codec"
	"github.com/ivlev/motionpath/internal/llm"
	"github.com/ivlev/motionpath/internal/logx"
	"github.com/ivlev/motionpath/internal/path"
)

// Request is what the service receives. Sketch requests carry anchor/segment
// paths, graph requests keyframe paths.
type Request struct {
	Family      path.Family
	Instruction string
	History     []string
	Sketch      []codec.SketchPath
	Keyframes   []codec.KeyframePath
}

// Item is one proposed alternative.
type Item struct {
	Title     string              `json:"title"`
	Sketch    *codec.SketchPath   `json:"sketch,omitempty"`
	Keyframes *codec.KeyframePath `json:"keyframes,omitempty"`
}

// Service produces suggestions.
type Service interface {
	Suggest(ctx context.Context, req Request) ([]Item, error)
}

// LLMService implements Service on top of an llm.Client.
type LLMService struct {
	Client    llm.Client
	Retries   int
	MaxTokens int
}

const sketchSystemPrompt = `You edit 2D motion paths. Paths are given as JSON with a bounding box
and anchors normalised to [0,1] inside it. Handles are polar: "angle" in
degrees and "dist" relative to the box diagonal. Segments reference anchors
by index.

Reply with a JSON array of 1 to 3 alternatives:
[{"title": "...", "sketch": {"bbox": {...}, "anchors": [...], "segments": [...]}}]
Keep the number of segments unchanged and keep the first and last anchor in
place unless asked otherwise.`

const graphSystemPrompt = `You edit the timing of motion paths. Keyframes are given as JSON with
positions normalised to a bounding box and a "time" in [0,1]. "graphIn" and
"graphOut" are polar handles of the timing curve in a unit square of
time against progress.

Reply with a JSON array of 1 to 3 alternatives:
[{"title": "...", "keyframes": {"bbox": {...}, "keyframes": [...]}}]
Keep the number of keyframes, their positions and their times unchanged;
only change graphIn and graphOut.`

// Suggest asks the model for alternatives to the paths in req.
func (s *LLMService) Suggest(ctx context.Context, req Request) ([]Item, error) {
	system := sketchSystemPrompt
	var payload any = req.Sketch
	if req.Family == path.Graph {
		system = graphSystemPrompt
		payload = req.Keyframes
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal paths: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "PATHS:\n%s\n", data)
	if len(req.History) > 0 {
		b.WriteString("\nEARLIER INSTRUCTIONS:\n")
		for _, h := range req.History {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	fmt.Fprintf(&b, "\nINSTRUCTION:\n%s\n", req.Instruction)

	resp, err := llm.CompleteWithRetry(ctx, s.Client, system, []llm.Message{
		{Role: "user", Content: b.String()},
	}, s.Retries, &llm.RequestOptions{MaxTokens: s.MaxTokens})
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestions from LLM: %w", err)
	}
	logx.Logger().Debug("suggestions received", "family", req.Family,
		"input_tokens", resp.InputTokens, "output_tokens", resp.OutputTokens, "duration", resp.Duration)
	if resp.WasTruncated() {
		logx.Logger().Warn("suggestion response was truncated", "family", req.Family)
	}
	return ParseItems(resp.Content)
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n```")

// ParseItems extracts the JSON array of items from a model reply. Fenced
// code blocks are unwrapped; items without a payload are dropped.
func ParseItems(content string) ([]Item, error) {
	if m := fenceRe.FindStringSubmatch(content); len(m) >= 2 {
		content = m[1]
	}
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end < start {
		return nil, errors.New("no JSON array in response")
	}
	var raw []Item
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions: %w", err)
	}
	items := raw[:0]
	for _, it := range raw {
		if it.Sketch == nil && it.Keyframes == nil {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}
