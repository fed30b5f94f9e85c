package suggest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ivlev/motionpath/internal/bezier"
	"github.com/ivlev/motionpath/internal/codec"
	"github.com/ivlev/motionpath/internal/logx"
	"github.com/ivlev/motionpath/internal/modifier"
	"github.com/ivlev/motionpath/internal/path"
	"github.com/ivlev/motionpath/internal/selection"
)

var (
	// ErrNoTarget is recorded when there is no path to work on, or the
	// target was replaced while a request was in flight.
	ErrNoTarget = errors.New("suggest: no target path")
	// ErrStale is recorded when the target changed while a request was in
	// flight.
	ErrStale = errors.New("suggest: target changed during generation")
	// ErrBusy is returned when a different request is already in flight.
	ErrBusy = errors.New("suggest: another suggestion is being generated")
	// ErrNotReady is returned by Preview and Accept without suggestions.
	ErrNotReady = errors.New("suggest: no suggestions available")
	// ErrEmpty is recorded when the service returned nothing usable.
	ErrEmpty = errors.New("suggest: no usable suggestions")
)

// Status is the state of a Manager.
type Status int

const (
	Idle Status = iota
	Generating
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Generating:
		return "generating"
	case Ready:
		return "ready"
	case Failed:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Manager runs the suggestion workflow for one curve family. It is safe
// for concurrent use.
//
// An identical instruction issued while a request is in flight joins that
// request; a different one is rejected with ErrBusy.
type Manager struct {
	family path.Family
	svc    Service
	ids    path.IDGenerator
	group  singleflight.Group

	mu          sync.Mutex
	target      *path.Path
	rng         path.SelectionRange
	status      Status
	err         error
	pending     string
	key         string
	flights     int
	instruction string
	history     []string
	items       []Item
	suggestions []modifier.Suggestion

	onJoin func() // test hook, called with mu held
}

// NewManager returns an idle manager for family f.
func NewManager(f path.Family, svc Service, ids path.IDGenerator) *Manager {
	return &Manager{family: f, svc: svc, ids: ids}
}

// SetTarget selects the path and curve range later requests work on. A nil
// rng selects the whole path; nil p clears the target. Pending suggestions
// are discarded.
func (m *Manager) SetTarget(p *path.Path, rng *path.SelectionRange) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target = p
	if p != nil {
		m.rng = selection.Full(p)
		if rng != nil {
			if r, ok := selection.Clamp(*rng, len(p.Keyframes)); ok {
				m.rng = r
			}
		}
	}
	if m.status != Generating {
		m.reset()
	}
}

func (m *Manager) reset() {
	m.status = Idle
	m.err = nil
	m.items = nil
	m.suggestions = nil
}

// Status returns the current state and, for Failed, its cause.
func (m *Manager) Status() (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, m.err
}

// Items returns the suggestions of the last successful request.
func (m *Manager) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.items)
}

// History returns the instructions of accepted-for-generation requests,
// oldest first.
func (m *Manager) History() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.history)
}

// Generate requests suggestions for instruction and blocks until they
// arrive. Failures, including a missing target, are also recorded in the
// manager's status.
func (m *Manager) Generate(ctx context.Context, instruction string) error {
	m.mu.Lock()
	if m.status == Generating {
		if instruction != m.pending {
			m.mu.Unlock()
			return ErrBusy
		}
		// The flight cannot finish while we hold mu, so this joins it.
		ch := m.group.DoChan(m.key, func() (any, error) { return nil, ErrBusy })
		if m.onJoin != nil {
			m.onJoin()
		}
		m.mu.Unlock()
		return wait(ctx, ch)
	}
	if m.target == nil {
		m.status, m.err = Failed, ErrNoTarget
		m.mu.Unlock()
		return ErrNoTarget
	}

	target, version, rng := m.target, m.target.Version(), m.rng
	req, ref := m.request(target, rng, instruction)
	m.reset()
	m.flights++
	m.status, m.pending = Generating, instruction
	m.key = fmt.Sprintf("%d:%s", m.flights, instruction)
	ch := m.group.DoChan(m.key, func() (any, error) {
		items, err := m.svc.Suggest(ctx, req)
		return nil, m.finish(target, version, ref, instruction, items, err)
	})
	m.mu.Unlock()
	return wait(ctx, ch)
}

func wait(ctx context.Context, ch <-chan singleflight.Result) error {
	select {
	case r := <-ch:
		return r.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) request(target *path.Path, rng path.SelectionRange, instruction string) (Request, selection.Ref) {
	ref := selection.Reference(target, modifier.Base(target).Progress, rng)
	req := Request{
		Family:      m.family,
		Instruction: instruction,
		History:     slices.Clone(m.history),
	}
	if m.family == path.Graph {
		kp := codec.EncodePath(ref.Path)
		req.Keyframes = []codec.KeyframePath{kp}
	} else {
		req.Sketch = codec.SerializePaths([]*path.Path{ref.Path})
	}
	return req, ref
}

// finish records the outcome of a request.
func (m *Manager) finish(target *path.Path, version uint64, ref selection.Ref, instruction string, items []Item, err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = ""
	switch {
	case err != nil:
	case m.target != target:
		err = ErrNoTarget
	case target.Version() != version:
		err = ErrStale
	}
	if err == nil {
		m.items, m.suggestions = m.convert(ref, items)
		if len(m.suggestions) == 0 {
			err = ErrEmpty
		}
	}
	if err != nil {
		m.status, m.err = Failed, err
		m.items, m.suggestions = nil, nil
		logx.Logger().Warn("suggestion failed", "family", m.family, "instruction", instruction, "err", err)
		return err
	}
	m.status, m.err = Ready, nil
	m.instruction = instruction
	m.history = append(m.history, instruction)
	logx.Logger().Info("suggestions ready", "family", m.family, "count", len(m.suggestions))
	return nil
}

// convert decodes items into curves of the manager's family. Items that
// fail to decode are dropped.
func (m *Manager) convert(ref selection.Ref, items []Item) ([]Item, []modifier.Suggestion) {
	var kept []Item
	var out []modifier.Suggestion
	for _, it := range items {
		curves, err := m.curves(ref, it)
		if err != nil {
			logx.Logger().Debug("dropping suggestion", "title", it.Title, "err", err)
			continue
		}
		kept = append(kept, it)
		out = append(out, modifier.Suggestion{Family: m.family, Range: ref.Range, Curves: curves})
	}
	return kept, out
}

func (m *Manager) curves(ref selection.Ref, it Item) ([]bezier.Cubic, error) {
	if m.family == path.Sketch {
		if it.Sketch == nil {
			return nil, fmt.Errorf("%w: item has no sketch payload", codec.ErrMalformed)
		}
		return codec.DeserializeCurves(*it.Sketch)
	}
	if it.Keyframes == nil {
		return nil, fmt.Errorf("%w: item has no keyframe payload", codec.ErrMalformed)
	}
	kfs, err := codec.DecodeKeyframes(*it.Keyframes)
	if err != nil {
		return nil, err
	}
	// Timing suggestions keep the base positions, so the base progress
	// is the value axis.
	curves := path.GraphCurves(kfs, ref.Progress)
	if curves == nil {
		return nil, fmt.Errorf("%w: %d keyframes for %d progress values", codec.ErrMalformed, len(kfs), len(ref.Progress))
	}
	return curves, nil
}

// Preview returns the family's effective curves with suggestion i applied
// at strength. The target is not modified.
func (m *Manager) Preview(i int, strength float64) ([]bezier.Cubic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != Ready || i < 0 || i >= len(m.suggestions) {
		return nil, ErrNotReady
	}
	return modifier.Preview(m.target, m.suggestions[i], strength), nil
}

// Accept turns suggestion i into a modifier on the target and returns it.
// The manager goes back to Idle.
func (m *Manager) Accept(i int) (path.Modifier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != Ready || i < 0 || i >= len(m.suggestions) {
		return path.Modifier{}, ErrNotReady
	}
	mod := modifier.FromSuggestion(m.ids, m.target, m.suggestions[i], m.instruction, m.items[i].Title)
	if err := modifier.Add(m.target, m.family, mod); err != nil {
		return path.Modifier{}, err
	}
	m.reset()
	return mod, nil
}

// Dismiss discards pending suggestions.
func (m *Manager) Dismiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != Generating {
		m.reset()
	}
}
