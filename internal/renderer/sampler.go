package renderer

import (
	"github.com/ivlev/motionpath/internal/bezier"
	"github.com/ivlev/motionpath/internal/modifier"
	"github.com/ivlev/motionpath/internal/path"
)

// bisectSteps bounds the error of the timing solve to 2^-40.
const bisectSteps = 40

// lengthSamples is the polyline resolution used to map a length fraction
// to a curve parameter.
const lengthSamples = 32

// LocalTime maps a global time into the playback window of p. ok is false
// outside the window.
func LocalTime(p *path.Path, t float64) (local float64, ok bool) {
	if t < p.StartTime || t > p.StartTime+p.Duration {
		return 0, false
	}
	return (t - p.StartTime) / p.Duration, true
}

// ProgressAt evaluates the timing curves at local time u. Segments are
// solved for their time coordinate by bisection.
func ProgressAt(graph []bezier.Cubic, u float64) float64 {
	if len(graph) == 0 {
		return 0
	}
	if u <= graph[0][0].X {
		return graph[0][0].Y
	}
	for _, c := range graph {
		if u > c[3].X {
			continue
		}
		if c[3].X <= c[0].X {
			return c[3].Y
		}
		return c.Eval(solveX(c, u)).Y
	}
	return graph[len(graph)-1][3].Y
}

func solveX(c bezier.Cubic, x float64) float64 {
	lo, hi := 0.0, 1.0
	for range bisectSteps {
		mid := (lo + hi) / 2
		if c.Eval(mid).X < x {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// PointAt returns the point of the sketch curves at the given progress.
// progress holds the keyframe progress values the curves were measured
// with.
func PointAt(sketch []bezier.Cubic, progress []float64, at float64) bezier.Point {
	if len(sketch) == 0 || len(progress) < len(sketch)+1 {
		return bezier.Point{}
	}
	at = min(max(at, 0), progress[len(sketch)])
	for j, c := range sketch {
		if at > progress[j+1] && j < len(sketch)-1 {
			continue
		}
		seg := progress[j+1] - progress[j]
		if seg <= 0 {
			return c[3]
		}
		return c.Eval(paramAt(c, (at-progress[j])/seg))
	}
	return sketch[len(sketch)-1][3]
}

// paramAt returns the curve parameter at fraction f of the curve's
// polyline length.
func paramAt(c bezier.Cubic, f float64) float64 {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 1
	}
	var lengths [lengthSamples + 1]float64
	prev := c[0]
	for i := 1; i <= lengthSamples; i++ {
		pt := c.Eval(float64(i) / lengthSamples)
		lengths[i] = lengths[i-1] + prev.Distance(pt)
		prev = pt
	}
	total := lengths[lengthSamples]
	if total == 0 {
		return f
	}
	target := f * total
	for i := 1; i <= lengthSamples; i++ {
		if lengths[i] < target {
			continue
		}
		span := lengths[i] - lengths[i-1]
		t := 0.0
		if span > 0 {
			t = (target - lengths[i-1]) / span
		}
		return lerp(float64(i-1), float64(i), t) / lengthSamples
	}
	return 1
}

// lerp performs linear interpolation between a and b.
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Sample returns the position of p at global time t, using curves derived
// from p (see modifier.Effective). ok is false outside the playback window.
func Sample(curves modifier.Curves, p *path.Path, t float64) (pt bezier.Point, ok bool) {
	u, ok := LocalTime(p, t)
	if !ok {
		return bezier.Point{}, false
	}
	at := min(max(ProgressAt(curves.Graph, u), 0), curves.Total())
	return PointAt(curves.Sketch, curves.Progress, at), true
}
