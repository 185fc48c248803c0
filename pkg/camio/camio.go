// Package camio reads recorded camera paths in the advancedfx text format.
//
//	advancedfx Cam
//	version 2
//	scaleFov none
//	channels time xPosition yPosition zPosition xRotation yRotation zRotation fov
//	DATA
//	0.0 0 0 0 0 0 0 90
//	...
//
// xRotation is roll, yRotation pitch and zRotation yaw, all in degrees.
package camio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/chazu/calcgraph/pkg/geom"
	"github.com/chazu/calcgraph/pkg/world"
)

const magic = "advancedfx Cam"

var channels = []string{
	"time", "xPosition", "yPosition", "zPosition",
	"xRotation", "yRotation", "zRotation", "fov",
}

// ErrFormat is wrapped by every parse error.
var ErrFormat = errors.New("camio: bad format")

// ScaleFov selects how recorded FOV values are interpreted.
type ScaleFov int

const (
	// ScaleNone uses recorded FOV values as is.
	ScaleNone ScaleFov = iota
	// ScaleAlienSwarm treats recorded FOV values as 4:3 and widens them to
	// the viewport aspect.
	ScaleAlienSwarm
)

// Frame is one recorded sample.
type Frame struct {
	Time float64
	Pos  geom.Vec
	Ang  geom.Angles
	Fov  float64
}

// Track is a parsed camera path with frames in ascending time order.
type Track struct {
	Version  int
	ScaleFov ScaleFov
	Frames   []Frame
}

var _ world.Track = (*Track)(nil)

// Open loads the track at path. It matches world.TrackOpener.
func Open(path string) (world.Track, error) {
	t, err := Load(path)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Load reads and parses the track at path.
func Load(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("camio: %w", err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse reads a track from r.
func Parse(r io.Reader) (*Track, error) {
	sc := bufio.NewScanner(r)
	line := 0
	next := func() (string, bool) {
		for sc.Scan() {
			line++
			if s := strings.TrimSpace(sc.Text()); s != "" {
				return s, true
			}
		}
		return "", false
	}
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: line %d: %s", ErrFormat, line, fmt.Sprintf(format, args...))
	}

	s, ok := next()
	if !ok || s != magic {
		return nil, fail("expected %q", magic)
	}

	t := &Track{}
	sawChannels := false
	for {
		s, ok := next()
		if !ok {
			return nil, fail("missing DATA section")
		}
		if s == "DATA" {
			break
		}
		fields := strings.Fields(s)
		switch fields[0] {
		case "version":
			if len(fields) != 2 {
				return nil, fail("malformed version")
			}
			v, err := strconv.Atoi(fields[1])
			if err != nil || v < 1 || v > 2 {
				return nil, fail("unsupported version %q", fields[1])
			}
			t.Version = v
		case "scaleFov":
			if len(fields) != 2 {
				return nil, fail("malformed scaleFov")
			}
			switch fields[1] {
			case "none":
				t.ScaleFov = ScaleNone
			case "alienSwarm":
				t.ScaleFov = ScaleAlienSwarm
			default:
				return nil, fail("unknown scaleFov %q", fields[1])
			}
		case "channels":
			if strings.Join(fields[1:], " ") != strings.Join(channels, " ") {
				return nil, fail("unsupported channels")
			}
			sawChannels = true
		default:
			return nil, fail("unknown header %q", fields[0])
		}
	}
	if t.Version == 0 {
		return nil, fail("missing version")
	}
	if t.Version < 2 && t.ScaleFov != ScaleNone {
		return nil, fail("scaleFov requires version 2")
	}
	if !sawChannels {
		return nil, fail("missing channels")
	}

	for {
		s, ok := next()
		if !ok {
			break
		}
		fields := strings.Fields(s)
		if len(fields) != len(channels) {
			return nil, fail("expected %d values, got %d", len(channels), len(fields))
		}
		var v [8]float64
		for i, f := range fields {
			x, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fail("bad %s value %q", channels[i], f)
			}
			v[i] = x
		}
		t.Frames = append(t.Frames, Frame{
			Time: v[0],
			Pos:  geom.Vec{X: v[1], Y: v[2], Z: v[3]},
			Ang:  geom.Angles{Roll: v[4], Pitch: v[5], Yaw: v[6]},
			Fov:  v[7],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("camio: %w", err)
	}
	if len(t.Frames) == 0 {
		return nil, fail("no frames")
	}

	sort.SliceStable(t.Frames, func(i, j int) bool {
		return t.Frames[i].Time < t.Frames[j].Time
	})
	return t, nil
}

// Duration returns the time span between the first and last frame.
func (t *Track) Duration() float64 {
	return t.Frames[len(t.Frames)-1].Time - t.Frames[0].Time
}

// Sample returns the camera elapsed seconds after the first frame.
// It fails outside the recorded range.
func (t *Track) Sample(elapsed float64, width, height int) (geom.Cam, bool) {
	if len(t.Frames) == 0 || elapsed < 0 {
		return geom.Cam{}, false
	}
	at := t.Frames[0].Time + elapsed
	last := t.Frames[len(t.Frames)-1]
	if at > last.Time {
		return geom.Cam{}, false
	}

	// First frame with Time >= at.
	i := sort.Search(len(t.Frames), func(i int) bool { return t.Frames[i].Time >= at })
	hi := t.Frames[i]
	if i == 0 || hi.Time == at {
		return t.cam(hi.Pos, hi.Ang, hi.Fov, width, height), true
	}

	lo := t.Frames[i-1]
	u := (at - lo.Time) / (hi.Time - lo.Time)
	pos := lo.Pos.Add(hi.Pos.Sub(lo.Pos).MulScalar(u))
	ang := geom.Slerp(lo.Ang, hi.Ang, u)
	fov := lo.Fov + (hi.Fov-lo.Fov)*u
	return t.cam(pos, ang, fov, width, height), true
}

func (t *Track) cam(pos geom.Vec, ang geom.Angles, fov float64, width, height int) geom.Cam {
	if t.ScaleFov == ScaleAlienSwarm && width > 0 && height > 0 {
		fov = AlienSwarmFov(fov, width, height)
	}
	return geom.Cam{Pose: geom.Pose{Pos: pos, Ang: ang}, Fov: fov}
}

// AlienSwarmFov widens a 4:3 horizontal FOV to the given viewport aspect.
func AlienSwarmFov(fov float64, width, height int) float64 {
	aspect := float64(width) / float64(height)
	half := math.Tan(geom.Radians(fov) / 2)
	return geom.Degrees(2 * math.Atan(half*aspect/(4.0/3.0)))
}

// Write encodes t in the text format.
func Write(w io.Writer, t *Track) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, magic)
	fmt.Fprintf(bw, "version %d\n", t.Version)
	if t.Version >= 2 {
		scale := "none"
		if t.ScaleFov == ScaleAlienSwarm {
			scale = "alienSwarm"
		}
		fmt.Fprintf(bw, "scaleFov %s\n", scale)
	}
	fmt.Fprintf(bw, "channels %s\n", strings.Join(channels, " "))
	fmt.Fprintln(bw, "DATA")
	for _, f := range t.Frames {
		fmt.Fprintf(bw, "%s %s %s %s %s %s %s %s\n",
			ftoa(f.Time), ftoa(f.Pos.X), ftoa(f.Pos.Y), ftoa(f.Pos.Z),
			ftoa(f.Ang.Roll), ftoa(f.Ang.Pitch), ftoa(f.Ang.Yaw), ftoa(f.Fov))
	}
	return bw.Flush()
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
