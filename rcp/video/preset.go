// Package video implements the video interface (VI), which scans out one
// framebuffer per vertical retrace, and the framebuffer format it reads.
package video

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"time"
)

var ErrResolution = errors.New("unsupported resolution")

// Preset represents a predefined video configuration.
type Preset int

const (
	// LowRes is the most common setup: 320x240 without interlacing
	LowRes Preset = iota
	// HighRes is 640x480 with interlacing
	HighRes
)

// NTSC vertical retrace period.
const RetracePeriod = time.Second / 60

var presets = [...]struct {
	name       string
	resolution image.Point
	interlaced bool
}{
	LowRes:  {"low", image.Point{320, 240}, false},
	HighRes: {"high", image.Point{640, 480}, true},
}

// Resolution returns the framebuffer size of the preset.
func (p Preset) Resolution() image.Point { return presets[p].resolution }

// Interlaced reports whether the preset outputs interlaced fields.
func (p Preset) Interlaced() bool { return presets[p].interlaced }

func (p Preset) String() string {
	if p < LowRes || p > HighRes {
		return fmt.Sprintf("preset(%d)", int(p))
	}
	r := presets[p].resolution
	return fmt.Sprintf("%s (%dx%d)", presets[p].name, r.X, r.Y)
}

// Valid reports whether p is one of the supported presets.
func (p Preset) Valid() bool { return p >= LowRes && p <= HighRes }

// PresetFor returns the preset for a resolution.  Only 320x240 and 640x480
// are supported.
func PresetFor(res image.Point) (Preset, error) {
	for i, p := range presets {
		if p.resolution == res {
			return Preset(i), nil
		}
	}
	return LowRes, fmt.Errorf("%w: %dx%d", ErrResolution, res.X, res.Y)
}

// ParsePreset accepts a preset name ("low", "high") or a resolution in the
// form "WxH".
func ParsePreset(s string) (Preset, error) {
	for i, p := range presets {
		if strings.EqualFold(s, p.name) {
			return Preset(i), nil
		}
	}
	var res image.Point
	if _, err := fmt.Sscanf(s, "%dx%d", &res.X, &res.Y); err != nil {
		return LowRes, fmt.Errorf("%w: %q", ErrResolution, s)
	}
	return PresetFor(res)
}
