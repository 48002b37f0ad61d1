// Package photo implements the raster photo-adjustment tool. It is a
// standalone sibling of the vector editor and shares no state with it: one
// loaded image, a crop/rotate/flip stage, and color adjustments applied as a
// fixed pipeline on render.
package photo

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
)

var (
	ErrNoImage   = errors.New("photo: no image loaded")
	ErrBadImage  = errors.New("photo: unsupported image data")
	ErrEmptyCrop = errors.New("photo: crop outside image")
	ErrBadFormat = errors.New("photo: unsupported export format")
)

// Adjustments are the color controls applied at render time. Out-of-range
// values are clamped on set rather than rejected.
type Adjustments struct {
	Brightness float64 `json:"brightness"` // [-1, 1]
	Contrast   float64 `json:"contrast"`   // [-1, 1]
	Saturation float64 `json:"saturation"` // [-1, 1]
	Hue        float64 `json:"hue"`        // degrees, [-180, 180]
	Blur       float64 `json:"blur"`       // gaussian radius, >= 0
	Grayscale  bool    `json:"grayscale"`
	Sepia      bool    `json:"sepia"`
	Invert     bool    `json:"invert"`
}

// Photo holds one loaded image and its pending edits. Edits are kept as
// state and applied source-first on every Render, so the pipeline is
// repeatable and Reset is free.
type Photo struct {
	source   image.Image
	crop     *image.Rectangle // source coordinates; nil means full frame
	rotation int              // quarter turns in degrees, 0/90/180/270
	flipH    bool
	flipV    bool
	adjust   Adjustments
}

func New() *Photo { return &Photo{} }

// Load decodes PNG, JPEG or GIF data and replaces the current photo.
// Pending edits are discarded; nothing changes on a decode failure.
func (p *Photo) Load(r io.Reader) error {
	img, _, err := image.Decode(r)
	if err != nil {
		return fmt.Errorf("photo: decode: %w", ErrBadImage)
	}
	p.source = img
	p.resetEdits()
	return nil
}

// LoadDataURI loads from a base64 data URI as produced by a file picker.
func (p *Photo) LoadDataURI(s string) error {
	if !strings.HasPrefix(s, "data:image/") {
		return fmt.Errorf("photo: not an image data uri: %w", ErrBadImage)
	}
	_, b64, ok := strings.Cut(s, ";base64,")
	if !ok {
		return fmt.Errorf("photo: data uri is not base64: %w", ErrBadImage)
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return fmt.Errorf("photo: data uri: %w", ErrBadImage)
	}
	return p.Load(bytes.NewReader(raw))
}

func (p *Photo) Loaded() bool { return p.source != nil }

// Crop narrows the visible region. Coordinates are relative to the current
// crop, so repeated crops compose the way they look on screen. Negative
// width/height boxes are normalized; the result is clamped to the image and
// rejected only if nothing remains.
func (p *Photo) Crop(x, y, w, h int) error {
	if p.source == nil {
		return ErrNoImage
	}
	base := p.cropRect()
	r := image.Rect(x, y, x+w, y+h).Canon().Add(base.Min)
	r = r.Intersect(base)
	if r.Empty() {
		return fmt.Errorf("photo: crop %dx%d at (%d,%d): %w", w, h, x, y, ErrEmptyCrop)
	}
	p.crop = &r
	return nil
}

// Rotate90 adds a quarter turn.
func (p *Photo) Rotate90() {
	p.rotation = (p.rotation + 90) % 360
}

// FlipH mirrors the image as the user sees it. On a quarter-turned image the
// visible horizontal axis is the source vertical one, so the opposite source
// flip is toggled.
func (p *Photo) FlipH() {
	if p.rotation == 90 || p.rotation == 270 {
		p.flipV = !p.flipV
	} else {
		p.flipH = !p.flipH
	}
}

func (p *Photo) FlipV() {
	if p.rotation == 90 || p.rotation == 270 {
		p.flipH = !p.flipH
	} else {
		p.flipV = !p.flipV
	}
}

// SetAdjustments replaces the color controls, clamping each to its range.
func (p *Photo) SetAdjustments(a Adjustments) {
	a.Brightness = clamp(a.Brightness, -1, 1)
	a.Contrast = clamp(a.Contrast, -1, 1)
	a.Saturation = clamp(a.Saturation, -1, 1)
	a.Hue = clamp(a.Hue, -180, 180)
	a.Blur = math.Max(0, a.Blur)
	p.adjust = a
}

func (p *Photo) Adjustments() Adjustments { return p.adjust }
func (p *Photo) Rotation() int            { return p.rotation }
func (p *Photo) Flipped() (h, v bool)     { return p.flipH, p.flipV }

// Reset discards every edit but keeps the loaded photo.
func (p *Photo) Reset() {
	p.resetEdits()
}

// Bounds reports the rendered dimensions after crop and rotation, without
// rendering. Zero before a photo is loaded.
func (p *Photo) Bounds() (w, h int) {
	if p.source == nil {
		return 0, 0
	}
	r := p.cropRect()
	w, h = r.Dx(), r.Dy()
	if p.rotation == 90 || p.rotation == 270 {
		w, h = h, w
	}
	return w, h
}

// Render applies the pipeline: crop, flip, rotate, color adjustments, blur,
// then the filter toggles. The source is never mutated.
func (p *Photo) Render() (*image.RGBA, error) {
	if p.source == nil {
		return nil, ErrNoImage
	}
	img := clone.AsRGBA(p.source)
	if p.crop != nil {
		img = transform.Crop(img, *p.crop)
	}
	if p.flipH {
		img = transform.FlipH(img)
	}
	if p.flipV {
		img = transform.FlipV(img)
	}
	if p.rotation != 0 {
		img = transform.Rotate(img, float64(p.rotation), &transform.RotationOptions{ResizeBounds: true})
	}

	a := p.adjust
	if a.Brightness != 0 {
		img = adjust.Brightness(img, a.Brightness)
	}
	if a.Contrast != 0 {
		img = adjust.Contrast(img, a.Contrast)
	}
	if a.Saturation != 0 {
		img = adjust.Saturation(img, a.Saturation)
	}
	if hue := int(math.Round(a.Hue)); hue != 0 {
		img = adjust.Hue(img, hue)
	}
	if a.Blur > 0 {
		img = blur.Gaussian(img, a.Blur)
	}
	if a.Grayscale {
		img = effect.Grayscale(img)
	}
	if a.Sepia {
		img = effect.Sepia(img)
	}
	if a.Invert {
		img = effect.Invert(img)
	}
	return img, nil
}

// Export renders and encodes. Format is "png" (default) or "jpeg"; quality
// applies to JPEG only and falls back to 90 when out of range.
func (p *Photo) Export(w io.Writer, format string, quality int) error {
	img, err := p.Render()
	if err != nil {
		return err
	}
	var enc imgio.Encoder
	switch strings.ToLower(format) {
	case "", "png":
		enc = imgio.PNGEncoder()
	case "jpg", "jpeg":
		if quality <= 0 || quality > 100 {
			quality = 90
		}
		enc = imgio.JPEGEncoder(quality)
	default:
		return fmt.Errorf("photo: export as %q: %w", format, ErrBadFormat)
	}
	if err := enc(w, img); err != nil {
		return fmt.Errorf("photo: encode %s: %w", format, err)
	}
	return nil
}

func (p *Photo) cropRect() image.Rectangle {
	if p.crop != nil {
		return *p.crop
	}
	return p.source.Bounds()
}

func (p *Photo) resetEdits() {
	p.crop = nil
	p.rotation = 0
	p.flipH = false
	p.flipV = false
	p.adjust = Adjustments{}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
