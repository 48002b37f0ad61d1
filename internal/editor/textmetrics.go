package editor

import (
	"math"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

// Text hit boxes need measured widths that do not depend on the browser's
// font rasterizer, so measurement always goes through the bundled face
// regardless of the element's font family.

var (
	fontOnce sync.Once
	baseFont *truetype.Font

	faceMu    sync.Mutex
	faceCache = map[int]font.Face{}
)

// FontFace returns a shared face at the given point size (72 DPI, so point
// size equals pixel size). Sizes are quantized to whole points.
func FontFace(size float64) font.Face {
	pt := int(math.Round(size))
	if pt < 1 {
		pt = 1
	}

	fontOnce.Do(func() {
		if f, err := truetype.Parse(goregular.TTF); err == nil {
			baseFont = f
		}
	})
	if baseFont == nil {
		return basicfont.Face7x13
	}

	faceMu.Lock()
	defer faceMu.Unlock()
	if face, ok := faceCache[pt]; ok {
		return face
	}
	face := truetype.NewFace(baseFont, &truetype.Options{
		Size: float64(pt),
		DPI:  72,
	})
	faceCache[pt] = face
	return face
}

// TextWidth measures content at the given font size, in document pixels.
func TextWidth(content string, size float64) float64 {
	if content == "" || size <= 0 {
		return 0
	}
	return float64(font.MeasureString(FontFace(size), content).Ceil())
}
