package render

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linework/linework/backend-go/internal/document"
)

func rgb(img image.Image, x, y int) (uint8, uint8, uint8) {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

func hasInk(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb := rgb(img, x, y)
			if r != 255 || g != 255 || bb != 255 {
				return true
			}
		}
	}
	return false
}

func TestRenderEmptyDocument(t *testing.T) {
	img, err := Render(document.NewDocument(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())
	assert.False(t, hasInk(img))
}

func TestRenderFilledRectangle(t *testing.T) {
	d := document.NewDocument()
	r := document.NewRectangle("el_r", 0, 0, "#ff0000", 2)
	r.Width, r.Height = 40, 30
	d.Append(r)

	img, err := Render(d, Options{FillMode: true})
	require.NoError(t, err)
	assert.Equal(t, 80, img.Bounds().Dx())
	assert.Equal(t, 70, img.Bounds().Dy())

	red, green, _ := rgb(img, 40, 35)
	assert.Greater(t, red, uint8(200))
	assert.Less(t, green, uint8(80))
}

func TestRenderStrokeOnlyLeavesInteriorEmpty(t *testing.T) {
	d := document.NewDocument()
	r := document.NewRectangle("el_r", 0, 0, "#ff0000", 2)
	r.Width, r.Height = 40, 30
	d.Append(r)

	img, err := Render(d, Options{})
	require.NoError(t, err)

	red, green, blue := rgb(img, 40, 35)
	assert.Equal(t, uint8(255), red)
	assert.Equal(t, uint8(255), green)
	assert.Equal(t, uint8(255), blue)

	// Left edge runs through x=20.
	red, green, _ = rgb(img, 20, 35)
	assert.Greater(t, red, uint8(200))
	assert.Less(t, green, uint8(80))
}

func TestRenderSkipsInvisible(t *testing.T) {
	d := document.NewDocument()
	r := document.NewRectangle("el_r", 0, 0, "#ff0000", 2)
	r.Width, r.Height = 40, 30
	r.Visible = false
	d.Append(r)

	img, err := Render(d, Options{FillMode: true})
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.False(t, hasInk(img))
}

func TestRenderScale(t *testing.T) {
	d := document.NewDocument()
	r := document.NewRectangle("el_r", 0, 0, "#00ff00", 2)
	r.Width, r.Height = 40, 30
	d.Append(r)

	img, err := Render(d, Options{Scale: 2, FillMode: true})
	require.NoError(t, err)
	assert.Equal(t, 160, img.Bounds().Dx())
	assert.Equal(t, 140, img.Bounds().Dy())

	_, green, _ := rgb(img, 80, 70)
	assert.Greater(t, green, uint8(200))
}

func TestRenderAllKindsSmoke(t *testing.T) {
	d := document.NewSampleDocument()

	b := document.NewBrush("el_b", 300, 300, "#222222", 3)
	b.Points = append(b.Points, document.Point{X: 340, Y: 320}, document.Point{X: 360, Y: 360})
	d.Append(b)

	tri := document.NewTriangle("el_tri", 400, 100, "#a04040", 2)
	tri.Width, tri.Height = 60, 50
	d.Append(tri)

	star := document.NewStar("el_star", 500, 300, "#4040a0", 2)
	star.Radius = 30
	d.Append(star)

	hex := document.NewPolygon("el_hex", 600, 400, "#40a040", 2)
	hex.Radius = 25
	hex.Rotation = 90
	hex.FlipH = true
	d.Append(hex)

	img, err := Render(d, Options{FillMode: true})
	require.NoError(t, err)
	assert.True(t, hasInk(img))
}

func TestRenderHighlightChangesOutput(t *testing.T) {
	d := document.NewDocument()
	c := document.NewCircle("el_c", 50, 50, "#336699", 2)
	c.Radius = 20
	d.Append(c)
	d.Select("el_c")

	plain, err := Render(d, Options{})
	require.NoError(t, err)
	selected, err := Render(d, Options{ShowHighlight: true})
	require.NoError(t, err)

	var plainBuf, selectedBuf bytes.Buffer
	require.NoError(t, png.Encode(&plainBuf, plain))
	require.NoError(t, png.Encode(&selectedBuf, selected))
	assert.NotEqual(t, plainBuf.Bytes(), selectedBuf.Bytes())
}

func TestRenderImageElement(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			src.Set(x, y, color.RGBA{B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	d := document.NewDocument()
	img := document.NewImage("el_i", 0, 0, uri, 2, 2)
	img.Width, img.Height = 10, 10
	d.Append(img)

	out, err := Render(d, Options{})
	require.NoError(t, err)
	assert.Equal(t, 50, out.Bounds().Dx())

	red, _, blue := rgb(out, 25, 25)
	assert.Greater(t, blue, uint8(200))
	assert.Less(t, red, uint8(50))
}

func TestRenderSkipsURLImageSources(t *testing.T) {
	d := document.NewDocument()
	img := document.NewImage("el_i", 0, 0, "https://example.com/pic.png", 10, 10)
	d.Append(img)

	out, err := Render(d, Options{})
	require.NoError(t, err)
	assert.False(t, hasInk(out))
}

func TestRenderPNGRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPNG(&buf, document.NewSampleDocument(), Options{Scale: 1.5}))

	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Greater(t, decoded.Bounds().Dx(), 0)
}

func TestDecodeDataURI(t *testing.T) {
	_, err := decodeDataURI("https://example.com/a.png")
	assert.Error(t, err)
	_, err = decodeDataURI("data:image/png;base64,!!!")
	assert.Error(t, err)
	_, err = decodeDataURI("data:image/svg+xml,<svg/>")
	assert.Error(t, err)
}
