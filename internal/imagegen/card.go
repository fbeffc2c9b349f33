// Package imagegen renders the Open Graph summary card.
package imagegen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// CardWidth and CardHeight are the standard Open Graph image dimensions.
const (
	CardWidth  = 1200
	CardHeight = 630
)

var (
	boldFont    *opentype.Font
	regularFont *opentype.Font
	fontOnce    sync.Once
	fontErr     error
)

func loadFonts() error {
	fontOnce.Do(func() {
		var err error
		if boldFont, err = opentype.Parse(gobold.TTF); err != nil {
			fontErr = fmt.Errorf("parse gobold: %w", err)
			return
		}
		if regularFont, err = opentype.Parse(goregular.TTF); err != nil {
			fontErr = fmt.Errorf("parse goregular: %w", err)
		}
	})
	return fontErr
}

// cardFaces are created per render: an opentype face caches glyphs and must
// not be shared between goroutines.
type cardFaces struct {
	title, regular, small font.Face
}

func newCardFaces() (*cardFaces, error) {
	if err := loadFonts(); err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}

	var f cardFaces
	var err error
	if f.title, err = newFace(boldFont, 72); err != nil {
		return nil, err
	}
	if f.regular, err = newFace(regularFont, 40); err != nil {
		return nil, err
	}
	if f.small, err = newFace(regularFont, 28); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *cardFaces) Close() {
	for _, face := range []font.Face{f.title, f.regular, f.small} {
		face.Close()
	}
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create %.0fpt face: %w", size, err)
	}
	return face, nil
}

// SummaryCardData is the text drawn on the card. Best and Worst may be empty
// when there is no data yet.
type SummaryCardData struct {
	Best        string
	BestIndex   float64
	Worst       string
	WorstIndex  float64
	CityCount   int
	AlertColor  string // green, yellow, orange or red for the worst city
	GeneratedAt time.Time
}

var accentColors = map[string]color.RGBA{
	"green":  {46, 160, 67, 255},
	"yellow": {214, 180, 32, 255},
	"orange": {230, 120, 30, 255},
	"red":    {200, 40, 40, 255},
}

// GenerateSummaryCard draws a 1200x630 PNG summarising the monitored cities.
func GenerateSummaryCard(data SummaryCardData) ([]byte, error) {
	faces, err := newCardFaces()
	if err != nil {
		return nil, err
	}
	defer faces.Close()

	img := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))
	drawBackground(img)

	accent, ok := accentColors[data.AlertColor]
	if !ok {
		accent = color.RGBA{90, 110, 140, 255}
	}
	drawAccentBar(img, accent)

	white := color.RGBA{255, 255, 255, 255}
	lightGray := color.RGBA{200, 200, 200, 255}

	drawText(img, "AirGuard", 80, 140, white, faces.title)

	if data.CityCount == 0 {
		drawText(img, "No air quality data yet", 80, 300, lightGray, faces.regular)
	} else {
		drawText(img, fmt.Sprintf("Cleanest: %s (quality %.0f)", data.Best, data.BestIndex), 80, 280, white, faces.regular)
		drawText(img, fmt.Sprintf("Most polluted: %s (quality %.0f)", data.Worst, data.WorstIndex), 80, 350, white, faces.regular)
		drawText(img, fmt.Sprintf("%d cities monitored", data.CityCount), 80, 430, lightGray, faces.small)
	}

	footer := "airguard"
	if !data.GeneratedAt.IsZero() {
		footer = fmt.Sprintf("airguard · %s", data.GeneratedAt.UTC().Format("2 Jan 2006 15:04 MST"))
	}
	drawText(img, footer, 80, CardHeight-50, lightGray, faces.small)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode summary card: %w", err)
	}
	return buf.Bytes(), nil
}

// drawBackground fills the card with a dark vertical gradient.
func drawBackground(img *image.RGBA) {
	for y := 0; y < CardHeight; y++ {
		progress := float64(y) / float64(CardHeight)
		c := color.RGBA{uint8(18 + progress*10), uint8(28 + progress*20), uint8(44 + progress*25), 255}
		for x := 0; x < CardWidth; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func drawAccentBar(img *image.RGBA, c color.RGBA) {
	for y := 0; y < CardHeight; y++ {
		for x := 0; x < 24; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func drawText(img *image.RGBA, text string, x, y int, col color.Color, face font.Face) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// CardCache holds the last rendered card for a short period.
type CardCache struct {
	mu        sync.RWMutex
	data      []byte
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

func NewCardCache(ttl time.Duration) *CardCache {
	return &CardCache{ttl: ttl, now: time.Now}
}

// Get returns the cached card if still valid.
func (c *CardCache) Get() ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.data == nil || c.now().After(c.expiresAt) {
		return nil, false
	}
	return c.data, true
}

func (c *CardCache) Set(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = data
	c.expiresAt = c.now().Add(c.ttl)
}

// Invalidate drops the cached card, e.g. after the dataset changes.
func (c *CardCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
}
