package figure

import (
	"image/color"
	"math"
)

// HAlign is horizontal text alignment relative to the anchor.
type HAlign int

const (
	AlignLeft HAlign = iota
	AlignCenter
	AlignRight
)

// VAlign is vertical text alignment relative to the anchor.
type VAlign int

const (
	AlignBottom VAlign = iota
	AlignMiddle
	AlignTop
)

// Text is a string placed at a pixel anchor.
type Text struct {
	X, Y   float64
	S      string
	Size   float64 // points
	Bold   bool
	Color  color.RGBA
	HAlign HAlign
	VAlign VAlign
	// Rotate turns the text 90 degrees counter-clockwise about its anchor.
	Rotate bool
}

// Box is a rounded background drawn behind a label.
type Box struct {
	Fill    string
	Opacity float64
	Stroke  string
	// Pad is in units of the font size.
	Pad float64
}

// placed is a measured text: its baseline origin and extent in pixels,
// before any rotation.
type placed struct {
	Text
	baseX, baseY  float64
	width, height float64
	ascent        float64
}

// bounds returns the unrotated text box in pixels: x, y (top left), w, h.
func (p placed) bounds() (float64, float64, float64, float64) {
	return p.baseX, p.baseY - p.ascent, p.width, p.height
}

// place measures t with face metrics and resolves its baseline origin.
func place(t Text, width, ascent, descent float64) placed {
	height := ascent + descent
	x := t.X
	switch t.HAlign {
	case AlignCenter:
		x -= width / 2
	case AlignRight:
		x -= width
	}
	y := t.Y
	switch t.VAlign {
	case AlignBottom:
		y -= descent
	case AlignMiddle:
		y += (ascent - descent) / 2
	case AlignTop:
		y += ascent
	}
	return placed{Text: t, baseX: x, baseY: y, width: width, height: height, ascent: ascent}
}

func round(v float64) int {
	return int(math.Round(v))
}
