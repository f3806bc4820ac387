package figure

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	fontsOnce   sync.Once
	regularFont *opentype.Font
	boldFont    *opentype.Font
	fontsErr    error

	facesMu sync.Mutex
	faces   = make(map[faceKey]font.Face)
)

type faceKey struct {
	bold bool
	size float64
	dpi  int
}

// face returns a cached Go font face for size points at dpi.
func face(bold bool, size float64, dpi int) (font.Face, error) {
	fontsOnce.Do(func() {
		if regularFont, fontsErr = opentype.Parse(goregular.TTF); fontsErr != nil {
			return
		}
		boldFont, fontsErr = opentype.Parse(gobold.TTF)
	})
	if fontsErr != nil {
		return nil, fmt.Errorf("parse go fonts: %w", fontsErr)
	}

	key := faceKey{bold: bold, size: size, dpi: dpi}
	facesMu.Lock()
	defer facesMu.Unlock()
	if f, ok := faces[key]; ok {
		return f, nil
	}

	src := regularFont
	if bold {
		src = boldFont
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     float64(dpi),
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	faces[key] = f
	return f, nil
}

// metrics returns advance width, ascent and descent in pixels.
func metrics(f font.Face, s string) (width, ascent, descent float64) {
	m := f.Metrics()
	return fixedFloat(font.MeasureString(f, s)), fixedFloat(m.Ascent), fixedFloat(m.Descent)
}

func fixedFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
