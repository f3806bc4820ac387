package figure

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"io"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"
)

// document writes an SVG document from layers. Images and text are only
// included when full is set; the raster path draws those itself.
func (f *Figure) document(w io.Writer, full bool, layers ...[]func(*canvas)) error {
	width, height := f.Page.Size()
	var buf bytes.Buffer
	s := newCanvas(&buf, width, height)

	for i, layer := range layers {
		for _, fn := range layer {
			fn(s)
		}
		if full && i == 0 && f.basemap != nil {
			uri, err := imageDataURI(f.basemap)
			if err != nil {
				return fmt.Errorf("embed basemap: %w", err)
			}
			r := f.Page.Pixels(f.Main.Frame)
			s.Image(r.Min.X, r.Min.Y, r.Dx(), r.Dy(), uri, `preserveAspectRatio="none"`)
		}
	}

	if full {
		if f.logo != nil && !f.logoRect.Empty() {
			uri, err := imageDataURI(f.logo)
			if err != nil {
				return fmt.Errorf("embed logo: %w", err)
			}
			r := f.logoRect
			s.Image(r.Min.X, r.Min.Y, r.Dx(), r.Dy(), uri)
		}
		for _, t := range f.texts {
			writeSVGText(s, t, f.Page)
		}
	}

	s.End()
	_, err := w.Write(buf.Bytes())
	return err
}

func writeSVGText(s *canvas, t placed, page Page) {
	weight := "normal"
	if t.Bold {
		weight = "bold"
	}
	style := fmt.Sprintf("font-family:Go,sans-serif;font-size:%.1fpx;font-weight:%s;fill:%s", page.pt(t.Size), weight, hex(t.Color))
	if t.Rotate {
		x, y := round(t.X), round(t.Y)
		s.Text(x, y, t.S, fmt.Sprintf(`transform="rotate(-90 %d %d)"`, x, y), `dy="0.35em"`, style+";text-anchor:middle")
		return
	}
	s.Text(round(t.baseX), round(t.baseY), t.S, style)
}

// WriteSVG writes the figure as a standalone SVG document.
func (f *Figure) WriteSVG(w io.Writer) error {
	return f.document(w, true, f.background, f.foreground)
}

// Rasterize renders the figure: background shapes, basemap, foreground
// shapes, logo and finally text.
func (f *Figure) Rasterize() (*image.RGBA, error) {
	width, height := f.Page.Size()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	if err := f.rasterLayer(img, f.background); err != nil {
		return nil, err
	}

	if f.basemap != nil {
		r := f.Page.Pixels(f.Main.Frame)
		if f.basemap.Bounds().Size() == r.Size() {
			draw.Draw(img, r, f.basemap, f.basemap.Bounds().Min, draw.Over)
		} else {
			xdraw.ApproxBiLinear.Scale(img, r, f.basemap, f.basemap.Bounds(), xdraw.Over, nil)
		}
	}

	if err := f.rasterLayer(img, f.foreground); err != nil {
		return nil, err
	}

	if f.logo != nil && !f.logoRect.Empty() {
		xdraw.CatmullRom.Scale(img, f.logoRect, f.logo, f.logo.Bounds(), xdraw.Over, nil)
	}

	for _, t := range f.texts {
		if err := drawText(img, t, f.Page.DPI); err != nil {
			return nil, err
		}
	}
	return img, nil
}

func (f *Figure) rasterLayer(img *image.RGBA, layer []func(*canvas)) error {
	var buf bytes.Buffer
	if err := f.document(&buf, false, layer); err != nil {
		return err
	}
	// <text> and <image> are not supported by oksvg and are skipped.
	icon, err := oksvg.ReadIconStream(&buf, oksvg.IgnoreErrorMode)
	if err != nil {
		return fmt.Errorf("parse svg: %w", err)
	}
	width, height := f.Page.Size()
	icon.SetTarget(0, 0, float64(width), float64(height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	raster := rasterx.NewDasher(width, height, scanner)
	icon.Draw(raster, 1.0)
	return nil
}

func drawText(dst *image.RGBA, t placed, dpi int) error {
	f, err := face(t.Bold, t.Size, dpi)
	if err != nil {
		return err
	}
	src := image.NewUniform(t.Color)

	if !t.Rotate {
		d := &font.Drawer{Dst: dst, Src: src, Face: f, Dot: fixed.P(round(t.baseX), round(t.baseY))}
		d.DrawString(t.S)
		return nil
	}

	w, h := int(t.width+1), int(t.height+1)
	tmp := image.NewRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{Dst: tmp, Src: src, Face: f, Dot: fixed.P(0, round(t.ascent))}
	d.DrawString(t.S)

	rot := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rot.SetRGBA(y, w-1-x, tmp.RGBAAt(x, y))
		}
	}
	x0, y0 := round(t.X)-h/2, round(t.Y)-w/2
	draw.Draw(dst, image.Rect(x0, y0, x0+h, y0+w), rot, image.Point{}, draw.Over)
	return nil
}
