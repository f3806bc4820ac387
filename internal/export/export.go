// Package export encodes rendered maps for download.
package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"image"
	"image/color"
	"image/draw"
	"image/png"
)

// Data URI prefixes.
const (
	PNGPrefix  = "data:image/png;base64,"
	HTMLPrefix = "data:text/html;base64,"
	SVGPrefix  = "data:image/svg+xml;base64,"
)

// Download file names.
const (
	PNGFile  = "map.png"
	HTMLFile = "map.html"
	SVGFile  = "map.svg"
)

// EncodePNG crops uniform white margins down to pad pixels and encodes the
// result. The returned rectangle is the crop, in img's coordinates.
func EncodePNG(img image.Image, pad int) ([]byte, image.Rectangle, error) {
	cropped := TightCrop(img, pad)
	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), cropped.Bounds(), nil
}

// TightCrop returns the smallest sub-image holding every non-white pixel,
// grown by pad on each side and clamped to the source bounds.
func TightCrop(img image.Image, pad int) image.Image {
	b := img.Bounds()
	content := image.Rectangle{}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if isWhite(img.At(x, y)) {
				continue
			}
			content = content.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	if content.Empty() {
		return img
	}
	crop := image.Rect(content.Min.X-pad, content.Min.Y-pad, content.Max.X+pad, content.Max.Y+pad).Intersect(b)

	if sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(crop)
	}
	out := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Draw(out, out.Bounds(), img, crop.Min, draw.Src)
	return out
}

func isWhite(c color.Color) bool {
	r, g, b, a := c.RGBA()
	return a == 0 || (r == 0xffff && g == 0xffff && b == 0xffff)
}

// DataURI base64-encodes data behind prefix.
func DataURI(prefix string, data []byte) string {
	return prefix + base64.StdEncoding.EncodeToString(data)
}

// PNGDataURI returns a data URI for PNG bytes.
func PNGDataURI(data []byte) string { return DataURI(PNGPrefix, data) }

// HTMLDataURI returns a data URI for an HTML document.
func HTMLDataURI(doc []byte) string { return DataURI(HTMLPrefix, doc) }

// SVGDataURI returns a data URI for an SVG document.
func SVGDataURI(doc []byte) string { return DataURI(SVGPrefix, doc) }

// Button describes a download control.
type Button struct {
	File  string
	Label string
	Color string
}

// Download buttons for each output.
var (
	PNGButton  = Button{File: PNGFile, Label: "Download PNG", Color: "#4CAF50"}
	HTMLButton = Button{File: HTMLFile, Label: "Download HTML", Color: "#008CBA"}
	SVGButton  = Button{File: SVGFile, Label: "Download SVG", Color: "#2c3e50"}
)

var linkTmpl = template.Must(template.New("download").Parse(
	`<a href="{{.URI}}" download="{{.File}}" style="text-decoration: none;"><button style="background-color: {{.Color}}; color: white; padding: 8px 16px; border: none; border-radius: 4px; cursor: pointer;">{{.Label}}</button></a>`))

// DownloadLink renders an anchor that downloads uri with the button's file name.
func DownloadLink(uri string, b Button) (template.HTML, error) {
	var buf bytes.Buffer
	err := linkTmpl.Execute(&buf, struct {
		URI template.URL
		Button
	}{template.URL(uri), b})
	if err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
