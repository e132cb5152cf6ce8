// Package transform holds the closed set of server-side image edits.
package transform

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// BorderWidth is the padding added to every edge by the addBorder edit.
const BorderWidth = 30

// Func applies one edit to a decoded image.
type Func func(image.Image) image.Image

// registry maps edit names to their transform. The set is closed; unknown
// names are rejected by For rather than falling through.
var registry = map[string]Func{
	"blackAndWhite": BlackAndWhite,
	"addBorder":     AddBorder,
	"invertColors":  InvertColors,
	"sketch":        Sketch,
}

// For returns the transform registered under name.
func For(name string) (Func, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Names returns the supported edit names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// BlackAndWhite converts the image to single-channel luminance.
func BlackAndWhite(img image.Image) image.Image {
	return imaging.Grayscale(img)
}

// AddBorder pads every edge with a solid black border of BorderWidth pixels.
func AddBorder(img image.Image) image.Image {
	bounds := img.Bounds()
	bordered := imaging.New(
		bounds.Dx()+2*BorderWidth,
		bounds.Dy()+2*BorderWidth,
		color.NRGBA{0, 0, 0, 255},
	)
	return imaging.Paste(bordered, img, image.Pt(BorderWidth, BorderWidth))
}

// InvertColors inverts every channel's intensity.
func InvertColors(img image.Image) image.Image {
	return imaging.Invert(img)
}

// Sketch converts to luminance and applies edge-detection filtering.
func Sketch(img image.Image) image.Image {
	gray := imaging.Grayscale(img)
	return imaging.Convolve3x3(gray, [9]float64{
		-1, -1, -1,
		-1, 8, -1,
		-1, -1, -1,
	}, nil)
}
