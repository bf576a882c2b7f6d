package photo

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Placeholder synthesizes a neutral stand-in photo at the exact spec box:
// light gray field with a darker border and a centered PHOTO label. Fully
// deterministic, so repeated generations for a photo-less citizen dedup to
// one stored file.
func Placeholder(spec Spec) []byte {
	w, h := spec.PixelBox()
	field := color.NRGBA{R: 0xF0, G: 0xF0, B: 0xF0, A: 0xFF}
	border := color.NRGBA{R: 0x64, G: 0x64, B: 0x64, A: 0xFF}

	img := imaging.New(w, h, field)
	const thickness = 3
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < thickness || x >= w-thickness || y < thickness || y >= h-thickness {
				img.SetNRGBA(x, y, border)
			}
		}
	}

	const label = "PHOTO"
	face := basicfont.Face7x13
	labelW := font.MeasureString(face, label).Ceil()
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(border),
		Face: face,
		Dot:  fixed.P((w-labelW)/2, h/2),
	}
	drawer.DrawString(label)

	var buf bytes.Buffer
	// Placeholder encoding cannot fail on an in-memory NRGBA; ignore is safe.
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: spec.Quality})
	return withJFIFDensity(buf.Bytes(), spec.DPI)
}
