package render

import (
	"github.com/fogleman/gg"

	"cardforge/internal/assets"
	"cardforge/internal/domain"
	"cardforge/internal/layout"
)

// Watermark renders the transparent overlay sheet: the official mark tiled
// diagonally across the canvas, every second tile rotated 15 degrees, with
// the license number pinned in the corner. The background stays fully
// transparent so the sheet composites over either face.
func (r *Renderer) Watermark(license domain.LicenseRecord) ([]byte, error) {
	dc := gg.NewContext(r.params.CanvasW, r.params.CanvasH)

	mark := "OFFICIAL " + r.country
	dc.SetFontFace(r.fonts.Face(assets.FontSubtitle))

	const stepX, stepY = 260, 120
	tile := 0
	for y := stepY / 2; y < r.params.CanvasH+stepY; y += stepY {
		// Offset odd rows by half a step so tiles brick instead of column up.
		xOffset := 0
		if (y/stepY)%2 == 1 {
			xOffset = stepX / 2
		}
		for x := xOffset; x < r.params.CanvasW+stepX; x += stepX {
			dc.SetRGBA255(120, 120, 120, 64)
			if tile%2 == 1 {
				dc.Push()
				dc.RotateAbout(gg.Radians(15), float64(x), float64(y))
				dc.DrawStringAnchored(mark, float64(x), float64(y), 0.5, 0.5)
				dc.Pop()
			} else {
				dc.DrawStringAnchored(mark, float64(x), float64(y), 0.5, 0.5)
			}
			tile++
		}
	}

	dc.SetFontFace(r.fonts.Face(assets.FontTiny))
	dc.SetRGBA255(120, 120, 120, 96)
	dc.DrawStringAnchored(license.LicenseNumber, float64(r.params.CanvasW-16), float64(r.params.CanvasH-14), 1, 0.5)

	return encodePNG(dc.Image(), layout.DPI)
}
