package photo

import "math"

// Spec is the ISO photo box in physical units. The pixel box is derived,
// not stored, so a spec change cannot drift from its rendering.
type Spec struct {
	WidthMM  float64
	HeightMM float64
	DPI      int
	// Quality is the JPEG encode quality for processed output.
	Quality int
}

const mmPerInch = 25.4

// DefaultSpec is the ISO 18013 portrait box: 18x22 mm at 300 DPI.
func DefaultSpec() Spec {
	return Spec{WidthMM: 18, HeightMM: 22, DPI: 300, Quality: 95}
}

// PixelBox returns the exact target pixel dimensions (213x260 for the
// default spec).
func (s Spec) PixelBox() (w, h int) {
	w = int(math.Round(s.WidthMM / mmPerInch * float64(s.DPI)))
	h = int(math.Round(s.HeightMM / mmPerInch * float64(s.DPI)))
	return w, h
}

// AspectRatio returns width over height of the target box.
func (s Spec) AspectRatio() float64 {
	return s.WidthMM / s.HeightMM
}
