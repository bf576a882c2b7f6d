// Package layout maps a fixed grid over the physical card canvas to named
// zone rectangles. Everything here is closed-form integer geometry: no I/O,
// no state, identical inputs always yield identical zones.
package layout

import (
	"fmt"
	"image"
)

// Card canvas constants: 85.60mm x 54.00mm at 300 DPI. Pinned as constants
// rather than derived because the physical standard rounds to 1012x638.
const (
	CanvasWidth  = 1012
	CanvasHeight = 638
	DPI          = 300
	CardWidthMM  = 85.60
	CardHeightMM = 54.00
)

// ContentKind tells the renderer what a zone holds.
type ContentKind string

const (
	KindPhoto       ContentKind = "photo"
	KindTextBlock   ContentKind = "text-block"
	KindSignature   ContentKind = "signature"
	KindBarcode     ContentKind = "barcode"
	KindCategories  ContentKind = "category-grid"
	KindFingerprint ContentKind = "fingerprint-pattern"
)

// Params configures the grid. Zero Rows/Cols default to the 6x6 card grid.
type Params struct {
	CanvasW int
	CanvasH int
	Bleed   int
	Gutter  int
	Rows    int
	Cols    int
}

// DefaultParams is the production card grid: 6x6 cells with a 24px bleed
// (about 2mm) and 8px gutters.
func DefaultParams() Params {
	return Params{CanvasW: CanvasWidth, CanvasH: CanvasHeight, Bleed: 24, Gutter: 8, Rows: 6, Cols: 6}
}

func (p Params) withDefaults() Params {
	if p.Rows == 0 {
		p.Rows = 6
	}
	if p.Cols == 0 {
		p.Cols = 6
	}
	return p
}

// CellSize returns the per-axis cell dimensions:
// (canvas - 2*bleed - (n-1)*gutter) / n.
func (p Params) CellSize() (w, h int) {
	p = p.withDefaults()
	w = (p.CanvasW - 2*p.Bleed - (p.Cols-1)*p.Gutter) / p.Cols
	h = (p.CanvasH - 2*p.Bleed - (p.Rows-1)*p.Gutter) / p.Rows
	return w, h
}

// CellRange is an inclusive block of grid cells, zero-based.
type CellRange struct {
	Col0, Row0 int
	Col1, Row1 int
}

// Zone is one named region of a card face.
type Zone struct {
	Name  string
	Cells CellRange
	Rect  image.Rectangle
	Kind  ContentKind
	// LineHeight steps successive text lines inside text-block zones.
	LineHeight int
}

// Rect resolves a cell range to canvas pixels.
func (p Params) Rect(c CellRange) image.Rectangle {
	p = p.withDefaults()
	cw, ch := p.CellSize()
	x0 := p.Bleed + c.Col0*(cw+p.Gutter)
	y0 := p.Bleed + c.Row0*(ch+p.Gutter)
	x1 := p.Bleed + c.Col1*(cw+p.Gutter) + cw
	y1 := p.Bleed + c.Row1*(ch+p.Gutter) + ch
	return image.Rect(x0, y0, x1, y1)
}

// Front zone names.
const (
	ZoneHeader    = "header"
	ZonePhoto     = "photo"
	ZoneDetails   = "details"
	ZoneSignature = "signature"
)

// Back zone names.
const (
	ZoneRestrictions = "restrictions"
	ZoneCategories   = "categories"
	ZoneFingerprint  = "fingerprint"
	ZoneBarcode      = "barcode"
	ZoneFooter       = "footer"
)

// detailLineHeight steps the personal-detail label/value pairs downward
// from the details zone anchor.
const detailLineHeight = 45

// Front computes the front-face zones: title header across row 1, photo in
// columns 1-2 rows 2-5, the detail text block from column 3, and the
// signature strip across row 6.
func Front(p Params) (map[string]Zone, error) {
	p = p.withDefaults()
	zones := buildZones(p, []Zone{
		{Name: ZoneHeader, Cells: CellRange{0, 0, p.Cols - 1, 0}, Kind: KindTextBlock},
		{Name: ZonePhoto, Cells: CellRange{0, 1, 1, p.Rows - 2}, Kind: KindPhoto},
		{Name: ZoneDetails, Cells: CellRange{2, 1, p.Cols - 1, p.Rows - 2}, Kind: KindTextBlock, LineHeight: detailLineHeight},
		{Name: ZoneSignature, Cells: CellRange{0, p.Rows - 1, p.Cols - 1, p.Rows - 1}, Kind: KindSignature},
	})
	return zones, Validate(p, zones)
}

// Back computes the back-face zones: restrictions header, the 2x4 category
// grid, the fingerprint box, the 2D barcode band, and the authority footer.
func Back(p Params) (map[string]Zone, error) {
	p = p.withDefaults()
	zones := buildZones(p, []Zone{
		{Name: ZoneRestrictions, Cells: CellRange{0, 0, p.Cols - 1, 0}, Kind: KindTextBlock},
		{Name: ZoneCategories, Cells: CellRange{0, 1, 3, 2}, Kind: KindCategories},
		{Name: ZoneFingerprint, Cells: CellRange{0, 3, 1, p.Rows - 2}, Kind: KindFingerprint},
		{Name: ZoneBarcode, Cells: CellRange{2, 3, p.Cols - 1, p.Rows - 2}, Kind: KindBarcode},
		{Name: ZoneFooter, Cells: CellRange{0, p.Rows - 1, p.Cols - 1, p.Rows - 1}, Kind: KindTextBlock},
	})
	return zones, Validate(p, zones)
}

func buildZones(p Params, zones []Zone) map[string]Zone {
	out := make(map[string]Zone, len(zones))
	for _, z := range zones {
		z.Rect = p.Rect(z.Cells)
		out[z.Name] = z
	}
	return out
}

// Validate enforces the layout invariants: every zone inside the bleed
// frame, no two zones overlapping.
func Validate(p Params, zones map[string]Zone) error {
	p = p.withDefaults()
	frame := image.Rect(p.Bleed, p.Bleed, p.CanvasW-p.Bleed, p.CanvasH-p.Bleed)
	names := make([]string, 0, len(zones))
	for name := range zones {
		names = append(names, name)
	}
	for i, name := range names {
		z := zones[name]
		if !z.Rect.In(frame) {
			return fmt.Errorf("zone %s %v escapes bleed frame %v", name, z.Rect, frame)
		}
		for _, other := range names[i+1:] {
			if z.Rect.Overlaps(zones[other].Rect) {
				return fmt.Errorf("zones %s and %s overlap", name, other)
			}
		}
	}
	return nil
}
