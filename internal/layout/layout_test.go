package layout

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCellSize(t *testing.T) {
	p := DefaultParams()
	w, h := p.CellSize()
	// (1012 - 48 - 40) / 6 and (638 - 48 - 40) / 6
	require.Equal(t, 154, w)
	require.Equal(t, 91, h)
}

func TestRectForSingleCell(t *testing.T) {
	p := DefaultParams()
	r := p.Rect(CellRange{0, 0, 0, 0})
	require.Equal(t, image.Rect(24, 24, 178, 115), r)
}

func bothFaces(t *testing.T) map[string]map[string]Zone {
	t.Helper()
	front, err := Front(DefaultParams())
	require.NoError(t, err)
	back, err := Back(DefaultParams())
	require.NoError(t, err)
	return map[string]map[string]Zone{"front": front, "back": back}
}

// TestZonesDisjointAndBounded covers the layout invariants for the 6x6
// production grid: pairwise disjoint rects, all inside the bleed frame.
func TestZonesDisjointAndBounded(t *testing.T) {
	p := DefaultParams()
	frame := image.Rect(p.Bleed, p.Bleed, p.CanvasW-p.Bleed, p.CanvasH-p.Bleed)

	for face, zones := range bothFaces(t) {
		names := make([]string, 0, len(zones))
		for name := range zones {
			names = append(names, name)
		}
		for i, name := range names {
			z := zones[name]
			require.True(t, z.Rect.In(frame), "%s/%s outside frame", face, name)
			require.False(t, z.Rect.Empty(), "%s/%s empty", face, name)
			for _, other := range names[i+1:] {
				require.False(t, z.Rect.Overlaps(zones[other].Rect),
					"%s zones %s and %s overlap", face, name, other)
			}
		}
	}
}

func TestFrontZoneShapes(t *testing.T) {
	front, err := Front(DefaultParams())
	require.NoError(t, err)

	require.Equal(t, CellRange{0, 1, 1, 4}, front[ZonePhoto].Cells)
	require.Equal(t, KindPhoto, front[ZonePhoto].Kind)
	require.Equal(t, CellRange{2, 1, 5, 4}, front[ZoneDetails].Cells)
	require.Equal(t, detailLineHeight, front[ZoneDetails].LineHeight)
	require.Equal(t, CellRange{0, 5, 5, 5}, front[ZoneSignature].Cells)
}

func TestBackZoneShapes(t *testing.T) {
	back, err := Back(DefaultParams())
	require.NoError(t, err)

	require.Equal(t, KindCategories, back[ZoneCategories].Kind)
	require.Equal(t, KindFingerprint, back[ZoneFingerprint].Kind)
	require.Equal(t, KindBarcode, back[ZoneBarcode].Kind)
	// Barcode band must be wide enough for a PDF417 symbol.
	barcode := back[ZoneBarcode].Rect
	require.Greater(t, barcode.Dx(), 400)
}

func TestValidateRejectsOverlap(t *testing.T) {
	p := DefaultParams()
	zones := map[string]Zone{
		"a": {Name: "a", Rect: image.Rect(30, 30, 200, 200)},
		"b": {Name: "b", Rect: image.Rect(100, 100, 300, 300)},
	}
	require.Error(t, Validate(p, zones))
}

func TestValidateRejectsBleedEscape(t *testing.T) {
	p := DefaultParams()
	zones := map[string]Zone{
		"a": {Name: "a", Rect: image.Rect(0, 0, 50, 50)},
	}
	require.Error(t, Validate(p, zones))
}

func TestZonesAreDeterministic(t *testing.T) {
	first, err := Front(DefaultParams())
	require.NoError(t, err)
	second, err := Front(DefaultParams())
	require.NoError(t, err)
	require.Equal(t, first, second)
}
