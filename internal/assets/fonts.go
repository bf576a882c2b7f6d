// Package assets provides the deterministic rendering resources. Fonts are
// parsed once from embedded TTF data and handed to the renderer by
// reference; there is no filesystem search and no process-global cache, so
// identical inputs render identically on every host.
package assets

import (
	"fmt"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// FontClass names the typographic roles the card layout uses.
type FontClass string

const (
	FontTitle    FontClass = "title"
	FontSubtitle FontClass = "subtitle"
	FontLabel    FontClass = "label"
	FontValue    FontClass = "value"
	FontSmall    FontClass = "small"
	FontTiny     FontClass = "tiny"
)

// Point sizes per class, rendered at card DPI.
var classSizes = map[FontClass]float64{
	FontTitle:    24,
	FontSubtitle: 16,
	FontLabel:    12,
	FontValue:    14,
	FontSmall:    10,
	FontTiny:     8,
}

// FontProvider owns the parsed fonts. Construct once at process start and
// pass into the renderer. The parsed *truetype.Font values are immutable
// and safe to share; font.Face values are not (they carry a glyph cache),
// so Face mints a fresh one per call instead of sharing faces between
// concurrent renders.
type FontProvider struct {
	dpi   float64
	fonts map[FontClass]*truetype.Font
}

// NewFontProvider parses the embedded Go fonts at the given DPI. Bold is
// used for the title and field values, regular for everything else.
func NewFontProvider(dpi float64) (*FontProvider, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}

	boldClasses := map[FontClass]bool{FontTitle: true, FontValue: true}
	fonts := make(map[FontClass]*truetype.Font, len(classSizes))
	for class := range classSizes {
		if boldClasses[class] {
			fonts[class] = bold
		} else {
			fonts[class] = regular
		}
	}
	return &FontProvider{dpi: dpi, fonts: fonts}, nil
}

// Face returns a new face for a class, sized for the provider DPI. Classes
// are a closed set; asking for an unknown class is a programming error.
func (p *FontProvider) Face(class FontClass) font.Face {
	src, ok := p.fonts[class]
	if !ok {
		panic(fmt.Sprintf("assets: unknown font class %q", class))
	}
	return truetype.NewFace(src, &truetype.Options{
		Size:    classSizes[class],
		DPI:     p.dpi,
		Hinting: font.HintingFull,
	})
}
