package render

import (
	"fmt"
	"image"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/pdf417"
	"github.com/boombuler/barcode/qr"
)

// pdf417SecurityLevel is the Reed-Solomon error correction level for the
// back-face symbol. Level 5 survives heavy print wear on a laminated card.
const pdf417SecurityLevel = 5

// PDF417 rasterizes the barcode payload into the given pixel box.
func PDF417(data string, width, height int) (image.Image, error) {
	code, err := pdf417.Encode(data, pdf417SecurityLevel)
	if err != nil {
		return nil, fmt.Errorf("encode pdf417: %w", err)
	}
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, fmt.Errorf("scale pdf417 to %dx%d: %w", width, height, err)
	}
	return scaled, nil
}

// QR rasterizes the auxiliary verification payload into a square symbol.
func QR(data string, size int) (image.Image, error) {
	code, err := qr.Encode(data, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("scale qr to %d: %w", size, err)
	}
	return scaled, nil
}
