package photo

// Go's image/jpeg emits no JFIF APP0 segment, so the encoded photo carries
// no density information. Printers downstream read DPI from JFIF, so we
// splice a minimal APP0 with dots-per-inch units directly after SOI.

// withJFIFDensity returns the JPEG with a JFIF APP0 density header. Input
// not starting with SOI is returned unchanged.
func withJFIFDensity(jpg []byte, dpi int) []byte {
	if len(jpg) < 2 || jpg[0] != 0xFF || jpg[1] != 0xD8 {
		return jpg
	}
	app0 := []byte{
		0xFF, 0xE0, // APP0 marker
		0x00, 0x10, // segment length: 16
		'J', 'F', 'I', 'F', 0x00,
		0x01, 0x02, // JFIF version 1.02
		0x01, // density units: dots per inch
		byte(dpi >> 8), byte(dpi),
		byte(dpi >> 8), byte(dpi),
		0x00, 0x00, // no thumbnail
	}
	out := make([]byte, 0, len(jpg)+len(app0))
	out = append(out, jpg[:2]...)
	out = append(out, app0...)
	out = append(out, jpg[2:]...)
	return out
}
