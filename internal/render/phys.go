package render

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
)

// ihdrEnd is the byte offset where the IHDR chunk ends in any valid PNG:
// 8 signature + 4 length + 4 type + 13 data + 4 crc. The pHYs chunk must
// appear before the first IDAT, so it is spliced right here.
const ihdrEnd = 33

// encodePNG serializes an image with a pHYs chunk declaring the physical
// density. The standard library encoder carries no density metadata, and
// print pipelines size pages from it.
func encodePNG(img image.Image, dpi int) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	raw := buf.Bytes()
	if len(raw) < ihdrEnd {
		return nil, fmt.Errorf("encoded png is truncated")
	}

	out := make([]byte, 0, len(raw)+21)
	out = append(out, raw[:ihdrEnd]...)
	out = append(out, physChunk(dpi)...)
	out = append(out, raw[ihdrEnd:]...)
	return out, nil
}

// physChunk builds the complete pHYs chunk: pixels per metre on both axes,
// unit specifier 1 (metre), with length prefix and CRC.
func physChunk(dpi int) []byte {
	ppm := uint32(float64(dpi)/0.0254 + 0.5)

	data := make([]byte, 9)
	binary.BigEndian.PutUint32(data[0:4], ppm)
	binary.BigEndian.PutUint32(data[4:8], ppm)
	data[8] = 1

	chunk := make([]byte, 0, 21)
	chunk = binary.BigEndian.AppendUint32(chunk, 9)
	chunk = append(chunk, "pHYs"...)
	chunk = append(chunk, data...)
	crc := crc32.NewIEEE()
	crc.Write([]byte("pHYs"))
	crc.Write(data)
	return binary.BigEndian.AppendUint32(chunk, crc.Sum32())
}
