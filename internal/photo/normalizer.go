// Package photo turns an arbitrary citizen photo source into the exact ISO
// photo box the card layout expects. Resolution of the source (raw bytes,
// stored asset, remote URL, placeholder) is an explicit ordered pipeline;
// normalization itself is a pure function of the input bytes.
package photo

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/disintegration/imaging"
)

// Normalizer crops, resizes, and re-encodes photos to a Spec.
type Normalizer struct {
	spec Spec
}

func NewNormalizer(spec Spec) *Normalizer {
	return &Normalizer{spec: spec}
}

// Spec returns the target spec, for callers that need the pixel box.
func (n *Normalizer) Spec() Spec { return n.spec }

// Normalize decodes raw image bytes and produces a JPEG of exactly the spec
// pixel box: transparency flattened onto white, center-cropped to the target
// aspect ratio, Lanczos-resized, lightly sharpened, encoded at the spec
// quality with DPI density metadata.
func (n *Normalizer) Normalize(raw []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}

	img := flattenOnWhite(src)

	targetW, targetH := n.spec.PixelBox()
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	// Center-crop the longer dimension to the target aspect ratio before
	// resizing, so faces stay centered instead of being squashed.
	srcRatio := float64(srcW) / float64(srcH)
	if srcRatio > n.spec.AspectRatio() {
		cropW := int(float64(srcH) * n.spec.AspectRatio())
		img = imaging.CropCenter(img, cropW, srcH)
	} else if srcRatio < n.spec.AspectRatio() {
		cropH := int(float64(srcW) / n.spec.AspectRatio())
		img = imaging.CropCenter(img, srcW, cropH)
	}

	img = imaging.Resize(img, targetW, targetH, imaging.Lanczos)
	img = imaging.Sharpen(img, 0.5)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: n.spec.Quality}); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return withJFIFDensity(buf.Bytes(), n.spec.DPI), nil
}

// flattenOnWhite composites any transparency onto an opaque white
// background and returns an NRGBA image.
func flattenOnWhite(src image.Image) *image.NRGBA {
	background := imaging.New(src.Bounds().Dx(), src.Bounds().Dy(), color.White)
	return imaging.OverlayCenter(background, src, 1.0)
}
