// Package render composes the card faces from layout zones and encoded
// payloads, and exports them as print-density PNG and PDF artifacts. All
// drawing is deterministic: fixed fonts, fixed geometry, no wall-clock
// reads.
package render

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"cardforge/internal/assets"
	"cardforge/internal/domain"
	"cardforge/internal/encode"
	"cardforge/internal/layout"
)

// FontDPI sizes the typeface points against the 300 DPI canvas. 144 puts
// the 24pt title at 48px, which is the legible scale for a 1012px card.
const FontDPI = 144

// Renderer composes card faces. Safe for concurrent use; it holds only
// immutable configuration, and every render draws on its own context with
// freshly minted font faces.
type Renderer struct {
	fonts     *assets.FontProvider
	params    layout.Params
	country   string
	authority string
}

func NewRenderer(fonts *assets.FontProvider, country, authority string) *Renderer {
	return &Renderer{
		fonts:     fonts,
		params:    layout.DefaultParams(),
		country:   country,
		authority: authority,
	}
}

// Front renders the front face: header, portrait, personal details and the
// signature strip over the security background.
func (r *Renderer) Front(payload encode.Payload, license domain.LicenseRecord, citizen domain.CitizenRecord, photoJPEG []byte) ([]byte, error) {
	zones, err := layout.Front(r.params)
	if err != nil {
		return nil, fmt.Errorf("front layout: %w", err)
	}

	dc := gg.NewContext(r.params.CanvasW, r.params.CanvasH)
	r.securityBackground(dc)
	r.holographicStrip(dc)

	r.drawHeader(dc, zones[layout.ZoneHeader])
	if err := r.drawPhoto(dc, zones[layout.ZonePhoto], photoJPEG); err != nil {
		return nil, err
	}
	r.drawDetails(dc, zones[layout.ZoneDetails], license, citizen)
	r.drawSignature(dc, zones[layout.ZoneSignature], payload)

	return encodePNG(dc.Image(), layout.DPI)
}

// Back renders the back face: restrictions, the category table, the
// fingerprint box, both 2D symbols and the MRZ footer.
func (r *Renderer) Back(payload encode.Payload, license domain.LicenseRecord) ([]byte, error) {
	zones, err := layout.Back(r.params)
	if err != nil {
		return nil, fmt.Errorf("back layout: %w", err)
	}

	dc := gg.NewContext(r.params.CanvasW, r.params.CanvasH)
	r.securityBackground(dc)

	r.drawRestrictions(dc, zones[layout.ZoneRestrictions], license)
	r.drawCategories(dc, zones[layout.ZoneCategories], license)
	r.drawFingerprint(dc, zones[layout.ZoneFingerprint])
	if err := r.drawSymbols(dc, zones[layout.ZoneBarcode], payload); err != nil {
		return nil, err
	}
	r.drawMRZ(dc, zones[layout.ZoneFooter], payload.MRZ)

	return encodePNG(dc.Image(), layout.DPI)
}

// securityBackground lays the shared guilloche-style ground: white base, a
// pale tint, fine diagonal line work and the outer border.
func (r *Renderer) securityBackground(dc *gg.Context) {
	dc.SetRGB255(255, 255, 255)
	dc.Clear()

	dc.SetRGBA255(252, 228, 236, 90)
	dc.DrawRectangle(0, 0, float64(r.params.CanvasW), float64(r.params.CanvasH))
	dc.Fill()

	dc.SetRGBA255(216, 140, 162, 34)
	dc.SetLineWidth(1)
	for x := -r.params.CanvasH; x < r.params.CanvasW; x += 24 {
		dc.DrawLine(float64(x), 0, float64(x+r.params.CanvasH), float64(r.params.CanvasH))
		dc.Stroke()
	}

	dc.SetRGB255(136, 14, 79)
	dc.SetLineWidth(3)
	dc.DrawRoundedRectangle(6, 6, float64(r.params.CanvasW-12), float64(r.params.CanvasH-12), 18)
	dc.Stroke()
}

// holographicStrip draws the front-face edge band inside the right bleed
// margin, as stacked translucent colour bands.
func (r *Renderer) holographicStrip(dc *gg.Context) {
	x := float64(r.params.CanvasW - r.params.Bleed + 4)
	w := float64(r.params.Bleed - 10)
	colors := [][3]int{{64, 196, 255}, {255, 196, 64}, {196, 64, 255}, {64, 255, 196}}
	band := 16.0
	for i := 0; ; i++ {
		y := 12 + float64(i)*band
		if y+band > float64(r.params.CanvasH-12) {
			break
		}
		c := colors[i%len(colors)]
		dc.SetRGBA255(c[0], c[1], c[2], 70)
		dc.DrawRectangle(x, y, w, band)
		dc.Fill()
	}
}

func (r *Renderer) drawHeader(dc *gg.Context, zone layout.Zone) {
	cx := float64(zone.Rect.Min.X+zone.Rect.Max.X) / 2
	dc.SetRGB255(136, 14, 79)
	dc.SetFontFace(r.fonts.Face(assets.FontTitle))
	dc.DrawStringAnchored("DRIVING LICENCE", cx, float64(zone.Rect.Min.Y)+26, 0.5, 0.5)
	dc.SetFontFace(r.fonts.Face(assets.FontSubtitle))
	dc.SetRGB255(60, 60, 60)
	dc.DrawStringAnchored(strings.ToUpper(r.authority), cx, float64(zone.Rect.Max.Y)-16, 0.5, 0.5)
}

func (r *Renderer) drawPhoto(dc *gg.Context, zone layout.Zone, photoJPEG []byte) error {
	img, err := imaging.Decode(bytes.NewReader(photoJPEG))
	if err != nil {
		return fmt.Errorf("decode processed photo: %w", err)
	}
	cx := (zone.Rect.Min.X + zone.Rect.Max.X) / 2
	cy := (zone.Rect.Min.Y + zone.Rect.Max.Y) / 2
	dc.DrawImageAnchored(img, cx, cy, 0.5, 0.5)

	b := img.Bounds()
	dc.SetRGB255(136, 14, 79)
	dc.SetLineWidth(2)
	dc.DrawRectangle(
		float64(cx)-float64(b.Dx())/2-3,
		float64(cy)-float64(b.Dy())/2-3,
		float64(b.Dx())+6,
		float64(b.Dy())+6)
	dc.Stroke()
	return nil
}

const dateFormat = "02 Jan 2006"

func (r *Renderer) drawDetails(dc *gg.Context, zone layout.Zone, license domain.LicenseRecord, citizen domain.CitizenRecord) {
	lines := []struct{ label, value string }{
		{"SURNAME", strings.ToUpper(citizen.LastName)},
		{"FIRST NAMES", strings.ToUpper(citizen.FirstName)},
		{"ID NUMBER", citizen.IDNumber},
		{"DATE OF BIRTH", citizen.DateOfBirth.Format(dateFormat)},
		{"GENDER", string(citizen.Gender)},
		{"LICENCE NO", license.LicenseNumber},
		{"CATEGORY", license.Category},
		{"VALID", license.IssueDate.Format("2006-01-02") + " to " + license.ExpiryDate.Format("2006-01-02")},
	}

	x := float64(zone.Rect.Min.X) + 8
	valueX := x + 210
	for i, line := range lines {
		y := float64(zone.Rect.Min.Y) + float64(i+1)*float64(zone.LineHeight) - 12
		dc.SetFontFace(r.fonts.Face(assets.FontLabel))
		dc.SetRGB255(110, 110, 110)
		dc.DrawString(line.label, x, y)
		dc.SetFontFace(r.fonts.Face(assets.FontValue))
		dc.SetRGB255(20, 20, 20)
		dc.DrawString(line.value, valueX, y)
	}
}

func (r *Renderer) drawSignature(dc *gg.Context, zone layout.Zone, payload encode.Payload) {
	lineY := float64(zone.Rect.Max.Y) - 28
	dc.SetRGB255(20, 20, 20)
	dc.SetLineWidth(2)
	dc.DrawLine(float64(zone.Rect.Min.X)+16, lineY, float64(zone.Rect.Min.X)+380, lineY)
	dc.Stroke()

	dc.SetFontFace(r.fonts.Face(assets.FontTiny))
	dc.SetRGB255(110, 110, 110)
	dc.DrawString("HOLDER SIGNATURE", float64(zone.Rect.Min.X)+16, lineY+18)

	dc.SetFontFace(r.fonts.Face(assets.FontSmall))
	dc.SetRGB255(60, 60, 60)
	dc.DrawStringAnchored("VERIFY "+payload.Verification, float64(zone.Rect.Max.X)-16, lineY, 1, 0)
}

func (r *Renderer) drawRestrictions(dc *gg.Context, zone layout.Zone, license domain.LicenseRecord) {
	restrictions := license.Restrictions
	if restrictions == "" {
		restrictions = "NONE"
	}
	y := float64(zone.Rect.Min.Y+zone.Rect.Max.Y) / 2
	dc.SetFontFace(r.fonts.Face(assets.FontLabel))
	dc.SetRGB255(110, 110, 110)
	dc.DrawStringAnchored("RESTRICTIONS", float64(zone.Rect.Min.X)+8, y, 0, 0.5)
	dc.SetFontFace(r.fonts.Face(assets.FontValue))
	dc.SetRGB255(20, 20, 20)
	dc.DrawStringAnchored(restrictions, float64(zone.Rect.Min.X)+250, y, 0, 0.5)
}

// drawCategories prints the closed category table in two columns, with the
// licensed category highlighted.
func (r *Renderer) drawCategories(dc *gg.Context, zone layout.Zone, license domain.LicenseRecord) {
	codes := domain.CategoryCodes()
	const cols = 2
	rows := (len(codes) + cols - 1) / cols
	cellW := float64(zone.Rect.Dx()) / cols
	cellH := float64(zone.Rect.Dy()) / float64(rows)

	for i, code := range codes {
		col, row := i/rows, i%rows
		x := float64(zone.Rect.Min.X) + float64(col)*cellW
		y := float64(zone.Rect.Min.Y) + float64(row)*cellH

		if code == license.Category {
			dc.SetRGBA255(136, 14, 79, 40)
			dc.DrawRectangle(x+2, y+2, cellW-4, cellH-4)
			dc.Fill()
			dc.SetFontFace(r.fonts.Face(assets.FontValue))
			dc.SetRGB255(136, 14, 79)
		} else {
			dc.SetFontFace(r.fonts.Face(assets.FontLabel))
			dc.SetRGB255(110, 110, 110)
		}
		dc.DrawStringAnchored(code, x+10, y+cellH/2, 0, 0.5)

		dc.SetFontFace(r.fonts.Face(assets.FontTiny))
		dc.SetRGB255(90, 90, 90)
		dc.DrawStringAnchored(domain.CategoryDescriptions[code], x+70, y+cellH/2, 0, 0.5)
	}
}

// fingerprintBox is the side of the square fingerprint field.
const fingerprintBox = 120

// drawFingerprint draws the stylized fingerprint field: a bordered square
// with a sparse 3px dot lattice.
func (r *Renderer) drawFingerprint(dc *gg.Context, zone layout.Zone) {
	x0 := (zone.Rect.Min.X + zone.Rect.Max.X - fingerprintBox) / 2
	y0 := (zone.Rect.Min.Y + zone.Rect.Max.Y - fingerprintBox) / 2

	dc.SetRGB255(136, 14, 79)
	dc.SetLineWidth(2)
	dc.DrawRectangle(float64(x0)-4, float64(y0)-4, fingerprintBox+8, fingerprintBox+8)
	dc.Stroke()

	dc.SetRGB255(60, 60, 60)
	for i := 0; i < fingerprintBox; i += 3 {
		for j := 0; j < fingerprintBox; j += 3 {
			if (i+j)%6 < 3 {
				dc.SetPixel(x0+i, y0+j)
			}
		}
	}

	dc.SetFontFace(r.fonts.Face(assets.FontTiny))
	dc.SetRGB255(110, 110, 110)
	dc.DrawStringAnchored("RIGHT THUMB", float64(zone.Rect.Min.X+zone.Rect.Max.X)/2, float64(y0+fingerprintBox)+24, 0.5, 0.5)
}

// drawSymbols places the PDF417 on the left of the barcode band and the QR
// on the right, with the chip serial and verification code underneath.
func (r *Renderer) drawSymbols(dc *gg.Context, zone layout.Zone, payload encode.Payload) error {
	qrSize := 160
	pdfW := zone.Rect.Dx() - qrSize - 40
	pdfH := 130

	symbol, err := PDF417(payload.BarcodeData, pdfW, pdfH)
	if err != nil {
		return err
	}
	dc.DrawImage(symbol, zone.Rect.Min.X+8, zone.Rect.Min.Y+24)

	qrImg, err := QR(payload.QRData, qrSize)
	if err != nil {
		return err
	}
	dc.DrawImage(qrImg, zone.Rect.Max.X-qrSize-8, zone.Rect.Min.Y+24)

	dc.SetFontFace(r.fonts.Face(assets.FontTiny))
	dc.SetRGB255(90, 90, 90)
	textY := float64(zone.Rect.Min.Y + 24 + pdfH + 24)
	dc.DrawString("CHIP "+payload.ChipSerial, float64(zone.Rect.Min.X)+8, textY)
	dc.DrawString("VERIFY "+payload.Verification, float64(zone.Rect.Min.X)+8, textY+22)
	return nil
}

// drawMRZ prints the three machine-readable lines across the footer, with
// the issuing authority tucked into the right edge.
func (r *Renderer) drawMRZ(dc *gg.Context, zone layout.Zone, lines [3]string) {
	dc.SetFontFace(r.fonts.Face(assets.FontSmall))
	dc.SetRGB255(20, 20, 20)
	for i, line := range lines {
		y := float64(zone.Rect.Min.Y) + float64(i+1)*26
		dc.DrawString(line, float64(zone.Rect.Min.X)+8, y)
	}
	dc.SetFontFace(r.fonts.Face(assets.FontTiny))
	dc.SetRGB255(110, 110, 110)
	dc.DrawStringAnchored(strings.ToUpper(r.authority), float64(zone.Rect.Max.X)-8, float64(zone.Rect.Max.Y)-10, 1, 0.5)
}

// Size reports the pixel dimensions of a rendered artifact. Compliance
// checks it against the canvas constants.
func Size(content []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
