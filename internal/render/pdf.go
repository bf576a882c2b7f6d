package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"cardforge/internal/layout"
)

// PDFMeta is the document metadata stamped into every exported PDF.
// Created pins the creation date; left to the wall clock, regenerated
// documents would never hash to the same stored file.
type PDFMeta struct {
	Title   string
	Author  string
	Subject string
	Created time.Time
}

const pdfCreator = "cardforge"

func newCardPDF(meta PDFMeta) *fpdf.Fpdf {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: layout.CardWidthMM, Ht: layout.CardHeightMM},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(meta.Title, true)
	pdf.SetAuthor(meta.Author, true)
	pdf.SetSubject(meta.Subject, true)
	pdf.SetCreator(pdfCreator, true)
	pdf.SetCreationDate(meta.Created)
	pdf.SetModificationDate(meta.Created)
	return pdf
}

func addCardPage(pdf *fpdf.Fpdf, name string, pngContent []byte) {
	pdf.AddPage()
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(pngContent))
	pdf.ImageOptions(name, 0, 0, layout.CardWidthMM, layout.CardHeightMM, false, opts, 0, "")
}

// PDF wraps one rendered face in a single card-sized page at exact
// physical dimensions.
func PDF(pngContent []byte, meta PDFMeta) ([]byte, error) {
	pdf := newCardPDF(meta)
	addCardPage(pdf, "face", pngContent)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// CombinedPDF binds the front, back and watermark sheets into one
// three-page document for the print bureau.
func CombinedPDF(front, back, watermark []byte, meta PDFMeta) ([]byte, error) {
	pdf := newCardPDF(meta)
	pages := []struct {
		name    string
		content []byte
	}{
		{"front", front},
		{"back", back},
		{"watermark", watermark},
	}
	for _, page := range pages {
		addCardPage(pdf, page.name, page.content)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write combined pdf: %w", err)
	}
	return buf.Bytes(), nil
}
