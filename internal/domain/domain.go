// Package domain holds the projection records the Record Store supplies to
// the generation pipeline and the artifact entities the pipeline produces.
// These types carry no behavior beyond validation; all transformation lives
// in the component packages.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Gender is the single-character MRZ gender marker.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "X"
)

var validGenders = map[Gender]bool{
	GenderMale:   true,
	GenderFemale: true,
	GenderOther:  true,
}

// ParseGender constructs a Gender from external input. Construct via this
// function at trust boundaries; direct casting bypasses validation.
func ParseGender(s string) (Gender, error) {
	g := Gender(strings.ToUpper(strings.TrimSpace(s)))
	if !validGenders[g] {
		return "", fmt.Errorf("unknown gender marker: %q", s)
	}
	return g, nil
}

// CitizenRecord is the citizen projection consumed from the Record Store.
type CitizenRecord struct {
	ID                 string     `json:"id"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	IDNumber           string     `json:"id_number"`
	DateOfBirth        time.Time  `json:"date_of_birth"`
	Gender             Gender     `json:"gender"`
	Nationality        string     `json:"nationality"`
	PhotoURL           string     `json:"photo_url,omitempty"`
	ProcessedPhotoPath string     `json:"processed_photo_path,omitempty"`
	PhotoUpdatedAt     *time.Time `json:"photo_updated_at,omitempty"`
}

// Validate checks the fields the encoder cannot synthesize.
func (c CitizenRecord) Validate() error {
	switch {
	case c.ID == "":
		return fmt.Errorf("citizen id is required")
	case c.LastName == "":
		return fmt.Errorf("citizen surname is required")
	case c.DateOfBirth.IsZero():
		return fmt.Errorf("citizen date of birth is required")
	}
	return nil
}

// LicenseRecord is the license projection consumed from the Record Store.
type LicenseRecord struct {
	ID            string    `json:"id"`
	LicenseNumber string    `json:"license_number"`
	Category      string    `json:"category"`
	IssueDate     time.Time `json:"issue_date"`
	ExpiryDate    time.Time `json:"expiry_date"`
	Restrictions  string    `json:"restrictions,omitempty"`
	PriorVersion  int       `json:"prior_version,omitempty"`
}

func (l LicenseRecord) Validate() error {
	switch {
	case l.ID == "":
		return fmt.Errorf("license id is required")
	case l.LicenseNumber == "":
		return fmt.Errorf("license number is required")
	case l.IssueDate.IsZero() || l.ExpiryDate.IsZero():
		return fmt.Errorf("license issue and expiry dates are required")
	case !l.IssueDate.Before(l.ExpiryDate):
		return fmt.Errorf("license issue date must precede expiry date")
	}
	return nil
}

// CategoryDescriptions is the closed table of license category codes printed
// on the back face. Codes outside this table render with an empty
// description rather than failing generation.
var CategoryDescriptions = map[string]string{
	"A":  "Motorcycles",
	"A1": "Motorcycles up to 125cc",
	"B":  "Light motor vehicles up to 3500kg",
	"C1": "Medium trucks 3500-16000kg",
	"C":  "Heavy trucks over 16000kg",
	"EB": "Light trailers with B",
	"EC": "Heavy trailers with C",
}

// CategoryCodes returns the category table codes in print order.
func CategoryCodes() []string {
	return []string{"A", "A1", "B", "C1", "C", "EB", "EC"}
}

// PhotoAsset is an immutable stored photo pair. A new source photo yields a
// new content hash and therefore new files; old assets are removed by
// storage cleanup, never rewritten in place.
type PhotoAsset struct {
	CitizenID     string    `json:"citizen_id"`
	OriginalPath  string    `json:"original_path"`
	ProcessedPath string    `json:"processed_path"`
	ContentHash   string    `json:"content_hash"`
	Placeholder   bool      `json:"placeholder"`
	UploadedAt    time.Time `json:"uploaded_at"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// CardArtifactSet records one complete, successful generation. Sets are
// written once and superseded by later generations, never mutated.
type CardArtifactSet struct {
	LicenseID        string    `json:"license_id"`
	FrontImage       string    `json:"front_image"`
	BackImage        string    `json:"back_image"`
	WatermarkImage   string    `json:"watermark_image"`
	FrontPDF         string    `json:"front_pdf"`
	BackPDF          string    `json:"back_pdf"`
	WatermarkPDF     string    `json:"watermark_pdf"`
	CombinedPDF      string    `json:"combined_pdf"`
	ProcessedPhoto   string    `json:"processed_photo"`
	PhotoPlaceholder bool      `json:"photo_placeholder"`
	Version          int       `json:"generation_version"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// Paths lists every stored file in the set, the processed photo included.
// Used by the cache gate (all must exist) and by purge exclusion lists.
func (s CardArtifactSet) Paths() []string {
	return []string{
		s.FrontImage, s.BackImage, s.WatermarkImage,
		s.FrontPDF, s.BackPDF, s.WatermarkPDF, s.CombinedPDF,
		s.ProcessedPhoto,
	}
}
