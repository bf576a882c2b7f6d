package encode

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cardforge/internal/domain"
)

// SecurityDescriptor enumerates the physical and digital security features
// a card carries, plus the verification material printed or embedded on it.
type SecurityDescriptor struct {
	Version          string          `json:"version"`
	SecurityLevel    string          `json:"security_level"`
	Features         map[string]bool `json:"features"`
	SerialNumber     string          `json:"serial_number"`
	VerificationCode string          `json:"verification_code"`
	DataHash         string          `json:"data_hash"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

const (
	securityVersion = "2.0"
	securityLevel   = "enhanced"
)

// securityFeatures is the closed production feature set. All features are
// asserted present; a future card profile may switch individual ones off.
func securityFeatures() map[string]bool {
	return map[string]bool{
		"hologram":           true,
		"microtext":          true,
		"uv_ink":             true,
		"rfid_chip":          true,
		"digital_signature":  true,
		"biometric_template": true,
		"security_thread":    true,
		"color_changing_ink": true,
		"tactile_features":   true,
		"ghost_image":        true,
	}
}

// hashedPayload is the canonical data-hash input, alphabetical key order.
type hashedPayload struct {
	BirthDate     string `json:"birth_date"`
	Category      string `json:"category"`
	CitizenID     string `json:"citizen_id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	LicenseNumber string `json:"license_number"`
}

// Security builds the descriptor for one generation instant.
func Security(license domain.LicenseRecord, citizen domain.CitizenRecord, countryCode string, generatedAt time.Time) (SecurityDescriptor, error) {
	raw, err := json.Marshal(hashedPayload{
		BirthDate:     citizen.DateOfBirth.Format(payloadDateFormat),
		Category:      license.Category,
		CitizenID:     citizen.ID,
		FirstName:     citizen.FirstName,
		LastName:      citizen.LastName,
		LicenseNumber: license.LicenseNumber,
	})
	if err != nil {
		return SecurityDescriptor{}, fmt.Errorf("marshal security payload: %w", err)
	}
	digest := sha256.Sum256(raw)

	return SecurityDescriptor{
		Version:          securityVersion,
		SecurityLevel:    securityLevel,
		Features:         securityFeatures(),
		SerialNumber:     countryCode + generatedAt.UTC().Format("20060102150405"),
		VerificationCode: VerificationCode(license, citizen, countryCode),
		DataHash:         hex.EncodeToString(digest[:]),
		GeneratedAt:      generatedAt.UTC(),
	}, nil
}

// VerificationCode is the short human-checkable code printed on the back:
// the first eight hex characters of the MD5 over license number, citizen id
// and country code, uppercased. MD5 is fine here; the code is a print-layer
// checksum, not an integrity guarantee.
func VerificationCode(license domain.LicenseRecord, citizen domain.CitizenRecord, countryCode string) string {
	sum := md5.Sum([]byte(license.LicenseNumber + citizen.ID + countryCode))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:8]
}
