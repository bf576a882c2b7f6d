package encode

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"cardforge/internal/domain"
)

// signaturePayload is the canonical signing input. Fields are declared in
// alphabetical key order so the marshaled form is the canonical one; the
// verifier rebuilds this struct and compares digests.
type signaturePayload struct {
	CitizenID        string `json:"citizen_id"`
	CountryCode      string `json:"country_code"`
	ExpiryDate       string `json:"expiry_date"`
	GeneratedAt      string `json:"generated_at"`
	IssueDate        string `json:"issue_date"`
	IssuingAuthority string `json:"issuing_authority"`
	LicenseNumber    string `json:"license_number"`
}

// Signature computes the stand-in digital signature: base64 over the hex
// SHA-256 of the canonical payload JSON. Not a cryptographic signature;
// there is no key. It pins the signed fields so any later tampering is
// detectable, and the real PKI scheme slots in behind the same function.
func Signature(license domain.LicenseRecord, citizen domain.CitizenRecord, authority, countryCode string, generatedAt time.Time) (string, error) {
	raw, err := json.Marshal(signaturePayload{
		CitizenID:        citizen.ID,
		CountryCode:      countryCode,
		ExpiryDate:       license.ExpiryDate.Format(payloadDateFormat),
		GeneratedAt:      generatedAt.UTC().Format(time.RFC3339),
		IssueDate:        license.IssueDate.Format(payloadDateFormat),
		IssuingAuthority: authority,
		LicenseNumber:    license.LicenseNumber,
	})
	if err != nil {
		return "", fmt.Errorf("marshal signature payload: %w", err)
	}
	digest := sha256.Sum256(raw)
	return base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(digest[:]))), nil
}

// VerifySignature recomputes the signature from the same inputs and
// compares. The stored signature is opaque to callers; this is the only
// way to check it.
func VerifySignature(signature string, license domain.LicenseRecord, citizen domain.CitizenRecord, authority, countryCode string, generatedAt time.Time) error {
	want, err := Signature(license, citizen, authority, countryCode, generatedAt)
	if err != nil {
		return err
	}
	if signature != want {
		return fmt.Errorf("signature mismatch for license %s", license.LicenseNumber)
	}
	return nil
}
