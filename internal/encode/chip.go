package encode

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"cardforge/internal/domain"
)

// chipPayload mirrors the RFID chip record. Alphabetical field order keeps
// the encoding canonical; readers decode the base64 and unmarshal.
type chipPayload struct {
	BirthDate        string `json:"birth_date"`
	Category         string `json:"category"`
	CountryCode      string `json:"country_code"`
	ExpiryDate       string `json:"expiry_date"`
	HolderName       string `json:"holder_name"`
	IssueDate        string `json:"issue_date"`
	IssuingAuthority string `json:"issuing_authority"`
	LicenseNumber    string `json:"license_number"`
	Restrictions     string `json:"restrictions"`
}

// ChipData builds the base64 chip record. Base64 stands in for the
// encrypted-at-personalization step; the field set is the real one.
func ChipData(license domain.LicenseRecord, citizen domain.CitizenRecord, authority, countryCode string) (string, error) {
	raw, err := json.Marshal(chipPayload{
		BirthDate:        citizen.DateOfBirth.Format(payloadDateFormat),
		Category:         license.Category,
		CountryCode:      countryCode,
		ExpiryDate:       license.ExpiryDate.Format(payloadDateFormat),
		HolderName:       citizen.FirstName + " " + citizen.LastName,
		IssueDate:        license.IssueDate.Format(payloadDateFormat),
		IssuingAuthority: authority,
		LicenseNumber:    license.LicenseNumber,
		Restrictions:     license.Restrictions,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chip payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeChip reverses ChipData. Compliance uses it to confirm the chip
// record round-trips and matches the projection fields.
func DecodeChip(data string) (map[string]string, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode chip data: %w", err)
	}
	var fields map[string]string
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal chip data: %w", err)
	}
	return fields, nil
}

// ChipSerial derives the chip serial number: country code, generation date
// and the last six characters of the license number.
func ChipSerial(license domain.LicenseRecord, countryCode string, generatedAt time.Time) string {
	num := license.LicenseNumber
	if len(num) > 6 {
		num = num[len(num)-6:]
	}
	return countryCode + generatedAt.UTC().Format("20060102") + num
}
