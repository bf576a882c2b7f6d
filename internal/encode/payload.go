package encode

import (
	"encoding/json"
	"fmt"

	"cardforge/internal/domain"
)

const payloadDateFormat = "2006-01-02"

// BarcodePayload is the PDF417 content printed on the back face. Field
// order is part of the wire format; scanners diff raw payloads byte for
// byte.
type BarcodePayload struct {
	LicenseNumber string `json:"license_number"`
	IDNumber      string `json:"id_number"`
	Category      string `json:"category"`
	IssueDate     string `json:"issue_date"`
	ExpiryDate    string `json:"expiry_date"`
}

// QRPayload is the auxiliary verification payload. It carries the subset
// of barcode fields a handheld check needs, without the issue date.
type QRPayload struct {
	LicenseNumber string `json:"license_number"`
	IDNumber      string `json:"id_number"`
	Category      string `json:"category"`
	ExpiryDate    string `json:"expiry_date"`
}

// BarcodeData serializes the PDF417 payload for a license.
func BarcodeData(license domain.LicenseRecord, citizen domain.CitizenRecord) (string, error) {
	raw, err := json.Marshal(BarcodePayload{
		LicenseNumber: license.LicenseNumber,
		IDNumber:      citizen.IDNumber,
		Category:      license.Category,
		IssueDate:     license.IssueDate.Format(payloadDateFormat),
		ExpiryDate:    license.ExpiryDate.Format(payloadDateFormat),
	})
	if err != nil {
		return "", fmt.Errorf("marshal barcode payload: %w", err)
	}
	return string(raw), nil
}

// QRData serializes the QR payload for a license.
func QRData(license domain.LicenseRecord, citizen domain.CitizenRecord) (string, error) {
	raw, err := json.Marshal(QRPayload{
		LicenseNumber: license.LicenseNumber,
		IDNumber:      citizen.IDNumber,
		Category:      license.Category,
		ExpiryDate:    license.ExpiryDate.Format(payloadDateFormat),
	})
	if err != nil {
		return "", fmt.Errorf("marshal qr payload: %w", err)
	}
	return string(raw), nil
}
