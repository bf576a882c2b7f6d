package encode

import (
	"fmt"
	"time"

	"cardforge/internal/domain"
)

// Payload is the full machine-readable bundle for one card. It is
// ephemeral: computed per generation, consumed by the renderer and the
// compliance checks, never persisted on its own.
type Payload struct {
	MRZ          [3]string
	BarcodeData  string
	QRData       string
	Signature    string
	ChipSerial   string
	ChipData     string
	Security     SecurityDescriptor
	Verification string
}

// Encoder binds the issuing jurisdiction constants.
type Encoder struct {
	CountryCode      string
	IssuingAuthority string
}

func NewEncoder(countryCode, authority string) *Encoder {
	return &Encoder{CountryCode: countryCode, IssuingAuthority: authority}
}

// Encode derives every machine-readable artifact for the license at the
// given generation instant. The same inputs always produce the same
// payload, which is what makes generation idempotent downstream.
func (e *Encoder) Encode(license domain.LicenseRecord, citizen domain.CitizenRecord, generatedAt time.Time) (Payload, error) {
	if err := license.Validate(); err != nil {
		return Payload{}, fmt.Errorf("license projection: %w", err)
	}
	if err := citizen.Validate(); err != nil {
		return Payload{}, fmt.Errorf("citizen projection: %w", err)
	}

	barcode, err := BarcodeData(license, citizen)
	if err != nil {
		return Payload{}, err
	}
	qr, err := QRData(license, citizen)
	if err != nil {
		return Payload{}, err
	}
	signature, err := Signature(license, citizen, e.IssuingAuthority, e.CountryCode, generatedAt)
	if err != nil {
		return Payload{}, err
	}
	chip, err := ChipData(license, citizen, e.IssuingAuthority, e.CountryCode)
	if err != nil {
		return Payload{}, err
	}
	security, err := Security(license, citizen, e.CountryCode, generatedAt)
	if err != nil {
		return Payload{}, err
	}

	return Payload{
		MRZ:          MRZ(license, citizen, e.CountryCode),
		BarcodeData:  barcode,
		QRData:       qr,
		Signature:    signature,
		ChipSerial:   ChipSerial(license, e.CountryCode, generatedAt),
		ChipData:     chip,
		Security:     security,
		Verification: security.VerificationCode,
	}, nil
}
