// Package encode produces the machine-readable artifacts of a license:
// MRZ lines, barcode payloads, the placeholder digital signature, chip
// data, and the security descriptor. Every function is deterministic in
// its inputs; the generation instant is always passed in, never sampled.
package encode

import (
	"fmt"
	"strings"

	"cardforge/internal/domain"
)

const (
	// MRZLineLength is fixed by ISO 18013: three lines of exactly 44
	// characters, lines 1 and 2 ending in a check digit.
	MRZLineLength = 44
	mrzFiller     = '<'
	mrzDateFormat = "060102"
)

// checkDigitWeights cycle over character positions.
var checkDigitWeights = [3]int{7, 3, 1}

// CheckDigit computes the ISO check digit: digits contribute their value,
// letters A-Z contribute 10-35, filler contributes 0, each weighted by
// position with the 7-3-1 cycle, summed mod 10.
func CheckDigit(s string) int {
	total := 0
	for i, ch := range s {
		var v int
		switch {
		case ch >= '0' && ch <= '9':
			v = int(ch - '0')
		case ch >= 'A' && ch <= 'Z':
			v = int(ch-'A') + 10
		case ch >= 'a' && ch <= 'z':
			v = int(ch-'a') + 10
		default:
			v = 0
		}
		total += v * checkDigitWeights[i%3]
	}
	return total % 10
}

// mrzSanitize maps arbitrary text into the MRZ alphabet: uppercase A-Z and
// 0-9 pass through, everything else (spaces, hyphens, diacritics) becomes
// filler.
func mrzSanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range strings.ToUpper(s) {
		if (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		} else {
			b.WriteRune(mrzFiller)
		}
	}
	return b.String()
}

// padTo truncates or filler-pads s to exactly n characters.
func padTo(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s + strings.Repeat(string(mrzFiller), n-len(s))
}

// MRZ generates the three 44-character lines:
//
//	line 1: DL + country + document number, filler to 43, check digit
//	line 2: birth date + gender + expiry date + nationality, filler to 43, check digit
//	line 3: SURNAME<<GIVENNAMES, filler to 44, no check digit
func MRZ(license domain.LicenseRecord, citizen domain.CitizenRecord, countryCode string) [3]string {
	country := padTo(mrzSanitize(countryCode), 3)
	nationality := citizen.Nationality
	if nationality == "" {
		nationality = countryCode
	}
	gender := string(citizen.Gender)
	if gender == "" {
		gender = string(domain.GenderOther)
	}

	line1 := padTo("DL"+country+mrzSanitize(license.LicenseNumber), MRZLineLength-1)
	line1 += fmt.Sprintf("%d", CheckDigit(line1))

	line2 := padTo(
		citizen.DateOfBirth.Format(mrzDateFormat)+
			mrzSanitize(gender)[:1]+
			license.ExpiryDate.Format(mrzDateFormat)+
			padTo(mrzSanitize(nationality), 3),
		MRZLineLength-1)
	line2 += fmt.Sprintf("%d", CheckDigit(line2))

	line3 := padTo(mrzSanitize(citizen.LastName)+"<<"+mrzSanitize(citizen.FirstName), MRZLineLength)

	return [3]string{line1, line2, line3}
}

// ValidateMRZ re-verifies the structural MRZ invariants: three lines of 44
// characters, lines 1 and 2 closing with their recomputed check digit.
func ValidateMRZ(lines [3]string) error {
	for i, line := range lines {
		if len(line) != MRZLineLength {
			return fmt.Errorf("mrz line %d is %d characters, want %d", i+1, len(line), MRZLineLength)
		}
	}
	for i := 0; i < 2; i++ {
		body, digit := lines[i][:MRZLineLength-1], lines[i][MRZLineLength-1]
		want := byte('0' + CheckDigit(body))
		if digit != want {
			return fmt.Errorf("mrz line %d check digit is %c, want %c", i+1, digit, want)
		}
	}
	return nil
}
