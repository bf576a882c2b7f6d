// Package compliance re-verifies a generated card against the issuing
// standard. Checks never trust the pipeline that produced the artifacts:
// every digest, check digit and dimension is recomputed from the
// projections and the artifact bytes themselves.
package compliance

import (
	"fmt"
	"time"

	"cardforge/internal/domain"
	"cardforge/internal/encode"
	"cardforge/internal/layout"
	"cardforge/internal/photo"
	"cardforge/internal/render"
)

// Severity grades a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// Issue is one finding from one check. Remediation is set only for codes
// the pipeline can fix by itself.
type Issue struct {
	Check       string   `json:"check"`
	Code        string   `json:"code"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	Remediation string   `json:"remediation,omitempty"`
}

// AutoRemediable reports whether the pipeline can clear this issue without
// operator input.
func (i Issue) AutoRemediable() bool {
	return i.Remediation != ""
}

// SplitRemediable partitions a report's findings into those the pipeline
// can fix by regenerating and those that need an operator.
func SplitRemediable(report Report) (auto, manual []Issue) {
	for _, issue := range report.Issues {
		if issue.AutoRemediable() {
			auto = append(auto, issue)
		} else {
			manual = append(manual, issue)
		}
	}
	return auto, manual
}

// remediations is the closed set of self-healing issue codes. Anything not
// listed here needs an operator.
var remediations = map[string]string{
	"MRZ_CHECKSUM_ERROR":    "regenerate the machine readable zone",
	"BIOMETRIC_QUALITY_LOW": "reprocess the source photo",
	"IMAGE_QUALITY_POOR":    "re-render the card faces",
}

// Check names, also the keys of the weight table.
const (
	CheckMRZ       = "mrz"
	CheckSecurity  = "security_features"
	CheckBiometric = "biometric"
	CheckChip      = "chip"
	CheckSignature = "signature"
	CheckPhysical  = "physical"
)

// checkWeights sum to 1. MRZ carries the most weight because a bad MRZ
// fails the card at every border reader.
var checkWeights = map[string]float64{
	CheckMRZ:       0.25,
	CheckSecurity:  0.20,
	CheckBiometric: 0.20,
	CheckChip:      0.15,
	CheckSignature: 0.15,
	CheckPhysical:  0.05,
}

// Status is the overall verdict.
type Status string

const (
	StatusCompliant       Status = "compliant"
	StatusNonCompliant    Status = "non_compliant"
	StatusCriticalFailure Status = "critical_failure"
)

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Passed bool    `json:"passed"`
	Score  float64 `json:"score"`
	Issues []Issue `json:"issues,omitempty"`
}

// Report is the full validation outcome for one generated card.
type Report struct {
	LicenseID string                 `json:"license_id"`
	Status    Status                 `json:"status"`
	Score     float64                `json:"score"`
	Checks    map[string]CheckResult `json:"checks"`
	Issues    []Issue                `json:"issues,omitempty"`
	CheckedAt time.Time              `json:"checked_at"`
}

// Input bundles everything a validation run inspects.
type Input struct {
	License          domain.LicenseRecord
	Citizen          domain.CitizenRecord
	Payload          encode.Payload
	FrontPNG         []byte
	BackPNG          []byte
	ProcessedPhoto   []byte
	PhotoPlaceholder bool
	GeneratedAt      time.Time
}

// Validator re-runs the issuing checks against generated artifacts.
type Validator struct {
	country   string
	authority string
	photoSpec photo.Spec
	now       func() time.Time
}

func NewValidator(country, authority string) *Validator {
	return &Validator{
		country:   country,
		authority: authority,
		photoSpec: photo.DefaultSpec(),
		now:       time.Now,
	}
}

// WithClock overrides the report timestamp source.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Validate runs every check and aggregates the weighted score. A check
// never aborts the run; all findings land in one report.
func (v *Validator) Validate(in Input) Report {
	checks := map[string][]Issue{
		CheckMRZ:       v.checkMRZ(in),
		CheckSecurity:  v.checkSecurity(in),
		CheckBiometric: v.checkBiometric(in),
		CheckChip:      v.checkChip(in),
		CheckSignature: v.checkSignature(in),
		CheckPhysical:  v.checkPhysical(in),
	}

	report := Report{
		LicenseID: in.License.ID,
		Checks:    make(map[string]CheckResult, len(checks)),
		CheckedAt: v.now(),
	}

	hasCritical, hasMajor := false, false
	for name, issues := range checks {
		score := checkScore(issues)
		report.Checks[name] = CheckResult{Passed: len(issues) == 0, Score: score, Issues: issues}
		report.Score += checkWeights[name] * score
		for _, issue := range issues {
			report.Issues = append(report.Issues, issue)
			switch issue.Severity {
			case SeverityCritical:
				hasCritical = true
			case SeverityMajor:
				hasMajor = true
			}
		}
	}

	switch {
	case hasCritical:
		report.Status = StatusCriticalFailure
	case hasMajor || report.Score < 90:
		report.Status = StatusNonCompliant
	default:
		report.Status = StatusCompliant
	}
	return report
}

// checkScore starts each check at 100 and deducts per finding: a critical
// zeroes the check, a major costs 40, a minor 15.
func checkScore(issues []Issue) float64 {
	score := 100.0
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityCritical:
			return 0
		case SeverityMajor:
			score -= 40
		case SeverityMinor:
			score -= 15
		}
	}
	if score < 0 {
		return 0
	}
	return score
}

func issue(check, code string, severity Severity, format string, args ...any) Issue {
	return Issue{
		Check:       check,
		Code:        code,
		Severity:    severity,
		Message:     fmt.Sprintf(format, args...),
		Remediation: remediations[code],
	}
}

func (v *Validator) checkMRZ(in Input) []Issue {
	var issues []Issue
	for i, line := range in.Payload.MRZ {
		if len(line) != encode.MRZLineLength {
			issues = append(issues, issue(CheckMRZ, "MRZ_FORMAT_ERROR", SeverityCritical,
				"mrz line %d has %d characters, want %d", i+1, len(line), encode.MRZLineLength))
		}
	}
	if len(issues) > 0 {
		return issues
	}
	if err := encode.ValidateMRZ(in.Payload.MRZ); err != nil {
		issues = append(issues, issue(CheckMRZ, "MRZ_CHECKSUM_ERROR", SeverityMajor, "%v", err))
	}
	if want := encode.MRZ(in.License, in.Citizen, v.country); want != in.Payload.MRZ {
		issues = append(issues, issue(CheckMRZ, "MRZ_DATA_MISMATCH", SeverityMajor,
			"mrz does not match the license projection"))
	}
	return issues
}

func (v *Validator) checkSecurity(in Input) []Issue {
	var issues []Issue
	desc := in.Payload.Security

	want, err := encode.Security(in.License, in.Citizen, v.country, in.GeneratedAt)
	if err != nil {
		return []Issue{issue(CheckSecurity, "SECURITY_DESCRIPTOR_ERROR", SeverityCritical, "%v", err)}
	}
	for name := range want.Features {
		if !desc.Features[name] {
			issues = append(issues, issue(CheckSecurity, "SECURITY_FEATURE_MISSING", SeverityMajor,
				"security feature %s is absent", name))
		}
	}
	if desc.VerificationCode != want.VerificationCode {
		issues = append(issues, issue(CheckSecurity, "VERIFICATION_CODE_MISMATCH", SeverityMajor,
			"verification code does not recompute"))
	}
	if desc.DataHash != want.DataHash {
		issues = append(issues, issue(CheckSecurity, "DATA_HASH_MISMATCH", SeverityCritical,
			"data hash does not match the projection fields"))
	}
	if desc.SerialNumber == "" {
		issues = append(issues, issue(CheckSecurity, "SERIAL_MISSING", SeverityMinor, "serial number is empty"))
	}
	return issues
}

func (v *Validator) checkBiometric(in Input) []Issue {
	if len(in.ProcessedPhoto) == 0 {
		return []Issue{issue(CheckBiometric, "PHOTO_MISSING", SeverityCritical, "no processed photo present")}
	}
	var issues []Issue
	w, h, err := render.Size(in.ProcessedPhoto)
	if err != nil {
		return []Issue{issue(CheckBiometric, "PHOTO_MISSING", SeverityCritical, "processed photo is undecodable: %v", err)}
	}
	wantW, wantH := v.photoSpec.PixelBox()
	if w != wantW || h != wantH {
		issues = append(issues, issue(CheckBiometric, "PHOTO_DIMENSIONS_WRONG", SeverityMajor,
			"processed photo is %dx%d, want %dx%d", w, h, wantW, wantH))
	}
	if in.PhotoPlaceholder {
		issues = append(issues, issue(CheckBiometric, "BIOMETRIC_QUALITY_LOW", SeverityMajor,
			"card carries a placeholder portrait"))
	}
	return issues
}

func (v *Validator) checkChip(in Input) []Issue {
	fields, err := encode.DecodeChip(in.Payload.ChipData)
	if err != nil {
		return []Issue{issue(CheckChip, "CHIP_DECODE_ERROR", SeverityCritical, "%v", err)}
	}
	var issues []Issue
	expect := map[string]string{
		"license_number": in.License.LicenseNumber,
		"category":       in.License.Category,
		"country_code":   v.country,
	}
	for key, want := range expect {
		if fields[key] != want {
			issues = append(issues, issue(CheckChip, "CHIP_DATA_MISMATCH", SeverityMajor,
				"chip field %s is %q, want %q", key, fields[key], want))
		}
	}
	if in.Payload.ChipSerial == "" {
		issues = append(issues, issue(CheckChip, "CHIP_SERIAL_MISSING", SeverityMinor, "chip serial is empty"))
	}
	return issues
}

func (v *Validator) checkSignature(in Input) []Issue {
	if err := encode.VerifySignature(in.Payload.Signature, in.License, in.Citizen,
		v.authority, v.country, in.GeneratedAt); err != nil {
		return []Issue{issue(CheckSignature, "SIGNATURE_INVALID", SeverityCritical, "%v", err)}
	}
	return nil
}

func (v *Validator) checkPhysical(in Input) []Issue {
	var issues []Issue
	for _, face := range []struct {
		name    string
		content []byte
	}{
		{"front", in.FrontPNG},
		{"back", in.BackPNG},
	} {
		if len(face.content) == 0 {
			issues = append(issues, issue(CheckPhysical, "RENDER_MISSING", SeverityCritical,
				"%s face was not rendered", face.name))
			continue
		}
		w, h, err := render.Size(face.content)
		if err != nil {
			issues = append(issues, issue(CheckPhysical, "RENDER_MISSING", SeverityCritical,
				"%s face is undecodable: %v", face.name, err))
			continue
		}
		if w != layout.CanvasWidth || h != layout.CanvasHeight {
			issues = append(issues, issue(CheckPhysical, "IMAGE_QUALITY_POOR", SeverityMajor,
				"%s face is %dx%d, want %dx%d", face.name, w, h, layout.CanvasWidth, layout.CanvasHeight))
		}
	}
	return issues
}
