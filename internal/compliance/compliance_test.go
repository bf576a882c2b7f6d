package compliance

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/suite"

	"cardforge/internal/assets"
	"cardforge/internal/domain"
	"cardforge/internal/encode"
	"cardforge/internal/photo"
	"cardforge/internal/render"
)

const (
	testCountry   = "ZAF"
	testAuthority = "Department of Transport"
)

var testInstant = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

type ValidatorSuite struct {
	suite.Suite
	validator *Validator
	input     Input
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

// SetupTest builds a fully valid generation: real payload, real renders, a
// real normalized portrait. Individual tests then break one thing.
func (s *ValidatorSuite) SetupTest() {
	license := domain.LicenseRecord{
		ID:            "LIC-001",
		LicenseNumber: "12345678",
		Category:      "B",
		IssueDate:     time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC),
		ExpiryDate:    time.Date(2030, 1, 14, 0, 0, 0, 0, time.UTC),
	}
	citizen := domain.CitizenRecord{
		ID:          "CIT-001",
		FirstName:   "John",
		LastName:    "Doe",
		IDNumber:    "9001155012083",
		DateOfBirth: time.Date(1990, 1, 15, 0, 0, 0, 0, time.UTC),
		Gender:      domain.GenderMale,
		Nationality: testCountry,
	}

	payload, err := encode.NewEncoder(testCountry, testAuthority).Encode(license, citizen, testInstant)
	s.Require().NoError(err)

	var source bytes.Buffer
	s.Require().NoError(png.Encode(&source, imaging.New(400, 500, color.White)))
	processed, err := photo.NewNormalizer(photo.DefaultSpec()).Normalize(source.Bytes())
	s.Require().NoError(err)

	fonts, err := assets.NewFontProvider(render.FontDPI)
	s.Require().NoError(err)
	renderer := render.NewRenderer(fonts, testCountry, testAuthority)
	front, err := renderer.Front(payload, license, citizen, processed)
	s.Require().NoError(err)
	back, err := renderer.Back(payload, license)
	s.Require().NoError(err)

	s.validator = NewValidator(testCountry, testAuthority).
		WithClock(func() time.Time { return testInstant })
	s.input = Input{
		License:        license,
		Citizen:        citizen,
		Payload:        payload,
		FrontPNG:       front,
		BackPNG:        back,
		ProcessedPhoto: processed,
		GeneratedAt:    testInstant,
	}
}

func (s *ValidatorSuite) TestCleanGenerationIsCompliant() {
	report := s.validator.Validate(s.input)

	s.Equal(StatusCompliant, report.Status)
	s.InDelta(100.0, report.Score, 0.001)
	s.Empty(report.Issues)
	s.Len(report.Checks, 6)
	for name, result := range report.Checks {
		s.True(result.Passed, "check %s", name)
		s.InDelta(100.0, result.Score, 0.001, "check %s", name)
	}
	s.Equal(testInstant, report.CheckedAt)
}

func (s *ValidatorSuite) TestWeightsSumToOne() {
	total := 0.0
	for _, w := range checkWeights {
		total += w
	}
	s.InDelta(1.0, total, 0.0001)
}

func (s *ValidatorSuite) TestAbsentSecurityFeatureIsMajor() {
	s.input.Payload.Security.Features["hologram"] = false
	report := s.validator.Validate(s.input)

	s.Equal(StatusNonCompliant, report.Status)
	s.False(report.Checks[CheckSecurity].Passed)
	s.Contains(issueCodes(report), "SECURITY_FEATURE_MISSING")
}

func (s *ValidatorSuite) TestTamperedCheckDigit() {
	s.input.Payload.MRZ[0] = s.input.Payload.MRZ[0][:encode.MRZLineLength-1] + "0"
	report := s.validator.Validate(s.input)

	s.Equal(StatusNonCompliant, report.Status)
	s.False(report.Checks[CheckMRZ].Passed)

	codes := issueCodes(report)
	s.Contains(codes, "MRZ_CHECKSUM_ERROR")
	for _, issue := range report.Issues {
		if issue.Code == "MRZ_CHECKSUM_ERROR" {
			s.True(issue.AutoRemediable())
		}
	}
}

func (s *ValidatorSuite) TestTruncatedMRZIsCritical() {
	s.input.Payload.MRZ[1] = s.input.Payload.MRZ[1][:30]
	report := s.validator.Validate(s.input)

	s.Equal(StatusCriticalFailure, report.Status)
	s.Zero(report.Checks[CheckMRZ].Score)
}

func (s *ValidatorSuite) TestPlaceholderPortraitIsMajor() {
	s.input.ProcessedPhoto = photo.Placeholder(photo.DefaultSpec())
	s.input.PhotoPlaceholder = true
	report := s.validator.Validate(s.input)

	s.Equal(StatusNonCompliant, report.Status)
	codes := issueCodes(report)
	s.Contains(codes, "BIOMETRIC_QUALITY_LOW")
	for _, issue := range report.Issues {
		if issue.Code == "BIOMETRIC_QUALITY_LOW" {
			s.True(issue.AutoRemediable())
			s.Equal(SeverityMajor, issue.Severity)
		}
	}
}

func (s *ValidatorSuite) TestMissingPhotoIsCritical() {
	s.input.ProcessedPhoto = nil
	report := s.validator.Validate(s.input)

	s.Equal(StatusCriticalFailure, report.Status)
	s.Contains(issueCodes(report), "PHOTO_MISSING")
}

func (s *ValidatorSuite) TestCorruptChipIsCritical() {
	s.input.Payload.ChipData = "%%% not base64 %%%"
	report := s.validator.Validate(s.input)

	s.Equal(StatusCriticalFailure, report.Status)
	s.Contains(issueCodes(report), "CHIP_DECODE_ERROR")
	s.Zero(report.Checks[CheckChip].Score)
}

func (s *ValidatorSuite) TestChipFieldDriftIsMajor() {
	drifted := s.input.License
	drifted.Category = "C"
	chip, err := encode.ChipData(drifted, s.input.Citizen, testAuthority, testCountry)
	s.Require().NoError(err)
	s.input.Payload.ChipData = chip

	report := s.validator.Validate(s.input)
	s.Equal(StatusNonCompliant, report.Status)
	s.Contains(issueCodes(report), "CHIP_DATA_MISMATCH")
}

func (s *ValidatorSuite) TestTamperedSignatureIsCritical() {
	s.input.Payload.Signature = "Zm9yZ2Vk"
	report := s.validator.Validate(s.input)

	s.Equal(StatusCriticalFailure, report.Status)
	s.Contains(issueCodes(report), "SIGNATURE_INVALID")
}

func (s *ValidatorSuite) TestWrongCanvasIsRemediable() {
	var tiny bytes.Buffer
	s.Require().NoError(png.Encode(&tiny, imaging.New(100, 60, color.White)))
	s.input.FrontPNG = tiny.Bytes()

	report := s.validator.Validate(s.input)
	s.Equal(StatusNonCompliant, report.Status)
	codes := issueCodes(report)
	s.Contains(codes, "IMAGE_QUALITY_POOR")
	for _, issue := range report.Issues {
		if issue.Code == "IMAGE_QUALITY_POOR" {
			s.True(issue.AutoRemediable())
		}
	}
}

func (s *ValidatorSuite) TestMissingRenderIsCritical() {
	s.input.BackPNG = nil
	report := s.validator.Validate(s.input)
	s.Equal(StatusCriticalFailure, report.Status)
	s.Contains(issueCodes(report), "RENDER_MISSING")
}

func (s *ValidatorSuite) TestSplitRemediable() {
	s.input.Payload.Signature = "Zm9yZ2Vk"
	s.input.ProcessedPhoto = photo.Placeholder(photo.DefaultSpec())
	s.input.PhotoPlaceholder = true
	report := s.validator.Validate(s.input)

	auto, manual := SplitRemediable(report)
	s.Require().NotEmpty(auto)
	s.Require().NotEmpty(manual)
	for _, issue := range auto {
		s.True(issue.AutoRemediable())
	}
	for _, issue := range manual {
		s.False(issue.AutoRemediable())
	}
}

func issueCodes(report Report) []string {
	codes := make([]string, 0, len(report.Issues))
	for _, issue := range report.Issues {
		codes = append(codes, issue.Code)
	}
	return codes
}
