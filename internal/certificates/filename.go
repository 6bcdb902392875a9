package certificates

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const filenamePrefix = "certificado-"

var nonFilenameChars = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeFilename turns a display name into a lowercase, hyphenated,
// ASCII-only fragment: "José da Silva!!" becomes "jose-da-silva".
func NormalizeFilename(name string) string {
	lowered := strings.ToLower(name)

	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn))), lowered)
	if err != nil {
		stripped = lowered
	}

	return strings.Trim(nonFilenameChars.ReplaceAllString(stripped, "-"), "-")
}

// ArtifactFilename names an export after the participant. Names that
// normalize to nothing fall back to the verification code.
func ArtifactFilename(record *CertificateRecord, format ExportFormat) string {
	fragment := NormalizeFilename(record.ParticipantName)
	if fragment == "" {
		fragment = NormalizeFilename(record.VerificationCode)
	}
	return filenamePrefix + fragment + "." + string(format)
}
