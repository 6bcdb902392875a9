package certificates

import (
	"time"

	"techstar/certificate-portal/certificate-portal-backend/pkg/qr"
	"techstar/certificate-portal/certificate-portal-backend/pkg/workflows"
)

// FormState is the position of a session's form in its lifecycle
type FormState = workflows.State

const (
	StateEmpty      FormState = "empty"
	StateValidating FormState = "validating"
	StateGenerated  FormState = "generated"
)

// ExportFormat identifies an export artifact type
type ExportFormat string

const (
	FormatPDF ExportFormat = "pdf"
	FormatPNG ExportFormat = "png"
)

// CertificateRequest is one form submission
type CertificateRequest struct {
	ParticipantName string `json:"participant_name" form:"participant_name"`
	IncludeQR       bool   `json:"include_qr" form:"include_qr"`
}

// CertificateRecord is the generated certificate of a session. A new
// submission replaces it wholesale.
type CertificateRecord struct {
	ParticipantName  string    `json:"participant_name"`
	VerificationCode string    `json:"verification_code"`
	IssueDate        string    `json:"issue_date"`
	VerificationURL  string    `json:"verification_url"`
	QRImage          *qr.Image `json:"qr_image,omitempty"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// HasQR reports whether the record carries a QR image
func (r *CertificateRecord) HasQR() bool {
	return r.QRImage != nil && len(r.QRImage.PNG) > 0
}

// Artifact is an exported file. It is never retained by the service.
type Artifact struct {
	Filename    string
	ContentType string
	Format      ExportFormat
	Data        []byte
}
