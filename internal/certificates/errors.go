package certificates

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyName     = errors.New("participant name is empty")
	ErrNameTooShort  = errors.New("participant name is too short")
	ErrNoCertificate = errors.New("no certificate has been generated")
	ErrEmptyArtifact = errors.New("export produced no data")
	ErrBusy          = errors.New("another operation is pending")
)

// User-facing messages
const (
	msgEmptyName       = "Por favor, insira o nome completo do participante."
	msgNameTooShort    = "O nome deve ter pelo menos 3 caracteres."
	msgGenerated       = "Certificado gerado com sucesso!"
	msgGenerateFailed  = "Erro ao gerar certificado. Tente novamente."
	msgPleaseWait      = "Por favor, aguarde alguns segundos."
	msgCodeDescription = "Código de verificação: %s"
)

// ValidationError reports a rejected submission
type ValidationError struct {
	Field   string
	Reason  error
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// ExternalServiceError reports a failed call to the QR, raster or
// document encoding collaborators.
type ExternalServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Service, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

func externalError(service, op string, err error) error {
	return &ExternalServiceError{Service: service, Op: op, Err: err}
}
