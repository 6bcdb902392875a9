package certificates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"techstar/certificate-portal/certificate-portal-backend/internal/metrics"
	"techstar/certificate-portal/certificate-portal-backend/internal/notifications"
)

// Notifier delivers user-facing notifications to a session
type Notifier interface {
	Publish(ctx context.Context, sessionID string, n notifications.Notification)
}

// Recorder receives operation outcomes for metrics
type Recorder interface {
	ObserveGeneration(result string, includeQR bool)
	ObserveExport(format, result string, started time.Time)
}

// Service is the certificate facade used by the HTTP layer. Every call is
// scoped to one session.
type Service interface {
	Generate(ctx context.Context, sessionID string, req CertificateRequest) (*CertificateRecord, error)
	Current(ctx context.Context, sessionID string) (*CertificateRecord, FormState, error)
	ExportPDF(ctx context.Context, sessionID string) (*Artifact, error)
	ExportPNG(ctx context.Context, sessionID string) (*Artifact, error)
	Preview(ctx context.Context, sessionID string) (*Artifact, error)
}

type certificateService struct {
	sessions *SessionStore
	exporter *Exporter
	notifier Notifier
	recorder Recorder
	logger   *zap.Logger
}

// NewService creates the certificate service
func NewService(sessions *SessionStore, exporter *Exporter, notifier Notifier, recorder Recorder, logger *zap.Logger) Service {
	return &certificateService{
		sessions: sessions,
		exporter: exporter,
		notifier: notifier,
		recorder: recorder,
		logger:   logger,
	}
}

func (s *certificateService) Generate(ctx context.Context, sessionID string, req CertificateRequest) (*CertificateRecord, error) {
	controller := s.sessions.Get(sessionID)

	record, err := controller.Submit(ctx, req)
	if err != nil {
		var validationErr *ValidationError
		switch {
		case errors.As(err, &validationErr):
			s.logger.Debug("Rejected certificate request",
				zap.String("session_id", sessionID),
				zap.String("field", validationErr.Field),
				zap.Error(validationErr.Reason))
			s.recorder.ObserveGeneration(metrics.ResultInvalid, req.IncludeQR)
			s.notifier.Publish(ctx, sessionID, notifications.Error(validationErr.Message))
		case errors.Is(err, ErrBusy):
			s.recorder.ObserveGeneration(metrics.ResultBusy, req.IncludeQR)
			s.notifier.Publish(ctx, sessionID, notifications.Info(msgPleaseWait, ""))
		default:
			s.logger.Error("Failed to generate certificate",
				zap.String("session_id", sessionID),
				zap.Bool("include_qr", req.IncludeQR),
				zap.Error(err))
			s.recorder.ObserveGeneration(metrics.ResultError, req.IncludeQR)
			s.notifier.Publish(ctx, sessionID, notifications.Error(msgGenerateFailed))
		}
		return nil, err
	}

	s.logger.Info("Certificate generated",
		zap.String("session_id", sessionID),
		zap.String("verification_code", record.VerificationCode),
		zap.Bool("include_qr", record.HasQR()))
	s.recorder.ObserveGeneration(metrics.ResultSuccess, req.IncludeQR)
	s.notifier.Publish(ctx, sessionID,
		notifications.Success(msgGenerated, fmt.Sprintf(msgCodeDescription, record.VerificationCode)))

	return record, nil
}

func (s *certificateService) Current(ctx context.Context, sessionID string) (*CertificateRecord, FormState, error) {
	controller, ok := s.sessions.Lookup(sessionID)
	if !ok {
		return nil, StateEmpty, ErrNoCertificate
	}

	record, err := controller.Record()
	return record, controller.State(), err
}

func (s *certificateService) ExportPDF(ctx context.Context, sessionID string) (*Artifact, error) {
	return s.export(ctx, sessionID, FormatPDF, s.exporter.ExportPDF)
}

func (s *certificateService) ExportPNG(ctx context.Context, sessionID string) (*Artifact, error) {
	return s.export(ctx, sessionID, FormatPNG, s.exporter.ExportPNG)
}

func (s *certificateService) Preview(ctx context.Context, sessionID string) (*Artifact, error) {
	record, _, err := s.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	artifact, err := s.exporter.Preview(ctx, record)
	if err != nil {
		s.logger.Error("Failed to render preview",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return nil, err
	}
	return artifact, nil
}

func (s *certificateService) export(
	ctx context.Context,
	sessionID string,
	format ExportFormat,
	run func(context.Context, *CertificateRecord) (*Artifact, error),
) (*Artifact, error) {
	label := strings.ToUpper(string(format))

	record, _, err := s.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	s.notifier.Publish(ctx, sessionID, notifications.Info(fmt.Sprintf("Gerando %s...", label), msgPleaseWait))

	artifact, err := run(ctx, record)
	if err != nil {
		s.logger.Error("Failed to export certificate",
			zap.String("session_id", sessionID),
			zap.String("format", string(format)),
			zap.String("verification_code", record.VerificationCode),
			zap.Error(err))
		s.recorder.ObserveExport(string(format), metrics.ResultError, started)

		message := fmt.Sprintf("Erro ao gerar %s. Tente novamente.", label)
		if format == FormatPNG && errors.Is(err, ErrEmptyArtifact) {
			message = fmt.Sprintf("Erro ao gerar %s.", label)
		}
		s.notifier.Publish(ctx, sessionID, notifications.Error(message))
		return nil, err
	}

	s.logger.Info("Certificate exported",
		zap.String("session_id", sessionID),
		zap.String("format", string(format)),
		zap.String("filename", artifact.Filename),
		zap.Int("bytes", len(artifact.Data)))
	s.recorder.ObserveExport(string(format), metrics.ResultSuccess, started)
	s.notifier.Publish(ctx, sessionID, notifications.Success(fmt.Sprintf("%s baixado com sucesso!", label), ""))

	return artifact, nil
}
