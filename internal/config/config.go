package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"techstar/certificate-portal/certificate-portal-backend/pkg/raster"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `json:"server"`
	Certificate CertificateConfig `json:"certificate"`
	QR          QRConfig          `json:"qr"`
	Export      ExportConfig      `json:"export"`
	Sessions    SessionsConfig    `json:"sessions"`
	Logging     LoggingConfig     `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     Duration `json:"read_timeout"`
	WriteTimeout    Duration `json:"write_timeout"`
	IdleTimeout     Duration `json:"idle_timeout"`
	ShutdownTimeout Duration `json:"shutdown_timeout"`
	SecureCookies   bool     `json:"secure_cookies"`
}

// CertificateConfig holds what is printed on the certificate
type CertificateConfig struct {
	CodePrefix    string `json:"code_prefix"`
	VerifyBaseURL string `json:"verify_base_url"`
	Organization  string `json:"organization"`
	EventName     string `json:"event_name"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	SignerName    string `json:"signer_name"`
	SignerRole    string `json:"signer_role"`
	LogoPath      string `json:"logo_path"`
}

// QRConfig controls the verification QR image
type QRConfig struct {
	Width      int    `json:"width"`
	Margin     int    `json:"margin"`
	Foreground string `json:"foreground"`
	Background string `json:"background"`
}

// ExportConfig controls raster capture and the PDF page
type ExportConfig struct {
	PageFormat   string  `json:"page_format"`
	PDFScale     float64 `json:"pdf_scale"`
	PNGScale     float64 `json:"png_scale"`
	PreviewScale float64 `json:"preview_scale"`
	Background   string  `json:"background"`
}

// SessionsConfig controls in-memory form sessions
type SessionsConfig struct {
	IdleTTL       Duration `json:"idle_ttl"`
	SweepSchedule string   `json:"sweep_schedule"`
}

// LoggingConfig
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // console, json
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     Duration{15 * time.Second},
			WriteTimeout:    Duration{60 * time.Second},
			IdleTimeout:     Duration{120 * time.Second},
			ShutdownTimeout: Duration{5 * time.Second},
		},
		Certificate: CertificateConfig{
			CodePrefix:    "TS",
			VerifyBaseURL: "https://techstar.academy",
			Organization:  "TechStar Academy",
			EventName:     "TechStar 100 Experience",
			Title:         "Certificado de Participação",
			Description: "pela sua valiosa participação no evento \"TechStar 100 Experience\", realizado pela TechStar Academy.\n\n" +
				"A celebração marca a conquista dos primeiros 100 membros da comunidade, reconhecendo o compromisso com a inovação, " +
				"o aprendizado contínuo e o desenvolvimento tecnológico da nova geração.",
			SignerName: "Henrique Mendes",
			SignerRole: "CEO da TechStar Academy",
		},
		QR: QRConfig{
			Width:      200,
			Margin:     1,
			Foreground: "#0D6EFD",
			Background: "#FFFFFF",
		},
		Export: ExportConfig{
			PageFormat:   "A4",
			PDFScale:     2,
			PNGScale:     3,
			PreviewScale: 1,
			Background:   "#FFFFFF",
		},
		Sessions: SessionsConfig{
			IdleTTL:       Duration{30 * time.Minute},
			SweepSchedule: "@every 5m",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from .env, file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	config := Default()

	// Load from file if exists
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := overrideWithEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func overrideWithEnv(config *Config) error {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT: %w", err)
		}
		config.Server.Port = p
	}
	if secure := os.Getenv("SERVER_SECURE_COOKIES"); secure != "" {
		b, err := strconv.ParseBool(secure)
		if err != nil {
			return fmt.Errorf("invalid SERVER_SECURE_COOKIES: %w", err)
		}
		config.Server.SecureCookies = b
	}
	if prefix := os.Getenv("CERTIFICATE_CODE_PREFIX"); prefix != "" {
		config.Certificate.CodePrefix = prefix
	}
	if baseURL := os.Getenv("CERTIFICATE_VERIFY_BASE_URL"); baseURL != "" {
		config.Certificate.VerifyBaseURL = baseURL
	}
	if logo := os.Getenv("CERTIFICATE_LOGO_PATH"); logo != "" {
		config.Certificate.LogoPath = logo
	}
	if ttl := os.Getenv("SESSIONS_IDLE_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return fmt.Errorf("invalid SESSIONS_IDLE_TTL: %w", err)
		}
		config.Sessions.IdleTTL = Duration{d}
	}
	if schedule := os.Getenv("SESSIONS_SWEEP_SCHEDULE"); schedule != "" {
		config.Sessions.SweepSchedule = schedule
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	return nil
}

// Validate checks the configuration for values the service cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if strings.TrimSpace(c.Certificate.CodePrefix) == "" {
		errs = append(errs, errors.New("certificate.code_prefix is required"))
	}
	if !strings.HasPrefix(c.Certificate.VerifyBaseURL, "http://") && !strings.HasPrefix(c.Certificate.VerifyBaseURL, "https://") {
		errs = append(errs, fmt.Errorf("certificate.verify_base_url %q must be an http(s) URL", c.Certificate.VerifyBaseURL))
	}
	if c.QR.Width < 21 {
		errs = append(errs, fmt.Errorf("qr.width %d is too small", c.QR.Width))
	}
	if c.QR.Margin < 0 {
		errs = append(errs, fmt.Errorf("qr.margin %d is negative", c.QR.Margin))
	}
	for name, value := range map[string]string{
		"qr.foreground":     c.QR.Foreground,
		"qr.background":     c.QR.Background,
		"export.background": c.Export.Background,
	} {
		if _, err := raster.ParseHexColor(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	for name, scale := range map[string]float64{
		"export.pdf_scale":     c.Export.PDFScale,
		"export.png_scale":     c.Export.PNGScale,
		"export.preview_scale": c.Export.PreviewScale,
	} {
		if scale <= 0 || scale > 4 {
			errs = append(errs, fmt.Errorf("%s %v must be in (0, 4]", name, scale))
		}
	}
	if c.Export.PageFormat == "" {
		errs = append(errs, errors.New("export.page_format is required"))
	}
	if c.Sessions.IdleTTL.Duration <= 0 {
		errs = append(errs, errors.New("sessions.idle_ttl must be positive"))
	}
	if _, err := cron.ParseStandard(c.Sessions.SweepSchedule); err != nil {
		errs = append(errs, fmt.Errorf("sessions.sweep_schedule: %w", err))
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format %q must be console or json", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// VerificationURL returns the public URL that verifies code
func (c *CertificateConfig) VerificationURL(code string) string {
	return strings.TrimRight(c.VerifyBaseURL, "/") + "/verify/" + code
}
