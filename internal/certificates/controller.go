package certificates

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"techstar/certificate-portal/certificate-portal-backend/pkg/qr"
	"techstar/certificate-portal/certificate-portal-backend/pkg/workflows"
)

const minNameLength = 3

// QREncoder renders verification URLs into embeddable QR images
type QREncoder interface {
	Encode(ctx context.Context, content string) (*qr.Image, error)
}

// ControllerOptions wires a Controller's collaborators
type ControllerOptions struct {
	Codes           *CodeGenerator
	QR              QREncoder
	Now             func() time.Time
	VerificationURL func(code string) string
}

// Controller owns one form session: its state and its single record.
type Controller struct {
	codes           *CodeGenerator
	qr              QREncoder
	now             func() time.Time
	verificationURL func(code string) string
	machine         *workflows.StateMachine

	pending atomic.Bool

	mu     sync.RWMutex
	state  FormState
	record *CertificateRecord
}

func newFormStateMachine() *workflows.StateMachine {
	return workflows.NewStateMachine(map[workflows.State][]workflows.State{
		StateEmpty:      {StateValidating},
		StateValidating: {StateGenerated, StateEmpty},
		StateGenerated:  {StateValidating},
	})
}

// NewController creates a controller in the Empty state
func NewController(opts ControllerOptions) *Controller {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	codes := opts.Codes
	if codes == nil {
		codes = NewCodeGenerator("TS", nil, now)
	}
	verificationURL := opts.VerificationURL
	if verificationURL == nil {
		verificationURL = func(code string) string { return "/verify/" + code }
	}

	return &Controller{
		codes:           codes,
		qr:              opts.QR,
		now:             now,
		verificationURL: verificationURL,
		machine:         newFormStateMachine(),
		state:           StateEmpty,
	}
}

// ValidateRequest trims the participant name and checks its length.
func ValidateRequest(req CertificateRequest) (string, error) {
	name := strings.TrimSpace(req.ParticipantName)
	if name == "" {
		return "", &ValidationError{Field: "participant_name", Reason: ErrEmptyName, Message: msgEmptyName}
	}
	if utf8.RuneCountInString(name) < minNameLength {
		return "", &ValidationError{Field: "participant_name", Reason: ErrNameTooShort, Message: msgNameTooShort}
	}
	return name, nil
}

// Submit validates req and, on success, replaces the current record with a
// freshly generated one. On any error the previous state and record are kept.
// Only one submission may be in flight; overlapping calls get ErrBusy.
func (c *Controller) Submit(ctx context.Context, req CertificateRequest) (*CertificateRecord, error) {
	if !c.pending.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer c.pending.Store(false)

	previous, err := c.transition(StateValidating)
	if err != nil {
		return nil, err
	}

	record, err := c.generate(ctx, req)
	if err != nil {
		c.restore(previous)
		return nil, err
	}

	c.mu.Lock()
	c.state = StateGenerated
	c.record = record
	c.mu.Unlock()

	copied := *record
	return &copied, nil
}

func (c *Controller) generate(ctx context.Context, req CertificateRequest) (*CertificateRecord, error) {
	name, err := ValidateRequest(req)
	if err != nil {
		return nil, err
	}

	now := c.now()
	code := c.codes.Generate()
	url := c.verificationURL(code)

	record := &CertificateRecord{
		ParticipantName:  name,
		VerificationCode: code,
		IssueDate:        FormatDate(now),
		VerificationURL:  url,
		GeneratedAt:      now,
	}

	if req.IncludeQR {
		if c.qr == nil {
			return nil, externalError("qr", "encode", ErrEmptyArtifact)
		}
		img, err := c.qr.Encode(ctx, url)
		if err != nil {
			return nil, externalError("qr", "encode", err)
		}
		if img == nil || len(img.PNG) == 0 {
			return nil, externalError("qr", "encode", ErrEmptyArtifact)
		}
		record.QRImage = img
	}

	return record, nil
}

func (c *Controller) transition(to FormState) (FormState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous := c.state
	next, err := c.machine.Transition(previous, to)
	if err != nil {
		return previous, err
	}
	c.state = next
	return previous, nil
}

func (c *Controller) restore(previous FormState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if next, err := c.machine.Transition(c.state, previous); err == nil {
		c.state = next
	}
}

// State returns the current form state
func (c *Controller) State() FormState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Record returns a copy of the current record, or ErrNoCertificate.
func (c *Controller) Record() (*CertificateRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.record == nil {
		return nil, ErrNoCertificate
	}
	copied := *c.record
	return &copied, nil
}
