package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/lyzr/accounts/cmd/accounts/models"
	"github.com/lyzr/accounts/common/erasure"
	"github.com/lyzr/accounts/common/logger"
)

// Billing cancels the account's subscription with the billing provider
type Billing interface {
	CancelSubscription(ctx context.Context, accountID string) error
}

// Notifier sends the farewell message after an account is gone
type Notifier interface {
	SendFarewell(ctx context.Context, email, name string) error
}

// Purger runs one erasure; *erasure.Engine satisfies it
type Purger interface {
	Purge(ctx context.Context, accountID string) (*erasure.Report, error)
}

// AccountFinder resolves the target account before anything is mutated
type AccountFinder interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
}

// Events announces completed erasures to downstream consumers
type Events interface {
	AccountErased(ctx context.Context, accountID, path string, dependentRows int64) error
}

// Recorder receives telemetry events; nil disables them
type Recorder interface {
	RecordDuration(operation string, start time.Time)
	RecordEvent(event string, attrs map[string]any)
}

// ErasureService runs the two account-erasure paths: self-service deletion
// and operator purge-by-email
type ErasureService struct {
	engine    Purger
	accounts  AccountFinder
	billing   Billing
	notifier  Notifier
	telemetry Recorder
	events    Events
	idFormat  IDFormat
	secret    string
	log       *logger.Logger
}

// IDFormat says what a well-formed account id looks like
type IDFormat string

const (
	// IDFormatUUID requires an id that parses as a UUID
	IDFormatUUID IDFormat = "uuid"

	// IDFormatOpaque accepts any printable id up to maxOpaqueIDLen bytes
	IDFormatOpaque IDFormat = "opaque"
)

const maxOpaqueIDLen = 255

// Option configures an ErasureService
type Option func(*ErasureService)

// WithEvents publishes an account_erased event after every commit
func WithEvents(events Events) Option {
	return func(s *ErasureService) {
		s.events = events
	}
}

// WithAccountIDFormat sets how PurgeSelf validates account ids (default uuid)
func WithAccountIDFormat(format IDFormat) Option {
	return func(s *ErasureService) {
		s.idFormat = format
	}
}

// NewErasureService creates a new erasure service. An empty purgeSecret
// disables PurgeByEmail.
func NewErasureService(
	engine Purger,
	accounts AccountFinder,
	billing Billing,
	notifier Notifier,
	telemetry Recorder,
	purgeSecret string,
	log *logger.Logger,
	opts ...Option,
) *ErasureService {
	s := &ErasureService{
		engine:    engine,
		accounts:  accounts,
		billing:   billing,
		notifier:  notifier,
		telemetry: telemetry,
		idFormat:  IDFormatUUID,
		secret:    purgeSecret,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PurgeEnabled reports whether the operator path is configured
func (s *ErasureService) PurgeEnabled() bool {
	return s.secret != ""
}

// PurgeSelf deletes the caller's own account. The subscription is cancelled
// before the transaction and the farewell sent after commit; failures of
// either are logged and never returned.
func (s *ErasureService) PurgeSelf(ctx context.Context, accountID string) error {
	start := time.Now()
	log := s.log.WithContext(ctx).WithAccountID(accountID)

	if err := s.validateAccountID(accountID); err != nil {
		return err
	}

	// Contact details are gone once the root row is deleted
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	if err := s.billing.CancelSubscription(ctx, account.ID); err != nil {
		log.Warn("subscription cancel failed, continuing with deletion", "error", err)
	}

	report, err := s.engine.Purge(ctx, account.ID)
	if err != nil {
		s.record("account_erasure_failed", start, report, "self")
		return err
	}

	// The request may be gone by now; the account already is
	if err := s.notifier.SendFarewell(context.WithoutCancel(ctx), account.Email, account.Name); err != nil {
		log.Warn("farewell notification failed", "error", err)
	}

	s.announce(ctx, log, account.ID, "self", report)
	s.record("account_erased", start, report, "self")
	log.Info("account deleted by owner", "dependent_rows", report.DependentRows())

	return nil
}

// PurgeByEmail is the operator recovery path for rows left behind by an
// earlier failed deletion. No subscription or farewell side effects; only the
// account_erased event is published.
// The report is returned whenever the engine ran.
func (s *ErasureService) PurgeByEmail(ctx context.Context, email, secret string) (*erasure.Report, error) {
	start := time.Now()
	log := s.log.WithContext(ctx)

	if !s.PurgeEnabled() {
		return nil, erasure.ErrNotConfigured
	}

	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.secret)) != 1 {
		log.Warn("purge by email rejected: bad secret")
		return nil, erasure.ErrBadSecret
	}

	address, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByEmail(ctx, address)
	if err != nil {
		return nil, err
	}

	log = log.WithAccountID(account.ID)
	log.Info("operator purge started")

	report, err := s.engine.Purge(ctx, account.ID)
	if err != nil {
		s.record("account_erasure_failed", start, report, "operator")
		return report, err
	}

	s.announce(ctx, log, account.ID, "operator", report)
	s.record("account_erased", start, report, "operator")
	log.Info("account purged by operator", "dependent_rows", report.DependentRows())

	return report, nil
}

func (s *ErasureService) validateAccountID(id string) error {
	if s.idFormat == IDFormatOpaque {
		if id == "" || len(id) > maxOpaqueIDLen || strings.TrimSpace(id) != id ||
			strings.IndexFunc(id, unicode.IsControl) >= 0 {
			return fmt.Errorf("%w: %q", erasure.ErrInvalidAccountID, id)
		}
		return nil
	}

	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", erasure.ErrInvalidAccountID, id)
	}
	return nil
}

// announce runs after commit, so it must not depend on the request context
func (s *ErasureService) announce(ctx context.Context, log *logger.Logger, accountID, path string, report *erasure.Report) {
	if s.events == nil {
		return
	}
	if err := s.events.AccountErased(context.WithoutCancel(ctx), accountID, path, report.DependentRows()); err != nil {
		log.Warn("account erased event not published", "error", err)
	}
}

func (s *ErasureService) record(event string, start time.Time, report *erasure.Report, path string) {
	if s.telemetry == nil {
		return
	}

	attrs := map[string]any{"path": path}
	if report != nil {
		attrs["stage"] = report.Stage
		attrs["tables"] = len(report.Steps)
		attrs["dependent_rows"] = report.DependentRows()
		if report.FailedStage != "" {
			attrs["failed_stage"] = report.FailedStage
		}
	}

	s.telemetry.RecordEvent(event, attrs)
	s.telemetry.RecordDuration("purge_"+path, start)
}

// normalizeEmail accepts a bare address only, no display name
func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", fmt.Errorf("%w: empty", erasure.ErrInvalidEmail)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: %q", erasure.ErrInvalidEmail, email)
	}

	return addr.Address, nil
}

// IsExpectedRace reports whether err is the loser of two concurrent erasures
// of the same account
func IsExpectedRace(err error) bool {
	return errors.Is(err, erasure.ErrAccountMissing)
}
