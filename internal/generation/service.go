package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/passgen/composer"
	"github.com/sundayezeilo/passgen/internal/errx"
)

const (
	DefaultLength    = 12
	DefaultMaxLength = 1024
	DefaultListLimit = 20
	MaxListLimit     = 100
)

var errAuditDisabled = errors.New("generation audit is disabled")

// GenerateRequest represents the parameters for composing a password.
type GenerateRequest struct {
	Length  *int // nil selects the configured default
	Classes []composer.Class
}

// Service defines the password generation operations.
type Service interface {
	Generate(ctx context.Context, req GenerateRequest) (Generation, error)
	Get(ctx context.Context, id uuid.UUID) (Record, error)
	List(ctx context.Context, limit int) ([]Record, error)
	AuditEnabled() bool
}

type service struct {
	repo          Repository
	composer      composer.Generator
	defaultLength int
	maxLength     int
	now           func() time.Time
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	Composer      composer.Generator
	DefaultLength int
	MaxLength     int
	Now           func() time.Time
}

// NewService creates a new service. A nil repo disables auditing: passwords
// are still generated, but nothing is recorded and lookups report NotFound.
func NewService(repo Repository, config *ServiceConfig) Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	gen := config.Composer
	if gen == nil {
		gen = composer.New(nil)
	}

	maxLength := config.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	defaultLength := config.DefaultLength
	if defaultLength <= 0 || defaultLength > maxLength {
		defaultLength = min(DefaultLength, maxLength)
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &service{
		repo:          repo,
		composer:      gen,
		defaultLength: defaultLength,
		maxLength:     maxLength,
		now:           now,
	}
}

func (s *service) AuditEnabled() bool { return s.repo != nil }

// Generate composes a password and, when auditing is enabled, records its
// length, classes and counts.
func (s *service) Generate(ctx context.Context, req GenerateRequest) (Generation, error) {
	const op = "generation.service.Generate"

	length := s.defaultLength
	if req.Length != nil {
		length = *req.Length
	}
	if length > s.maxLength {
		return Generation{}, errx.Errorf(op, errx.Invalid, "length %d exceeds maximum %d", length, s.maxLength)
	}

	creq := composer.Request{Length: length, Classes: req.Classes}
	classes, err := composer.Validate(creq)
	if err != nil {
		return Generation{}, errx.E(op, errx.Invalid, err)
	}

	res, err := s.composer.Compose(creq)
	if err != nil {
		if errors.Is(err, composer.ErrInvalidRequest) {
			return Generation{}, errx.E(op, errx.Invalid, err)
		}
		return Generation{}, errx.E(op, errx.Unavailable, fmt.Errorf("compose password: %w", err))
	}

	rec := Record{
		Length:    length,
		Classes:   classes,
		Counts:    res.Counts,
		CreatedAt: s.now().UTC(),
	}

	if s.repo != nil {
		stored, err := s.repo.Create(ctx, rec)
		if err != nil {
			return Generation{}, errx.E(op, errx.KindOf(err), err)
		}
		rec = stored
	}

	return Generation{Record: rec, Password: res.Password}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	const op = "generation.service.Get"

	if s.repo == nil {
		return Record{}, errx.E(op, errx.NotFound, errAuditDisabled)
	}
	if id == uuid.Nil {
		return Record{}, errx.E(op, errx.Invalid, errors.New("id cannot be empty"))
	}

	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return Record{}, errx.E(op, errx.KindOf(err), err)
	}
	return rec, nil
}

// List returns the most recent records. A non-positive limit selects the
// default and larger limits are clamped to MaxListLimit.
func (s *service) List(ctx context.Context, limit int) ([]Record, error) {
	const op = "generation.service.List"

	if s.repo == nil {
		return nil, errx.E(op, errx.NotFound, errAuditDisabled)
	}

	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	recs, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, errx.E(op, errx.KindOf(err), err)
	}
	return recs, nil
}
