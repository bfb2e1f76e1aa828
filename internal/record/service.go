package record

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/mrsinham/oeukintake/internal/questionnaire"
)

// Service validates and normalises submissions before they reach the
// repository, and gates the reviewer views behind the shared password.
type Service struct {
	repo      Repository
	validator *Validator
	password  string
	logger    zerolog.Logger
}

func NewService(repo Repository, password string, logger zerolog.Logger) (*Service, error) {
	v, err := NewValidator()
	if err != nil {
		return nil, err
	}
	return &Service{repo: repo, validator: v, password: password, logger: logger}, nil
}

// Submit stores answers under the idempotency key and returns the record id.
func (s *Service) Submit(ctx context.Context, key string, answers questionnaire.Answers) (int64, error) {
	if err := s.validator.Validate(answers); err != nil {
		return 0, err
	}
	id, err := s.repo.Create(ctx, strings.TrimSpace(key), Normalize(answers))
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("id", id).Msg("medical record created")
	return id, nil
}

func (s *Service) List(ctx context.Context) ([]Summary, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Record, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Review trims the comments and marks the record reviewed. Empty comments
// still mark it reviewed.
func (s *Service) Review(ctx context.Context, id int64, comments string) error {
	if id <= 0 {
		return ErrNotFound
	}
	if err := s.repo.Review(ctx, id, strings.TrimSpace(norm.NFKC.String(comments))); err != nil {
		return err
	}
	s.logger.Info().Int64("id", id).Msg("physician comments updated")
	return nil
}

// Authenticate compares against the shared reviewer password. This is a
// convenience gate, not access control.
func (s *Service) Authenticate(password string) bool {
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
}

func (s *Service) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}

// Normalize applies NFKC to every text answer. Images and non-string
// values pass through.
func Normalize(a questionnaire.Answers) questionnaire.Answers {
	out := a.Clone()
	for k, v := range out {
		str, ok := v.(string)
		if !ok {
			continue
		}
		if f, known := questionnaire.LookupField(k); known && f.Kind == questionnaire.KindImage {
			continue
		}
		out[k] = norm.NFKC.String(str)
	}
	return out
}
