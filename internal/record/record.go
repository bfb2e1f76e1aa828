// Package record persists submitted questionnaires and serves them to
// reviewers. The column set is the questionnaire field catalog.
package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mrsinham/oeukintake/internal/questionnaire"
)

// Table is the storage table for both dialects.
const Table = "medical_records"

var (
	ErrNotFound = errors.New("record not found")
	ErrInvalid  = errors.New("invalid record")
)

// Record is one stored submission. Values holds a value for every catalog
// field: string, int64, bool or nil for SQL NULL.
type Record struct {
	ID                int64
	Values            questionnaire.Answers
	PhysicianComments string
	CreatedAt         time.Time
	Reviewed          bool
	ReviewedAt        *time.Time
}

// Summary is the list view of a record.
type Summary struct {
	ID           int64     `json:"id"`
	Surname      string    `json:"surname"`
	FirstName    string    `json:"first_name"`
	DateOfBirth  string    `json:"date_of_birth"`
	PositionHeld string    `json:"position_held"`
	CreatedAt    time.Time `json:"created_at"`
	Reviewed     bool      `json:"reviewed"`
}

// Name renders "SURNAME, First" for lists and headers.
func (s Summary) Name() string {
	return displayName(s.Surname, s.FirstName)
}

// Status is "Reviewed" or "Pending".
func (s Summary) Status() string {
	return status(s.Reviewed)
}

// String returns the display form of field, "" for NULL.
func (r *Record) String(field string) string {
	return r.Values.String(field)
}

func (r *Record) Name() string {
	return displayName(r.String("surname"), r.String("first_name"))
}

func (r *Record) Status() string {
	return status(r.Reviewed)
}

// Summary projects the record onto its list view.
func (r *Record) Summary() Summary {
	return Summary{
		ID:           r.ID,
		Surname:      r.String("surname"),
		FirstName:    r.String("first_name"),
		DateOfBirth:  r.String("date_of_birth"),
		PositionHeld: r.String("position_held"),
		CreatedAt:    r.CreatedAt,
		Reviewed:     r.Reviewed,
	}
}

func displayName(surname, first string) string {
	surname, first = strings.TrimSpace(surname), strings.TrimSpace(first)
	switch {
	case surname == "" && first == "":
		return "(unnamed)"
	case first == "":
		return strings.ToUpper(surname)
	case surname == "":
		return first
	}
	return strings.ToUpper(surname) + ", " + first
}

func status(reviewed bool) string {
	if reviewed {
		return "Reviewed"
	}
	return "Pending"
}

// MarshalJSON writes the record as one flat object keyed by column name.
func (r Record) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Values)+5)
	for _, f := range questionnaire.Fields() {
		m[f.Name] = r.Values[f.Name]
	}
	m["id"] = r.ID
	m["physician_comments"] = r.PhysicianComments
	m["created_at"] = r.CreatedAt
	m["reviewed"] = r.Reviewed
	m["reviewed_at"] = r.ReviewedAt
	return json.Marshal(m)
}

// UnmarshalJSON reads the flat form. Catalog values are coerced to their
// column kind; unknown keys are ignored.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var meta struct {
		ID                int64      `json:"id"`
		PhysicianComments *string    `json:"physician_comments"`
		CreatedAt         time.Time  `json:"created_at"`
		Reviewed          bool       `json:"reviewed"`
		ReviewedAt        *time.Time `json:"reviewed_at"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return err
	}
	*r = Record{
		ID:         meta.ID,
		CreatedAt:  meta.CreatedAt,
		Reviewed:   meta.Reviewed,
		ReviewedAt: meta.ReviewedAt,
		Values:     make(questionnaire.Answers, len(raw)),
	}
	if meta.PhysicianComments != nil {
		r.PhysicianComments = *meta.PhysicianComments
	}
	for _, f := range questionnaire.Fields() {
		msg, ok := raw[f.Name]
		if !ok {
			r.Values[f.Name] = nil
			continue
		}
		var v any
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
		cv, err := Coerce(f, v)
		if err != nil {
			return err
		}
		r.Values[f.Name] = cv
	}
	return nil
}

// Repository stores records.
type Repository interface {
	// Migrate creates the table when it does not exist.
	Migrate(ctx context.Context) error
	// Create inserts answers and returns the new id. A non-empty key that was
	// already used returns the id of the earlier insert.
	Create(ctx context.Context, key string, answers questionnaire.Answers) (int64, error)
	// List returns every record, newest first.
	List(ctx context.Context) ([]Summary, error)
	Get(ctx context.Context, id int64) (*Record, error)
	// Review stores the physician comments and marks the record reviewed.
	Review(ctx context.Context, id int64, comments string) error
	Ping(ctx context.Context) error
	Close() error
}
