package record

import (
	"fmt"
	"strings"
	"time"

	"github.com/mrsinham/oeukintake/internal/questionnaire"
)

// dialect holds the differences between the SQLite and Postgres DDL and
// placeholders. Everything else is shared.
type dialect struct {
	name        string
	id          string
	timestamp   string
	types       map[questionnaire.FieldKind]string
	placeholder func(n int) string
}

var sqliteDialect = dialect{
	name:      "sqlite",
	id:        "id INTEGER PRIMARY KEY AUTOINCREMENT",
	timestamp: "TIMESTAMP",
	types: map[questionnaire.FieldKind]string{
		questionnaire.KindText:  "TEXT",
		questionnaire.KindInt:   "INTEGER",
		questionnaire.KindBool:  "BOOLEAN NOT NULL DEFAULT 0",
		questionnaire.KindImage: "TEXT",
	},
	placeholder: func(int) string { return "?" },
}

var postgresDialect = dialect{
	name:      "postgres",
	id:        "id BIGSERIAL PRIMARY KEY",
	timestamp: "TIMESTAMPTZ",
	types: map[questionnaire.FieldKind]string{
		questionnaire.KindText:  "TEXT",
		questionnaire.KindInt:   "BIGINT",
		questionnaire.KindBool:  "BOOLEAN NOT NULL DEFAULT FALSE",
		questionnaire.KindImage: "TEXT",
	},
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
}

func (d dialect) createTable() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n    %s,\n    submission_key TEXT UNIQUE", Table, d.id)
	for _, f := range questionnaire.Fields() {
		fmt.Fprintf(&b, ",\n    %s %s", f.Name, d.types[f.Kind])
	}
	fmt.Fprintf(&b, ",\n    physician_comments TEXT")
	fmt.Fprintf(&b, ",\n    created_at %s NOT NULL", d.timestamp)
	fmt.Fprintf(&b, ",\n    reviewed %s", d.types[questionnaire.KindBool])
	fmt.Fprintf(&b, ",\n    reviewed_at %s\n)", d.timestamp)
	return b.String()
}

func (d dialect) createIndex() string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s (created_at DESC)", Table, Table)
}

// insert takes the key, the catalog values and created_at, in that order.
func (d dialect) insert() string {
	fields := questionnaire.Fields()
	cols := make([]string, 0, len(fields)+2)
	marks := make([]string, 0, len(fields)+2)
	cols = append(cols, "submission_key")
	for _, f := range fields {
		cols = append(cols, f.Name)
	}
	cols = append(cols, "created_at")
	for i := range cols {
		marks = append(marks, d.placeholder(i+1))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (submission_key) DO NOTHING RETURNING id",
		Table, strings.Join(cols, ", "), strings.Join(marks, ", "))
}

func (d dialect) selectByKey() string {
	return fmt.Sprintf("SELECT id FROM %s WHERE submission_key = %s", Table, d.placeholder(1))
}

func (d dialect) selectSummaries() string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at DESC, id DESC", summaryColumns, Table)
}

func (d dialect) selectOne() string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE id = %s", recordColumns(), Table, d.placeholder(1))
}

func (d dialect) review() string {
	return fmt.Sprintf("UPDATE %s SET physician_comments = %s, reviewed = TRUE, reviewed_at = %s WHERE id = %s",
		Table, d.placeholder(1), d.placeholder(2), d.placeholder(3))
}

const summaryColumns = "id, surname, first_name, date_of_birth, position_held, created_at, reviewed"

func recordColumns() string {
	fields := questionnaire.Fields()
	cols := make([]string, 0, len(fields)+5)
	cols = append(cols, "id")
	for _, f := range fields {
		cols = append(cols, f.Name)
	}
	cols = append(cols, "physician_comments", "created_at", "reviewed", "reviewed_at")
	return strings.Join(cols, ", ")
}

// rowScanner is satisfied by *sql.Row, *sql.Rows, pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (Summary, error) {
	var (
		s                            Summary
		surname, first, dob, position *string
	)
	if err := row.Scan(&s.ID, &surname, &first, &dob, &position, &s.CreatedAt, &s.Reviewed); err != nil {
		return Summary{}, err
	}
	s.Surname, s.FirstName, s.DateOfBirth, s.PositionHeld = deref(surname), deref(first), deref(dob), deref(position)
	return s, nil
}

func scanRecord(row rowScanner) (*Record, error) {
	fields := questionnaire.Fields()
	var (
		r        Record
		comments *string
	)
	dest := make([]any, 0, len(fields)+5)
	dest = append(dest, &r.ID)
	holders := make([]any, len(fields))
	for i, f := range fields {
		switch f.Kind {
		case questionnaire.KindInt:
			holders[i] = new(*int64)
		case questionnaire.KindBool:
			holders[i] = new(bool)
		default:
			holders[i] = new(*string)
		}
		dest = append(dest, holders[i])
	}
	dest = append(dest, &comments, &r.CreatedAt, &r.Reviewed, &r.ReviewedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	r.Values = make(questionnaire.Answers, len(fields))
	for i, f := range fields {
		switch h := holders[i].(type) {
		case **int64:
			if *h != nil {
				r.Values[f.Name] = **h
			} else {
				r.Values[f.Name] = nil
			}
		case *bool:
			r.Values[f.Name] = *h
		case **string:
			if *h != nil {
				r.Values[f.Name] = **h
			} else {
				r.Values[f.Name] = nil
			}
		}
	}
	r.PhysicianComments = deref(comments)
	return &r, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(key string) any {
	if key == "" {
		return nil
	}
	return key
}

func now() time.Time {
	return time.Now().UTC()
}
