package record

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsinham/oeukintake/internal/questionnaire"
)

func TestCoerce(t *testing.T) {
	text := questionnaire.MustField("surname")
	months := questionnaire.MustField("time_in_office_months")
	food := questionnaire.MustField("work_involves_food")

	cases := []struct {
		name  string
		field questionnaire.Field
		in    any
		want  any
	}{
		{"empty text is null", text, "", nil},
		{"nil text is null", text, nil, nil},
		{"text kept", text, "Doe", "Doe"},
		{"whitespace text kept", text, "  ", "  "},
		{"number as text", text, 12.5, "12.5"},
		{"digit string", months, "012", int64(12)},
		{"empty number is null", months, "", nil},
		{"json number", months, json.Number("7"), int64(7)},
		{"float number", months, float64(30), int64(30)},
		{"true checkbox", food, true, true},
		{"missing checkbox", food, nil, false},
		{"string false", food, "false", false},
		{"string yes", food, "Yes", true},
		{"zero", food, float64(0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Coerce(tc.field, tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCoerceRejectsNonNumbers(t *testing.T) {
	months := questionnaire.MustField("time_in_office_months")
	for _, in := range []any{"twelve", 1.5, "-"} {
		_, err := Coerce(months, in)
		assert.True(t, errors.Is(err, ErrInvalid), "input %v", in)
	}
}

func TestColumnValuesReportsUnknownKeys(t *testing.T) {
	values, unknown, err := columnValues(questionnaire.Answers{
		"surname":  "Doe",
		"q1_smoke": "Yes",
		"SURNAME":  "shadow",
	})
	require.NoError(t, err)
	assert.Len(t, values, len(questionnaire.Fields()))
	assert.ElementsMatch(t, []string{"q1_smoke", "SURNAME"}, unknown)
	assert.Equal(t, "Doe", values[0])
}

func TestRecordJSONIsFlat(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	rec := Record{
		ID:        42,
		CreatedAt: at,
		Values: questionnaire.Answers{
			"surname":               "Doe",
			"time_in_office_months": int64(18),
			"work_involves_cranes":  true,
		},
		PhysicianComments: "Fit",
		Reviewed:          true,
		ReviewedAt:        &at,
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, float64(42), flat["id"])
	assert.Equal(t, "Doe", flat["surname"])
	assert.Equal(t, float64(18), flat["time_in_office_months"])
	assert.Nil(t, flat["address"])
	assert.Contains(t, flat, "photo_base64")
	assert.Equal(t, "Fit", flat["physician_comments"])

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, int64(18), back.Values["time_in_office_months"])
	assert.Equal(t, true, back.Values["work_involves_cranes"])
	assert.Nil(t, back.Values["address"])
	assert.True(t, back.CreatedAt.Equal(at))
	require.NotNil(t, back.ReviewedAt)
	assert.Equal(t, "DOE", back.Name())
}

func TestNamesAndStatus(t *testing.T) {
	s := Summary{Surname: "mcallister", FirstName: "Ewan"}
	assert.Equal(t, "MCALLISTER, Ewan", s.Name())
	assert.Equal(t, "Pending", s.Status())
	assert.Equal(t, "(unnamed)", Summary{}.Name())
	s.Reviewed = true
	assert.Equal(t, "Reviewed", s.Status())
}

func TestDDLCoversCatalog(t *testing.T) {
	for _, d := range []dialect{sqliteDialect, postgresDialect} {
		ddl := d.createTable()
		for _, f := range questionnaire.Fields() {
			assert.Contains(t, ddl, "\n    "+f.Name+" ", "%s: %s", d.name, f.Name)
		}
		assert.Contains(t, ddl, "submission_key TEXT UNIQUE")
	}
	assert.Contains(t, postgresDialect.createTable(), "BIGSERIAL")
	assert.Contains(t, sqliteDialect.createTable(), "AUTOINCREMENT")
}

func TestInsertPlaceholders(t *testing.T) {
	n := len(questionnaire.Fields()) + 2
	pg := postgresDialect.insert()
	assert.Contains(t, pg, "$1,")
	assert.Contains(t, pg, "$"+itoa(n)+")")
	assert.NotContains(t, pg, "$"+itoa(n+1))
	assert.Equal(t, n, strings.Count(sqliteDialect.insert(), "?"))
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
