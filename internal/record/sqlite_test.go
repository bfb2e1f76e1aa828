package record

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsinham/oeukintake/internal/questionnaire"
)

func newSQLite(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "oeuk.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func sampleAnswers() questionnaire.Answers {
	return questionnaire.Answers{
		"surname":               "Doe",
		"first_name":            "Jane",
		"date_of_birth":         "1985-04-12",
		"position_held":         "Driller",
		"city":                  "",
		"time_in_office_months": "18",
		"work_involves_food":    true,
		"work_involves_cranes":  false,
		"photo_base64":          "data:image/jpeg;base64,AAAA",
		"q1_smoke":              "legacy key",
	}
}

func TestSQLiteCreateAndGet(t *testing.T) {
	repo := newSQLite(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, "", sampleAnswers())
	require.NoError(t, err)
	assert.Positive(t, id)

	rec, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "Doe", rec.Values["surname"])
	assert.Equal(t, int64(18), rec.Values["time_in_office_months"])
	assert.Equal(t, true, rec.Values["work_involves_food"])
	assert.Equal(t, false, rec.Values["work_involves_cranes"])
	assert.Equal(t, false, rec.Values["work_involves_ert"])
	assert.Nil(t, rec.Values["city"], "empty text is stored as NULL")
	assert.Nil(t, rec.Values["address"])
	assert.Nil(t, rec.Values["smoking_quantity_day"])
	assert.NotContains(t, rec.Values, "q1_smoke")
	assert.Equal(t, "data:image/jpeg;base64,AAAA", rec.Values["photo_base64"])
	assert.False(t, rec.Reviewed)
	assert.Nil(t, rec.ReviewedAt)
	assert.WithinDuration(t, time.Now(), rec.CreatedAt, time.Minute)
}

func TestSQLiteGetMissing(t *testing.T) {
	repo := newSQLite(t)
	_, err := repo.Get(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteIdempotencyKey(t *testing.T) {
	repo := newSQLite(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, "01J9ZK3W6Q0000000000000000", sampleAnswers())
	require.NoError(t, err)
	again, err := repo.Create(ctx, "01J9ZK3W6Q0000000000000000", sampleAnswers())
	require.NoError(t, err)
	assert.Equal(t, first, again)

	a, err := repo.Create(ctx, "", sampleAnswers())
	require.NoError(t, err)
	b, err := repo.Create(ctx, "", sampleAnswers())
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "keyless submissions are never merged")

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestSQLiteListNewestFirst(t *testing.T) {
	repo := newSQLite(t)
	ctx := context.Background()

	empty, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	var ids []int64
	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		id, err := repo.Create(ctx, "", questionnaire.Answers{"surname": name})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, "Charlie", list[0].Surname)
	assert.Equal(t, ids[0], list[2].ID)
	assert.Equal(t, "Pending", list[0].Status())
}

func TestSQLiteReview(t *testing.T) {
	repo := newSQLite(t)
	ctx := context.Background()
	id, err := repo.Create(ctx, "", sampleAnswers())
	require.NoError(t, err)

	require.NoError(t, repo.Review(ctx, id, "Fit for offshore work"))

	rec, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, rec.Reviewed)
	assert.Equal(t, "Fit for offshore work", rec.PhysicianComments)
	require.NotNil(t, rec.ReviewedAt)

	assert.ErrorIs(t, repo.Review(ctx, id+100, "x"), ErrNotFound)
}

func TestSQLiteMigrateIsRepeatable(t *testing.T) {
	repo := newSQLite(t)
	assert.NoError(t, repo.Migrate(context.Background()))
	assert.NoError(t, repo.Ping(context.Background()))
}
