package comparison

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concierge-core/gateway/internal/gateway/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:", 0.85)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func insertPair(t *testing.T, store *SQLiteStore, id string, intent model.Intent, sim float64, teacherMs, studentMs int64, cost float64, at time.Time) {
	t.Helper()
	err := store.Insert(context.Background(), model.ComparisonRecord{
		ID:                    id,
		Intent:                intent,
		TeacherResponse:       "teacher answer",
		StudentResponse:       "student answer",
		SimilarityScore:       sim,
		TeacherResponseTimeMs: teacherMs,
		StudentResponseTimeMs: studentMs,
		TeacherCost:           cost,
		CreatedAt:             at,
	})
	require.NoError(t, err)
}

func TestWindowStatsAggregatesOnlyTheWindow(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	insertPair(t, store, "old", model.IntentFAQ, 0.95, 100, 50, 0.01, now.Add(-72*time.Hour))
	insertPair(t, store, "r1", model.IntentFAQ, 0.90, 200, 80, 0.01, now.Add(-2*time.Hour))
	insertPair(t, store, "r2", model.IntentFAQ, 0.80, 400, 120, 0.01, now.Add(-1*time.Hour))
	insertPair(t, store, "other", model.IntentMenu, 0.10, 999, 999, 0.01, now.Add(-1*time.Hour))

	stats, err := store.WindowStats(context.Background(), model.IntentFAQ, now.Add(-24*time.Hour), now)

	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Count)
	assert.InDelta(t, 0.85, stats.AvgSimilarity, 1e-9)
	assert.InDelta(t, 300, stats.AvgTeacherMs, 1e-9)
	assert.InDelta(t, 100, stats.AvgStudentMs, 1e-9)
}

func TestWindowStatsEmptyWindow(t *testing.T) {
	store := newTestStore(t)

	stats, err := store.WindowStats(context.Background(), model.IntentFAQ, time.Now().Add(-time.Hour), time.Now())

	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Count)
	assert.Zero(t, stats.AvgSimilarity)
}

func TestReportAllIntents(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	insertPair(t, store, "a", model.IntentFAQ, 0.90, 300, 100, 0.02, now.Add(-time.Hour))
	insertPair(t, store, "b", model.IntentFAQ, 0.70, 300, 400, 0.02, now.Add(-time.Hour))
	insertPair(t, store, "c", model.IntentQuote, 0.95, 500, 200, 0.05, now.Add(-time.Hour))

	report, err := store.Report(context.Background(), nil, now.Add(-24*time.Hour))

	require.NoError(t, err)
	assert.Equal(t, "all", report.Intent)
	assert.Equal(t, int64(3), report.Count)
	assert.InDelta(t, 0.70, report.MinSimilarity, 1e-9)
	assert.InDelta(t, 0.95, report.MaxSimilarity, 1e-9)
	assert.Equal(t, int64(2), report.HighQualityCount, "0.90 and 0.95 clear the 0.85 bar")
	assert.InDelta(t, 100.0*2/3, report.StudentFasterPercent, 1e-6)
	assert.InDelta(t, 0.09, report.TeacherCostTotal, 1e-9)
	assert.InDelta(t, report.TeacherCostTotal, report.PotentialSavings, 1e-9)
}

func TestReportFilteredByIntent(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	insertPair(t, store, "a", model.IntentFAQ, 0.90, 300, 100, 0.02, now.Add(-time.Hour))
	insertPair(t, store, "b", model.IntentQuote, 0.50, 500, 600, 0.05, now.Add(-time.Hour))

	intent := model.IntentQuote
	report, err := store.Report(context.Background(), &intent, now.Add(-24*time.Hour))

	require.NoError(t, err)
	assert.Equal(t, "quote", report.Intent)
	assert.Equal(t, int64(1), report.Count)
	assert.InDelta(t, 0.50, report.AvgSimilarity, 1e-9)
	assert.Zero(t, report.HighQualityCount)
	assert.Zero(t, report.StudentFasterPercent)
}

func TestInsertDuplicateIDFails(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	insertPair(t, store, "dup", model.IntentFAQ, 0.90, 300, 100, 0.02, now)
	err := store.Insert(context.Background(), model.ComparisonRecord{
		ID: "dup", Intent: model.IntentFAQ, CreatedAt: now,
	})

	assert.Error(t, err)
}
