package comparison

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/concierge-core/gateway/internal/gateway/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS comparisons (
	id                       TEXT PRIMARY KEY,
	intent                   TEXT NOT NULL,
	teacher_response         TEXT NOT NULL,
	student_response         TEXT NOT NULL,
	similarity_score         REAL NOT NULL,
	teacher_response_time_ms INTEGER NOT NULL,
	student_response_time_ms INTEGER NOT NULL,
	teacher_cost             REAL NOT NULL,
	created_at               INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comparisons_intent_created
	ON comparisons(intent, created_at);
`

// SQLiteStore persists teacher/student comparison pairs. Timestamps are
// stored as unix seconds so window queries stay simple integer ranges.
type SQLiteStore struct {
	db          *sql.DB
	highQuality float64
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists. highQuality is the similarity above which a comparison
// counts as high quality in reports.
func NewSQLiteStore(path string, highQuality float64) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open comparison db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init comparison schema: %w", err)
	}
	return &SQLiteStore{db: db, highQuality: highQuality}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Insert(ctx context.Context, rec model.ComparisonRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comparisons (
			id, intent, teacher_response, student_response, similarity_score,
			teacher_response_time_ms, student_response_time_ms, teacher_cost, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Intent), rec.TeacherResponse, rec.StudentResponse,
		rec.SimilarityScore, rec.TeacherResponseTimeMs, rec.StudentResponseTimeMs,
		rec.TeacherCost, rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert comparison: %w", err)
	}
	return nil
}

func (s *SQLiteStore) WindowStats(ctx context.Context, intent model.Intent, since, until time.Time) (*model.WindowStats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(AVG(similarity_score), 0),
			COALESCE(AVG(teacher_response_time_ms), 0),
			COALESCE(AVG(student_response_time_ms), 0)
		FROM comparisons
		WHERE intent = ? AND created_at >= ? AND created_at < ?`,
		string(intent), since.Unix(), until.Unix(),
	)

	var stats model.WindowStats
	if err := row.Scan(&stats.Count, &stats.AvgSimilarity, &stats.AvgTeacherMs, &stats.AvgStudentMs); err != nil {
		return nil, fmt.Errorf("window stats for %s: %w", intent, err)
	}
	return &stats, nil
}

func (s *SQLiteStore) Report(ctx context.Context, intent *model.Intent, since time.Time) (*model.ComparisonReport, error) {
	query := `
		SELECT COUNT(*),
			COALESCE(AVG(similarity_score), 0),
			COALESCE(MIN(similarity_score), 0),
			COALESCE(MAX(similarity_score), 0),
			COALESCE(SUM(CASE WHEN similarity_score >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(teacher_response_time_ms), 0),
			COALESCE(AVG(student_response_time_ms), 0),
			COALESCE(AVG(CASE WHEN student_response_time_ms < teacher_response_time_ms THEN 100.0 ELSE 0.0 END), 0),
			COALESCE(SUM(teacher_cost), 0)
		FROM comparisons
		WHERE created_at >= ?`
	args := []any{s.highQuality, since.Unix()}
	if intent != nil {
		query += ` AND intent = ?`
		args = append(args, string(*intent))
	}

	report := &model.ComparisonReport{Intent: "all"}
	if intent != nil {
		report.Intent = string(*intent)
	}

	row := s.db.QueryRowContext(ctx, query, args...)
	err := row.Scan(
		&report.Count, &report.AvgSimilarity, &report.MinSimilarity, &report.MaxSimilarity,
		&report.HighQualityCount, &report.AvgTeacherMs, &report.AvgStudentMs,
		&report.StudentFasterPercent, &report.TeacherCostTotal,
	)
	if err != nil {
		return nil, fmt.Errorf("comparison report: %w", err)
	}

	// Every audited pair the student could have served alone is teacher spend
	// that a full cutover would avoid.
	report.PotentialSavings = report.TeacherCostTotal
	return report, nil
}
