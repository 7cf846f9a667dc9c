package model

import (
	"context"
	"time"
)

// ComparisonRecord is one audited teacher/student inference pair.
// Immutable once written; read in aggregate by the quality monitor.
type ComparisonRecord struct {
	ID                    string    `json:"id"`
	Intent                Intent    `json:"intent"`
	TeacherResponse       string    `json:"teacher_response"`
	StudentResponse       string    `json:"student_response"`
	SimilarityScore       float64   `json:"similarity_score"`
	TeacherResponseTimeMs int64     `json:"teacher_response_time_ms"`
	StudentResponseTimeMs int64     `json:"student_response_time_ms"`
	TeacherCost           float64   `json:"teacher_cost"`
	CreatedAt             time.Time `json:"created_at"`
}

// AlertSeverity classifies quality alerts.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// ParseSeverity returns the severity for s and whether s named a valid one.
func ParseSeverity(s string) (AlertSeverity, bool) {
	switch AlertSeverity(s) {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return AlertSeverity(s), true
	default:
		return "", false
	}
}

// QualityAlert is one finding of a monitor cycle. Appended to an append-only
// log, never mutated.
type QualityAlert struct {
	Severity      AlertSeverity `json:"severity"`
	Intent        Intent        `json:"intent"`
	Metric        string        `json:"metric"`
	CurrentValue  float64       `json:"current_value"`
	ExpectedValue float64       `json:"expected_value"`
	Message       string        `json:"message"`
	Timestamp     time.Time     `json:"timestamp"`
}

// RollbackRecord documents one automatic rollback action.
type RollbackRecord struct {
	Intent    Intent    `json:"intent"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// WindowStats are aggregates over ComparisonRecords in a time window.
type WindowStats struct {
	Count         int64
	AvgSimilarity float64
	AvgTeacherMs  float64
	AvgStudentMs  float64
}

// ComparisonReport is the trailing-window teacher/student report.
type ComparisonReport struct {
	Intent               string  `json:"intent"`
	Days                 int     `json:"days"`
	Count                int64   `json:"count"`
	AvgSimilarity        float64 `json:"avg_similarity"`
	MinSimilarity        float64 `json:"min_similarity"`
	MaxSimilarity        float64 `json:"max_similarity"`
	HighQualityCount     int64   `json:"high_quality_count"`
	AvgTeacherMs         float64 `json:"avg_teacher_ms"`
	AvgStudentMs         float64 `json:"avg_student_ms"`
	StudentFasterPercent float64 `json:"student_faster_percent"`
	TeacherCostTotal     float64 `json:"teacher_cost_total"`
	PotentialSavings     float64 `json:"potential_savings"`
}

// ComparisonStore persists and aggregates teacher/student comparison pairs.
// Intent filtering in Report is optional: a nil intent means all intents.
type ComparisonStore interface {
	Insert(ctx context.Context, rec ComparisonRecord) error
	WindowStats(ctx context.Context, intent Intent, since, until time.Time) (*WindowStats, error)
	Report(ctx context.Context, intent *Intent, since time.Time) (*ComparisonReport, error)
}

// SplitStore holds the per-intent student traffic split. This is the single
// piece of cross-component shared state that must be strongly consistent:
// once a split is zeroed, every subsequent read anywhere observes zero.
type SplitStore interface {
	Split(ctx context.Context, intent Intent) (float64, error)
	SetSplit(ctx context.Context, intent Intent, percentage float64) error
	Splits(ctx context.Context) (map[Intent]float64, error)
}
