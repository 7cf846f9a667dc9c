package quality

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/concierge-core/gateway/internal/gateway/model"
	logx "github.com/concierge-core/gateway/pkg/logger"
	"github.com/concierge-core/gateway/pkg/vectors"
)

// Recorder turns one shadowed teacher/student inference pair into an
// immutable ComparisonRecord, scoring answer agreement by the cosine
// similarity of the two response embeddings.
type Recorder struct {
	store    model.ComparisonStore
	embedder model.Embedder
	log      zerolog.Logger
}

func NewRecorder(store model.ComparisonStore, embedder model.Embedder) *Recorder {
	return &Recorder{
		store:    store,
		embedder: embedder,
		log:      logx.Component("quality"),
	}
}

// Record embeds both responses, scores them and persists the pair.
func (r *Recorder) Record(ctx context.Context, intent model.Intent, teacher, student *model.ModelResponse, teacherCost float64) error {
	tv, err := r.embedder.Embed(ctx, teacher.Content)
	if err != nil {
		return fmt.Errorf("embed teacher response: %w", err)
	}
	sv, err := r.embedder.Embed(ctx, student.Content)
	if err != nil {
		return fmt.Errorf("embed student response: %w", err)
	}

	rec := model.ComparisonRecord{
		ID:                    uuid.NewString(),
		Intent:                intent,
		TeacherResponse:       teacher.Content,
		StudentResponse:       student.Content,
		SimilarityScore:       vectors.Cosine(tv, sv),
		TeacherResponseTimeMs: teacher.LatencyMs,
		StudentResponseTimeMs: student.LatencyMs,
		TeacherCost:           teacherCost,
		CreatedAt:             time.Now().UTC(),
	}
	if err := r.store.Insert(ctx, rec); err != nil {
		return fmt.Errorf("persist comparison record: %w", err)
	}

	r.log.Debug().
		Str("intent", intent.String()).
		Float64("similarity", rec.SimilarityScore).
		Int64("teacher_ms", rec.TeacherResponseTimeMs).
		Int64("student_ms", rec.StudentResponseTimeMs).
		Msg("comparison recorded")
	return nil
}
