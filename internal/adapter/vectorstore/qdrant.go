package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/concierge-core/gateway/internal/gateway/model"
)

// QdrantIndex stores cache entries as points whose payload carries the full
// entry alongside the embedding. Intent and fingerprint are indexed keyword
// fields so Search can hard-filter before similarity is considered, and
// expires_at is an indexed integer so expired entries never surface.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	log        zerolog.Logger
}

func NewQdrantIndex(client *qdrant.Client, collection string, log zerolog.Logger) *QdrantIndex {
	return &QdrantIndex{client: client, collection: collection, log: log}
}

// InitCollection creates the collection and payload indexes if they do not
// exist yet. Safe to call on every startup.
func (s *QdrantIndex) InitCollection(ctx context.Context, dim uint64) error {
	_, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		st, ok := status.FromError(err)
		if !ok || st.Code() != codes.NotFound {
			return err
		}
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     dim,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("create collection %s: %w", s.collection, err)
		}
	}

	indexes := []struct {
		field string
		ftype qdrant.FieldType
	}{
		{"intent", qdrant.FieldType_FieldTypeKeyword},
		{"fingerprint", qdrant.FieldType_FieldTypeKeyword},
		{"expires_at", qdrant.FieldType_FieldTypeInteger},
	}
	for _, idx := range indexes {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      idx.field,
			FieldType:      idx.ftype.Enum(),
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			// Index may already exist from a previous run.
			s.log.Debug().Err(err).Str("field", idx.field).Msg("payload index not created")
		}
	}
	return nil
}

func (s *QdrantIndex) Search(ctx context.Context, vector []float32, threshold float64, intent model.Intent, fingerprint string) (*model.CacheMatch, error) {
	must := []*qdrant.Condition{
		qdrant.NewMatch("intent", string(intent)),
		qdrant.NewMatch("fingerprint", fingerprint),
		{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key: "expires_at",
					Range: &qdrant.Range{
						Gte: qdrant.PtrOf(float64(time.Now().Unix())),
					},
				},
			},
		},
	}

	scoreThreshold := float32(threshold)
	res, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         &qdrant.Filter{Must: must},
		Limit:          qdrant.PtrOf(uint64(1)),
		WithPayload:    qdrant.NewWithPayload(true),
		ScoreThreshold: &scoreThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.collection, err)
	}
	if len(res) == 0 {
		return nil, nil
	}

	hit := res[0]
	p := hit.Payload
	match := &model.CacheMatch{
		Entry: model.CacheEntry{
			Key:         p["key"].GetStringValue(),
			Query:       p["query"].GetStringValue(),
			Response:    p["response"].GetStringValue(),
			Intent:      model.Intent(p["intent"].GetStringValue()),
			Fingerprint: p["fingerprint"].GetStringValue(),
			CreatedAt:   time.Unix(p["created_at"].GetIntegerValue(), 0),
			ExpiresAt:   time.Unix(p["expires_at"].GetIntegerValue(), 0),
			HitCount:    p["hit_count"].GetIntegerValue(),
		},
		Score: float64(hit.Score),
	}
	return match, nil
}

func (s *QdrantIndex) Upsert(ctx context.Context, entry model.CacheEntry, vector []float32) error {
	payload := map[string]any{
		"key":         entry.Key,
		"query":       entry.Query,
		"response":    entry.Response,
		"intent":      string(entry.Intent),
		"fingerprint": entry.Fingerprint,
		"created_at":  entry.CreatedAt.Unix(),
		"expires_at":  entry.ExpiresAt.Unix(),
		"hit_count":   entry.HitCount,
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(pointID(entry.Key)),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(payload),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("upsert %s: %w", s.collection, err)
	}
	return nil
}

func (s *QdrantIndex) RecordHit(ctx context.Context, key string, hitCount int64) error {
	_, err := s.client.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: s.collection,
		Payload:        qdrant.NewValueMap(map[string]any{"hit_count": hitCount}),
		PointsSelector: qdrant.NewPointsSelector(qdrant.NewIDUUID(pointID(key))),
	})
	return err
}

func (s *QdrantIndex) Purge(ctx context.Context) (int, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", s.collection, err)
	}

	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelectorFilter(&qdrant.Filter{}),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("purge %s: %w", s.collection, err)
	}
	return int(count), nil
}

// pointID derives a stable UUID from the cache key so repeated stores of the
// same key overwrite the existing point instead of accumulating duplicates.
func pointID(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}
