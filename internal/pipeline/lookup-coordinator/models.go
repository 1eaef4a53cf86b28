// internal/pipeline/lookup-coordinator/models.go
package lookupcoordinator

import (
	"context"
	"time"

	"ksel-bot/internal/common/cache"
	"ksel-bot/internal/models"
)

// Searcher fetches the raw result table for a model key.
type Searcher interface {
	Search(ctx context.Context, modelKey string) (models.RawTable, error)
}

// Extractor turns a raw table into rendered records.
type Extractor interface {
	Extract(table models.RawTable) []models.Record
	Select(records []models.Record, key string) []models.Record
	Render(records []models.Record) string
}

// Mirror is the optional out-of-process copy of cached results.
type Mirror interface {
	Save(ctx context.Context, e cache.Entry) error
	Load(ctx context.Context, key string) (cache.Entry, bool, error)
}

type fetchResult struct {
	records []models.Record
	err     error
	elapsed time.Duration
}
