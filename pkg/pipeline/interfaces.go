package pipeline

import (
	"context"

	"github.com/chromatix/printscope/pkg/models"
)

//go:generate mockgen -destination=mock_pipeline.go -package=pipeline github.com/chromatix/printscope/pkg/pipeline PageSource,Sink

// PageSource fetches one page of asset records per call.
type PageSource interface {
	FetchPage(ctx context.Context, pageIndex, pageSize int) ([]models.AssetRecord, models.PageMeta, error)
}

// Sink receives per-page status updates. Implementations must not block:
// the pipeline publishes synchronously from its page loop.
type Sink interface {
	Publish(update models.StatusUpdate)
}

// NopSink discards all updates.
type NopSink struct{}

// Publish implements Sink.
func (NopSink) Publish(models.StatusUpdate) {}
