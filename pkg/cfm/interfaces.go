package cfm

import (
	"context"
	"net/http"

	"github.com/chromatix/printscope/pkg/models"
)

//go:generate mockgen -destination=mock_cfm.go -package=cfm github.com/chromatix/printscope/pkg/cfm HTTPClient,TokenSource

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource defines the interface for obtaining bearer tokens.
type TokenSource interface {
	Token(ctx context.Context) (AccessToken, error)
}

// PageFetcher defines the interface for fetching one page of asset records.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageIndex, pageSize int) ([]models.AssetRecord, models.PageMeta, error)
}
