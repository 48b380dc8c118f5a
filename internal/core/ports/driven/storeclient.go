package driven

import (
	"context"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
)

// StoreClient is the stateless request layer over the remote document
// store and prediction API. Each call is a single attempt bounded by an
// operation-specific timeout; any failure comes back as a
// *domain.TransportError value. Retry policy belongs to the orchestrator,
// never to the client.
type StoreClient interface {
	// ListStores returns all stores. Pagination is not modelled; the
	// remote API returns a single page.
	ListStores(ctx context.Context) ([]domain.StoreRecord, error)

	// GetStore returns one store by id. A 404-equivalent response is
	// domain.ErrNotFound, which callers treat as "absent", not a failure.
	GetStore(ctx context.Context, storeID string) (*domain.StoreRecord, error)

	// CreateStore creates a store with status EMPTY. Not idempotent: only
	// called when no existing store matches the desired name.
	CreateStore(ctx context.Context, name, description string) (*domain.StoreRecord, error)

	// UpdateStore sets the store status, e.g. resetting it after a failed
	// sync.
	UpdateStore(ctx context.Context, storeID string, status domain.StoreStatus) (*domain.StoreRecord, error)

	// DeleteStore removes a store. Irreversible; the orchestrator never
	// calls it automatically.
	DeleteStore(ctx context.Context, storeID string) error

	// GetChunkPage returns one page of indexed chunks for an uploaded
	// document. Used to poll indexing progress after an upsert.
	GetChunkPage(ctx context.Context, storeID, docID string, page int) (*domain.ChunkPage, error)

	// UpsertDocument uploads extracted text as a multipart file. Not
	// idempotent at the API level; the orchestrator enforces idempotency
	// through the fingerprint ledger before calling.
	UpsertDocument(ctx context.Context, storeID, loaderID, docID, text string) (*domain.UpsertResult, error)

	// CreatePrediction issues a question against the chatflow. Triggers
	// downstream processing; only called after upload success confirmed.
	CreatePrediction(ctx context.Context, chatflowID string, req domain.PredictionRequest) (*domain.PredictionResult, error)
}
