package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/docsync-cli/internal/config"
	"github.com/custodia-labs/docsync-cli/internal/core/domain"
)

// mockStoreClient implements driven.StoreClient for testing.
type mockStoreClient struct {
	stores  []domain.StoreRecord
	updated domain.StoreStatus
	deleted string
}

func (m *mockStoreClient) ListStores(_ context.Context) ([]domain.StoreRecord, error) {
	return m.stores, nil
}

func (m *mockStoreClient) GetStore(_ context.Context, storeID string) (*domain.StoreRecord, error) {
	for i := range m.stores {
		if m.stores[i].ID == storeID {
			return &m.stores[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStoreClient) CreateStore(_ context.Context, name, _ string) (*domain.StoreRecord, error) {
	return &domain.StoreRecord{ID: "new", Name: name, Status: domain.StoreStatusEmpty}, nil
}

func (m *mockStoreClient) UpdateStore(_ context.Context, storeID string, status domain.StoreStatus) (*domain.StoreRecord, error) {
	m.updated = status
	return &domain.StoreRecord{ID: storeID, Status: status}, nil
}

func (m *mockStoreClient) DeleteStore(_ context.Context, storeID string) error {
	m.deleted = storeID
	return nil
}

func (m *mockStoreClient) GetChunkPage(_ context.Context, _, _ string, _ int) (*domain.ChunkPage, error) {
	return &domain.ChunkPage{}, nil
}

func (m *mockStoreClient) UpsertDocument(_ context.Context, _, _, docID, _ string) (*domain.UpsertResult, error) {
	return &domain.UpsertResult{DocID: docID}, nil
}

func (m *mockStoreClient) CreatePrediction(_ context.Context, _ string, _ domain.PredictionRequest) (*domain.PredictionResult, error) {
	return &domain.PredictionResult{}, nil
}

func setupStoreTest(client *mockStoreClient) func() {
	oldClient, oldConfig, oldRunner := storeClient, loadedConfig, syncRunner
	storeClient = client
	syncRunner = &mockSyncRunner{} // non-nil so ensureApp is bypassed
	cfg := config.Default()
	cfg.Sync.StoreName = "Inbox Documents"
	loadedConfig = cfg
	return func() {
		storeClient, loadedConfig, syncRunner = oldClient, oldConfig, oldRunner
	}
}

func TestStoreStatusCmd_ResolvesByName(t *testing.T) {
	client := &mockStoreClient{stores: []domain.StoreRecord{
		{ID: "store-1", Name: "Inbox Documents", Status: domain.StoreStatusSync},
	}}
	cleanup := setupStoreTest(client)
	defer cleanup()

	out, err := execute("store", "status")

	assert.NoError(t, err)
	assert.Contains(t, out, "store-1")
	assert.Contains(t, out, "SYNC")
	assert.Contains(t, out, "Ready:       true")
}

func TestStoreStatusCmd_MissingStore(t *testing.T) {
	cleanup := setupStoreTest(&mockStoreClient{})
	defer cleanup()

	_, err := execute("store", "status")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreResetCmd(t *testing.T) {
	client := &mockStoreClient{stores: []domain.StoreRecord{
		{ID: "store-1", Name: "Inbox Documents", Status: domain.StoreStatusStale},
	}}
	cleanup := setupStoreTest(client)
	defer cleanup()

	out, err := execute("store", "reset")

	assert.NoError(t, err)
	assert.Equal(t, domain.StoreStatusEmpty, client.updated)
	assert.Contains(t, out, "reset to EMPTY")
}

func TestStoreDeleteCmd_RequiresConfirmation(t *testing.T) {
	client := &mockStoreClient{stores: []domain.StoreRecord{
		{ID: "store-1", Name: "Inbox Documents", Status: domain.StoreStatusSync},
	}}
	cleanup := setupStoreTest(client)
	defer cleanup()

	_, err := execute("store", "delete")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
	assert.Empty(t, client.deleted)
}

func TestStoreDeleteCmd_Confirmed(t *testing.T) {
	client := &mockStoreClient{stores: []domain.StoreRecord{
		{ID: "store-1", Name: "Inbox Documents", Status: domain.StoreStatusSync},
	}}
	cleanup := setupStoreTest(client)
	defer cleanup()
	deleteConfirmed = true
	defer func() { deleteConfirmed = false }()

	out, err := execute("store", "delete", "--yes")

	assert.NoError(t, err)
	assert.Equal(t, "store-1", client.deleted)
	assert.Contains(t, out, "deleted")
}
