package flowise

// storeResponse is the wire format for a document store record.
type storeResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
}

// createStoreRequest is the wire format for store creation. New stores
// always start at EMPTY.
type createStoreRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
}

// updateStoreRequest is the wire format for a store status update.
type updateStoreRequest struct {
	Status string `json:"status"`
}

// chunkResponse is one indexed chunk in a chunk page.
type chunkResponse struct {
	ID          string `json:"id"`
	DocID       string `json:"docId"`
	PageContent string `json:"pageContent"`
}

// chunkPageResponse is the wire format for a chunk page.
type chunkPageResponse struct {
	Chunks []chunkResponse `json:"chunks"`
	Count  int             `json:"count"`
}

// upsertResponse is the wire format for an upsert result.
type upsertResponse struct {
	DocID      string `json:"docId"`
	NumAdded   int    `json:"numAdded"`
	NumUpdated int    `json:"numUpdated"`
}

// predictionRequest is the wire format for a prediction call.
type predictionRequest struct {
	Question       string         `json:"question"`
	OverrideConfig map[string]any `json:"overrideConfig"`
	History        []any          `json:"history"`
}

// predictionResponse is the wire format for a prediction result. The
// endpoint reports failures in-band through the error fields rather than
// a non-2xx status.
type predictionResponse struct {
	Text    string `json:"text"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
