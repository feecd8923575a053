package scryfall

import (
	"context"
	"fmt"
	"net/http"
)

// MaxBatchSize is the maximum number of identifiers per /cards/collection
// request.
const MaxBatchSize = 75

// CardIdentifier identifies a card for the /cards/collection endpoint.
type CardIdentifier struct {
	ID              string `json:"id,omitempty"`
	OracleID        string `json:"oracle_id,omitempty"`
	Name            string `json:"name,omitempty"`
	Set             string `json:"set,omitempty"`              // Requires collector_number
	CollectorNumber string `json:"collector_number,omitempty"` // Requires set
}

// CollectionRequest is the request body for /cards/collection.
type CollectionRequest struct {
	Identifiers []CardIdentifier `json:"identifiers"`
}

// CollectionResponse is the response from /cards/collection.
type CollectionResponse struct {
	Object   string           `json:"object"`
	NotFound []CardIdentifier `json:"not_found"`
	Data     []Card           `json:"data"`
}

// GetCardsByIDs fetches cards by Scryfall ID, batching requests as needed.
// Ids Scryfall does not know are returned in notFound.
func (c *Client) GetCardsByIDs(ctx context.Context, ids []string) (found []Card, notFound []string, err error) {
	if len(ids) == 0 {
		return []Card{}, nil, nil
	}

	for i := 0; i < len(ids); i += MaxBatchSize {
		end := min(i+MaxBatchSize, len(ids))

		identifiers := make([]CardIdentifier, 0, end-i)
		for _, id := range ids[i:end] {
			identifiers = append(identifiers, CardIdentifier{ID: id})
		}

		var resp CollectionResponse
		if err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/cards/collection",
			CollectionRequest{Identifiers: identifiers}, &resp); err != nil {
			return nil, nil, fmt.Errorf("failed to fetch batch %d-%d: %w", i, end, err)
		}

		found = append(found, resp.Data...)
		for _, nf := range resp.NotFound {
			if nf.ID != "" {
				notFound = append(notFound, nf.ID)
			}
		}
	}

	return found, notFound, nil
}
