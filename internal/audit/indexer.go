package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"ethics-review-service/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// Indexer mirrors transition records into an Elasticsearch index so staff
// can search audit history. Postgres remains the system of record.
type Indexer struct {
	es    *elasticsearch.Client
	index string
}

func NewIndexer(es *elasticsearch.Client, index string) *Indexer {
	return &Indexer{es: es, index: index}
}

// Index writes one record document keyed by the record id, so at-least-once
// mirroring stays idempotent.
func (i *Indexer) Index(ctx context.Context, record *models.TransitionRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal transition record: %w", err)
	}

	res, err := i.es.Index(
		i.index,
		bytes.NewReader(body),
		i.es.Index.WithDocumentID(record.ID),
		i.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index transition record: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index transition record: %s", res.Status())
	}
	return nil
}
