// Package search indexes schedule records and movement rows into
// Elasticsearch, one index per stream.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/travigo/pushport/pkg/pushport/emit"
	"github.com/travigo/pushport/pkg/pushport/movement"
	"github.com/travigo/pushport/pkg/pushport/schedule"
)

var ErrBulkFailed = errors.New("bulk index failed")

type Indexer struct {
	client *elasticsearch.Client
	prefix string
}

func NewIndexer(client *elasticsearch.Client, prefix string) *Indexer {
	if prefix == "" {
		prefix = "pushport"
	}

	return &Indexer{client: client, prefix: prefix}
}

func (i *Indexer) IndexName(stream string) string {
	return strings.ToLower(fmt.Sprintf("%s-%s", i.prefix, stream))
}

func (i *Indexer) WriteSchedule(ctx context.Context, kind string, rid string, records []schedule.Record) error {
	documents := make([]any, 0, len(records))
	for _, record := range records {
		documents = append(documents, record)
	}

	return i.bulk(ctx, i.IndexName(kind), documents)
}

func (i *Indexer) WriteMovement(ctx context.Context, rid string, rows []movement.Row) error {
	documents := make([]any, 0, len(rows))
	for _, row := range rows {
		documents = append(documents, row)
	}

	return i.bulk(ctx, i.IndexName(emit.StreamMovement), documents)
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int `json:"status"`
		Error  struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

func (i *Indexer) bulk(ctx context.Context, index string, documents []any) error {
	if len(documents) == 0 {
		return nil
	}

	body, err := bulkBody(index, documents)
	if err != nil {
		return err
	}

	res, err := i.client.Bulk(bytes.NewReader(body), i.client.Bulk.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrBulkFailed, res.Status())
	}

	var response bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return fmt.Errorf("%w: %w", ErrBulkFailed, err)
	}

	if response.Errors {
		for _, item := range response.Items {
			for _, result := range item {
				if result.Status > 299 {
					return fmt.Errorf("%w: %s %s", ErrBulkFailed, result.Error.Type, result.Error.Reason)
				}
			}
		}

		return ErrBulkFailed
	}

	return nil
}

// bulkBody builds the NDJSON body: an index action line followed by the
// document, for every document.
func bulkBody(index string, documents []any) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)

	action := map[string]map[string]string{"index": {"_index": index}}

	for _, document := range documents {
		if err := encoder.Encode(action); err != nil {
			return nil, err
		}
		if err := encoder.Encode(document); err != nil {
			return nil, err
		}
	}

	return buffer.Bytes(), nil
}
