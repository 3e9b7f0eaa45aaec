package elasticrepo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/corray333/backend-labs/storefront/internal/dal/elastic"
	"github.com/corray333/backend-labs/storefront/internal/service/models/searchdoc"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const productMapping = `{
	"mappings": {
		"properties": {
			"id":                { "type": "keyword" },
			"name":              { "type": "text" },
			"description":       { "type": "text" },
			"productMaterial":   { "type": "text" },
			"inspiration":       { "type": "text" },
			"usageInstructions": { "type": "text" },
			"thumbnailImage":    { "type": "keyword", "index": false },
			"minPrice":          { "type": "scaled_float", "scaling_factor": 100 },
			"maxPrice":          { "type": "scaled_float", "scaling_factor": 100 },
			"isActive":          { "type": "boolean" },
			"brandName":         { "type": "text", "fields": { "raw": { "type": "keyword" } } },
			"variantNames":      { "type": "text" },
			"variantSizes":      { "type": "keyword" },
			"variantScents":     { "type": "text" }
		}
	}
}`

// SearchIndexElasticRepository stores product search documents.
type SearchIndexElasticRepository struct {
	es    *elasticsearch.Client
	index string
}

// NewSearchIndexElasticRepository creates a new search index repository.
func NewSearchIndexElasticRepository(client *elastic.Client) *SearchIndexElasticRepository {
	return &SearchIndexElasticRepository{
		es:    client.ES(),
		index: client.Index(),
	}
}

// EnsureIndex creates the product index with its mapping unless it already exists.
func (r *SearchIndexElasticRepository) EnsureIndex(ctx context.Context) error {
	res, err := r.es.Indices.Exists([]string{r.index}, r.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index %s: %w", r.index, err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = r.es.Indices.Create(
		r.index,
		r.es.Indices.Create.WithBody(strings.NewReader(productMapping)),
		r.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", r.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("create index", res)
	}

	return nil
}

// Upsert writes the document under its id, replacing any previous version.
func (r *SearchIndexElasticRepository) Upsert(ctx context.Context, doc searchdoc.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", doc.ID, err)
	}

	res, err := r.es.Index(
		r.index,
		bytes.NewReader(body),
		r.es.Index.WithDocumentID(doc.ID),
		r.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("index document "+doc.ID, res)
	}

	return nil
}

// Delete removes the document. A document that is already gone is not an error.
func (r *SearchIndexElasticRepository) Delete(ctx context.Context, id string) error {
	res, err := r.es.Delete(r.index, id, r.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return responseError("delete document "+id, res)
	}

	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source searchdoc.Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchByBrand returns up to limit documents whose brand name matches.
func (r *SearchIndexElasticRepository) SearchByBrand(
	ctx context.Context,
	brand string,
	limit int,
) ([]searchdoc.Document, error) {
	query := map[string]any{
		"query": map[string]any{
			"match": map[string]any{
				"brandName": map[string]any{
					"query":    brand,
					"operator": "and",
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("failed to encode search query: %w", err)
	}

	res, err := r.es.Search(
		r.es.Search.WithContext(ctx),
		r.es.Search.WithIndex(r.index),
		r.es.Search.WithBody(&buf),
		r.es.Search.WithSize(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search by brand: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("search", res)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	docs := make([]searchdoc.Document, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		docs = append(docs, hit.Source)
	}

	return docs, nil
}

func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))

	return fmt.Errorf("elasticsearch %s: %s: %s", op, res.Status(), strings.TrimSpace(string(body)))
}
