package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/gig_board/internal/domain"
	"github.com/Skotchmaster/gig_board/internal/models"
)

type ClientConfig struct {
	URL      string
	User     string
	Password string
}

// NewClient connects and checks the cluster answers before returning.
func NewClient(ctx context.Context, cfg ClientConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}
	return client, nil
}

type ESIndex struct {
	Client *elasticsearch.Client
	Name   string
}

func (ix *ESIndex) Enabled() bool { return true }

var indexMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"title":          map[string]any{"type": "text"},
			"details":        map[string]any{"type": "text"},
			"gig_type":       map[string]any{"type": "keyword"},
			"suburb":         map[string]any{"type": "keyword"},
			"status":         map[string]any{"type": "keyword"},
			"owner_username": map[string]any{"type": "keyword"},
			"image_url":      map[string]any{"type": "keyword", "index": false},
			"created_at":     map[string]any{"type": "date"},
		},
	},
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (ix *ESIndex) EnsureIndex(ctx context.Context) error {
	res, err := ix.Client.Indices.Exists([]string{ix.Name}, ix.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", ix.Name, err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	body, err := json.Marshal(indexMapping)
	if err != nil {
		return err
	}
	res, err = ix.Client.Indices.Create(ix.Name,
		ix.Client.Indices.Create.WithContext(ctx),
		ix.Client.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", ix.Name, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", ix.Name, res.Status())
	}
	return nil
}

// Upsert replaces the stored document. Gigs that left LIVE stay indexed with
// their new status and are excluded by the query filter.
func (ix *ESIndex) Upsert(ctx context.Context, g *models.Gig) error {
	body, err := json.Marshal(NewDocument(g))
	if err != nil {
		return err
	}
	res, err := ix.Client.Index(ix.Name, bytes.NewReader(body),
		ix.Client.Index.WithContext(ctx),
		ix.Client.Index.WithDocumentID(strconv.FormatUint(uint64(g.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index gig %d: %w", g.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index gig %d: %s", g.ID, res.Status())
	}
	return nil
}

func buildQuery(query string, from, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": []any{
					map[string]any{
						"multi_match": map[string]any{
							"query":     query,
							"fields":    []string{"title^2", "details"},
							"fuzziness": "AUTO",
						},
					},
				},
				"filter": []any{
					map[string]any{"term": map[string]any{"status": string(domain.StatusLive)}},
				},
			},
		},
		"sort": []any{
			map[string]any{"created_at": map[string]any{"order": "desc"}},
		},
		"from": from,
		"size": size,
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func decodeResponse(r io.Reader) (int64, []Document, error) {
	var sr searchResponse
	if err := json.NewDecoder(r).Decode(&sr); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}
	docs := make([]Document, len(sr.Hits.Hits))
	for i, h := range sr.Hits.Hits {
		docs[i] = h.Source
	}
	return sr.Hits.Total.Value, docs, nil
}

func (ix *ESIndex) Search(ctx context.Context, query string, from, size int) (int64, []Document, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(buildQuery(query, from, size)); err != nil {
		return 0, nil, err
	}

	res, err := ix.Client.Search(
		ix.Client.Search.WithContext(ctx),
		ix.Client.Search.WithIndex(ix.Name),
		ix.Client.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search %s: %w", ix.Name, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search %s: %s", ix.Name, res.Status())
	}
	return decodeResponse(res.Body)
}

var _ Index = (*ESIndex)(nil)
var _ Index = Disabled{}
