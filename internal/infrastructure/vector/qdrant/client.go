package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/resilience"
)

const serviceName = "qdrant"

type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor

	ensureMu sync.Mutex
	ensured  map[string]int
}

func New(baseURL string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
		ensured:    make(map[string]int),
	}
}

// CreateCollection creates a cosine collection of the given dimension.
// An existing collection (409) counts as success; results are cached per
// name and dimension.
func (c *Client) CreateCollection(ctx context.Context, collection string, dim int) error {
	if dim <= 0 {
		return domain.WrapError(domain.ErrInvalidInput, "qdrant create collection", fmt.Errorf("invalid dimension %d", dim))
	}
	c.ensureMu.Lock()
	if size, ok := c.ensured[collection]; ok && size == dim {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": "Cosine",
		},
		"hnsw_config": map[string]any{
			"m":            32,
			"ef_construct": 128,
		},
		"optimizers_config": map[string]any{
			"memmap_threshold": 20000,
		},
		"on_disk_payload": true,
	}

	err := c.execute(ctx, "create_collection", func(ctx context.Context) error {
		_, err := c.do(ctx, http.MethodPut, c.collectionURL(collection), reqBody, nil, "create collection", http.StatusConflict)
		return err
	})
	if err != nil {
		return err
	}

	c.ensureMu.Lock()
	c.ensured[collection] = dim
	c.ensureMu.Unlock()
	return nil
}

// DeleteCollection drops the collection; a missing collection is not an error.
func (c *Client) DeleteCollection(ctx context.Context, collection string) error {
	err := c.execute(ctx, "delete_collection", func(ctx context.Context) error {
		_, err := c.do(ctx, http.MethodDelete, c.collectionURL(collection), nil, nil, "delete collection", http.StatusNotFound)
		return err
	})
	if err != nil {
		return err
	}

	c.ensureMu.Lock()
	delete(c.ensured, collection)
	c.ensureMu.Unlock()
	return nil
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

func (c *Client) Upsert(ctx context.Context, collection string, points []domain.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}

	body := make([]point, 0, len(points))
	for _, p := range points {
		body = append(body, point{
			ID:      p.ID,
			Vector:  p.Vector,
			Payload: encodePayload(p.Payload),
		})
	}

	return c.execute(ctx, "upsert", func(ctx context.Context) error {
		_, err := c.do(ctx, http.MethodPut, c.collectionURL(collection)+"/points?wait=true", map[string]any{"points": body}, nil, "upsert")
		return err
	})
}

type searchResponse struct {
	Result []struct {
		ID      json.RawMessage `json:"id"`
		Score   float64         `json:"score"`
		Payload map[string]any  `json:"payload"`
	} `json:"result"`
}

func (c *Client) Search(ctx context.Context, collection string, vector []float32, limit int) ([]domain.VectorHit, error) {
	if limit <= 0 {
		return nil, nil
	}
	reqBody := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}

	var resp searchResponse
	err := c.execute(ctx, "search", func(ctx context.Context) error {
		resp = searchResponse{}
		_, err := c.do(ctx, http.MethodPost, c.collectionURL(collection)+"/points/search", reqBody, &resp, "search")
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.VectorHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		out = append(out, domain.VectorHit{
			PointID: decodePointID(r.ID),
			Score:   r.Score,
			Payload: decodePayload(r.Payload),
		})
	}
	return out, nil
}

func (c *Client) collectionURL(collection string) string {
	return fmt.Sprintf("%s/collections/%s", c.baseURL, url.PathEscape(collection))
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	err := c.executor.Execute(ctx, "qdrant."+operation, fn, resilience.ClassifyHTTPError)
	return resilience.WrapTemporary("qdrant "+operation, err, resilience.ClassifyHTTPError)
}

// do sends one JSON request. Statuses listed in accept are treated as success.
func (c *Client) do(ctx context.Context, method, target string, payload, out any, operation string, accept ...int) (int, error) {
	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("marshal %s body: %w", operation, err)
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, fmt.Errorf("create %s request: %w", operation, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	for _, code := range accept {
		if resp.StatusCode == code {
			return resp.StatusCode, nil
		}
	}
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return resp.StatusCode, &resilience.HTTPStatusError{
			Service:    serviceName,
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s response: %w", operation, err)
		}
	}
	return resp.StatusCode, nil
}
