package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
	"github.com/kirillkom/counsel-assistant/internal/core/scoring"
	"github.com/kirillkom/counsel-assistant/internal/infrastructure/resilience"
)

const (
	payloadRecordID = "record_id"
	payloadText     = "text"
	payloadMetadata = "metadata"
)

// Client is a VectorIndex backed by a Qdrant collection over its REST API.
// Record ids are mapped to deterministic UUID point ids; the original id
// travels in the payload.
type Client struct {
	baseURL    string
	collection string
	dimension  int
	httpClient *http.Client
	executor   *resilience.Executor

	ensureMu          sync.Mutex
	ensuredCollection bool
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, collection string, dimension int) *Client {
	return NewWithOptions(baseURL, collection, dimension, Options{})
}

func NewWithOptions(baseURL, collection string, dimension int, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type storedPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

func (c *Client) Put(ctx context.Context, record domain.VectorRecord) error {
	if record.ID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "qdrant put", fmt.Errorf("record id is required"))
	}
	if len(record.Vector) != c.dimension {
		return domain.WrapError(domain.ErrInvalidInput, "qdrant put", domain.NewDimensionError(c.dimension, len(record.Vector)))
	}
	if err := c.ensureCollection(ctx); err != nil {
		return err
	}

	metadata := make(map[string]any, len(record.Metadata))
	for k, v := range record.Metadata {
		metadata[k] = v
	}
	body := map[string]any{
		"points": []point{{
			ID:     c.pointID(record.ID),
			Vector: record.Vector,
			Payload: map[string]any{
				payloadRecordID: record.ID,
				payloadText:     record.Text,
				payloadMetadata: metadata,
			},
		}},
	}
	_, err := c.do(ctx, http.MethodPut, "/points?wait=true", body, nil, "upsert")
	return err
}

func (c *Client) Get(ctx context.Context, id string) (*domain.VectorRecord, error) {
	var resp struct {
		Result storedPoint `json:"result"`
	}
	status, err := c.do(ctx, http.MethodGet, "/points/"+c.pointID(id), nil, &resp, "get")
	if status == http.StatusNotFound {
		return nil, domain.WrapError(domain.ErrRecordNotFound, "qdrant get", fmt.Errorf("id %q", id))
	}
	if err != nil {
		return nil, err
	}
	record := toRecord(resp.Result)
	return &record, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	body := map[string]any{"points": []string{c.pointID(id)}}
	status, err := c.do(ctx, http.MethodPost, "/points/delete?wait=true", body, nil, "delete")
	if status == http.StatusNotFound {
		return nil
	}
	return err
}

func (c *Client) DeleteWhere(ctx context.Context, filters map[string]string) (int, error) {
	if len(filters) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "qdrant delete where", fmt.Errorf("at least one filter is required"))
	}
	filter := buildFilter(filters)

	var countResp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	status, err := c.do(ctx, http.MethodPost, "/points/count", map[string]any{"filter": filter, "exact": true}, &countResp, "count")
	if status == http.StatusNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if countResp.Result.Count == 0 {
		return 0, nil
	}

	if _, err := c.do(ctx, http.MethodPost, "/points/delete?wait=true", map[string]any{"filter": filter}, nil, "delete by filter"); err != nil {
		return 0, err
	}
	return countResp.Result.Count, nil
}

func (c *Client) SearchSimilar(ctx context.Context, query []float32, limit int, threshold float64) ([]domain.ScoredRecord, error) {
	if len(query) != c.dimension {
		return nil, domain.NewDimensionError(c.dimension, len(query))
	}
	if limit <= 0 {
		return []domain.ScoredRecord{}, nil
	}

	body := map[string]any{
		"vector":          query,
		"limit":           limit,
		"with_payload":    true,
		"with_vector":     true,
		"score_threshold": threshold,
	}
	var resp struct {
		Result []storedPoint `json:"result"`
	}
	status, err := c.do(ctx, http.MethodPost, "/points/search", body, &resp, "search")
	if status == http.StatusNotFound {
		return []domain.ScoredRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]domain.ScoredRecord, 0, len(resp.Result))
	for _, p := range resp.Result {
		score := scoring.Clamp01(p.Score)
		if score < threshold {
			continue
		}
		out = append(out, domain.ScoredRecord{Record: toRecord(p), Score: score})
	}
	return out, nil
}

func (c *Client) SearchByMetadata(ctx context.Context, filters map[string]string, limit int) ([]domain.VectorRecord, error) {
	body := map[string]any{
		"with_payload": true,
		"with_vector":  true,
	}
	if limit > 0 {
		body["limit"] = limit
	}
	if len(filters) > 0 {
		body["filter"] = buildFilter(filters)
	}
	var resp struct {
		Result struct {
			Points []storedPoint `json:"points"`
		} `json:"result"`
	}
	status, err := c.do(ctx, http.MethodPost, "/points/scroll", body, &resp, "scroll")
	if status == http.StatusNotFound {
		return []domain.VectorRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]domain.VectorRecord, 0, len(resp.Result.Points))
	for _, p := range resp.Result.Points {
		out = append(out, toRecord(p))
	}
	return out, nil
}

func (c *Client) pointID(recordID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(c.collection+"/"+recordID)).String()
}

func (c *Client) ensureCollection(ctx context.Context) error {
	c.ensureMu.Lock()
	if c.ensuredCollection {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     c.dimension,
			"distance": "Cosine",
		},
	}
	status, err := c.doPath(ctx, http.MethodPut, c.collectionURL(""), reqBody, nil, "ensure collection")
	// 409 if the collection already exists (depends on version/config).
	if status == http.StatusConflict {
		c.markCollectionEnsured()
		return nil
	}
	if err != nil {
		return err
	}
	c.markCollectionEnsured()
	return nil
}

func (c *Client) markCollectionEnsured() {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
}

func (c *Client) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", c.baseURL, c.collection, suffix)
}

func (c *Client) do(ctx context.Context, method, suffix string, payload any, out any, operation string) (int, error) {
	return c.doPath(ctx, method, c.collectionURL(suffix), payload, out, operation)
}

func (c *Client) doPath(ctx context.Context, method, url string, payload any, out any, operation string) (int, error) {
	var status int
	call := func(callCtx context.Context) error {
		var err error
		status, err = c.roundTrip(callCtx, method, url, payload, out, operation)
		return err
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "qdrant."+strings.ReplaceAll(operation, " ", "_"), call, classifyQdrantError)
	} else {
		err = call(ctx)
	}
	return status, resilience.WrapTemporary("qdrant "+operation, err, classifyQdrantError)
}

func (c *Client) roundTrip(ctx context.Context, method, url string, payload any, out any, operation string) (int, error) {
	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("marshal %s body: %w", operation, err)
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
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

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return resp.StatusCode, &StatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s response: %w", operation, err)
		}
	}
	return resp.StatusCode, nil
}

func buildFilter(filters map[string]string) map[string]any {
	must := make([]map[string]any, 0, len(filters))
	for k, v := range filters {
		must = append(must, map[string]any{
			"key":   payloadMetadata + "." + k,
			"match": map[string]any{"value": v},
		})
	}
	return map[string]any{"must": must}
}

func toRecord(p storedPoint) domain.VectorRecord {
	record := domain.VectorRecord{
		ID:     getStringPayload(p.Payload, payloadRecordID),
		Vector: p.Vector,
		Text:   getStringPayload(p.Payload, payloadText),
	}
	if raw, ok := p.Payload[payloadMetadata].(map[string]any); ok && len(raw) > 0 {
		record.Metadata = make(map[string]string, len(raw))
		for k, v := range raw {
			record.Metadata[k] = fmt.Sprintf("%v", v)
		}
	}
	return record
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
