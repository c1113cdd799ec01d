package docsession

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PersistenceClient is the narrow contract this package needs from the
// persistence backend. Every call returns the canonical record so the
// Coordinator can reconcile its optimistic copy.
type PersistenceClient interface {
	GetDocument(ctx context.Context, documentID string) (*Document, error)
	ListSections(ctx context.Context, documentID string) ([]Section, error)
	ListActiveBindings(ctx context.Context, documentID string) ([]Binding, error)

	UpdateContent(ctx context.Context, documentID string, content json.RawMessage) (*Document, error)

	CreateSection(ctx context.Context, documentID string, section Section) (*Section, error)
	UpdateSection(ctx context.Context, documentID string, section Section) (*Section, error)
	DeleteSection(ctx context.Context, documentID, sectionID string) error

	CreateBinding(ctx context.Context, documentID, sectionID string, bindingType BindingType, messageID *string) (*Binding, error)
	DeactivateBinding(ctx context.Context, documentID, bindingID string) (*Binding, error)
}

// HTTPClient talks JSON to the persistence backend, carrying a bearer
// credential supplied by the hosting session.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a persistence client rooted at baseURL, e.g.
// "https://api.example.com". The token is sent as a bearer credential on
// every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", method, path, err, ErrPersistenceFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Problem+json detail, if present, makes the error actionable
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: status %d: %s: %w", method, path, resp.StatusCode, bytes.TrimSpace(detail), ErrPersistenceFailed)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %v: %w", err, ErrPersistenceFailed)
		}
	}

	return nil
}

func (c *HTTPClient) GetDocument(ctx context.Context, documentID string) (*Document, error) {
	var doc Document
	if err := c.do(ctx, http.MethodGet, "/api/documents/"+documentID, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *HTTPClient) ListSections(ctx context.Context, documentID string) ([]Section, error) {
	var sections []Section
	if err := c.do(ctx, http.MethodGet, "/api/documents/"+documentID+"/sections", nil, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

func (c *HTTPClient) ListActiveBindings(ctx context.Context, documentID string) ([]Binding, error) {
	var bindings []Binding
	if err := c.do(ctx, http.MethodGet, "/api/documents/"+documentID+"/active-bindings", nil, &bindings); err != nil {
		return nil, err
	}
	return bindings, nil
}

func (c *HTTPClient) UpdateContent(ctx context.Context, documentID string, content json.RawMessage) (*Document, error) {
	body := map[string]json.RawMessage{"content": content}
	var doc Document
	if err := c.do(ctx, http.MethodPatch, "/api/documents/"+documentID, body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *HTTPClient) CreateSection(ctx context.Context, documentID string, section Section) (*Section, error) {
	var created Section
	if err := c.do(ctx, http.MethodPost, "/api/documents/"+documentID+"/sections", section, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *HTTPClient) UpdateSection(ctx context.Context, documentID string, section Section) (*Section, error) {
	var updated Section
	path := "/api/documents/" + documentID + "/sections/" + section.ID
	if err := c.do(ctx, http.MethodPatch, path, section, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *HTTPClient) DeleteSection(ctx context.Context, documentID, sectionID string) error {
	return c.do(ctx, http.MethodDelete, "/api/documents/"+documentID+"/sections/"+sectionID, nil, nil)
}

func (c *HTTPClient) CreateBinding(ctx context.Context, documentID, sectionID string, bindingType BindingType, messageID *string) (*Binding, error) {
	body := map[string]interface{}{
		"binding_type": bindingType,
		"message_id":   messageID,
	}
	var binding Binding
	path := "/api/documents/" + documentID + "/sections/" + sectionID + "/bindings"
	if err := c.do(ctx, http.MethodPost, path, body, &binding); err != nil {
		return nil, err
	}
	return &binding, nil
}

func (c *HTTPClient) DeactivateBinding(ctx context.Context, documentID, bindingID string) (*Binding, error) {
	inactive := false
	body := map[string]interface{}{"is_active": &inactive}
	var binding Binding
	path := "/api/documents/" + documentID + "/bindings/" + bindingID
	if err := c.do(ctx, http.MethodPatch, path, body, &binding); err != nil {
		return nil, err
	}
	return &binding, nil
}
