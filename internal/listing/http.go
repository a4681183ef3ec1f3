package listing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tormodhaugland/planner/internal/model"
	"github.com/tormodhaugland/planner/internal/pathpolicy"
)

// ListRoute is the Directory Listing Service endpoint, relative to the API base.
const ListRoute = "/file-system/list"

// HTTPLister fetches listings from the remote Directory Listing Service.
type HTTPLister struct {
	baseURL string
	token   string
	client  *http.Client
}

// listErrorResponse is the error body returned by the service
type listErrorResponse struct {
	Message string `json:"message"`
}

// listObjectResponse covers the object-shaped responses some service versions
// return instead of a bare entry array.
type listObjectResponse struct {
	Entries     []model.DirectoryEntry `json:"entries"`
	Directories []string               `json:"directories"`
}

// NewHTTPLister creates a client for the listing service at baseURL. token is
// sent as a bearer token when non-empty.
func NewHTTPLister(baseURL, token string) *HTTPLister {
	return &HTTPLister{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// List requests the children of path.
func (l *HTTPLister) List(ctx context.Context, path string) ([]model.DirectoryEntry, error) {
	q := url.Values{}
	q.Set("path", path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+ListRoute+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to load contents for %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp listErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
			return nil, fmt.Errorf("%s", errResp.Message)
		}
		return nil, fmt.Errorf("failed to load contents for %s: status %d", path, resp.StatusCode)
	}

	return decodeEntries(body, path)
}

func decodeEntries(body []byte, path string) ([]model.DirectoryEntry, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []model.DirectoryEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("parsing response: %w", err)
		}
		if entries == nil {
			entries = []model.DirectoryEntry{}
		}
		return entries, nil
	}

	var obj listObjectResponse
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	entries := make([]model.DirectoryEntry, 0, len(obj.Entries)+len(obj.Directories))
	entries = append(entries, obj.Entries...)
	for _, name := range obj.Directories {
		entries = append(entries, model.DirectoryEntry{
			Name:        name,
			Path:        pathpolicy.Join(path, name),
			IsDirectory: true,
		})
	}
	return entries, nil
}
