package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPSRepository fetches a descriptor over HTTP(S).
type HTTPSRepository struct {
	url    string
	name   string
	client *http.Client
}

// NewHTTPSRepository creates a repository for a descriptor URL.
func NewHTTPSRepository(rawURL string) (*HTTPSRepository, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid URL: missing host: %s", rawURL)
	}

	name := baseName(u.Path)
	if name == "" {
		return nil, fmt.Errorf("invalid URL: missing descriptor path: %s", rawURL)
	}

	return &HTTPSRepository{
		url:  rawURL,
		name: name,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Protocol returns "https".
func (r *HTTPSRepository) Protocol() string {
	return "https"
}

// URL returns the descriptor URL.
func (r *HTTPSRepository) URL() string {
	return r.url
}

// Fetch downloads the descriptor.
func (r *HTTPSRepository) Fetch(ctx context.Context) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	data, err := readDescriptor(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Document{Name: r.name, Data: data}, nil
}
