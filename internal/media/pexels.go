package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const defaultPexelsURL = "https://api.pexels.com/v1/search"

// PexelsClient searches landscape photos on Pexels.
type PexelsClient struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewPexelsClient returns nil when apiKey is empty so callers can pass the
// result straight to NewResolver.
func NewPexelsClient(apiKey string, httpClient *http.Client) *PexelsClient {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &PexelsClient{APIKey: apiKey, BaseURL: defaultPexelsURL, HTTPClient: httpClient}
}

type pexelsResponse struct {
	Photos []struct {
		Src struct {
			Large    string `json:"large"`
			Original string `json:"original"`
		} `json:"src"`
	} `json:"photos"`
}

// SearchImages implements ImageSearcher. It prefers the "large" rendition and
// falls back to "original".
func (c *PexelsClient) SearchImages(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 1
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(limit))
	params.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read pexels response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pexels API error (%d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	var data pexelsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse pexels response: %w", err)
	}

	images := make([]string, 0, len(data.Photos))
	for _, photo := range data.Photos {
		img := photo.Src.Large
		if img == "" {
			img = photo.Src.Original
		}
		if img != "" {
			images = append(images, img)
		}
	}
	if len(images) > limit {
		images = images[:limit]
	}
	return images, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
