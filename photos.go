package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Stock photo search
// ---------------------------------------------------------------------------

type stockPhoto struct {
	ID   string `json:"id"`
	URLs struct {
		Small   string `json:"small"`
		Regular string `json:"regular"`
		Full    string `json:"full"`
	} `json:"urls"`
	AltDescription string `json:"alt_description"`
	Description    string `json:"description"`
	User           struct {
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"user"`
}

type stockPhotoResult struct {
	Photos []stockPhoto `json:"photos"`
}

// photoClient proxies landscape photo searches to the Unsplash API.
type photoClient struct {
	client    *http.Client
	accessKey string
	baseURL   string
}

func newPhotoClient(client *http.Client, accessKey, baseURL string) *photoClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if baseURL == "" {
		baseURL = "https://api.unsplash.com"
	}
	return &photoClient{client: client, accessKey: accessKey, baseURL: strings.TrimSuffix(baseURL, "/")}
}

var errPhotoKeyMissing = errors.New("stock photo API key not configured")

func (p *photoClient) search(ctx context.Context, query string) (stockPhotoResult, error) {
	if p.accessKey == "" {
		return stockPhotoResult{}, errPhotoKeyMissing
	}

	u := fmt.Sprintf("%s/search/photos?query=%s&per_page=20&orientation=landscape", p.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return stockPhotoResult{}, err
	}
	req.Header.Set("Authorization", "Client-ID "+p.accessKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return stockPhotoResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return stockPhotoResult{}, fmt.Errorf("photo search failed with status %d", resp.StatusCode)
	}

	var upstream struct {
		Results []stockPhoto `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&upstream); err != nil {
		return stockPhotoResult{}, fmt.Errorf("invalid photo search response: %w", err)
	}
	return stockPhotoResult{Photos: upstream.Results}, nil
}
