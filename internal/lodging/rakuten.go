// internal/lodging/rakuten.go
package lodging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"okuda/tabi-planner/internal/config"
	"okuda/tabi-planner/internal/domain"
	"okuda/tabi-planner/internal/normalize"
)

// rakutenSearcher implements Searcher against the Rakuten Travel keyword
// hotel search API.
type rakutenSearcher struct {
	appID      string
	baseURL    string
	hits       int
	httpClient *http.Client
}

// NewRakutenSearcher creates a lodging search client from config.
func NewRakutenSearcher(cfg config.RakutenConfig) (Searcher, error) {
	if cfg.AppID == "" {
		return nil, errors.New("rakuten application id is not configured")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://app.rakuten.co.jp/services/api/Travel/KeywordHotelSearch/20170426"
	}
	hits := cfg.Hits
	if hits <= 0 || hits > 30 {
		hits = 30 // API maximum
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &rakutenSearcher{
		appID:   cfg.AppID,
		baseURL: baseURL,
		hits:    hits,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// rakutenHotelWrapper mirrors the nesting of the upstream payload: each
// Hotels entry wraps a hotel array whose first element carries the basic
// info block.
type rakutenHotelWrapper struct {
	Hotel []struct {
		HotelBasicInfo json.RawMessage `json:"hotelBasicInfo"`
	} `json:"hotel"`
}

// Search runs one keyword query. A 404 from the API means "no hotels for
// this keyword" and returns zero candidates with no error.
func (r *rakutenSearcher) Search(ctx context.Context, keyword string) ([]domain.LodgingCandidate, error) {
	if keyword == "" {
		return []domain.LodgingCandidate{}, nil
	}

	params := url.Values{}
	params.Set("applicationId", r.appID)
	params.Set("format", "json")
	params.Set("keyword", keyword)
	params.Set("hits", fmt.Sprintf("%d", r.hits))
	params.Set("responseType", "medium")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("lodging search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []domain.LodgingCandidate{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lodging search returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return normalize.ParseLodgingCandidates(flattenRakutenPayload(raw)), nil
}

// flattenRakutenPayload unwraps the Hotels[i].hotel[0].hotelBasicInfo nesting
// into the flat candidate list the normalizer reads. Payloads that are
// already flat (or use the lowercase list key) pass through untouched.
func flattenRakutenPayload(raw []byte) []byte {
	var wrapped struct {
		Hotels []rakutenHotelWrapper `json:"Hotels"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil || len(wrapped.Hotels) == 0 {
		return raw
	}

	flat := make([]json.RawMessage, 0, len(wrapped.Hotels))
	allNested := true
	for _, entry := range wrapped.Hotels {
		if len(entry.Hotel) == 0 || len(entry.Hotel[0].HotelBasicInfo) == 0 {
			allNested = false
			continue
		}
		flat = append(flat, entry.Hotel[0].HotelBasicInfo)
	}
	if len(flat) == 0 && !allNested {
		// Flat shape already; hand the original to the normalizer.
		return raw
	}

	out, err := json.Marshal(map[string]interface{}{"Hotels": flat})
	if err != nil {
		return raw
	}
	return out
}
