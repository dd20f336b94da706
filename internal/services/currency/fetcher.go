package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"blizz/internal/repositories"
)

const exchangeAPIURL = "https://api.exchangerate-api.com/v4/latest/"

// HTTPRateFetcher pulls live rates from the public exchangerate API.
type HTTPRateFetcher struct {
	client *http.Client
}

func NewHTTPRateFetcher(timeout time.Duration) *HTTPRateFetcher {
	return &HTTPRateFetcher{client: &http.Client{Timeout: timeout}}
}

type exchangeAPIResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

func (f *HTTPRateFetcher) Fetch(ctx context.Context, base, target string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exchangeAPIURL+base, nil)
	if err != nil {
		return 0, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("exchange rate API returned status %d", resp.StatusCode)
	}

	var data exchangeAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, err
	}

	rate, ok := data.Rates[target]
	if !ok {
		return 0, fmt.Errorf("%w: no %s rate in API response", ErrUnsupportedCurrency, target)
	}
	return rate, nil
}

// RepoRateStore adapts the persisted exchange_rates table to the RateStore seam.
type RepoRateStore struct {
	repo repositories.RateRepository
}

func NewRepoRateStore(repo repositories.RateRepository) *RepoRateStore {
	return &RepoRateStore{repo: repo}
}

func (s *RepoRateStore) Find(base, target string) (float64, time.Time, bool, error) {
	rate, err := s.repo.Find(base, target)
	if err != nil || rate == nil {
		return 0, time.Time{}, false, err
	}
	return rate.Rate, rate.UpdatedAt, true, nil
}

func (s *RepoRateStore) Upsert(base, target string, rate float64) error {
	return s.repo.Upsert(base, target, rate)
}
