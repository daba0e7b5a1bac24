package marketdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gavincooper/vehicle-valuator/pkg/logger"
	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

const (
	autoLenderName       = "autolender"
	autoLenderDefaultURL = "https://marketplace.autolender.example.com/api"
	autoLenderQuality    = 0.85
	autoLenderAvail      = 0.75
)

// AutoLenderSource fetches comparable listings from the AutoLender
// marketplace API. Unlike CarsDirect, the vendor expects a JSON body and
// reports epoch-millisecond listing dates.
type AutoLenderSource struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *RateLimiter
	log        *slog.Logger
}

// AutoLenderOption configures an AutoLenderSource.
type AutoLenderOption func(*AutoLenderSource)

// WithAutoLenderBaseURL overrides the API base URL.
func WithAutoLenderBaseURL(u string) AutoLenderOption {
	return func(s *AutoLenderSource) { s.baseURL = u }
}

// WithAutoLenderHTTPClient overrides the HTTP client.
func WithAutoLenderHTTPClient(c *http.Client) AutoLenderOption {
	return func(s *AutoLenderSource) { s.httpClient = c }
}

// WithAutoLenderRateLimiter sets the request rate limiter.
func WithAutoLenderRateLimiter(r *RateLimiter) AutoLenderOption {
	return func(s *AutoLenderSource) { s.limiter = r }
}

// WithAutoLenderLogger sets the logger.
func WithAutoLenderLogger(l *slog.Logger) AutoLenderOption {
	return func(s *AutoLenderSource) { s.log = l }
}

// NewAutoLenderSource creates an AutoLenderSource.
func NewAutoLenderSource(apiKey string, opts ...AutoLenderOption) *AutoLenderSource {
	s := &AutoLenderSource{
		baseURL:    autoLenderDefaultURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the source identifier used in snapshots and metrics.
func (s *AutoLenderSource) Name() string { return autoLenderName }

type autoLenderQuery struct {
	Make     string `json:"make"`
	Model    string `json:"model"`
	Year     int    `json:"year"`
	Zip      string `json:"zip"`
	RadiusMi int    `json:"radius_mi"`
}

type autoLenderResponse struct {
	Vehicles []struct {
		ID          string  `json:"id"`
		Price       float64 `json:"price"`
		Miles       int     `json:"miles"`
		Year        int     `json:"year"`
		Make        string  `json:"make"`
		Model       string  `json:"model"`
		Trim        string  `json:"trim"`
		Zip         string  `json:"zip"`
		Link        string  `json:"link"`
		ListedEpoch int64   `json:"listed_epoch_ms"`
		IsDealer    bool    `json:"is_dealer"`
		IsCertified bool    `json:"is_certified"`
	} `json:"vehicles"`
	Market struct {
		NationalAvg float64 `json:"national_avg"`
		Demand      float64 `json:"demand"`
		AvgDays     float64 `json:"avg_days_listed"`
	} `json:"market"`
	History []struct {
		Date    string  `json:"date"` // 2006-01-02
		Price   float64 `json:"price"`
		Mileage int     `json:"mileage"`
	} `json:"history"`
}

// Fetch posts the search query and normalizes the vendor response into a
// partial snapshot.
func (s *AutoLenderSource) Fetch(ctx context.Context, q Query) (*domain.MarketSnapshot, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("autolender rate limit: %w", err)
		}
	}

	radius := q.SearchRadius
	if radius <= 0 {
		radius = defaultSearchRadiusMi
	}

	body, err := json.Marshal(autoLenderQuery{
		Make:     q.Make,
		Model:    q.Model,
		Year:     q.Year,
		Zip:      q.ZipCode,
		RadiusMi: radius,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling autolender query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/v1/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating autolender request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling autolender: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("autolender returned status %d", resp.StatusCode)
	}

	var wire autoLenderResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding autolender response: %w", err)
	}

	listings := make([]domain.MarketListing, 0, len(wire.Vehicles))
	for _, v := range wire.Vehicles {
		listings = append(listings, domain.MarketListing{
			ID:         autoLenderName + "_" + v.ID,
			Price:      v.Price,
			Mileage:    v.Miles,
			Year:       v.Year,
			Make:       v.Make,
			Model:      v.Model,
			Trim:       v.Trim,
			Location:   v.Zip,
			Source:     autoLenderName,
			URL:        v.Link,
			ListedDate: time.UnixMilli(v.ListedEpoch).UTC(),
			Dealer:     v.IsDealer,
			Certified:  v.IsCertified,
		})
	}

	history := make([]domain.HistoricalPrice, 0, len(wire.History))
	for _, h := range wire.History {
		date, perr := time.Parse("2006-01-02", h.Date)
		if perr != nil {
			continue
		}
		history = append(history, domain.HistoricalPrice{
			Date:    date,
			Price:   h.Price,
			Mileage: h.Mileage,
			Source:  autoLenderName,
		})
	}

	snapshot := &domain.MarketSnapshot{
		LocalListings:       listings,
		NationalAverage:     wire.Market.NationalAvg,
		HistoricalPrices:    history,
		DemandIndex:         wire.Market.Demand,
		AveragePrice:        meanPrice(listings),
		TotalListings:       len(listings),
		PriceVariance:       priceVariance(listings),
		AverageTimeOnMarket: wire.Market.AvgDays,
		Quality:             autoLenderQuality,
		Availability:        autoLenderAvail,
		SourcesUsed:         []string{autoLenderName},
	}

	s.log.Debug("autolender fetch complete",
		slog.Int("listings", len(listings)),
		slog.String("zip", q.ZipCode))

	return snapshot, nil
}
