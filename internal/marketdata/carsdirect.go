package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gavincooper/vehicle-valuator/pkg/logger"
	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

const (
	carsDirectName        = "carsdirect"
	carsDirectDefaultURL  = "https://api.carsdirect.example.com/v2"
	carsDirectQuality     = 0.9
	carsDirectAvail       = 0.8
	defaultSearchRadiusMi = 50
)

// CarsDirectSource fetches comparable listings from the CarsDirect search
// API. Responses arrive in the vendor's wire format and are normalized into
// the common listing schema.
type CarsDirectSource struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *RateLimiter
	log        *slog.Logger
}

// CarsDirectOption configures a CarsDirectSource.
type CarsDirectOption func(*CarsDirectSource)

// WithCarsDirectBaseURL overrides the API base URL.
func WithCarsDirectBaseURL(u string) CarsDirectOption {
	return func(s *CarsDirectSource) { s.baseURL = u }
}

// WithCarsDirectHTTPClient overrides the HTTP client.
func WithCarsDirectHTTPClient(c *http.Client) CarsDirectOption {
	return func(s *CarsDirectSource) { s.httpClient = c }
}

// WithCarsDirectRateLimiter sets the request rate limiter.
func WithCarsDirectRateLimiter(r *RateLimiter) CarsDirectOption {
	return func(s *CarsDirectSource) { s.limiter = r }
}

// WithCarsDirectLogger sets the logger.
func WithCarsDirectLogger(l *slog.Logger) CarsDirectOption {
	return func(s *CarsDirectSource) { s.log = l }
}

// NewCarsDirectSource creates a CarsDirectSource.
func NewCarsDirectSource(apiKey string, opts ...CarsDirectOption) *CarsDirectSource {
	s := &CarsDirectSource{
		baseURL:    carsDirectDefaultURL,
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
func (s *CarsDirectSource) Name() string { return carsDirectName }

// carsDirectSearchResponse is the vendor wire format.
type carsDirectSearchResponse struct {
	Results []struct {
		ListingID  string   `json:"listing_id"`
		AskPrice   float64  `json:"ask_price"`
		Odometer   int      `json:"odometer"`
		ModelYear  int      `json:"model_year"`
		MakeName   string   `json:"make_name"`
		ModelName  string   `json:"model_name"`
		TrimName   string   `json:"trim_name"`
		PostalCode string   `json:"postal_code"`
		DetailURL  string   `json:"detail_url"`
		ListedAt   string   `json:"listed_at"` // RFC 3339
		Options    []string `json:"options"`
		SellerType string   `json:"seller_type"` // dealer or private
		Certified  bool     `json:"certified_preowned"`
	} `json:"results"`
	Summary struct {
		NationalAverage float64 `json:"national_average"`
		DemandIndex     float64 `json:"demand_index"`
		AvgDaysOnMarket float64 `json:"avg_days_on_market"`
	} `json:"summary"`
	Seasonal []struct {
		Month      int     `json:"month"`
		Multiplier float64 `json:"multiplier"`
		Confidence float64 `json:"confidence"`
	} `json:"seasonal"`
}

// Fetch queries the vendor search endpoint and normalizes the response
// into a partial snapshot.
func (s *CarsDirectSource) Fetch(ctx context.Context, q Query) (*domain.MarketSnapshot, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("carsdirect rate limit: %w", err)
		}
	}

	radius := q.SearchRadius
	if radius <= 0 {
		radius = defaultSearchRadiusMi
	}

	params := url.Values{}
	params.Set("make", q.Make)
	params.Set("model", q.Model)
	params.Set("year", strconv.Itoa(q.Year))
	params.Set("zip", q.ZipCode)
	params.Set("radius", strconv.Itoa(radius))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.baseURL+"/listings/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating carsdirect request: %w", err)
	}
	req.Header.Set("X-Api-Key", s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling carsdirect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("carsdirect returned status %d", resp.StatusCode)
	}

	var wire carsDirectSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding carsdirect response: %w", err)
	}

	listings := make([]domain.MarketListing, 0, len(wire.Results))
	for _, r := range wire.Results {
		listedAt, perr := time.Parse(time.RFC3339, r.ListedAt)
		if perr != nil {
			listedAt = time.Time{}
		}
		listings = append(listings, domain.MarketListing{
			ID:         carsDirectName + "_" + r.ListingID,
			Price:      r.AskPrice,
			Mileage:    r.Odometer,
			Year:       r.ModelYear,
			Make:       r.MakeName,
			Model:      r.ModelName,
			Trim:       r.TrimName,
			Location:   r.PostalCode,
			Source:     carsDirectName,
			URL:        r.DetailURL,
			ListedDate: listedAt,
			Features:   r.Options,
			Dealer:     r.SellerType == "dealer",
			Certified:  r.Certified,
		})
	}

	trends := make([]domain.SeasonalTrend, 0, len(wire.Seasonal))
	for _, t := range wire.Seasonal {
		trends = append(trends, domain.SeasonalTrend{
			Month:      t.Month,
			Multiplier: t.Multiplier,
			Confidence: t.Confidence,
		})
	}

	snapshot := &domain.MarketSnapshot{
		LocalListings:       listings,
		NationalAverage:     wire.Summary.NationalAverage,
		SeasonalTrends:      trends,
		DemandIndex:         wire.Summary.DemandIndex,
		AveragePrice:        meanPrice(listings),
		TotalListings:       len(listings),
		PriceVariance:       priceVariance(listings),
		AverageTimeOnMarket: wire.Summary.AvgDaysOnMarket,
		Quality:             carsDirectQuality,
		Availability:        carsDirectAvail,
		SourcesUsed:         []string{carsDirectName},
	}

	s.log.Debug("carsdirect fetch complete",
		slog.Int("listings", len(listings)),
		slog.String("zip", q.ZipCode))

	return snapshot, nil
}

func meanPrice(listings []domain.MarketListing) float64 {
	if len(listings) == 0 {
		return 0
	}
	var sum float64
	for _, l := range listings {
		sum += l.Price
	}
	return sum / float64(len(listings))
}

// priceVariance returns the coefficient of variation of listing prices.
func priceVariance(listings []domain.MarketListing) float64 {
	if len(listings) == 0 {
		return 0
	}
	mean := meanPrice(listings)
	if mean == 0 {
		return 0
	}
	var sumSq float64
	for _, l := range listings {
		d := l.Price - mean
		sumSq += d * d
	}
	variance := sumSq / float64(len(listings))
	return math.Sqrt(variance) / mean
}
