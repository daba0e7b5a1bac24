// Package main implements a mock vendor API server for local development.
// It serves canned CarsDirect and AutoLender responses from JSON fixtures so
// the market data aggregator can run without real vendor credentials.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

type carsDirectResponse struct {
	Results  []json.RawMessage `json:"results"`
	Summary  json.RawMessage   `json:"summary"`
	Seasonal []json.RawMessage `json:"seasonal"`
}

type carsDirectResult struct {
	MakeName  string `json:"make_name"`
	ModelName string `json:"model_name"`
	ModelYear int    `json:"model_year"`
}

type autoLenderResponse struct {
	Vehicles []json.RawMessage `json:"vehicles"`
	Market   json.RawMessage   `json:"market"`
	History  []json.RawMessage `json:"history"`
}

type autoLenderVehicle struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
}

type autoLenderQuery struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	carsDirectFixture := flag.String("carsdirect-fixture",
		"tools/mock-server/testdata/carsdirect_search.json", "path to CarsDirect search fixture")
	autoLenderFixture := flag.String("autolender-fixture",
		"tools/mock-server/testdata/autolender_search.json", "path to AutoLender search fixture")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cd, err := loadCarsDirectFixture(*carsDirectFixture)
	if err != nil {
		logger.Error("failed to load carsdirect fixture", "path", *carsDirectFixture, "error", err)
		os.Exit(1)
	}
	al, err := loadAutoLenderFixture(*autoLenderFixture)
	if err != nil {
		logger.Error("failed to load autolender fixture", "path", *autoLenderFixture, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixtures", "carsdirect_results", len(cd.Results), "autolender_vehicles", len(al.Vehicles))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /carsdirect/listings/search", carsDirectHandler(logger, cd))
	mux.HandleFunc("POST /autolender/v1/search", autoLenderHandler(logger, al))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock vendor server", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadCarsDirectFixture(path string) (*carsDirectResponse, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var resp carsDirectResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &resp, nil
}

func loadAutoLenderFixture(path string) (*autoLenderResponse, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var resp autoLenderResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &resp, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func carsDirectHandler(logger *slog.Logger, fixture *carsDirectResponse) http.HandlerFunc {
	// Pre-parse vehicle identity for filtering.
	type indexedResult struct {
		raw    json.RawMessage
		probed carsDirectResult
	}
	results := make([]indexedResult, 0, len(fixture.Results))
	for _, raw := range fixture.Results {
		var p carsDirectResult
		//nolint:errcheck,gosec // fixture data is trusted; identity extraction is best-effort
		json.Unmarshal(raw, &p)
		results = append(results, indexedResult{raw: raw, probed: p})
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") == "" {
			logger.Warn("carsdirect request missing API key")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
			json.NewEncoder(w).Encode(map[string]string{"error": "missing_api_key"})
			return
		}

		makeParam := strings.ToLower(r.URL.Query().Get("make"))
		modelParam := strings.ToLower(r.URL.Query().Get("model"))
		yearParam, _ := strconv.Atoi(r.URL.Query().Get("year"))

		matched := make([]json.RawMessage, 0, len(results))
		for _, res := range results {
			if makeParam != "" && strings.ToLower(res.probed.MakeName) != makeParam {
				continue
			}
			if modelParam != "" && strings.ToLower(res.probed.ModelName) != modelParam {
				continue
			}
			if yearParam != 0 && res.probed.ModelYear != yearParam {
				continue
			}
			matched = append(matched, res.raw)
		}

		resp := carsDirectResponse{
			Results:  matched,
			Summary:  fixture.Summary,
			Seasonal: fixture.Seasonal,
		}

		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		json.NewEncoder(w).Encode(resp)
		logger.Info("carsdirect search",
			"make", makeParam, "model", modelParam, "year", yearParam, "matched", len(matched))
	}
}

func autoLenderHandler(logger *slog.Logger, fixture *autoLenderResponse) http.HandlerFunc {
	type indexedVehicle struct {
		raw    json.RawMessage
		probed autoLenderVehicle
	}
	vehicles := make([]indexedVehicle, 0, len(fixture.Vehicles))
	for _, raw := range fixture.Vehicles {
		var p autoLenderVehicle
		//nolint:errcheck,gosec // fixture data is trusted; identity extraction is best-effort
		json.Unmarshal(raw, &p)
		vehicles = append(vehicles, indexedVehicle{raw: raw, probed: p})
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			logger.Warn("autolender request missing bearer token")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
			json.NewEncoder(w).Encode(map[string]string{"error": "missing_token"})
			return
		}

		var q autoLenderQuery
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_body"})
			return
		}

		matched := make([]json.RawMessage, 0, len(vehicles))
		for _, v := range vehicles {
			if q.Make != "" && !strings.EqualFold(v.probed.Make, q.Make) {
				continue
			}
			if q.Model != "" && !strings.EqualFold(v.probed.Model, q.Model) {
				continue
			}
			if q.Year != 0 && v.probed.Year != q.Year {
				continue
			}
			matched = append(matched, v.raw)
		}

		resp := autoLenderResponse{
			Vehicles: matched,
			Market:   fixture.Market,
			History:  fixture.History,
		}

		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		json.NewEncoder(w).Encode(resp)
		logger.Info("autolender search",
			"make", q.Make, "model", q.Model, "year", q.Year, "matched", len(matched))
	}
}
