package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/blocktrail/blocktrail-go/internal/blocktrail"
	"github.com/blocktrail/blocktrail-go/internal/core"
	apperrors "github.com/blocktrail/blocktrail-go/internal/errors"
	"github.com/blocktrail/blocktrail-go/internal/restclient"
)

// API is the part of the Blocktrail client the gateway relays.
type API interface {
	AddressResponse(ctx context.Context, address string) (*restclient.Response, error)
	AddressTransactionsResponse(ctx context.Context, address string, opts blocktrail.PageOptions) (*restclient.Response, error)
	AddressUnspentOutputsResponse(ctx context.Context, address string, opts blocktrail.PageOptions) (*restclient.Response, error)
	BlockLatestResponse(ctx context.Context) (*restclient.Response, error)
	BlockResponse(ctx context.Context, block string) (*restclient.Response, error)
	TransactionResponse(ctx context.Context, hash string) (*restclient.Response, error)
	PriceResponse(ctx context.Context) (*restclient.Response, error)
}

// QuotaReporter exposes the shared rate window.
type QuotaReporter interface {
	Snapshot(ctx context.Context) (core.RateWindow, error)
	QuotaLimit() int
}

// APIHandler relays read-only lookups through one shared client, so every
// caller of the gateway draws from the same request quota.
type APIHandler struct {
	api    API
	quota  QuotaReporter
	window time.Duration
}

// NewAPIHandler returns a handler for api. quota may be nil.
func NewAPIHandler(api API, quota QuotaReporter, window time.Duration) *APIHandler {
	if window <= 0 {
		window = core.DefaultWindow
	}
	return &APIHandler{api: api, quota: quota, window: window}
}

// Routes mounts the /v1 endpoints on r.
func (h *APIHandler) Routes(r chi.Router) {
	r.Get("/address/{address}", h.Address)
	r.Get("/address/{address}/transactions", h.AddressTransactions)
	r.Get("/address/{address}/unspent-outputs", h.AddressUnspentOutputs)
	r.Get("/block/latest", h.BlockLatest)
	r.Get("/block/{block}", h.Block)
	r.Get("/transaction/{hash}", h.Transaction)
	r.Get("/price", h.Price)
	r.Get("/rate-limit", h.RateLimit)
}

func (h *APIHandler) Address(w http.ResponseWriter, r *http.Request) {
	resp, err := h.api.AddressResponse(r.Context(), chi.URLParam(r, "address"))
	relay(w, r, resp, err)
}

func (h *APIHandler) AddressTransactions(w http.ResponseWriter, r *http.Request) {
	opts, err := pageOptionsFromQuery(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	resp, err := h.api.AddressTransactionsResponse(r.Context(), chi.URLParam(r, "address"), opts)
	relay(w, r, resp, err)
}

func (h *APIHandler) AddressUnspentOutputs(w http.ResponseWriter, r *http.Request) {
	opts, err := pageOptionsFromQuery(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	resp, err := h.api.AddressUnspentOutputsResponse(r.Context(), chi.URLParam(r, "address"), opts)
	relay(w, r, resp, err)
}

func (h *APIHandler) BlockLatest(w http.ResponseWriter, r *http.Request) {
	resp, err := h.api.BlockLatestResponse(r.Context())
	relay(w, r, resp, err)
}

func (h *APIHandler) Block(w http.ResponseWriter, r *http.Request) {
	resp, err := h.api.BlockResponse(r.Context(), chi.URLParam(r, "block"))
	relay(w, r, resp, err)
}

func (h *APIHandler) Transaction(w http.ResponseWriter, r *http.Request) {
	resp, err := h.api.TransactionResponse(r.Context(), chi.URLParam(r, "hash"))
	relay(w, r, resp, err)
}

func (h *APIHandler) Price(w http.ResponseWriter, r *http.Request) {
	resp, err := h.api.PriceResponse(r.Context())
	relay(w, r, resp, err)
}

// RateLimitResponse describes the shared request window.
type RateLimitResponse struct {
	Quota       int       `json:"quota"`
	Used        int       `json:"used"`
	Remaining   int       `json:"remaining"`
	WindowStart time.Time `json:"window_start"`
	ResetsIn    string    `json:"resets_in"`
}

// RateLimit reports the current window without spending quota.
func (h *APIHandler) RateLimit(w http.ResponseWriter, r *http.Request) {
	if h.quota == nil {
		respondWithError(w, r, apperrors.NewUnavailableError("no rate tracker configured"))
		return
	}

	window, err := h.quota.Snapshot(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	limit := h.quota.QuotaLimit()
	remaining := limit - window.Count
	if remaining < 0 {
		remaining = 0
	}
	resetsIn := h.window - window.Elapsed(time.Now().UTC())
	if resetsIn < 0 {
		resetsIn = 0
	}

	writeJSON(w, http.StatusOK, RateLimitResponse{
		Quota:       limit,
		Used:        window.Count,
		Remaining:   remaining,
		WindowStart: window.WindowStart,
		ResetsIn:    resetsIn.Round(time.Second).String(),
	})
}

// relay copies an upstream JSON body to the caller unchanged.
func relay(w http.ResponseWriter, r *http.Request, resp *restclient.Response, err error) {
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp.Body)
}

func pageOptionsFromQuery(r *http.Request) (blocktrail.PageOptions, error) {
	q := r.URL.Query()
	opts := blocktrail.PageOptions{SortDir: core.SortDir(q.Get("sort_dir"))}

	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &opts.Page}, {"limit", &opts.Limit}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return opts, fmt.Errorf("%s %q: %w", p.name, raw, blocktrail.ErrInvalidInput)
		}
		*p.dst = n
	}
	return opts, nil
}
