package blocktrail

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestPrice(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"USD":97000.12,"EUR":"90000.50"}`)
	})

	index, err := h.client.Price(context.Background())
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString("97000.12").Equal(index["USD"]))
	require.True(t, decimal.RequireFromString("90000.5").Equal(index["EUR"]))
	require.Equal(t, "/v1/BTC/price", h.Last().Path)
}

func TestVerifyMessage(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"result":true}`)
	})

	ok, err := h.client.VerifyMessage(context.Background(), "hello", genesisAddress, "sig")
	require.NoError(t, err)
	require.True(t, ok)

	last := h.Last()
	require.Equal(t, http.MethodPost, last.Method)
	require.Equal(t, "/v1/BTC/verify_message", last.Path)
	body := decodeBody(t, last.Body)
	require.Equal(t, "hello", body["message"])
	require.Equal(t, genesisAddress, body["address"])
	require.Equal(t, "sig", body["signature"])
}
