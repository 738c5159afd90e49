package output

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blocktrail/blocktrail-go/internal/core"
	"github.com/blocktrail/blocktrail-go/internal/core/store"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"":         FormatTable,
		"table":    FormatTable,
		"JSON":     FormatJSON,
		"yaml":     FormatYAML,
		"yml":      FormatYAML,
		"markdown": FormatMarkdown,
		"md":       FormatMarkdown,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("csv")
	require.Error(t, err)
}

func TestBTC(t *testing.T) {
	assert.Equal(t, "0.00000000", BTC(0))
	assert.Equal(t, "50.00000000", BTC(5_000_000_000))
	assert.Equal(t, "0.00012345", BTC(12_345))
	assert.Equal(t, "-1.50000000", BTC(-150_000_000))
}

func sampleAddress() *core.Address {
	return &core.Address{
		Address:          "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa",
		Hash160:          "62e907b15cbf27d5425399ebf6f0fb50ebb88f18",
		Balance:          5_000_000_000,
		Received:         5_000_000_000,
		TransactionCount: 1,
		UTXOCount:        1,
	}
}

func TestTableRendersAddress(t *testing.T) {
	rendered, err := Render(FormatTable, sampleAddress())
	require.NoError(t, err)

	assert.Contains(t, rendered, "FIELD")
	assert.Contains(t, rendered, "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa")
	assert.Contains(t, rendered, "50.00000000")
}

func TestTableRendersTransactionSections(t *testing.T) {
	height := int64(170)
	tx := &core.Transaction{
		Hash:          "f4184fc596403b9d638783cf57adfe4c75c605f6356fbc91338530e9831e9e16",
		Confirmations: 600000,
		BlockHeight:   &height,
		Inputs:        []core.TxInput{{Index: 0, OutputHash: "0437cd7f8525ceed2324359c2d0ba26006d92d856a9c20fa0241106ee5a597c9", Value: 5_000_000_000}},
		Outputs: []core.TxOutput{
			{Index: 0, Address: "1Q2TWHE3GMdB6BZKafqwxXtWAWgFt5Jvm3", Value: 1_000_000_000},
			{Index: 1, Address: "12cbQLTFMXRnSzktFkuoG3eHoMeFtpTu3S", Value: 4_000_000_000},
		},
	}

	rendered, err := Render(FormatTable, tx)
	require.NoError(t, err)

	assert.Contains(t, rendered, "Inputs")
	assert.Contains(t, rendered, "Outputs")
	assert.Contains(t, rendered, "0437cd7f8525ceed2324359c2d0ba26006d92d856a9c20fa0241106ee5a597c9:0")
	assert.Contains(t, rendered, "10.00000000")
	assert.Contains(t, rendered, "170")
}

func TestTableMarksUnconfirmed(t *testing.T) {
	page := &core.Page[core.Transaction]{
		Data:        []core.Transaction{{Hash: "aa", Confirmations: 0}, {Hash: "bb", Confirmations: 3}},
		CurrentPage: 1,
		PerPage:     20,
		Total:       2,
	}

	rendered, err := Render(FormatTable, page)
	require.NoError(t, err)
	assert.Contains(t, rendered, "unconfirmed")
	assert.Contains(t, rendered, "page 1, 2 shown of 2")
}

func TestColourOnlyWhenEnabled(t *testing.T) {
	plain, err := NewFormatter(FormatTable, false).Format(true)
	require.NoError(t, err)
	assert.NotContains(t, plain, "\x1b[")
	assert.Contains(t, plain, "yes")
}

func TestPriceIsSortedAndFixed(t *testing.T) {
	index := core.PriceIndex{
		"USD": decimal.RequireFromString("67012.5"),
		"EUR": decimal.RequireFromString("61890.129"),
	}

	rendered, err := Render(FormatTable, index)
	require.NoError(t, err)
	assert.Less(t, strings.Index(rendered, "EUR"), strings.Index(rendered, "USD"))
	assert.Contains(t, rendered, "67012.50")
	assert.Contains(t, rendered, "61890.13")
}

func TestJSONAndYAMLUseAPIFieldNames(t *testing.T) {
	addr := sampleAddress()

	js, err := Render(FormatJSON, addr)
	require.NoError(t, err)
	assert.Contains(t, js, `"transactions": 1`)

	y, err := Render(FormatYAML, addr)
	require.NoError(t, err)
	assert.Contains(t, y, "address: 1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa")
	assert.Contains(t, y, "balance: 5000000000")
	assert.NotContains(t, y, "{")
	assert.Less(t, strings.Index(y, "address:"), strings.Index(y, "hash160:"))
}

func TestMarkdownRendersTitledTables(t *testing.T) {
	rendered, err := Render(FormatMarkdown, []core.Webhook{{Identifier: "hook-1", URL: "https://example.com/hook"}})
	require.NoError(t, err)
	assert.Contains(t, rendered, "### Webhooks")
	assert.Contains(t, rendered, "| hook-1 | https://example.com/hook |")
}

func TestUnknownTypesFallBackToJSON(t *testing.T) {
	rendered, err := Render(FormatTable, map[string]int{"count": 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":3}`, rendered)

	md, err := Render(FormatMarkdown, map[string]int{"count": 3})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(md, "```json"))
}

func TestCacheAndRateWindowTables(t *testing.T) {
	now := time.Now().UTC()
	entries := []store.CacheEntry{
		{Kind: store.CacheKindBlock, Network: "BTC", Key: "abc", FetchedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)},
		{Kind: store.CacheKindTransaction, Network: "BTC", Key: "def", FetchedAt: now, ExpiresAt: now.Add(time.Hour)},
	}
	rendered, err := Render(FormatTable, entries)
	require.NoError(t, err)
	assert.Contains(t, rendered, "expired")
	assert.Contains(t, rendered, "fresh")

	windows := []store.RateWindowEntry{{Scope: "BTC:key", Window: core.RateWindow{Count: 42, WindowStart: now}}}
	rendered, err = Render(FormatTable, windows)
	require.NoError(t, err)
	assert.Contains(t, rendered, "BTC:key")
	assert.Contains(t, rendered, "42")
}
