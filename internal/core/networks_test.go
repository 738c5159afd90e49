package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFindNetwork(t *testing.T) {
	cases := map[string]string{
		"mainnet": "BTC",
		"BTC":     "BTC",
		"btc":     "BTC",
		"testnet": "tBTC",
		"tBTC":    "tBTC",
		" TBTC ":  "tBTC",
	}
	for input, segment := range cases {
		network, ok := FindNetwork(input)
		require.True(t, ok, input)
		require.Equal(t, segment, network.PathSegment(), input)
	}

	_, ok := FindNetwork("ltc")
	require.False(t, ok)
	_, ok = FindNetwork("")
	require.False(t, ok)
}

func TestRateWindowElapsed(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	window := RateWindow{WindowStart: start, Count: 3}
	require.Equal(t, 10*time.Second, window.Elapsed(start.Add(10*time.Second)))
}

func TestPageHasMore(t *testing.T) {
	page := &Page[int]{Data: []int{1, 2}, CurrentPage: 1, PerPage: 2, Total: 5}
	require.True(t, page.HasMore())

	page = &Page[int]{Data: []int{5}, CurrentPage: 3, PerPage: 2, Total: 5}
	require.False(t, page.HasMore())

	page = &Page[int]{Data: []int{1, 2}, CurrentPage: 1, PerPage: 2}
	require.True(t, page.HasMore())

	var empty *Page[int]
	require.False(t, empty.HasMore())
}
