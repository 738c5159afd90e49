package core

import (
	"strings"
)

// Network identifies a chain served by the API.
type Network struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Testnet     bool   `json:"testnet"`
	Description string `json:"description,omitempty"`
}

// BuiltInNetworks lists the chains the API serves.
var BuiltInNetworks = []Network{
	{
		Name:        "mainnet",
		Code:        "BTC",
		Description: "Bitcoin main network",
	},
	{
		Name:        "testnet",
		Code:        "BTC",
		Testnet:     true,
		Description: "Bitcoin test network (tBTC)",
	},
}

// PathSegment returns the network part of the endpoint path, "BTC" or "tBTC".
func (n Network) PathSegment() string {
	code := strings.ToUpper(strings.TrimSpace(n.Code))
	if n.Testnet {
		return "t" + code
	}
	return code
}

// FindNetwork resolves a network by name ("mainnet"), code ("BTC") or path
// segment ("tBTC").
func FindNetwork(name string) (*Network, bool) {
	needle := strings.TrimSpace(name)
	if needle == "" {
		return nil, false
	}

	for _, network := range BuiltInNetworks {
		if strings.EqualFold(network.Name, needle) || network.PathSegment() == needle {
			copied := network
			return &copied, true
		}
	}
	if strings.EqualFold(needle, "btc") {
		copied := BuiltInNetworks[0]
		return &copied, true
	}
	if strings.EqualFold(needle, "tbtc") {
		copied := BuiltInNetworks[1]
		return &copied, true
	}

	return nil, false
}
