package blocktrail

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/blocktrail/blocktrail-go/internal/core"
)

// ErrInvalidInput marks arguments rejected before any request is sent.
var ErrInvalidInput = errors.New("invalid input")

// chainParams returns the btcd parameters for networks that can be checked
// locally, or nil.
func chainParams(network core.Network) *chaincfg.Params {
	if !strings.EqualFold(network.Code, "BTC") {
		return nil
	}
	if network.Testnet {
		return &chaincfg.TestNet3Params
	}
	return &chaincfg.MainNetParams
}

// ValidateAddress checks that address is valid on network. Networks without
// local rules only require a non-empty value.
func ValidateAddress(network core.Network, address string) error {
	address = strings.TrimSpace(address)
	if err := requireValue("address", address); err != nil {
		return err
	}

	params := chainParams(network)
	if params == nil {
		return nil
	}

	decoded, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return fmt.Errorf("%w: address %q: %v", ErrInvalidInput, address, err)
	}
	if !decoded.IsForNet(params) {
		return fmt.Errorf("%w: address %q is not a %s address", ErrInvalidInput, address, network.PathSegment())
	}
	return nil
}

// ValidateHash checks a block or transaction hash.
func ValidateHash(field, hash string) error {
	hash = strings.TrimSpace(hash)
	if err := requireValue(field, hash); err != nil {
		return err
	}
	if len(hash) != chainhash.MaxHashStringSize {
		return fmt.Errorf("%w: %s must be %d hex characters", ErrInvalidInput, field, chainhash.MaxHashStringSize)
	}
	if _, err := chainhash.NewHashFromStr(hash); err != nil {
		return fmt.Errorf("%w: %s %q: %v", ErrInvalidInput, field, hash, err)
	}
	return nil
}

// ValidateBlockRef accepts a block hash or a non-negative height.
func ValidateBlockRef(block string) error {
	block = strings.TrimSpace(block)
	if err := requireValue("block", block); err != nil {
		return err
	}
	if height, err := strconv.ParseInt(block, 10, 64); err == nil {
		if height < 0 {
			return fmt.Errorf("%w: block height must not be negative", ErrInvalidInput)
		}
		return nil
	}
	return ValidateHash("block", block)
}

// isBlockHash reports whether block names a hash rather than a height.
func isBlockHash(block string) bool {
	return len(strings.TrimSpace(block)) == chainhash.MaxHashStringSize
}
