package core

import (
	"github.com/shopspring/decimal"
)

// SortDir orders paginated results on time.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// Page is the pagination envelope returned by list endpoints.
type Page[T any] struct {
	Data        []T `json:"data"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// HasMore reports whether another page can be requested after this one.
func (p *Page[T]) HasMore() bool {
	if p == nil || len(p.Data) == 0 {
		return false
	}
	if p.Total > 0 && p.PerPage > 0 {
		return p.CurrentPage*p.PerPage < p.Total
	}
	return p.PerPage > 0 && len(p.Data) >= p.PerPage
}

// Address summarises balances for a single address. Amounts are in satoshi.
type Address struct {
	Address          string `json:"address"`
	Hash160          string `json:"hash160"`
	Balance          int64  `json:"balance"`
	Received         int64  `json:"received"`
	Sent             int64  `json:"sent"`
	TransactionCount int64  `json:"transactions"`
	UTXOCount        int64  `json:"utxos"`
	Unconfirmed      int64  `json:"unconfirmed_received"`
	FirstSeen        string `json:"first_seen,omitempty"`
	LastSeen         string `json:"last_seen,omitempty"`
}

// Block describes a block header and its aggregate values.
type Block struct {
	Hash             string  `json:"hash"`
	Height           int64   `json:"height"`
	BlockTime        string  `json:"block_time"`
	Difficulty       float64 `json:"difficulty"`
	MerkleRoot       string  `json:"merkleroot"`
	IsOrphan         bool    `json:"is_orphan"`
	PrevBlock        string  `json:"prev_block"`
	NextBlock        string  `json:"next_block"`
	ByteSize         int64   `json:"byte_size"`
	Confirmations    int64   `json:"confirmations"`
	TransactionCount int64   `json:"transactions"`
	Value            int64   `json:"value"`
}

// TxInput is a transaction input.
type TxInput struct {
	Index           int    `json:"index"`
	OutputHash      string `json:"output_hash"`
	OutputIndex     int    `json:"output_index"`
	Value           int64  `json:"value"`
	Address         string `json:"address"`
	Type            string `json:"type"`
	ScriptSignature string `json:"script_signature"`
}

// TxOutput is a transaction output.
type TxOutput struct {
	Index      int    `json:"index"`
	Value      int64  `json:"value"`
	Address    string `json:"address"`
	Type       string `json:"type"`
	Script     string `json:"script"`
	ScriptHex  string `json:"script_hex"`
	SpentHash  string `json:"spent_hash,omitempty"`
	SpentIndex int    `json:"spent_index,omitempty"`
}

// Transaction is a single transaction with its inputs and outputs.
type Transaction struct {
	Hash             string     `json:"hash"`
	Time             string     `json:"time"`
	Confirmations    int64      `json:"confirmations"`
	BlockHeight      *int64     `json:"block_height"`
	BlockHash        string     `json:"block_hash"`
	IsCoinbase       bool       `json:"is_coinbase"`
	EstimatedValue   int64      `json:"estimated_value"`
	TotalInputValue  int64      `json:"total_input_value"`
	TotalOutputValue int64      `json:"total_output_value"`
	TotalFee         int64      `json:"total_fee"`
	Inputs           []TxInput  `json:"inputs"`
	Outputs          []TxOutput `json:"outputs"`
}

// Confirmed reports whether the transaction has been mined.
func (t *Transaction) Confirmed() bool {
	return t != nil && t.BlockHeight != nil && t.Confirmations > 0
}

// UnspentOutput is an unspent output owned by an address.
type UnspentOutput struct {
	Hash          string `json:"hash"`
	Time          string `json:"time"`
	Confirmations int64  `json:"confirmations"`
	IsCoinbase    bool   `json:"is_coinbase"`
	Value         int64  `json:"value"`
	Index         int    `json:"index"`
	Address       string `json:"address"`
	Type          string `json:"type"`
	MultiSig      string `json:"multisig,omitempty"`
	Script        string `json:"script"`
	ScriptHex     string `json:"script_hex"`
}

// Webhook is a registered webhook endpoint.
type Webhook struct {
	URL        string `json:"url"`
	Identifier string `json:"identifier"`
}

// Event types accepted by webhook subscriptions.
const (
	EventAddressTransactions = "address-transactions"
	EventBlock               = "block"
	EventTransaction         = "transaction"
)

// WebhookEvent is a subscription attached to a webhook. Fields beyond the
// event type depend on the event and are passed through untouched.
type WebhookEvent struct {
	EventType     string `json:"event_type"`
	Address       string `json:"address,omitempty"`
	Transaction   string `json:"transaction,omitempty"`
	Confirmations int    `json:"confirmations,omitempty"`
}

// PriceIndex maps currency codes to the current price of one coin.
type PriceIndex map[string]decimal.Decimal

// Result wraps the boolean result returned by verify and delete endpoints.
type Result struct {
	Result bool `json:"result"`
}
