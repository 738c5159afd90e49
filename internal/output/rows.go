package output

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"

	"github.com/blocktrail/blocktrail-go/internal/core"
	"github.com/blocktrail/blocktrail-go/internal/core/store"
)

// styler colours status cells when enabled.
type styler struct {
	good func(a ...interface{}) string
	warn func(a ...interface{}) string
	bad  func(a ...interface{}) string
}

func newStyler(enabled bool) styler {
	if !enabled {
		plain := fmt.Sprint
		return styler{good: plain, warn: plain, bad: plain}
	}
	return styler{
		good: color.New(color.FgGreen).SprintFunc(),
		warn: color.New(color.FgYellow).SprintFunc(),
		bad:  color.New(color.FgRed).SprintFunc(),
	}
}

func (s styler) yesNo(v bool) string {
	if v {
		return s.good("yes")
	}
	return s.bad("no")
}

func (s styler) confirmations(n int64) string {
	if n <= 0 {
		return s.warn("unconfirmed")
	}
	return s.good(strconv.FormatInt(n, 10))
}

// BTC formats a satoshi amount with eight decimals.
func BTC(satoshi int64) string {
	return decimal.New(satoshi, -8).StringFixed(8)
}

// tabulate converts a client result into table sections.
func tabulate(v any, st styler) ([]section, bool) {
	switch x := v.(type) {
	case *core.Address:
		return []section{addressSection(x)}, x != nil
	case *core.Block:
		return []section{blockSection(x, st)}, x != nil
	case *core.Transaction:
		if x == nil {
			return nil, false
		}
		return transactionSections(x, st), true
	case *core.Page[core.Transaction]:
		return pageSection(x, "Transactions", transactionHeader, func(t core.Transaction) table.Row { return transactionRow(t, st) }), x != nil
	case []core.Transaction:
		return listSection("Transactions", transactionHeader, x, func(t core.Transaction) table.Row { return transactionRow(t, st) }), true
	case *core.Page[core.Block]:
		return pageSection(x, "Blocks", blockHeader, func(b core.Block) table.Row { return blockRow(b, st) }), x != nil
	case []core.Block:
		return listSection("Blocks", blockHeader, x, func(b core.Block) table.Row { return blockRow(b, st) }), true
	case *core.Page[core.UnspentOutput]:
		return pageSection(x, "Unspent outputs", utxoHeader, func(u core.UnspentOutput) table.Row { return utxoRow(u, st) }), x != nil
	case []core.UnspentOutput:
		return listSection("Unspent outputs", utxoHeader, x, func(u core.UnspentOutput) table.Row { return utxoRow(u, st) }), true
	case *core.Page[core.Webhook]:
		return pageSection(x, "Webhooks", webhookHeader, webhookRow), x != nil
	case []core.Webhook:
		return listSection("Webhooks", webhookHeader, x, webhookRow), true
	case *core.Webhook:
		if x == nil {
			return nil, false
		}
		return listSection("Webhook", webhookHeader, []core.Webhook{*x}, webhookRow), true
	case *core.Page[core.WebhookEvent]:
		return pageSection(x, "Events", eventHeader, eventRow), x != nil
	case []core.WebhookEvent:
		return listSection("Events", eventHeader, x, eventRow), true
	case *core.WebhookEvent:
		if x == nil {
			return nil, false
		}
		return listSection("Event", eventHeader, []core.WebhookEvent{*x}, eventRow), true
	case core.PriceIndex:
		return []section{priceSection(x)}, true
	case bool:
		return []section{{header: table.Row{"Result"}, rows: []table.Row{{st.yesNo(x)}}}}, true
	case core.Result:
		return []section{{header: table.Row{"Result"}, rows: []table.Row{{st.yesNo(x.Result)}}}}, true
	case []store.CacheEntry:
		return []section{cacheSection(x, st)}, true
	case []store.RateWindowEntry:
		return []section{rateWindowSection(x)}, true
	default:
		return nil, false
	}
}

func fieldRows(pairs ...any) []table.Row {
	rows := make([]table.Row, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		rows = append(rows, table.Row{pairs[i], pairs[i+1]})
	}
	return rows
}

func addressSection(a *core.Address) section {
	if a == nil {
		return section{}
	}
	return section{
		title:  "Address",
		header: table.Row{"Field", "Value"},
		rows: fieldRows(
			"Address", a.Address,
			"Hash160", a.Hash160,
			"Balance (BTC)", BTC(a.Balance),
			"Received (BTC)", BTC(a.Received),
			"Sent (BTC)", BTC(a.Sent),
			"Unconfirmed received (BTC)", BTC(a.Unconfirmed),
			"Transactions", a.TransactionCount,
			"UTXOs", a.UTXOCount,
			"First seen", a.FirstSeen,
			"Last seen", a.LastSeen,
		),
	}
}

func blockSection(b *core.Block, st styler) section {
	if b == nil {
		return section{}
	}
	return section{
		title:  fmt.Sprintf("Block %d", b.Height),
		header: table.Row{"Field", "Value"},
		rows: fieldRows(
			"Hash", b.Hash,
			"Height", b.Height,
			"Time", b.BlockTime,
			"Confirmations", st.confirmations(b.Confirmations),
			"Transactions", b.TransactionCount,
			"Value (BTC)", BTC(b.Value),
			"Size (bytes)", b.ByteSize,
			"Difficulty", strconv.FormatFloat(b.Difficulty, 'f', -1, 64),
			"Merkle root", b.MerkleRoot,
			"Previous", b.PrevBlock,
			"Next", b.NextBlock,
			"Orphan", st.yesNo(b.IsOrphan),
		),
	}
}

func transactionSections(t *core.Transaction, st styler) []section {
	height := "-"
	if t.BlockHeight != nil {
		height = strconv.FormatInt(*t.BlockHeight, 10)
	}

	summary := section{
		title:  "Transaction",
		header: table.Row{"Field", "Value"},
		rows: fieldRows(
			"Hash", t.Hash,
			"Time", t.Time,
			"Confirmations", st.confirmations(t.Confirmations),
			"Block height", height,
			"Block hash", t.BlockHash,
			"Coinbase", st.yesNo(t.IsCoinbase),
			"Input value (BTC)", BTC(t.TotalInputValue),
			"Output value (BTC)", BTC(t.TotalOutputValue),
			"Fee (BTC)", BTC(t.TotalFee),
		),
	}

	inputs := section{title: "Inputs", header: table.Row{"#", "Address", "Value (BTC)", "Prev output"}}
	for _, in := range t.Inputs {
		prev := ""
		if in.OutputHash != "" {
			prev = fmt.Sprintf("%s:%d", in.OutputHash, in.OutputIndex)
		}
		inputs.rows = append(inputs.rows, table.Row{in.Index, in.Address, BTC(in.Value), prev})
	}

	outputs := section{title: "Outputs", header: table.Row{"#", "Address", "Value (BTC)", "Type", "Spent by"}}
	for _, out := range t.Outputs {
		outputs.rows = append(outputs.rows, table.Row{out.Index, out.Address, BTC(out.Value), out.Type, out.SpentHash})
	}

	return []section{summary, inputs, outputs}
}

var (
	transactionHeader = table.Row{"Hash", "Time", "Confirmations", "Value (BTC)", "Fee (BTC)"}
	blockHeader       = table.Row{"Height", "Hash", "Time", "Transactions", "Orphan"}
	utxoHeader        = table.Row{"Hash", "Index", "Value (BTC)", "Confirmations", "Address"}
	webhookHeader     = table.Row{"Identifier", "URL"}
	eventHeader       = table.Row{"Event", "Address", "Transaction", "Confirmations"}
)

func transactionRow(t core.Transaction, st styler) table.Row {
	return table.Row{t.Hash, t.Time, st.confirmations(t.Confirmations), BTC(t.EstimatedValue), BTC(t.TotalFee)}
}

func blockRow(b core.Block, st styler) table.Row {
	return table.Row{b.Height, b.Hash, b.BlockTime, b.TransactionCount, st.yesNo(b.IsOrphan)}
}

func utxoRow(u core.UnspentOutput, st styler) table.Row {
	return table.Row{u.Hash, u.Index, BTC(u.Value), st.confirmations(u.Confirmations), u.Address}
}

func webhookRow(w core.Webhook) table.Row {
	return table.Row{w.Identifier, w.URL}
}

func eventRow(e core.WebhookEvent) table.Row {
	confirmations := ""
	if e.Confirmations > 0 {
		confirmations = strconv.Itoa(e.Confirmations)
	}
	return table.Row{e.EventType, e.Address, e.Transaction, confirmations}
}

func pageSection[T any](p *core.Page[T], title string, header table.Row, row func(T) table.Row) []section {
	if p == nil {
		return nil
	}
	s := listSection(title, header, p.Data, row)[0]

	footer := fmt.Sprintf("page %d, %d shown", p.CurrentPage, len(p.Data))
	if p.Total > 0 {
		footer += fmt.Sprintf(" of %d", p.Total)
	}
	s.footer = make(table.Row, len(header))
	for i := range s.footer {
		s.footer[i] = ""
	}
	s.footer[len(header)-1] = footer
	return []section{s}
}

func listSection[T any](title string, header table.Row, items []T, row func(T) table.Row) []section {
	s := section{title: title, header: header, rows: make([]table.Row, 0, len(items))}
	for _, item := range items {
		s.rows = append(s.rows, row(item))
	}
	return []section{s}
}

func priceSection(index core.PriceIndex) section {
	currencies := make([]string, 0, len(index))
	for currency := range index {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	s := section{title: "Price", header: table.Row{"Currency", "Price"}}
	for _, currency := range currencies {
		s.rows = append(s.rows, table.Row{currency, index[currency].StringFixed(2)})
	}
	return s
}

func cacheSection(entries []store.CacheEntry, st styler) section {
	now := time.Now().UTC()
	s := section{
		title:  "Response cache",
		header: table.Row{"Kind", "Network", "Key", "Fetched", "Expires", "Status"},
	}
	for _, e := range entries {
		status := st.good("fresh")
		if e.Expired(now) {
			status = st.bad("expired")
		}
		s.rows = append(s.rows, table.Row{
			string(e.Kind),
			e.Network,
			e.Key,
			e.FetchedAt.Format(time.RFC3339),
			e.ExpiresAt.Format(time.RFC3339),
			status,
		})
	}
	return s
}

func rateWindowSection(entries []store.RateWindowEntry) section {
	s := section{
		title:  "Rate windows",
		header: table.Row{"Scope", "Requests", "Window start"},
	}
	for _, e := range entries {
		start := "-"
		if !e.Window.WindowStart.IsZero() {
			start = e.Window.WindowStart.Format(time.RFC3339)
		}
		s.rows = append(s.rows, table.Row{e.Scope, e.Window.Count, start})
	}
	return s
}
