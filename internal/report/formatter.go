package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/chainscope/chainscope/internal/core/domain"
)

// Formatter renders analysis reports as plain text, one block per address.
type Formatter struct{}

func NewFormatter() *Formatter {
	return &Formatter{}
}

// Format renders all reports in input order, separated by blank lines.
func (f *Formatter) Format(reports []domain.Report) string {
	blocks := make([]string, 0, len(reports))
	for _, r := range reports {
		blocks = append(blocks, f.FormatOne(r))
	}
	return strings.Join(blocks, "\n\n")
}

func (f *Formatter) FormatOne(r domain.Report) string {
	switch v := r.(type) {
	case *domain.EvmResult:
		return f.formatEvm(v)
	case *domain.SolanaResult:
		return f.formatSolana(v)
	case *domain.AnalysisError:
		return fmt.Sprintf("⚠️ %s: %s", truncateAddress(v.Address), v.Message)
	default:
		return fmt.Sprintf("⚠️ %s: unsupported report type", truncateAddress(r.ReportAddress()))
	}
}

func (f *Formatter) formatEvm(r *domain.EvmResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔷 Ethereum %s (%s)\n", truncateAddress(r.Address), r.WindowLabel)
	fmt.Fprintf(&b, "Balance: %.4f ETH ($%.2f)\n", r.NativeBalance, r.NativeBalanceUSD)
	fmt.Fprintf(&b, "Net flow: %+.4f ETH ($%.2f)\n", r.NativeNetFlow, r.NativeNetFlowUSD)
	fmt.Fprintf(&b, "Transactions: %d | Token transfers: %d\n", r.TxCount, r.TransferCount)
	fmt.Fprintf(&b, "Active positions: %d\n", r.ActivePositions)
	writeTopPosition(&b, r.MostProfitable)
	writeLastActive(&b, r.LastActive)
	return strings.TrimRight(b.String(), "\n")
}

func (f *Formatter) formatSolana(r *domain.SolanaResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🟣 Solana %s (%s)\n", truncateAddress(r.Address), r.WindowLabel)
	fmt.Fprintf(&b, "Balance: %.4f SOL ($%.2f)\n", r.NativeBalance, r.NativeBalanceUSD)
	fmt.Fprintf(&b, "Transactions: %d\n", r.TxCount)
	if !r.DetailedPnL {
		b.WriteString("Detailed P&L unavailable\n")
		writeLastActive(&b, r.LastActive)
		return strings.TrimRight(b.String(), "\n")
	}
	fmt.Fprintf(&b, "Net flow: %+.4f SOL ($%.2f)\n", r.NativeNetFlow, r.NativeNetFlowUSD)
	fmt.Fprintf(&b, "Swaps: %d | Token transfers: %d\n", r.SwapCount, r.TransferCount)
	fmt.Fprintf(&b, "Active positions: %d\n", r.ActivePositions)
	writeTopPosition(&b, r.MostProfitable)
	writeLastActive(&b, r.LastActive)
	return strings.TrimRight(b.String(), "\n")
}

func writeTopPosition(b *strings.Builder, pos *domain.TokenPosition) {
	if pos == nil {
		return
	}
	symbol := pos.Symbol
	if symbol == "" {
		symbol = truncateAddress(pos.Token)
	}
	fmt.Fprintf(b, "Top token: %s %+.4f (held %dd)\n", symbol, pos.NetProfit(), pos.HoldDays())
}

func writeLastActive(b *strings.Builder, t time.Time) {
	if t.IsZero() {
		return
	}
	fmt.Fprintf(b, "Last active: %s\n", t.UTC().Format("2006-01-02 15:04"))
}

func truncateAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
