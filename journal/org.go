package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block. Structured facts
// go in a PROPERTIES drawer; the Review heading is left for notes.
func FormatTradeOrg(t TradeRecord) string {
	heading := fmt.Sprintf("** Trade: %s %s (%s)", t.Symbol, t.Side, shortID(t.TradeID))
	open := t.OpenTime.UTC().Format(time.RFC3339)
	close := t.CloseTime.UTC().Format(time.RFC3339)

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":TRADE_ID: %s\n", t.TradeID))
	b.WriteString(fmt.Sprintf(":SYMBOL: %s\n", t.Symbol))
	b.WriteString(fmt.Sprintf(":SIDE: %s\n", t.Side))
	b.WriteString(fmt.Sprintf(":AMOUNT: %g\n", t.Amount))
	b.WriteString(fmt.Sprintf(":ENTRY_PRICE: %.2f\n", t.EntryPrice))
	b.WriteString(fmt.Sprintf(":EXIT_PRICE: %.2f\n", t.ExitPrice))
	b.WriteString(fmt.Sprintf(":FEES: %.4f\n", t.Fees))
	b.WriteString(fmt.Sprintf(":OPEN_TIME: %s\n", open))
	b.WriteString(fmt.Sprintf(":CLOSE_TIME: %s\n", close))
	b.WriteString(fmt.Sprintf(":REALIZED_PL: %.2f\n", t.RealizedPL))
	b.WriteString(fmt.Sprintf(":MODE: %s\n", t.Mode))
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
