package reporting

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"solana-token-feed/internal/domain"
)

var csvHeader = []string{
	"address", "name", "ticker", "price", "market_cap", "liquidity",
	"volume_1h", "volume_24h", "tx_count_1h", "tx_count_24h",
	"price_change_1h", "price_change_24h", "source",
}

// RenderCSV renders records as CSV, one row per record in input order.
func RenderCSV(tokens []*domain.Token) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, t := range tokens {
		if t == nil {
			continue
		}
		row := []string{
			t.Address,
			t.Name,
			t.Ticker,
			formatFloat(t.Price),
			formatFloat(t.MarketCap),
			formatFloat(t.Liquidity),
			formatFloat(t.Volume1h),
			formatFloat(t.Volume24h),
			strconv.FormatInt(t.TxCount1h, 10),
			strconv.FormatInt(t.TxCount24h, 10),
			formatFloat(t.PriceChange1h),
			formatFloat(t.PriceChange24h),
			t.Source,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
