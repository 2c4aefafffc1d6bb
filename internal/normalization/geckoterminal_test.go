package normalization

import (
	"encoding/json"
	"testing"

	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/upstream"
)

func decodeGecko(t *testing.T, raw string) *upstream.GeckoTokensResponse {
	t.Helper()
	var resp upstream.GeckoTokensResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return &resp
}

const geckoFixture = `{
	"data":[
		{"id":"solana_Tok1","type":"token",
		 "attributes":{"address":"Tok1","name":"Dogwifhat","symbol":"WIF","market_cap_usd":null,"fdv_usd":"2000","total_reserve_in_usd":"300","volume_usd":{"h24":"50"}},
		 "relationships":{"top_pools":{"data":[{"id":"solana_Pool1","type":"pool"}]}}},
		{"id":"solana_Tok2","type":"token",
		 "attributes":{"address":"","name":"Orphan","symbol":"ORP"},
		 "relationships":{"top_pools":{"data":[{"id":"solana_Missing","type":"pool"}]}}},
		{"id":"solana_Tok3","type":"token",
		 "attributes":{"address":"Tok3","name":"","symbol":"X"},
		 "relationships":{"top_pools":{"data":[]}}}
	],
	"included":[
		{"id":"solana_Pool1","type":"pool","attributes":{
			"base_token_price_native_currency":"0.25",
			"reserve_in_usd":"250",
			"volume_usd":{"h1":"4","h24":"40"},
			"price_change_percentage":{"h1":"1.5","h24":"-2"},
			"transactions":{"h1":{"buys":1,"sells":1},"h24":{"buys":10,"sells":5}}
		}}
	]
}`

func TestGeckoTerminalNormalize(t *testing.T) {
	res := NewGeckoTerminalNormalizer(fixedClock).Normalize(decodeGecko(t, geckoFixture))

	if len(res.Tokens) != 1 {
		t.Fatalf("Expected 1 token, got %d", len(res.Tokens))
	}
	tok := res.Tokens[0]
	if tok.Address != "Tok1" || tok.Ticker != "WIF" {
		t.Errorf("Unexpected identity: %+v", tok)
	}
	if tok.Price != 0.25 {
		t.Errorf("Expected native pool price 0.25, got %v", tok.Price)
	}
	if tok.MarketCap != 2000 {
		t.Errorf("Expected fdv fallback 2000, got %v", tok.MarketCap)
	}
	if tok.Liquidity != 300 {
		t.Errorf("Expected token reserve 300, got %v", tok.Liquidity)
	}
	if tok.Volume24h != 50 || tok.Volume1h != 4 {
		t.Errorf("Unexpected volumes: 24h=%v 1h=%v", tok.Volume24h, tok.Volume1h)
	}
	if tok.TxCount1h != 2 || tok.TxCount24h != 15 {
		t.Errorf("Unexpected tx counts: %v %v", tok.TxCount1h, tok.TxCount24h)
	}
	if tok.PriceChange1h != 1.5 || tok.PriceChange24h != -2 {
		t.Errorf("Unexpected price changes: %v %v", tok.PriceChange1h, tok.PriceChange24h)
	}
	if tok.Source != domain.SourceGeckoTerminal {
		t.Errorf("Expected source %q, got %q", domain.SourceGeckoTerminal, tok.Source)
	}

	if len(res.Dropped) != 2 {
		t.Fatalf("Expected 2 drops, got %d", len(res.Dropped))
	}
	// Address falls back to the resource id.
	if res.Dropped[0].Address != "Tok2" || res.Dropped[0].Reason != "no top pool" {
		t.Errorf("Unexpected drop: %+v", res.Dropped[0])
	}
	if res.Dropped[1].Reason != "missing name" {
		t.Errorf("Unexpected drop: %+v", res.Dropped[1])
	}
}
