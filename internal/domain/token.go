package domain

// Token describes an ERC-20 token observed during a scan cycle. A Token is
// immutable once fetched; each scan cycle re-fetches its own copies.
type Token struct {
	Address  string
	Symbol   string
	Decimals uint8
	// PriceUSD is nil until the oracle has resolved a price for this token.
	PriceUSD *float64
}

// Priced returns a copy of the token with its USD price set.
func (t Token) Priced(price float64) Token {
	t.PriceUSD = &price
	return t
}

// HasPrice reports whether a USD price has been resolved for this token.
func (t Token) HasPrice() bool {
	return t.PriceUSD != nil
}
