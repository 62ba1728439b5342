package domain

// Transaction type values as delivered by the exchange API.
const (
	TxTypeBuy  = "buy"
	TxTypeSell = "sell"
)

// FlatTransaction is one raw exchange record flattened into a fixed column
// set. The source payload nests coin_data and owner sub-objects which may be
// absent, so every field derived from them is a pointer: nil is the explicit
// missing marker. Flattening never drops rows.
type FlatTransaction struct {
	TxUUID    string
	Type      string
	Coin      string
	Amount    *string
	Receive   *string
	Message   *string
	Status    *string
	CreatedAt *string // timestamp text as delivered by the exchange
	UpdatedAt *string
	CoinName  *string // from coin_data
	CoinPrice *string // from coin_data, free-form text ("$12.50")
	OwnerUUID *string // from owner
	Username  *string
	Name      *string
	Surname   *string
	KYC       *string
	AvgRating *string
}

// Transaction is a coerced exchange event. Built from a FlatTransaction by
// the feature aggregator's coercion pass; immutable for the rest of the run.
type Transaction struct {
	TxUUID      string
	Type        string // "buy" | "sell"
	Coin        string
	Amount      float64
	Receive     float64
	Status      string
	CreatedAtMs int64 // Unix timestamp in milliseconds
	UpdatedAtMs int64
	CoinName    string
	CoinPrice   string // raw price text; sanitized by the spread analyzer
	OwnerUUID   string
	Username    string
	Name        string
	Surname     string
	KYC         int
	AvgRating   float64
}
