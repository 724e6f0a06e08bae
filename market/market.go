package market

// Instruction is the brokerage order instruction for a single order leg.
type Instruction string

const (
	Buy         Instruction = "BUY"
	Sell        Instruction = "SELL"
	BuyToOpen   Instruction = "BUY_TO_OPEN"
	BuyToClose  Instruction = "BUY_TO_CLOSE"
	SellToOpen  Instruction = "SELL_TO_OPEN"
	SellToClose Instruction = "SELL_TO_CLOSE"
	BuyToCover  Instruction = "BUY_TO_COVER"
	SellShort   Instruction = "SELL_SHORT"
)

// IsClose reports whether the instruction flattens an existing position.
func (i Instruction) IsClose() bool {
	return i == BuyToClose || i == SellToClose || i == BuyToCover
}

type AssetType string

const (
	Equity         AssetType = "EQUITY"
	Option         AssetType = "OPTION"
	Index          AssetType = "INDEX"
	MutualFund     AssetType = "MUTUAL_FUND"
	CashEquivalent AssetType = "CASH_EQUIVALENT"
	FixedIncome    AssetType = "FIXED_INCOME"
	Currency       AssetType = "CURRENCY"
)

// Position is the directional state of a strategy.
// Quantity is tracked separately and is always a magnitude; a short 50
// is stored as (Short, 50), never as -50.
type Position string

const (
	None  Position = "NONE"
	Long  Position = "LONG"
	Short Position = "SHORT"
)

func (p Position) Open() bool {
	return p == Long || p == Short
}
