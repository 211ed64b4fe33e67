// Package gasprice holds the typed values returned by the GasPrice.io service
// and the decoders that build them from raw JSON payloads.
package gasprice

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FeeEstimate is the fee quote of a single urgency tier.
type FeeEstimate struct {
	FeeCap         decimal.Decimal `json:"feeCap"`
	MaxPriorityFee decimal.Decimal `json:"maxPriorityFee"`
}

// FeeEstimateSet is a snapshot of the three urgency tiers plus the network base fee.
// EthPrice is nil when the payload did not carry a price; it is then left out of
// the JSON encoding entirely.
type FeeEstimateSet struct {
	Instant  FeeEstimate      `json:"instant"`
	Fast     FeeEstimate      `json:"fast"`
	Eco      FeeEstimate      `json:"eco"`
	BaseFee  decimal.Decimal  `json:"baseFee"`
	EthPrice *decimal.Decimal `json:"ethPrice,omitempty"`
}

// MarshalJSON writes the fees as bare JSON numbers, the shape the service sends.
func (e FeeEstimate) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		FeeCap         number `json:"feeCap"`
		MaxPriorityFee number `json:"maxPriorityFee"`
	}{number(e.FeeCap), number(e.MaxPriorityFee)})
}

// MarshalJSON writes bare JSON numbers and leaves ethPrice out when it is nil.
func (s FeeEstimateSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Instant  FeeEstimate `json:"instant"`
		Fast     FeeEstimate `json:"fast"`
		Eco      FeeEstimate `json:"eco"`
		BaseFee  number      `json:"baseFee"`
		EthPrice *number     `json:"ethPrice,omitempty"`
	}{s.Instant, s.Fast, s.Eco, number(s.BaseFee), (*number)(s.EthPrice)})
}

// HasEthPrice reports whether the snapshot carries an ETH price.
func (s FeeEstimateSet) HasEthPrice() bool {
	return s.EthPrice != nil
}

// Ordered reports whether instant >= fast >= eco on the fee cap. The service is
// trusted on this, so decoders never reject a set that is out of order.
func (s FeeEstimateSet) Ordered() bool {
	return s.Instant.FeeCap.GreaterThanOrEqual(s.Fast.FeeCap) &&
		s.Fast.FeeCap.GreaterThanOrEqual(s.Eco.FeeCap)
}

func (s FeeEstimateSet) String() string {
	return fmt.Sprintf("Instant: %s, Fast: %s, Eco: %s",
		s.Instant.FeeCap.StringFixed(0), s.Fast.FeeCap.StringFixed(0), s.Eco.FeeCap.StringFixed(0))
}

// HistoryRecord is one historical sample.
type HistoryRecord struct {
	// Timestamp is in unix seconds.
	Timestamp int64          `json:"timestamp"`
	Estimates FeeEstimateSet `json:"estimates"`
}

// Time returns the sample time in the local zone.
func (r HistoryRecord) Time() time.Time {
	return time.Unix(r.Timestamp, 0)
}

// TimeIn returns the sample time in loc.
func (r HistoryRecord) TimeIn(loc *time.Location) time.Time {
	return time.Unix(r.Timestamp, 0).In(loc)
}

func (r HistoryRecord) String() string {
	return fmt.Sprintf("%s, base fee %s", r.Time().Format(time.DateTime), r.Estimates.BaseFee.StringFixed(0))
}

// number encodes a decimal as a JSON number instead of a quoted string.
type number decimal.Decimal

func (n number) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(n).String()), nil
}

// Category names a kind of pending transaction in a pool analysis bucket.
type Category string

// Pool analysis categories, as named by the service.
const (
	CategoryTransfer Category = "transfer"
	CategoryToken    Category = "token"
	CategoryDefi     Category = "defi"
	CategoryNFT      Category = "nft"
	CategoryL2       Category = "l2"
	CategoryOther    Category = "other"
)

// Categories lists every category in service order.
var Categories = []Category{
	CategoryTransfer,
	CategoryToken,
	CategoryDefi,
	CategoryNFT,
	CategoryL2,
	CategoryOther,
}

// CategoryBreakdown maps a category to its share. A missing key means the service
// sent no value (or a zero value) for that category.
type CategoryBreakdown map[Category]decimal.Decimal

// Get returns the share of c and whether it is present.
func (b CategoryBreakdown) Get(c Category) (decimal.Decimal, bool) {
	v, ok := b[c]
	return v, ok
}

// PoolAnalysisBucket aggregates pending transactions of one gas price step.
type PoolAnalysisBucket struct {
	// TotalFees is an integer amount in wei, kept as a decimal to avoid overflow.
	TotalFees decimal.Decimal   `json:"totalFees"`
	GasUsed   uint64            `json:"gasUsed"`
	Breakdown CategoryBreakdown `json:"analysis"`
}

// MarshalJSON writes bare JSON numbers for the fee total and every share.
func (b PoolAnalysisBucket) MarshalJSON() ([]byte, error) {
	breakdown := make(map[Category]number, len(b.Breakdown))
	for category, share := range b.Breakdown {
		breakdown[category] = number(share)
	}
	return json.Marshal(struct {
		TotalFees number              `json:"totalFees"`
		GasUsed   uint64              `json:"gasUsed"`
		Breakdown map[Category]number `json:"analysis"`
	}{number(b.TotalFees), b.GasUsed, breakdown})
}

// PoolAnalysis is the transaction pool analysis. Buckets keep the service order
// (ascending gas price step).
type PoolAnalysis struct {
	BaseFee         decimal.Decimal      `json:"baseFee"`
	StepSizeGas     uint64               `json:"stepSizeGas"`
	DesiredBlockGas uint64               `json:"desiredBlockGas"`
	Buckets         []PoolAnalysisBucket `json:"data"`
}

// MarshalJSON writes the base fee as a bare JSON number.
func (a PoolAnalysis) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		BaseFee         number               `json:"baseFee"`
		StepSizeGas     uint64               `json:"stepSizeGas"`
		DesiredBlockGas uint64               `json:"desiredBlockGas"`
		Buckets         []PoolAnalysisBucket `json:"data"`
	}{number(a.BaseFee), a.StepSizeGas, a.DesiredBlockGas, a.Buckets})
}

func (a PoolAnalysis) String() string {
	return fmt.Sprintf("%d buckets, base fee %s", len(a.Buckets), a.BaseFee.StringFixed(0))
}
