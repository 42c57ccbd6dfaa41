package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// PercentStaked computes staked/maxStaked as a percentage clamped to [0, 100]
// and rounded to two decimals. ok is false when either operand is missing or
// maxStaked is not positive, in which case nothing must be displayed.
func PercentStaked(staked *uint64, maxStaked *int64) (pct decimal.Decimal, ok bool) {
	if staked == nil || maxStaked == nil || *maxStaked <= 0 {
		return zero, false
	}
	num := decimal.NewFromBigInt(new(big.Int).SetUint64(*staked), 0)
	pct = num.Mul(hundred).Div(decimal.NewFromInt(*maxStaked)).Round(2)
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	if pct.LessThan(zero) {
		pct = zero
	}
	return pct, true
}

// Percent is PercentStaked for a merged pool view.
func (v PoolView) Percent() (decimal.Decimal, bool) {
	n, ok := v.StakedCount()
	if !ok {
		return zero, false
	}
	return PercentStaked(&n, v.Descriptor.MaxStaked)
}

// Listed returns the views shown on the collection listing: every pool not
// marked hidden, in registry order.
func Listed(views []PoolView) []PoolView {
	out := make([]PoolView, 0, len(views))
	for _, v := range views {
		if v.Descriptor.Hidden {
			continue
		}
		out = append(out, v)
	}
	return out
}

// ListedDescriptors is Listed over bare descriptors.
func ListedDescriptors(pools []PoolDescriptor) []PoolDescriptor {
	out := make([]PoolDescriptor, 0, len(pools))
	for _, d := range pools {
		if d.Hidden {
			continue
		}
		out = append(out, d)
	}
	return out
}

// TotalStaked sums the live staked count over views with known state.
// complete is false if at least one view had no state.
func TotalStaked(views []PoolView) (total uint64, complete bool) {
	complete = true
	for _, v := range views {
		n, ok := v.StakedCount()
		if !ok {
			complete = false
			continue
		}
		total += n
	}
	return total, complete
}
