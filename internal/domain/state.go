package domain

import "time"

// PoolState is the live aggregate state of a stake pool read from the chain.
type PoolState struct {
	TotalStaked uint64    `json:"totalStaked"`
	Found       bool      `json:"found"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// PoolView is a descriptor merged with its live state for one page view.
// State is nil when the live fetch failed or has not completed; views must
// then show a placeholder instead of numbers.
type PoolView struct {
	Descriptor PoolDescriptor `json:"descriptor"`
	State      *PoolState     `json:"state,omitempty"`
}

// StakedCount returns the live staked count, if known.
func (v PoolView) StakedCount() (uint64, bool) {
	if v.State == nil || !v.State.Found {
		return 0, false
	}
	return v.State.TotalStaked, true
}

// StakeEntry is a per-user (or per-mint) stake record.
type StakeEntry struct {
	Address           PublicKey  `json:"address"`
	Pool              PublicKey  `json:"pool"`
	OriginalMint      PublicKey  `json:"originalMint"`
	Amount            uint64     `json:"amount"`
	LastStaker        PublicKey  `json:"lastStaker"`
	LastStakedAt      time.Time  `json:"lastStakedAt"`
	TotalStakeSeconds uint64     `json:"totalStakeSeconds"`
	StakeMint         *PublicKey `json:"stakeMint,omitempty"`
	Staked            bool       `json:"staked"`
}
