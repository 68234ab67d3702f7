package quest

import (
	"sort"

	"github.com/nathoo/kaiwa/types"
)

func clearedKey(roomID string, t types.Tier) string {
	return roomID + "-" + string(t)
}

// TierIndex returns the position of t in the unlock order, or -1.
func TierIndex(t types.Tier) int {
	for i, tt := range Tiers {
		if tt == t {
			return i
		}
	}
	return -1
}

// ValidTier reports whether t is one of the known tiers.
func ValidTier(t types.Tier) bool {
	return TierIndex(t) >= 0
}

// RecordTierCleared marks roomID's tier as cleared. Idempotent.
func (l *Ledger) RecordTierCleared(roomID string, t types.Tier) {
	l.cleared[clearedKey(roomID, t)] = true
}

// IsTierRecorded reports whether RecordTierCleared was called for the pair.
func (l *Ledger) IsTierRecorded(roomID string, t types.Tier) bool {
	return l.cleared[clearedKey(roomID, t)]
}

// IsTierUnlocked reports whether t may be entered in roomID. The first tier
// is always unlocked; any other tier needs its predecessor cleared.
func (l *Ledger) IsTierUnlocked(roomID string, t types.Tier) bool {
	i := TierIndex(t)
	switch {
	case i < 0:
		return false
	case i == 0:
		return true
	default:
		return l.IsTierRecorded(roomID, Tiers[i-1])
	}
}

// ClearedTiers returns the recorded "room-tier" keys, sorted.
func (l *Ledger) ClearedTiers() []string {
	out := make([]string, 0, len(l.cleared))
	for k := range l.cleared {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
