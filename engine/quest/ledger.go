// Package quest owns the quest ledger and the difficulty unlock graph.
package quest

import (
	"time"

	"github.com/nathoo/kaiwa/types"
)

// Tiers is the canonical unlock order.
var Tiers = []types.Tier{types.TierEasy, types.TierNormal, types.TierHard, types.TierHell}

// Ledger records per-quest completion and which room tiers were cleared.
type Ledger struct {
	entries  map[string]types.LedgerEntry
	cleared  map[string]bool
	selected types.Tier
	now      func() time.Time
}

// NewLedger creates an empty ledger with the first tier selected.
func NewLedger() *Ledger {
	return &Ledger{
		entries:  map[string]types.LedgerEntry{},
		cleared:  map[string]bool{},
		selected: Tiers[0],
		now:      time.Now,
	}
}

// SetClock replaces the timestamp source used by Complete.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

// InitTier marks every listed quest active and clears its completion time.
// Quests not listed are left as they are. The selected tier is reset to the
// first tier; callers select the entered tier afterwards.
func (l *Ledger) InitTier(questIDs []string) {
	for _, id := range questIDs {
		l.entries[id] = types.LedgerEntry{Status: types.QuestActive}
	}
	l.selected = Tiers[0]
}

// SelectTier sets the selected tier pointer.
func (l *Ledger) SelectTier(t types.Tier) {
	l.selected = t
}

// SelectedTier returns the selected tier pointer.
func (l *Ledger) SelectedTier() types.Tier {
	return l.selected
}

// Complete moves an active quest to completed. Completed quests keep their
// first timestamp. Unknown IDs are ignored. Returns true only on transition.
func (l *Ledger) Complete(questID string) bool {
	e, ok := l.entries[questID]
	if !ok || e.Status == types.QuestCompleted {
		return false
	}
	at := l.now()
	l.entries[questID] = types.LedgerEntry{Status: types.QuestCompleted, CompletedAt: &at}
	return true
}

// Status returns the quest's status and whether it is in the ledger.
func (l *Ledger) Status(questID string) (types.QuestStatus, bool) {
	e, ok := l.entries[questID]
	return e.Status, ok
}

// Entry returns a copy of the quest's ledger record.
func (l *Ledger) Entry(questID string) (types.LedgerEntry, bool) {
	e, ok := l.entries[questID]
	if ok && e.CompletedAt != nil {
		at := *e.CompletedAt
		e.CompletedAt = &at
	}
	return e, ok
}

// IsTierCleared reports whether every listed quest is completed.
// An empty list is never cleared.
func (l *Ledger) IsTierCleared(questIDs []string) bool {
	if len(questIDs) == 0 {
		return false
	}
	for _, id := range questIDs {
		if l.entries[id].Status != types.QuestCompleted {
			return false
		}
	}
	return true
}

// CompletedCount returns how many of the listed quests are completed.
func (l *Ledger) CompletedCount(questIDs []string) int {
	n := 0
	for _, id := range questIDs {
		if l.entries[id].Status == types.QuestCompleted {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of every ledger entry.
func (l *Ledger) Snapshot() map[string]types.LedgerEntry {
	out := make(map[string]types.LedgerEntry, len(l.entries))
	for id := range l.entries {
		out[id], _ = l.Entry(id)
	}
	return out
}

// Restore replaces every ledger entry and the cleared-tier set.
func (l *Ledger) Restore(entries map[string]types.LedgerEntry, cleared []string) {
	l.entries = make(map[string]types.LedgerEntry, len(entries))
	for id, e := range entries {
		if e.CompletedAt != nil {
			at := *e.CompletedAt
			e.CompletedAt = &at
		}
		l.entries[id] = e
	}
	l.cleared = make(map[string]bool, len(cleared))
	for _, k := range cleared {
		l.cleared[k] = true
	}
}
