package model

const (
	// StandardSlots is the number of questions each team plays in rounds 1-3
	StandardSlots = 3
	// LightningSlots is the number of shared questions in the lightning round
	LightningSlots = 7
)

// LedgerEntry records how a team did on one question slot
type LedgerEntry struct {
	FirstAttemptCorrect *bool `json:"firstAttemptCorrect"` // nil until attempted
	PointsEarned        int   `json:"pointsEarned"`
}

// Ledger is indexed team -> round -> slot-1
type Ledger map[TeamSlot]map[int][]LedgerEntry

// SlotsInRound returns how many ledger slots a round has per team
func SlotsInRound(round int) int {
	switch {
	case round >= FirstStandardRound && round <= LastStandardRound:
		return StandardSlots
	case round == RoundLightning:
		return LightningSlots
	}
	return 0
}

// NewRoundLedger builds the zeroed slot list for one team in one round
func NewRoundLedger(round int) []LedgerEntry {
	return make([]LedgerEntry, SlotsInRound(round))
}

// NewLedger builds an empty ledger covering rounds 1..4 for both teams
func NewLedger() Ledger {
	l := make(Ledger, len(TeamSlots))
	for _, team := range TeamSlots {
		rounds := make(map[int][]LedgerEntry, RoundLightning)
		for r := FirstStandardRound; r <= RoundLightning; r++ {
			rounds[r] = NewRoundLedger(r)
		}
		l[team] = rounds
	}
	return l
}

// Entry returns the slot record, or nil when out of range
func (l Ledger) Entry(team TeamSlot, round, slot int) *LedgerEntry {
	rounds, ok := l[team]
	if !ok {
		return nil
	}
	entries := rounds[round]
	if slot < 1 || slot > len(entries) {
		return nil
	}
	return &entries[slot-1]
}

// ResetRound zeroes both teams' entries for a round
func (l Ledger) ResetRound(round int) {
	for _, team := range TeamSlots {
		if l[team] == nil {
			l[team] = make(map[int][]LedgerEntry)
		}
		l[team][round] = NewRoundLedger(round)
	}
}

// RoundPoints sums the points a team earned in a round
func (l Ledger) RoundPoints(team TeamSlot, round int) int {
	total := 0
	for _, e := range l[team][round] {
		total += e.PointsEarned
	}
	return total
}

// Clone deep-copies the ledger
func (l Ledger) Clone() Ledger {
	if l == nil {
		return nil
	}
	out := make(Ledger, len(l))
	for team, rounds := range l {
		cp := make(map[int][]LedgerEntry, len(rounds))
		for r, entries := range rounds {
			dup := make([]LedgerEntry, len(entries))
			for i, e := range entries {
				dup[i] = e
				if e.FirstAttemptCorrect != nil {
					dup[i].FirstAttemptCorrect = BoolPtr(*e.FirstAttemptCorrect)
				}
			}
			cp[r] = dup
		}
		out[team] = cp
	}
	return out
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}
