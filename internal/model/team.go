package model

// TeamSlot identifies one of the two teams in a session
type TeamSlot string

const (
	NoTeam TeamSlot = ""
	Team1  TeamSlot = "team1"
	Team2  TeamSlot = "team2"
)

// TeamSlots lists both slots in index order
var TeamSlots = [2]TeamSlot{Team1, Team2}

// ParseTeamSlot converts a wire value into a slot
func ParseTeamSlot(s string) (TeamSlot, bool) {
	switch TeamSlot(s) {
	case Team1:
		return Team1, true
	case Team2:
		return Team2, true
	}
	return NoTeam, false
}

// Valid reports whether t names one of the two teams
func (t TeamSlot) Valid() bool {
	return t == Team1 || t == Team2
}

// Index returns the position of the team in Game.Teams, or -1
func (t TeamSlot) Index() int {
	switch t {
	case Team1:
		return 0
	case Team2:
		return 1
	}
	return -1
}

// Other returns the opposing slot
func (t TeamSlot) Other() TeamSlot {
	switch t {
	case Team1:
		return Team2
	case Team2:
		return Team1
	}
	return NoTeam
}

// Team is one side of a session
type Team struct {
	ID                TeamSlot `json:"id"`
	Name              string   `json:"name"`
	Score             int      `json:"score"`             // Cumulative across rounds
	CurrentRoundScore int      `json:"currentRoundScore"` // Reset at round start
	RoundScores       [4]int   `json:"roundScores"`       // Rounds 1..4
	Active            bool     `json:"active"`
	Members           []string `json:"members"` // Player IDs
}

// HasMember reports whether playerID belongs to the team
func (t *Team) HasMember(playerID string) bool {
	for _, id := range t.Members {
		if id == playerID {
			return true
		}
	}
	return false
}

// RemoveMember drops playerID from the member list
func (t *Team) RemoveMember(playerID string) {
	kept := t.Members[:0]
	for _, id := range t.Members {
		if id != playerID {
			kept = append(kept, id)
		}
	}
	t.Members = kept
}
