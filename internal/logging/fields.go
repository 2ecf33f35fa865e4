package logging

// Structured log field keys shared across packages.
const (
	FieldGameCode = "game_code"
	FieldPlayerID = "player_id"
	FieldConnID   = "conn_id"
	FieldRole     = "role"
	FieldCommand  = "command"
	FieldEvent    = "event"
	FieldReason   = "reason"
	FieldRound    = "round"
	FieldTeam     = "team"
	FieldCount    = "count"
	FieldPath     = "path"
	FieldMethod   = "method"
	FieldError    = "error"
)
