// internal/models/enums.go
package models

// Role is the secret role dealt to a seat.
type Role string

const (
	RoleCitizen Role = "Citizen"
	RoleSheriff Role = "Sheriff"
	RoleMafia   Role = "Mafia"
	RoleDon     Role = "Don"
)

// Valid reports whether r is one of the four dealt roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleSheriff, RoleMafia, RoleDon:
		return true
	}
	return false
}

// IsMafia reports whether the role belongs to the mafia faction (mafia + don).
func (r Role) IsMafia() bool {
	return r == RoleMafia || r == RoleDon
}

// GameState is the lifecycle state of a game.
type GameState string

const (
	StateDraft    GameState = "draft"
	StateLive     GameState = "live"
	StateFinished GameState = "finished"
	StateAborted  GameState = "aborted"
)

func (s GameState) Valid() bool {
	switch s {
	case StateDraft, StateLive, StateFinished, StateAborted:
		return true
	}
	return false
}

// Terminal reports whether no lifecycle transition leaves s.
func (s GameState) Terminal() bool {
	return s == StateFinished || s == StateAborted
}

// Condition is an outcome fact a RuleItem can score.
type Condition string

const (
	CityWin                  Condition = "CITY_WIN"
	MafiaWin                 Condition = "MAFIA_WIN"
	FirstNightKilled         Condition = "FIRST_NIGHT_KILLED"
	BestMoveGuessDuo         Condition = "BEST_MOVE_GUESS_DUO"
	BestMoveGuessTrio        Condition = "BEST_MOVE_GUESS_TRIO"
	BestMoveGuessDuoSheriff  Condition = "BEST_MOVE_GUESS_DUO_SHERIFF"
	BestMoveGuessTrioSheriff Condition = "BEST_MOVE_GUESS_TRIO_SHERIFF"
)

// Conditions lists every known condition in declaration order.
var Conditions = []Condition{
	CityWin,
	MafiaWin,
	FirstNightKilled,
	BestMoveGuessDuo,
	BestMoveGuessTrio,
	BestMoveGuessDuoSheriff,
	BestMoveGuessTrioSheriff,
}

func (c Condition) Valid() bool {
	for _, k := range Conditions {
		if c == k {
			return true
		}
	}
	return false
}

// IsWin reports whether c describes which faction won. Win conditions apply to
// every seat; all other conditions apply only to seats named in the outcome facts.
func (c Condition) IsWin() bool {
	return c == CityWin || c == MafiaWin
}

// UserRole is the permission role carried by an authenticated actor.
type UserRole string

const (
	UserOrganizer UserRole = "organizer"
	UserGM        UserRole = "gm"
	UserPlayer    UserRole = "player"
)
