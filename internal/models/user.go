package models

import "errors"

var ErrUnknownRole = errors.New("unknown role")

// Role is the participation mode of a user inside a room.
type Role string

const (
	// RoleVoter can cast votes in the current round.
	RoleVoter Role = "voter"

	// RoleSpectator observes the round and never carries a vote.
	RoleSpectator Role = "spectator"
)

// ParseRole maps a wire label to a Role.
func ParseRole(label string) (Role, error) {
	switch Role(label) {
	case RoleVoter:
		return RoleVoter, nil
	case RoleSpectator:
		return RoleSpectator, nil
	default:
		return "", ErrUnknownRole
	}
}

// User is a struct that represents a room member.
//
// The struct itself carries no lock: every field is mutated only while the
// owning room's mutex is held.
type User struct {
	// ID is the persistent identifier of the user. It survives reconnects
	// and is the membership key inside a room.
	ID string

	// ConnID is the volatile identifier of the user's current connection.
	// It is replaced on every reconnect.
	ConnID string

	// Name is the display name of the user.
	Name string

	// Role tells whether the user votes or spectates.
	Role Role

	// IsAdmin marks the single room administrator.
	IsAdmin bool

	vote     string
	hasVoted bool
}

// SetVote records a vote value for the current round, overwriting any
// previous one.
func (u *User) SetVote(value string) {
	u.vote = value
	u.hasVoted = true
}

// ClearVote returns the user to the no-vote state.
func (u *User) ClearVote() {
	u.vote = ""
	u.hasVoted = false
}

// Vote reports the current vote value and whether one has been cast.
func (u *User) Vote() (string, bool) {
	return u.vote, u.hasVoted
}
