package room

import (
	"errors"
	"sync"

	"github.com/zavahq/pokeroom/internal/models"
)

var (
	ErrUserNotInRoom  = errors.New("user not in room")
	ErrSpectatorVote  = errors.New("spectators cannot vote")
	ErrTransferDenied = errors.New("admin transfer denied")
)

// WorkItem is the descriptive record of the backlog item currently under
// estimation. The room stores it only so that late joiners receive it in the
// snapshot; fetching is done elsewhere.
type WorkItem struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Room is a named estimation session. It owns the membership set, the
// reveal flag and the "exactly one admin when non-empty" invariant.
//
// All mutating methods serialize on the room's own mutex, so operations on
// different rooms never contend with each other.
type Room struct {
	// Name is the unique identifier of the room.
	Name string

	// users is the membership set, keyed by persistent user ID.
	users map[string]*models.User

	// revealed gates vote visibility in snapshots.
	revealed bool

	// scale is the vote scale currently in use. Opaque to the room.
	scale string

	// item is the work item currently under estimation, if any.
	item *WorkItem

	mtx *sync.Mutex
}

// NewRoom creates a new room in the Open state.
func NewRoom(name string) *Room {
	return &Room{
		Name:  name,
		users: make(map[string]*models.User),
		mtx:   &sync.Mutex{},
	}
}

// Join adds a user to the room. The first member of an empty room becomes
// the admin. If a user with the same persistent ID is already a member, the
// existing record is preserved and returned unchanged; reconnects must go
// through Rebind instead of replacing the record.
func (r *Room) Join(newUser *models.User) *models.User {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if existing, ok := r.users[newUser.ID]; ok {
		return existing
	}

	if len(r.users) == 0 {
		newUser.IsAdmin = true
	} else {
		newUser.IsAdmin = false
	}
	r.users[newUser.ID] = newUser
	return newUser
}

// Rebind points an existing member at a new connection, preserving role,
// admin flag and any in-flight vote.
func (r *Room) Rebind(userID, connID string) (*models.User, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return nil, ErrUserNotInRoom
	}
	u.ConnID = connID
	return u, nil
}

// Leave removes a user from the room. When the departing user held the
// admin flag and members remain, exactly one of them is promoted:
// spectators are preferred, otherwise the first remaining member by
// iteration. The second return value is the promoted user, if any; the
// third reports whether the room is now empty and must be torn down.
func (r *Room) Leave(userID string) (*models.User, *models.User, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return nil, nil, len(r.users) == 0
	}
	delete(r.users, userID)

	if len(r.users) == 0 {
		return u, nil, true
	}

	var promoted *models.User
	if u.IsAdmin {
		promoted = r.nextAdmin()
		promoted.IsAdmin = true
	}
	return u, promoted, false
}

// nextAdmin picks the promotion candidate: first spectator found, otherwise
// an arbitrary member. Caller holds the lock and guarantees the room is
// non-empty.
func (r *Room) nextAdmin() *models.User {
	var first *models.User
	for _, u := range r.users {
		if u.Role == models.RoleSpectator {
			return u
		}
		if first == nil {
			first = u
		}
	}
	return first
}

// RecordVote stores a vote for the current round, last write wins. It
// reports whether every voting member has now voted; the check re-walks the
// full membership so role changes are reflected automatically.
func (r *Room) RecordVote(userID, value string) (bool, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return false, ErrUserNotInRoom
	}
	if u.Role == models.RoleSpectator {
		return false, ErrSpectatorVote
	}
	u.SetVote(value)

	return r.allVoted(), nil
}

// allVoted is true when every non-spectator member has a vote. Caller holds
// the lock.
func (r *Room) allVoted() bool {
	for _, u := range r.users {
		if u.Role == models.RoleSpectator {
			continue
		}
		if _, ok := u.Vote(); !ok {
			return false
		}
	}
	return true
}

// Reveal makes the current votes visible. Idempotent.
func (r *Room) Reveal() {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.revealed = true
}

// Reset clears every member's vote and returns the room to the Open state,
// regardless of whether votes were revealed. Idempotent.
func (r *Room) Reset() {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.reset()
}

func (r *Room) reset() {
	r.revealed = false
	for _, u := range r.users {
		u.ClearVote()
	}
}

// ChangeRole updates a member's role. A member demoted to spectator cannot
// keep a stale vote, so it is cleared.
func (r *Room) ChangeRole(userID string, role models.Role) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return ErrUserNotInRoom
	}
	u.Role = role
	if role == models.RoleSpectator {
		u.ClearVote()
	}
	return nil
}

// TransferAdmin hands the admin flag from caller to target. It succeeds
// only when the caller currently holds the flag and the target is a
// spectator; on failure neither flag changes. Both flags flip under the
// lock, so no snapshot can observe zero or two admins.
func (r *Room) TransferAdmin(callerID, targetID string) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	caller, ok := r.users[callerID]
	if !ok {
		return ErrUserNotInRoom
	}
	target, ok := r.users[targetID]
	if !ok {
		return ErrUserNotInRoom
	}
	if !caller.IsAdmin || target.Role != models.RoleSpectator {
		return ErrTransferDenied
	}

	caller.IsAdmin = false
	target.IsAdmin = true
	return nil
}

// SetScale switches the vote scale and starts a fresh round.
func (r *Room) SetScale(scale string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.scale = scale
	r.reset()
}

// SetItem loads a new work item for estimation and starts a fresh round.
func (r *Room) SetItem(item *WorkItem) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.item = item
	r.reset()
}

// Member is one entry of a broadcast snapshot. Vote is nil until the room
// is revealed, even when HasVoted is true.
type Member struct {
	UserID   string  `json:"user_id"`
	Name     string  `json:"name"`
	Role     string  `json:"role"`
	IsAdmin  bool    `json:"is_admin"`
	HasVoted bool    `json:"has_voted"`
	Vote     *string `json:"vote"`
}

// Snapshot is a consistent view of the room, suitable for broadcast.
type Snapshot struct {
	Name     string    `json:"name"`
	Revealed bool      `json:"revealed"`
	Scale    string    `json:"scale,omitempty"`
	Item     *WorkItem `json:"item,omitempty"`
	Members  []Member  `json:"members"`
}

// Snapshot builds a broadcast view of the room under the lock, so it always
// observes a fully applied mutation.
func (r *Room) Snapshot() *Snapshot {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	members := make([]Member, 0, len(r.users))
	for _, u := range r.users {
		value, hasVoted := u.Vote()
		m := Member{
			UserID:   u.ID,
			Name:     u.Name,
			Role:     string(u.Role),
			IsAdmin:  u.IsAdmin,
			HasVoted: hasVoted,
		}
		if r.revealed && hasVoted {
			v := value
			m.Vote = &v
		}
		members = append(members, m)
	}

	return &Snapshot{
		Name:     r.Name,
		Revealed: r.revealed,
		Scale:    r.scale,
		Item:     r.item,
		Members:  members,
	}
}

// Member returns the snapshot entry of a single member, gated the same way
// as Snapshot.
func (r *Room) Member(userID string) (Member, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return Member{}, false
	}
	value, hasVoted := u.Vote()
	m := Member{
		UserID:   u.ID,
		Name:     u.Name,
		Role:     string(u.Role),
		IsAdmin:  u.IsAdmin,
		HasVoted: hasVoted,
	}
	if r.revealed && hasVoted {
		v := value
		m.Vote = &v
	}
	return m, true
}

// ConnIDs lists the live connection IDs of all members, for broadcast
// fan-out.
func (r *Room) ConnIDs() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	ids := make([]string, 0, len(r.users))
	for _, u := range r.users {
		ids = append(ids, u.ConnID)
	}
	return ids
}

// MemberConnID returns the live connection ID of a single member.
func (r *Room) MemberConnID(userID string) (string, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return "", false
	}
	return u.ConnID, true
}

// IsAdmin reports whether the given member currently holds the admin flag.
func (r *Room) IsAdmin(userID string) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	u, ok := r.users[userID]
	return ok && u.IsAdmin
}

// Len is the current number of members.
func (r *Room) Len() int {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return len(r.users)
}
