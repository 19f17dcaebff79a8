package poker

import (
	"errors"

	"go.uber.org/zap"

	"github.com/zavahq/pokeroom/internal/models"
	"github.com/zavahq/pokeroom/internal/room"
	roomStorage "github.com/zavahq/pokeroom/internal/storage/room"
	sessionStorage "github.com/zavahq/pokeroom/internal/storage/session"
)

var ErrNotFound = errors.New("not found")

// Service is the room/session manager behind the websocket transport. It
// resolves connection IDs through the session directory, routes each action
// to the right room aggregate and hands back the views the transport layer
// broadcasts.
//
// Every operation either succeeds with a state change or leaves all state
// untouched and returns an error; lookups that miss return ErrNotFound and
// are meant to be ignored by the caller.
type Service struct {
	rooms    roomStorage.Storage
	sessions sessionStorage.Storage

	logger *zap.Logger
}

func NewService(rooms roomStorage.Storage, sessions sessionStorage.Storage, logger *zap.Logger) *Service {
	return &Service{
		rooms:    rooms,
		sessions: sessions,
		logger:   logger,
	}
}

// JoinResult is what the transport broadcasts after a join.
type JoinResult struct {
	RoomName string
	UserID   string
	UserName string

	// IsAdmin is the caller's admin status after the join, sent back to
	// the caller only.
	IsAdmin bool

	// Rejoined is true when the join was a reconnect of an existing
	// member rather than a fresh membership.
	Rejoined bool

	Snapshot *room.Snapshot
}

// Join puts a user into a room, creating the room on first use. A user ID
// that is already a member of the room is treated as a reconnect: the
// existing record keeps its role, admin flag and in-flight vote, and only
// the connection binding moves to connID.
func (s *Service) Join(connID, roomName, userID, name, roleLabel string) (*JoinResult, error) {
	role, err := models.ParseRole(roleLabel)
	if err != nil {
		return nil, err
	}

	r, err := s.rooms.GetOrCreate(roomName)
	if err != nil {
		return nil, err
	}

	rejoined := true
	if _, err := r.Rebind(userID, connID); err != nil {
		rejoined = false
		r.Join(&models.User{
			ID:     userID,
			ConnID: connID,
			Name:   name,
			Role:   role,
		})
	}

	if rejoined {
		if err := s.sessions.Rebind(userID, connID); err != nil {
			return nil, err
		}
	}
	if err := s.sessions.Bind(connID, userID, roomName); err != nil {
		return nil, err
	}

	s.logger.Info("user joined room",
		zap.String("room", roomName),
		zap.String("userID", userID),
		zap.Bool("rejoined", rejoined),
	)

	return &JoinResult{
		RoomName: roomName,
		UserID:   userID,
		UserName: name,
		IsAdmin:  r.IsAdmin(userID),
		Rejoined: rejoined,
		Snapshot: r.Snapshot(),
	}, nil
}

// LeaveResult describes the aftermath of a departure. Snapshot is nil when
// the departing user was the last member and the room was torn down.
type LeaveResult struct {
	RoomName string
	UserID   string
	UserName string

	// PromotedID is the member who inherited the admin flag, if the
	// departing user held it.
	PromotedID string

	Snapshot *room.Snapshot
}

// Leave handles a disconnect: the session bindings are removed, the user
// leaves the room, and the room itself is deleted the moment it empties.
func (s *Service) Leave(connID string) (*LeaveResult, error) {
	userID, roomName, err := s.sessions.Unbind(connID)
	if err != nil {
		return nil, ErrNotFound
	}

	r, err := s.rooms.Get(roomName)
	if err != nil {
		return nil, ErrNotFound
	}

	removed, promoted, empty := r.Leave(userID)
	if removed == nil {
		return nil, ErrNotFound
	}

	result := &LeaveResult{
		RoomName: roomName,
		UserID:   userID,
		UserName: removed.Name,
	}
	if promoted != nil {
		result.PromotedID = promoted.ID
	}

	if empty {
		if err := s.rooms.Delete(roomName); err != nil {
			return nil, err
		}
		s.logger.Info("room emptied and removed", zap.String("room", roomName))
		return result, nil
	}

	result.Snapshot = r.Snapshot()
	return result, nil
}

// VoteResult carries the completion signal alongside the fresh snapshot.
type VoteResult struct {
	RoomName string
	UserID   string
	UserName string
	AllVoted bool
	Snapshot *room.Snapshot
}

// CastVote records a vote for the caller's current round. Spectators are
// rejected with room.ErrSpectatorVote and nothing changes.
func (s *Service) CastVote(connID, value string) (*VoteResult, error) {
	userID, r, err := s.resolve(connID)
	if err != nil {
		return nil, err
	}

	allVoted, err := r.RecordVote(userID, value)
	if err != nil {
		return nil, err
	}

	member, _ := r.Member(userID)
	return &VoteResult{
		RoomName: r.Name,
		UserID:   userID,
		UserName: member.Name,
		AllVoted: allVoted,
		Snapshot: r.Snapshot(),
	}, nil
}

// Reveal makes the current votes visible in the caller's room.
func (s *Service) Reveal(connID string) (*room.Snapshot, error) {
	_, r, err := s.resolve(connID)
	if err != nil {
		return nil, err
	}
	r.Reveal()
	return r.Snapshot(), nil
}

// Reset clears all votes in the caller's room and starts a new round.
func (s *Service) Reset(connID string) (*room.Snapshot, error) {
	_, r, err := s.resolve(connID)
	if err != nil {
		return nil, err
	}
	r.Reset()
	return r.Snapshot(), nil
}

// ChangeRole switches the caller between voting and spectating.
func (s *Service) ChangeRole(connID, roleLabel string) (*room.Snapshot, error) {
	role, err := models.ParseRole(roleLabel)
	if err != nil {
		return nil, err
	}

	userID, r, err := s.resolve(connID)
	if err != nil {
		return nil, err
	}
	if err := r.ChangeRole(userID, role); err != nil {
		return nil, err
	}
	return r.Snapshot(), nil
}

// TransferAdmin hands the caller's admin flag to a spectator member.
func (s *Service) TransferAdmin(connID, targetID string) (*room.Snapshot, error) {
	userID, r, err := s.resolve(connID)
	if err != nil {
		return nil, err
	}
	if err := r.TransferAdmin(userID, targetID); err != nil {
		return nil, err
	}
	return r.Snapshot(), nil
}

// SetScale switches the room's vote scale, which starts a fresh round.
func (s *Service) SetScale(connID, scale string) (*room.Snapshot, error) {
	_, r, err := s.resolve(connID)
	if err != nil {
		return nil, err
	}
	r.SetScale(scale)
	return r.Snapshot(), nil
}

// LoadItem attaches a work item to the caller's room and starts a fresh
// round. Fetching the item is the transport layer's job.
func (s *Service) LoadItem(connID string, item *room.WorkItem) (*room.Snapshot, error) {
	_, r, err := s.resolve(connID)
	if err != nil {
		return nil, err
	}
	r.SetItem(item)
	return r.Snapshot(), nil
}

// RoomSnapshot is a read-only view of a room by name.
func (s *Service) RoomSnapshot(roomName string) (*room.Snapshot, error) {
	r, err := s.rooms.Get(roomName)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.Snapshot(), nil
}

// RoomConnIDs lists the live connection IDs of a room's members, for the
// transport layer's broadcast fan-out.
func (s *Service) RoomConnIDs(roomName string) ([]string, error) {
	r, err := s.rooms.Get(roomName)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.ConnIDs(), nil
}

// MemberConnID returns the live connection ID of one room member, for
// caller-directed signals.
func (s *Service) MemberConnID(roomName, userID string) (string, error) {
	r, err := s.rooms.Get(roomName)
	if err != nil {
		return "", ErrNotFound
	}
	connID, ok := r.MemberConnID(userID)
	if !ok {
		return "", ErrNotFound
	}
	return connID, nil
}

func (s *Service) resolve(connID string) (string, *room.Room, error) {
	userID, roomName, err := s.sessions.Resolve(connID)
	if err != nil {
		return "", nil, ErrNotFound
	}
	r, err := s.rooms.Get(roomName)
	if err != nil {
		return "", nil, ErrNotFound
	}
	return userID, r, nil
}
