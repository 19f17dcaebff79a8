package inmemory

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("session not found")

type Storage struct {
	// conns maps connection ID to persistent user ID.
	conns map[string]string

	// rooms maps persistent user ID to the room the user occupies.
	rooms map[string]string

	logger *zap.Logger

	mtx *sync.Mutex
}

func NewStorage(logger *zap.Logger) *Storage {
	return &Storage{
		conns:  make(map[string]string),
		rooms:  make(map[string]string),
		logger: logger,
		mtx:    &sync.Mutex{},
	}
}

func (s *Storage) Bind(connID, userID, roomName string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.conns[connID] = userID
	s.rooms[userID] = roomName
	s.logger.Info("session bound",
		zap.String("connID", connID),
		zap.String("userID", userID),
		zap.String("room", roomName),
	)
	return nil
}

func (s *Storage) Resolve(connID string) (string, string, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	userID, ok := s.conns[connID]
	if !ok {
		s.logger.Debug("connection not found in storage", zap.String("connID", connID))
		return "", "", ErrSessionNotFound
	}
	roomName, ok := s.rooms[userID]
	if !ok {
		return "", "", ErrSessionNotFound
	}
	return userID, roomName, nil
}

// Rebind makes connID the only live connection for userID. Any previous
// connection mapping for that user is removed first, so a burst of rapid
// reconnects converges on the most recent handle.
func (s *Storage) Rebind(userID, connID string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	for c, u := range s.conns {
		if u == userID {
			delete(s.conns, c)
		}
	}
	s.conns[connID] = userID
	s.logger.Info("session rebound",
		zap.String("connID", connID),
		zap.String("userID", userID),
	)
	return nil
}

func (s *Storage) Unbind(connID string) (string, string, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	userID, ok := s.conns[connID]
	if !ok {
		return "", "", ErrSessionNotFound
	}
	delete(s.conns, connID)
	roomName, ok := s.rooms[userID]
	if !ok {
		return "", "", ErrSessionNotFound
	}
	delete(s.rooms, userID)
	s.logger.Info("session unbound",
		zap.String("connID", connID),
		zap.String("userID", userID),
	)
	return userID, roomName, nil
}
