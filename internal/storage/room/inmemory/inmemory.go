package inmemory

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/zavahq/pokeroom/internal/room"
)

var ErrRoomNotFound = errors.New("room not found")

type Storage struct {
	data   map[string]*room.Room
	logger *zap.Logger

	mtx *sync.Mutex
}

func NewStorage(logger *zap.Logger) *Storage {
	return &Storage{
		data:   make(map[string]*room.Room),
		logger: logger,
		mtx:    &sync.Mutex{},
	}
}

// GetOrCreate returns the room registered under name, creating it when
// absent. The check and the insert happen under one lock, so concurrent
// calls with the same name always yield the same instance.
func (s *Storage) GetOrCreate(name string) (*room.Room, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if v, ok := s.data[name]; ok {
		return v, nil
	}
	v := room.NewRoom(name)
	s.data[name] = v
	s.logger.Info("room added to storage", zap.String("name", name))
	return v, nil
}

func (s *Storage) Get(name string) (*room.Room, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	v, ok := s.data[name]
	if !ok {
		s.logger.Debug("room not found in storage", zap.String("name", name))
		return nil, ErrRoomNotFound
	}
	return v, nil
}

func (s *Storage) Delete(name string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	delete(s.data, name)
	s.logger.Info("room deleted from storage", zap.String("name", name))
	return nil
}
