package room

import (
	"github.com/zavahq/pokeroom/internal/room"
)

const (
	InMemoryStorageType = "in-memory"
)

type Storage interface {
	GetOrCreate(name string) (*room.Room, error)
	Get(name string) (*room.Room, error)
	Delete(name string) error
}
