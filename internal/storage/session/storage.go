package session

const (
	InMemoryStorageType = "in-memory"
)

// Storage maps volatile connection IDs to persistent user IDs, and user IDs
// to the room they currently occupy.
type Storage interface {
	// Bind installs both mappings for a fresh join.
	Bind(connID, userID, roomName string) error

	// Resolve translates a connection ID into the user and room it
	// belongs to.
	Resolve(connID string) (userID, roomName string, err error)

	// Rebind drops any stale connection mapping held by userID and
	// installs connID as the live one. Safe to call repeatedly.
	Rebind(userID, connID string) error

	// Unbind tears down both mappings on disconnect and reports what was
	// removed.
	Unbind(connID string) (userID, roomName string, err error)
}
