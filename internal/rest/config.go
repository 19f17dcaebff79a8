package rest

import (
	"go.uber.org/zap"
)

type Config struct {
	// Port is the port where the server will listen
	Port int

	// RoomsStorageType selects the rooms storage backend
	RoomsStorageType string

	// SessionsStorageType selects the sessions storage backend
	SessionsStorageType string

	// CacheType selects the work-item cache backend
	CacheType string

	// CacheTTL is how long fetched work items stay cached, in seconds
	CacheTTL int64

	// WorkItemsURL is the base URL of the work-item tracker API
	WorkItemsURL string

	// WorkItemsAuthHeaderName is the header that carries the tracker token
	WorkItemsAuthHeaderName string

	// WorkItemsAuthToken is the token sent to the tracker
	WorkItemsAuthToken string

	Logger *zap.Logger
}
