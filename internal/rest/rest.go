package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zavahq/pokeroom/internal/cache"
	inmemCache "github.com/zavahq/pokeroom/internal/cache/inmemory"
	"github.com/zavahq/pokeroom/internal/poker"
	"github.com/zavahq/pokeroom/internal/rest/ws"
	"github.com/zavahq/pokeroom/internal/storage/room"
	inmemRoom "github.com/zavahq/pokeroom/internal/storage/room/inmemory"
	"github.com/zavahq/pokeroom/internal/storage/session"
	inmemSession "github.com/zavahq/pokeroom/internal/storage/session/inmemory"
	"github.com/zavahq/pokeroom/internal/workitems"
)

type Rest struct {
	config *Config

	server *http.Server
}

func NewRest(config *Config) *Rest {
	return &Rest{
		config: config,
	}
}

func (rest *Rest) Start() {
	router := chi.NewRouter()

	// Define the /ping endpoint
	router.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, err := w.Write([]byte("pong"))
		if err != nil {
			return
		}
	})

	// Define the /ws endpoint
	roomsStorage, sessionsStorage := rest.defineStorage()
	service := poker.NewService(roomsStorage, sessionsStorage, rest.config.Logger)

	itemsClient := workitems.NewCachedClient(
		workitems.NewHTTPClient(
			rest.config.WorkItemsURL,
			rest.config.WorkItemsAuthHeaderName,
			rest.config.WorkItemsAuthToken,
			rest.config.Logger,
		),
		rest.defineCache(),
		rest.config.CacheTTL,
		rest.config.Logger,
	)

	wsServer := ws.NewWebSocketHandler(service, itemsClient, rest.config.Logger)
	router.HandleFunc("/ws", wsServer.Handle)

	rest.server = &http.Server{
		Addr:              ":" + strconv.Itoa(rest.config.Port),
		Handler:           router,
		ReadHeaderTimeout: 0,
	}
	if err := rest.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		rest.config.Logger.Error("server error", zap.Error(err))
		return
	}
}

func (rest *Rest) Stop() {
	if err := rest.server.Shutdown(context.Background()); err != nil {
		rest.config.Logger.Error("server error", zap.Error(err))
	}
}

func (rest *Rest) defineStorage() (room.Storage, session.Storage) {
	var roomsStorage room.Storage
	var sessionsStorage session.Storage

	switch rest.config.RoomsStorageType {
	case room.InMemoryStorageType:
		rest.config.Logger.Info("Using in-memory storage for rooms")
		roomsStorage = inmemRoom.NewStorage(rest.config.Logger)
	default:
		rest.config.Logger.Info("Using in-memory storage for rooms")
		roomsStorage = inmemRoom.NewStorage(rest.config.Logger)
	}
	switch rest.config.SessionsStorageType {
	case session.InMemoryStorageType:
		rest.config.Logger.Info("Using in-memory storage for sessions")
		sessionsStorage = inmemSession.NewStorage(rest.config.Logger)
	default:
		rest.config.Logger.Info("Using in-memory storage for sessions")
		sessionsStorage = inmemSession.NewStorage(rest.config.Logger)
	}

	return roomsStorage, sessionsStorage
}

func (rest *Rest) defineCache() cache.Cache {
	var c cache.Cache

	switch rest.config.CacheType {
	case cache.InMemoryCacheType:
		rest.config.Logger.Info("Using in-memory cache")
		c = inmemCache.NewCache(rest.config.Logger)
	default:
		rest.config.Logger.Info("Using in-memory cache")
		c = inmemCache.NewCache(rest.config.Logger)
	}

	return c
}
