package workitems

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/zavahq/pokeroom/internal/cache"
	"github.com/zavahq/pokeroom/internal/room"
)

var (
	ErrItemNotFound = errors.New("work item not found")
	ErrFetchingItem = errors.New("failed to fetch work item")
)

// Client looks up descriptive metadata for a work item identifier.
type Client interface {
	GetWorkItem(ctx context.Context, id string) (*room.WorkItem, error)
}

// HTTPClient fetches work items from the tracker's REST API.
type HTTPClient struct {
	// baseURL is the root of the work-item API.
	baseURL string

	// authHeaderName is the name of the header that carries the API token.
	authHeaderName string

	// authToken is the token sent with every request.
	authToken string

	client *http.Client

	logger *zap.Logger
}

func NewHTTPClient(baseURL, authHeaderName, authToken string, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:        baseURL,
		authHeaderName: authHeaderName,
		authToken:      authToken,
		client:         &http.Client{},
		logger:         logger,
	}
}

func (c *HTTPClient) GetWorkItem(ctx context.Context, id string) (*room.WorkItem, error) {
	// The id comes straight off the wire, so it must be escaped before it
	// can become part of a URL.
	itemURL := c.baseURL + "/workitems/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, itemURL, nil)
	if err != nil {
		c.logger.Debug("Failed to build work item request", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to build work item request: %w", err)
	}
	if c.authToken != "" {
		req.Header.Set(c.authHeaderName, c.authToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("Failed to send work item request", zap.Error(err))
		return nil, fmt.Errorf("failed to send work item request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("item %s: %w", id, ErrItemNotFound)
	default:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, ErrFetchingItem)
	}

	var item room.WorkItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		c.logger.Error("Failed to decode work item response", zap.Error(err))
		return nil, fmt.Errorf("failed to decode work item response: %w", err)
	}

	return &item, nil
}

// CachedClient puts a TTL cache in front of another Client, so that reloads
// of the same item during a session do not hit the tracker again.
type CachedClient struct {
	inner Client
	cache cache.Cache
	ttl   int64

	logger *zap.Logger
}

func NewCachedClient(inner Client, c cache.Cache, ttlSeconds int64, logger *zap.Logger) *CachedClient {
	return &CachedClient{
		inner:  inner,
		cache:  c,
		ttl:    ttlSeconds,
		logger: logger,
	}
}

func (c *CachedClient) GetWorkItem(ctx context.Context, id string) (*room.WorkItem, error) {
	if v, _ := c.cache.Get(id); v != nil {
		if item, ok := v.(*room.WorkItem); ok {
			c.logger.Debug("work item served from cache", zap.String("id", id))
			return item, nil
		}
	}

	item, err := c.inner.GetWorkItem(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = c.cache.SetWithTTL(id, item, c.ttl)
	return item, nil
}
