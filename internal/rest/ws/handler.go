package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zavahq/pokeroom/internal/poker"
	"github.com/zavahq/pokeroom/internal/room"
	"github.com/zavahq/pokeroom/internal/workitems"
)

var ErrInvalidMessage = errors.New("invalid message")

const (
	EventJoin          = "join"
	EventVote          = "vote"
	EventReveal        = "reveal"
	EventReset         = "reset"
	EventChangeRole    = "changeRole"
	EventTransferAdmin = "transferAdmin"
	EventLoadItem      = "loadItem"
	EventSetScale      = "setScale"

	EventUserList       = "userList"
	EventUserVoted      = "userVoted"
	EventAllVoted       = "allVoted"
	EventVotesRevealed  = "votesRevealed"
	EventVotesReset     = "votesReset"
	EventAdminStatus    = "adminStatus"
	EventItemLoaded     = "itemLoaded"
	EventScaleChanged   = "scaleChanged"
	EventActionRejected = "actionRejected"
)

// connection wraps a websocket with a write lock, since broadcasts for the
// same socket can originate from different members' read loops.
type connection struct {
	conn *websocket.Conn
	mtx  sync.Mutex
}

func (c *connection) writeJSON(v interface{}) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.conn.WriteJSON(v)
}

type WebSocketHandler struct {
	// upgrader is used to upgrade the HTTP connection to a WebSocket connection
	upgrader *websocket.Upgrader

	// service is the room/session manager all actions are routed through
	service *poker.Service

	// items resolves work-item identifiers to descriptive metadata
	items workitems.Client

	// conns maps connection IDs to live sockets
	conns map[string]*connection
	mtx   sync.Mutex

	logger *zap.Logger
}

func NewWebSocketHandler(
	service *poker.Service,
	items workitems.Client,
	logger *zap.Logger,
) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: &websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		service: service,
		items:   items,
		conns:   make(map[string]*connection),
		logger:  logger,
	}
}

func (ws *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	ws.addConn(connID, conn)
	ws.logger.Info("Connection upgraded successfully", zap.String("connID", connID))

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil || mt == websocket.CloseMessage {
			ws.handleDisconnect(connID)
			ws.removeConn(connID)
			ws.logger.Info("Connection closed", zap.String("connID", connID))
			break
		}

		// Messages from one connection are applied in arrival order.
		ws.messageHandler(connID, msg)
	}
}

func (ws *WebSocketHandler) messageHandler(connID string, msg []byte) {
	message, err := messageDefiner(msg)
	if err != nil {
		ws.logger.Debug("Failed to define message", zap.Error(err))
		return
	}

	switch v := message.(type) {
	case MessageJoinRequest:
		ws.handleJoin(connID, v)
	case MessageVoteRequest:
		ws.handleVote(connID, v)
	case MessageChangeRoleRequest:
		ws.handleChangeRole(connID, v)
	case MessageTransferAdminRequest:
		ws.handleTransferAdmin(connID, v)
	case MessageLoadItemRequest:
		ws.handleLoadItem(connID, v)
	case MessageSetScaleRequest:
		ws.handleSetScale(connID, v)
	case Message:
		switch v.Event {
		case EventReveal:
			ws.handleReveal(connID)
		case EventReset:
			ws.handleReset(connID)
		}
	}
}

func (ws *WebSocketHandler) handleJoin(connID string, request MessageJoinRequest) {
	result, err := ws.service.Join(connID, request.Room, request.UserID, request.Name, request.Role)
	if err != nil {
		ws.sendRejected(connID, "invalid join request")
		return
	}

	ws.broadcastUserList(result.RoomName, result.Snapshot)
	ws.sendTo(connID, MessageAdminStatusResponse{
		Message: Message{Event: EventAdminStatus},
		Room:    result.RoomName,
		IsAdmin: result.IsAdmin,
	})
	ws.logger.Info("User joined",
		zap.String("room", result.RoomName),
		zap.String("userID", result.UserID),
		zap.Bool("rejoined", result.Rejoined),
	)
}

func (ws *WebSocketHandler) handleVote(connID string, request MessageVoteRequest) {
	result, err := ws.service.CastVote(connID, request.Value)
	if err != nil {
		if errors.Is(err, room.ErrSpectatorVote) {
			ws.sendRejected(connID, "spectators cannot vote")
		}
		return
	}

	ws.broadcast(result.RoomName, MessageUserVotedResponse{
		Message: Message{Event: EventUserVoted},
		Room:    result.RoomName,
		UserID:  result.UserID,
		Name:    result.UserName,
	})
	ws.broadcastUserList(result.RoomName, result.Snapshot)

	if result.AllVoted {
		ws.broadcast(result.RoomName, MessageAllVotedResponse{
			Message: Message{Event: EventAllVoted},
			Room:    result.RoomName,
		})
	}
}

func (ws *WebSocketHandler) handleReveal(connID string) {
	snapshot, err := ws.service.Reveal(connID)
	if err != nil {
		return
	}
	ws.broadcast(snapshot.Name, MessageVotesRevealedResponse{
		Message: Message{Event: EventVotesRevealed},
		Room:    snapshot.Name,
	})
	ws.broadcastUserList(snapshot.Name, snapshot)
}

func (ws *WebSocketHandler) handleReset(connID string) {
	snapshot, err := ws.service.Reset(connID)
	if err != nil {
		return
	}
	ws.broadcast(snapshot.Name, MessageVotesResetResponse{
		Message: Message{Event: EventVotesReset},
		Room:    snapshot.Name,
	})
	ws.broadcastUserList(snapshot.Name, snapshot)
}

func (ws *WebSocketHandler) handleChangeRole(connID string, request MessageChangeRoleRequest) {
	snapshot, err := ws.service.ChangeRole(connID, request.Role)
	if err != nil {
		ws.sendRejected(connID, "invalid role")
		return
	}
	ws.broadcastUserList(snapshot.Name, snapshot)
}

func (ws *WebSocketHandler) handleTransferAdmin(connID string, request MessageTransferAdminRequest) {
	snapshot, err := ws.service.TransferAdmin(connID, request.TargetID)
	if err != nil {
		ws.sendRejected(connID, "admin transfer denied")
		return
	}

	ws.broadcastUserList(snapshot.Name, snapshot)
	ws.sendTo(connID, MessageAdminStatusResponse{
		Message: Message{Event: EventAdminStatus},
		Room:    snapshot.Name,
		IsAdmin: false,
	})
	ws.sendAdminStatus(snapshot.Name, request.TargetID, true)
}

func (ws *WebSocketHandler) handleLoadItem(connID string, request MessageLoadItemRequest) {
	item, err := ws.items.GetWorkItem(context.Background(), request.ItemID)
	if err != nil {
		ws.logger.Error("Failed to fetch work item", zap.String("itemID", request.ItemID), zap.Error(err))
		ws.sendRejected(connID, "work item lookup failed")
		return
	}

	snapshot, err := ws.service.LoadItem(connID, item)
	if err != nil {
		return
	}
	ws.broadcast(snapshot.Name, MessageItemLoadedResponse{
		Message: Message{Event: EventItemLoaded},
		Room:    snapshot.Name,
		Item:    item,
	})
	ws.broadcastUserList(snapshot.Name, snapshot)
}

func (ws *WebSocketHandler) handleSetScale(connID string, request MessageSetScaleRequest) {
	snapshot, err := ws.service.SetScale(connID, request.Scale)
	if err != nil {
		return
	}
	ws.broadcast(snapshot.Name, MessageScaleChangedResponse{
		Message: Message{Event: EventScaleChanged},
		Room:    snapshot.Name,
		Scale:   request.Scale,
	})
	ws.broadcastUserList(snapshot.Name, snapshot)
}

func (ws *WebSocketHandler) handleDisconnect(connID string) {
	result, err := ws.service.Leave(connID)
	if err != nil {
		return
	}

	// Snapshot is nil when the last member left and the room is gone.
	if result.Snapshot == nil {
		return
	}

	ws.broadcastUserList(result.RoomName, result.Snapshot)
	if result.PromotedID != "" {
		ws.sendAdminStatus(result.RoomName, result.PromotedID, true)
	}
}

func (ws *WebSocketHandler) broadcastUserList(roomName string, snapshot *room.Snapshot) {
	ws.broadcast(roomName, MessageUserListResponse{
		Message:  Message{Event: EventUserList},
		Room:     roomName,
		Snapshot: snapshot,
	})
}

func (ws *WebSocketHandler) broadcast(roomName string, v interface{}) {
	connIDs, err := ws.service.RoomConnIDs(roomName)
	if err != nil {
		return
	}
	for _, connID := range connIDs {
		ws.sendTo(connID, v)
	}
}

func (ws *WebSocketHandler) sendAdminStatus(roomName, userID string, isAdmin bool) {
	connID, err := ws.service.MemberConnID(roomName, userID)
	if err != nil {
		return
	}
	ws.sendTo(connID, MessageAdminStatusResponse{
		Message: Message{Event: EventAdminStatus},
		Room:    roomName,
		IsAdmin: isAdmin,
	})
}

func (ws *WebSocketHandler) sendRejected(connID, reason string) {
	ws.sendTo(connID, MessageActionRejectedResponse{
		Message: Message{Event: EventActionRejected},
		Reason:  reason,
	})
}

func (ws *WebSocketHandler) sendTo(connID string, v interface{}) {
	ws.mtx.Lock()
	c, ok := ws.conns[connID]
	ws.mtx.Unlock()
	if !ok {
		return
	}
	if err := c.writeJSON(v); err != nil {
		ws.logger.Debug("Failed to write to connection", zap.String("connID", connID), zap.Error(err))
	}
}

func (ws *WebSocketHandler) addConn(connID string, conn *websocket.Conn) {
	ws.mtx.Lock()
	defer ws.mtx.Unlock()
	ws.conns[connID] = &connection{conn: conn}
}

func (ws *WebSocketHandler) removeConn(connID string) {
	ws.mtx.Lock()
	defer ws.mtx.Unlock()
	delete(ws.conns, connID)
}

func messageDefiner(msg []byte) (interface{}, error) {
	var message Message
	if err := json.Unmarshal(msg, &message); err != nil {
		return nil, ErrInvalidMessage
	}
	switch message.Event {
	case EventJoin:
		var request MessageJoinRequest
		if err := json.Unmarshal(msg, &request); err != nil {
			return nil, fmt.Errorf("error Unmarshaling MessageJoinRequest: %w", err)
		}
		return request, nil
	case EventVote:
		var request MessageVoteRequest
		if err := json.Unmarshal(msg, &request); err != nil {
			return nil, fmt.Errorf("error Unmarshaling MessageVoteRequest: %w", err)
		}
		return request, nil
	case EventChangeRole:
		var request MessageChangeRoleRequest
		if err := json.Unmarshal(msg, &request); err != nil {
			return nil, fmt.Errorf("error Unmarshaling MessageChangeRoleRequest: %w", err)
		}
		return request, nil
	case EventTransferAdmin:
		var request MessageTransferAdminRequest
		if err := json.Unmarshal(msg, &request); err != nil {
			return nil, fmt.Errorf("error Unmarshaling MessageTransferAdminRequest: %w", err)
		}
		return request, nil
	case EventLoadItem:
		var request MessageLoadItemRequest
		if err := json.Unmarshal(msg, &request); err != nil {
			return nil, fmt.Errorf("error Unmarshaling MessageLoadItemRequest: %w", err)
		}
		return request, nil
	case EventSetScale:
		var request MessageSetScaleRequest
		if err := json.Unmarshal(msg, &request); err != nil {
			return nil, fmt.Errorf("error Unmarshaling MessageSetScaleRequest: %w", err)
		}
		return request, nil
	case EventReveal, EventReset:
		return message, nil
	}
	return nil, ErrInvalidMessage
}
