package ws

import "github.com/zavahq/pokeroom/internal/room"

type Message struct {
	Event string `json:"event"`
}

type MessageJoinRequest struct {
	Message
	Room   string `json:"room"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

type MessageVoteRequest struct {
	Message
	Value string `json:"value"`
}

type MessageChangeRoleRequest struct {
	Message
	Role string `json:"role"`
}

type MessageTransferAdminRequest struct {
	Message
	TargetID string `json:"target_id"`
}

type MessageLoadItemRequest struct {
	Message
	ItemID string `json:"item_id"`
}

type MessageSetScaleRequest struct {
	Message
	Scale string `json:"scale"`
}

type MessageUserListResponse struct {
	Message
	Room     string         `json:"room"`
	Snapshot *room.Snapshot `json:"snapshot"`
}

type MessageUserVotedResponse struct {
	Message
	Room   string `json:"room"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

type MessageAllVotedResponse struct {
	Message
	Room string `json:"room"`
}

type MessageVotesRevealedResponse struct {
	Message
	Room string `json:"room"`
}

type MessageVotesResetResponse struct {
	Message
	Room string `json:"room"`
}

type MessageAdminStatusResponse struct {
	Message
	Room    string `json:"room"`
	IsAdmin bool   `json:"is_admin"`
}

type MessageItemLoadedResponse struct {
	Message
	Room string         `json:"room"`
	Item *room.WorkItem `json:"item"`
}

type MessageScaleChangedResponse struct {
	Message
	Room  string `json:"room"`
	Scale string `json:"scale"`
}

type MessageActionRejectedResponse struct {
	Message
	Reason string `json:"reason"`
}
