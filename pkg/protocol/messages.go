// Package protocol defines the JSON messages exchanged over the sync
// websocket: client requests (subscribe, reducer calls) and server pushes
// (identity token, change-events, subscription applied).
package protocol

import "encoding/json"

// Client message types.
const (
	ClientSubscribe   = "subscribe"
	ClientCallReducer = "call_reducer"
)

// Server message types.
const (
	ServerIdentityToken       = "identity_token"
	ServerTransactionUpdate   = "transaction_update"
	ServerSubscriptionApplied = "subscription_applied"
)

// Reducer names.
const (
	ReducerCreateUser              = "create_user"
	ReducerDeleteUser              = "delete_user"
	ReducerConnectToClient         = "connect_to_client"
	ReducerDisconnectFromClient    = "disconnect_from_client"
	ReducerRename                  = "rename"
	ReducerCreateAvailabilityRange = "create_availability_range"
	ReducerDeleteAvailabilityRange = "delete_availability_range"
	ReducerCreateRangeLabel        = "create_range_label"
	ReducerDeleteRangeLabel        = "delete_range_label"
)

// ClientMessage is the envelope for everything a client sends after the
// websocket handshake.
type ClientMessage struct {
	Type    string          `json:"type"`
	Reducer string          `json:"reducer,omitempty"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// ServerMessage is the envelope for everything the server pushes.
type ServerMessage struct {
	Type     string        `json:"type"`
	Identity string        `json:"identity,omitempty"`
	Token    string        `json:"token,omitempty"`
	Tables   []TableUpdate `json:"tables,omitempty"`
}

// TableUpdate carries the change-events of one table, in application order.
// Rows are kept raw so the receiver can decode them into the row type matching
// Table.
type TableUpdate struct {
	Table   string            `json:"table"`
	Inserts []json.RawMessage `json:"inserts,omitempty"`
	Updates []RowUpdate       `json:"updates,omitempty"`
	Deletes []json.RawMessage `json:"deletes,omitempty"`
}

// RowUpdate is a full row replacement. Old is informational only: receivers
// must key the update on New's id, never on Old's full value.
type RowUpdate struct {
	Old json.RawMessage `json:"old"`
	New json.RawMessage `json:"new"`
}

// Reducer argument shapes. Dates travel as RFC3339 strings, colors as 0-255
// channel values.

type CreateUserArgs struct {
	Username string `json:"username"`
}

type DeleteUserArgs struct {
	UserID uint32 `json:"userId"`
}

type ConnectToClientArgs struct {
	UserID uint32 `json:"userId"`
}

type RenameArgs struct {
	NewUsername string `json:"newUsername"`
}

type CreateAvailabilityRangeArgs struct {
	RangeStart        string `json:"rangeStart"`
	RangeEnd          string `json:"rangeEnd"`
	AvailabilityLevel int8   `json:"availabilityLevel"`
}

type DeleteAvailabilityRangeArgs struct {
	ID uint32 `json:"id"`
}

type CreateRangeLabelArgs struct {
	Title      string `json:"title"`
	ColorR     uint8  `json:"colorR"`
	ColorG     uint8  `json:"colorG"`
	ColorB     uint8  `json:"colorB"`
	RangeStart string `json:"rangeStart"`
	RangeEnd   string `json:"rangeEnd"`
}

type DeleteRangeLabelArgs struct {
	ID uint32 `json:"id"`
}
