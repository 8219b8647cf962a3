package client

import (
	"github.com/Heavenston/headar/pkg/availability"
	"github.com/Heavenston/headar/pkg/protocol"
)

// Reducers is the mutation gateway: thin, stateless dispatch of named remote
// operations with fixed argument shapes. Every call is fire-and-forget:
// success is only observable through later change-events on the mirrors, and
// a rejected call is indistinguishable from latency.
type Reducers struct {
	caller *Client
}

func (r Reducers) CreateAvailabilityRange(startISO, endISO string, level availability.Level) error {
	return r.caller.call(protocol.ReducerCreateAvailabilityRange, protocol.CreateAvailabilityRangeArgs{
		RangeStart:        startISO,
		RangeEnd:          endISO,
		AvailabilityLevel: int8(level),
	})
}

func (r Reducers) DeleteAvailabilityRange(id uint32) error {
	return r.caller.call(protocol.ReducerDeleteAvailabilityRange, protocol.DeleteAvailabilityRangeArgs{ID: id})
}

func (r Reducers) CreateRangeLabel(title string, colorR, colorG, colorB uint8, startISO, endISO string) error {
	return r.caller.call(protocol.ReducerCreateRangeLabel, protocol.CreateRangeLabelArgs{
		Title:      title,
		ColorR:     colorR,
		ColorG:     colorG,
		ColorB:     colorB,
		RangeStart: startISO,
		RangeEnd:   endISO,
	})
}

func (r Reducers) DeleteRangeLabel(id uint32) error {
	return r.caller.call(protocol.ReducerDeleteRangeLabel, protocol.DeleteRangeLabelArgs{ID: id})
}

func (r Reducers) CreateUser(username string) error {
	return r.caller.call(protocol.ReducerCreateUser, protocol.CreateUserArgs{Username: username})
}

func (r Reducers) DeleteUser(userID uint32) error {
	return r.caller.call(protocol.ReducerDeleteUser, protocol.DeleteUserArgs{UserID: userID})
}

func (r Reducers) ConnectToClient(userID uint32) error {
	return r.caller.call(protocol.ReducerConnectToClient, protocol.ConnectToClientArgs{UserID: userID})
}

func (r Reducers) DisconnectFromClient() error {
	return r.caller.call(protocol.ReducerDisconnectFromClient, struct{}{})
}

func (r Reducers) Rename(newUsername string) error {
	return r.caller.call(protocol.ReducerRename, protocol.RenameArgs{NewUsername: newUsername})
}
