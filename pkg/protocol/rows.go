package protocol

// Table names as they appear on the wire. Every change-event and snapshot
// message refers to one of these.
const (
	TableUser              = "user"
	TableUserIdentity      = "user_identity"
	TableRangeAvailability = "range_availability"
	TableRangeLabels       = "range_labels"
)

// UserRow is the wire form of one row of the user table.
type UserRow struct {
	ID       uint32 `json:"id"`
	Username string `json:"username"`
	Online   bool   `json:"online"`
}

// UserIdentityRow maps a transport identity to a logical user id.
// UserID 0 means the identity is connected but not signed into a profile.
type UserIdentityRow struct {
	Identity string `json:"identity"`
	UserID   uint32 `json:"userId"`
	Online   bool   `json:"online"`
}

// RangeAvailabilityRow is one availability range. RangeStart and RangeEnd are
// inclusive RFC3339 timestamps with RangeStart <= RangeEnd.
type RangeAvailabilityRow struct {
	ID                uint32 `json:"id"`
	CreatorUserID     uint32 `json:"creatorUserId"`
	AvailabilityLevel int8   `json:"availabilityLevel"`
	RangeStart        string `json:"rangeStart"`
	RangeEnd          string `json:"rangeEnd"`
}

// RangeLabelRow is a titled, colored annotation over a date range.
type RangeLabelRow struct {
	ID            uint32 `json:"id"`
	CreatorUserID uint32 `json:"creatorUserId"`
	ColorR        uint8  `json:"colorR"`
	ColorG        uint8  `json:"colorG"`
	ColorB        uint8  `json:"colorB"`
	Title         string `json:"title"`
	RangeStart    string `json:"rangeStart"`
	RangeEnd      string `json:"rangeEnd"`
}
