package hub

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Heavenston/headar/pkg/availability"
	"github.com/Heavenston/headar/pkg/label"
	"github.com/Heavenston/headar/pkg/protocol"
	"github.com/Heavenston/headar/pkg/user"
)

// wireRow converts a domain row published on the event bus to its wire form.
func wireRow(v any) (json.RawMessage, error) {
	switch row := v.(type) {
	case user.User:
		return json.Marshal(protocol.UserRow{
			ID:       row.ID,
			Username: row.Username,
			Online:   row.Online,
		})
	case user.Identity:
		return json.Marshal(protocol.UserIdentityRow{
			Identity: row.Identity,
			UserID:   row.UserID,
			Online:   row.Online,
		})
	case availability.Range:
		return json.Marshal(protocol.RangeAvailabilityRow{
			ID:                row.ID,
			CreatorUserID:     row.CreatorUserID,
			AvailabilityLevel: int8(row.Level),
			RangeStart:        row.Start.UTC().Format(time.RFC3339Nano),
			RangeEnd:          row.End.UTC().Format(time.RFC3339Nano),
		})
	case label.Label:
		return json.Marshal(protocol.RangeLabelRow{
			ID:            row.ID,
			CreatorUserID: row.CreatorUserID,
			ColorR:        row.Color.R,
			ColorG:        row.Color.G,
			ColorB:        row.Color.B,
			Title:         row.Title,
			RangeStart:    row.Start.UTC().Format(time.RFC3339Nano),
			RangeEnd:      row.End.UTC().Format(time.RFC3339Nano),
		})
	default:
		return nil, fmt.Errorf("unknown row type %T", v)
	}
}
