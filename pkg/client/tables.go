package client

import (
	"encoding/json"

	"github.com/Heavenston/headar/pkg/mirror"
	"github.com/Heavenston/headar/pkg/protocol"
	log "github.com/sirupsen/logrus"
)

// Tables groups the local mirrors of every remote table. They are the sole
// read surface for derived views; only the client's read loop mutates them.
type Tables struct {
	Users              *mirror.Table[uint32, protocol.UserRow]
	Identities         *mirror.Table[string, protocol.UserIdentityRow]
	AvailabilityRanges *mirror.Table[uint32, protocol.RangeAvailabilityRow]
	RangeLabels        *mirror.Table[uint32, protocol.RangeLabelRow]
}

func NewTables() *Tables {
	return &Tables{
		Users: mirror.NewTable(protocol.TableUser,
			func(r protocol.UserRow) uint32 { return r.ID }),
		Identities: mirror.NewTable(protocol.TableUserIdentity,
			func(r protocol.UserIdentityRow) string { return r.Identity }),
		AvailabilityRanges: mirror.NewTable(protocol.TableRangeAvailability,
			func(r protocol.RangeAvailabilityRow) uint32 { return r.ID }),
		RangeLabels: mirror.NewTable(protocol.TableRangeLabels,
			func(r protocol.RangeLabelRow) uint32 { return r.ID }),
	}
}

// Apply routes one table's change-events to its mirror, in event order.
func (t *Tables) Apply(upd protocol.TableUpdate) {
	switch upd.Table {
	case protocol.TableUser:
		applyUpdate(t.Users, upd)
	case protocol.TableUserIdentity:
		applyUpdate(t.Identities, upd)
	case protocol.TableRangeAvailability:
		applyUpdate(t.AvailabilityRanges, upd)
	case protocol.TableRangeLabels:
		applyUpdate(t.RangeLabels, upd)
	default:
		log.Warnf("change-event for unknown table %q", upd.Table)
	}
}

// applyUpdate decodes raw rows and applies them. Rows that fail to decode are
// a transport contract violation; they are logged and skipped rather than
// poisoning the mirror.
func applyUpdate[K comparable, R any](tbl *mirror.Table[K, R], upd protocol.TableUpdate) {
	for _, raw := range upd.Inserts {
		var row R
		if err := json.Unmarshal(raw, &row); err != nil {
			log.Errorf("malformed %s insert: %v", tbl.Name(), err)
			continue
		}
		tbl.ApplyInsert(row)
	}
	for _, change := range upd.Updates {
		var oldRow, newRow R
		if err := json.Unmarshal(change.New, &newRow); err != nil {
			log.Errorf("malformed %s update: %v", tbl.Name(), err)
			continue
		}
		// The old value is informational; a decode failure leaves it zero.
		if len(change.Old) > 0 {
			if err := json.Unmarshal(change.Old, &oldRow); err != nil {
				log.Debugf("malformed %s update old row: %v", tbl.Name(), err)
			}
		}
		tbl.ApplyUpdate(oldRow, newRow)
	}
	for _, raw := range upd.Deletes {
		var row R
		if err := json.Unmarshal(raw, &row); err != nil {
			log.Errorf("malformed %s delete: %v", tbl.Name(), err)
			continue
		}
		tbl.ApplyDelete(row)
	}
}
