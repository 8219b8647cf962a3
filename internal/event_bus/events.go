package event_bus

// ChangeOp discriminates the three kinds of change-events a table can emit.
type ChangeOp string

const (
	OpInsert ChangeOp = "insert"
	OpUpdate ChangeOp = "update"
	OpDelete ChangeOp = "delete"
)

// TableChanged is published by the domain services for every row mutation, in
// mutation order. Row holds the domain model after the change (or the deleted
// row for OpDelete); Old is only set for OpUpdate and carries the previous
// value.
type TableChanged struct {
	Table string
	Op    ChangeOp
	Row   any
	Old   any
}
