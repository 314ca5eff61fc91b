package domain

import "time"

// Op names a synchronizer operation
type Op string

const (
	OpLoad   Op = "load"
	OpAdd    Op = "add"
	OpEdit   Op = "edit"
	OpToggle Op = "toggle"
	OpRemove Op = "remove"
	OpClear  Op = "clear"
)

// Outcome is how an operation settled
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeFailed     Outcome = "failed"
	OutcomeRolledBack Outcome = "rolled_back"
)

// Activity is one settled operation, as kept in the journal
type Activity struct {
	Seq     uint64    `json:"seq"`
	At      time.Time `json:"at"`
	Op      Op        `json:"op"`
	ItemID  string    `json:"item_id,omitempty"`
	Body    string    `json:"body,omitempty"`
	Outcome Outcome   `json:"outcome"`
	Error   string    `json:"error,omitempty"`
}
