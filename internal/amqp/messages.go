package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies what a LedgerMessage carries.
type Kind string

const (
	// Commands, consumed by the recurring worker.
	KindMaterializeRequest Kind = "materialize.request"
	KindLedgerChanged      Kind = "ledger.changed"

	// Events, published for whoever binds to them.
	KindSnapshotRefreshed    Kind = "snapshot.refreshed"
	KindExpensesMaterialized Kind = "expenses.materialized"
)

// IsCommand reports whether messages of this kind are routed to the worker queue.
func (k Kind) IsCommand() bool {
	return k == KindMaterializeRequest || k == KindLedgerChanged
}

// RoutingKey is "command.<kind>" or "event.<kind>".
func (k Kind) RoutingKey() string {
	if k.IsCommand() {
		return "command." + string(k)
	}
	return "event." + string(k)
}

// LedgerMessage is the single envelope used on the exchange. Only the fields
// relevant to Kind are set; the consumer reloads everything else from the store.
type LedgerMessage struct {
	Kind           Kind      `json:"kind"`
	Owner          string    `json:"owner"`
	Year           int       `json:"year,omitempty"`
	Month          int       `json:"month,omitempty"`
	Created        int       `json:"created,omitempty"`
	SavingsBalance string    `json:"savings_balance,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewLedgerMessage(kind Kind, owner string) *LedgerMessage {
	return &LedgerMessage{
		Kind:      kind,
		Owner:     owner,
		Timestamp: time.Now(),
	}
}

// WithMonth sets the calendar month the message refers to.
func (m *LedgerMessage) WithMonth(t time.Time) *LedgerMessage {
	m.Year, m.Month = t.Year(), int(t.Month())
	return m
}

func (m *LedgerMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerMessageFromJSON decodes and checks a message body.
func LedgerMessageFromJSON(data []byte) (*LedgerMessage, error) {
	var msg LedgerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Kind == "" {
		return nil, fmt.Errorf("message has no kind")
	}
	if msg.Owner == "" {
		return nil, fmt.Errorf("message has no owner")
	}
	if msg.Month != 0 && (msg.Month < 1 || msg.Month > 12 || msg.Year < 1) {
		return nil, fmt.Errorf("message has invalid month %d-%d", msg.Year, msg.Month)
	}
	return &msg, nil
}
