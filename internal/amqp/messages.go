package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// Reasons carried by LedgerChangedMessage.
const (
	ReasonTransactionCreated = "transaction.created"
	ReasonTransactionUpdated = "transaction.updated"
	ReasonTransactionDeleted = "transaction.deleted"
	ReasonCategoryCreated    = "category.created"
	ReasonCategoryDeleted    = "category.deleted"
	ReasonResync             = "resync"
)

// LedgerChangedMessage tells the mirror worker that a user's ledger changed.
// It carries no ledger data; the worker re-reads the ledger from the database.
type LedgerChangedMessage struct {
	UserID    int64     `json:"user_id"`
	Reason    string    `json:"reason"`
	EntityID  int64     `json:"entity_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(userID int64, reason string, entityID int64) LedgerChangedMessage {
	return LedgerChangedMessage{
		UserID:    userID,
		Reason:    reason,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

func (m LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes and sanity-checks a message body.
func LedgerChangedMessageFromJSON(data []byte) (LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return LedgerChangedMessage{}, err
	}
	if msg.UserID <= 0 {
		return LedgerChangedMessage{}, errors.New("message has no user_id")
	}
	return msg, nil
}
