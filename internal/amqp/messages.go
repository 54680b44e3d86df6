package amqp

import (
	"encoding/json"
	"time"
)

const (
	ActionExport = "export"
	ActionRemove = "remove"
)

// BackupMessage asks the backup worker to export or remove a single record.
// It carries only identifiers, the worker fetches the full record from the
// database when exporting.
type BackupMessage struct {
	Action    string    `json:"action"`
	RecordID  string    `json:"record_id"`
	OwnerID   string    `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBackupExportMessage(recordID, ownerID string) *BackupMessage {
	return &BackupMessage{
		Action:    ActionExport,
		RecordID:  recordID,
		OwnerID:   ownerID,
		Timestamp: time.Now(),
	}
}

func NewBackupRemoveMessage(recordID, ownerID string) *BackupMessage {
	return &BackupMessage{
		Action:    ActionRemove,
		RecordID:  recordID,
		OwnerID:   ownerID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BackupMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BackupMessageFromJSON creates a message from JSON bytes
func BackupMessageFromJSON(data []byte) (*BackupMessage, error) {
	var msg BackupMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
