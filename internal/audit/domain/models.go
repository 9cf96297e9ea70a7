package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditLog is one gateway mutation recorded for traceability. Reads
// are not audited.
type AuditLog struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Actor     string            `gorm:"index" json:"actor"`
	Action    string            `gorm:"index" json:"action"`
	Document  string            `gorm:"index" json:"document"`
	RecordID  *string           `json:"record_id,omitempty"`
	Status    int               `json:"status"`
	RequestID *string           `json:"request_id,omitempty"`
	Metadata  datatypes.JSONMap `json:"metadata"`
	CreatedAt time.Time         `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
