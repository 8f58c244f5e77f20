package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// AuditLog is a recorded side-channel event. The engine notifies it on
// postings, period transitions and assignments; it is never read back by the
// core.
type AuditLog struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	EntityID   snowflake.ID `gorm:"not null;index"`
	Actor      string       `gorm:"type:text"`
	Action     string       `gorm:"type:text;not null;index"`
	TargetType string       `gorm:"type:text;not null"`
	TargetID   *string      `gorm:"type:text"`
	Metadata   string       `gorm:"type:text"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }
