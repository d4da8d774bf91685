package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	BillingEventCreated       = "subscription.created"
	BillingEventStatusChanged = "subscription.status_changed"
)

// BillingEvent is the append-only audit trail of the billing ledger. Written on
// every subscription mutation, read by ops tooling, never by the engine.
type BillingEvent struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID       string         `gorm:"size:50;not null;index" json:"-"`
	SubscriptionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"subscription_id"`
	Type           string         `gorm:"size:50;not null" json:"type"`
	FromStatus     string         `gorm:"size:20" json:"from_status,omitempty"`
	ToStatus       string         `gorm:"size:20" json:"to_status,omitempty"`
	Metadata       datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt      time.Time      `json:"created_at"`
}
