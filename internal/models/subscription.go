package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SubscriptionActive    = "active"
	SubscriptionTrialing  = "trialing"
	SubscriptionPastDue   = "past_due"
	SubscriptionSuspended = "suspended"
	SubscriptionCanceled  = "canceled"
)

// ActiveFamilyStatuses are the statuses under which a subscription counts as
// live for entitlement purposes. At most one subscription per (tenant, plugin)
// may be in one of these at a time.
func ActiveFamilyStatuses() []string {
	return []string{SubscriptionActive, SubscriptionTrialing, SubscriptionPastDue}
}

// Subscription is a tenant's billing relationship to a plugin. Suspended
// subscriptions are never deleted; they carry usage history across
// uninstall/reinstall cycles and are restored instead of recreated.
type Subscription struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID  string    `gorm:"size:50;not null;index:idx_subscriptions_tenant_plugin" json:"-"`
	PluginID  uuid.UUID `gorm:"type:uuid;not null;index:idx_subscriptions_tenant_plugin" json:"plugin_id"`
	PlanID    string    `gorm:"size:100;not null" json:"plan_id"`
	Status    string    `gorm:"size:20;not null;default:'active';index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActiveFamily reports whether the subscription is live for entitlement
// purposes.
func (s *Subscription) IsActiveFamily() bool {
	switch s.Status {
	case SubscriptionActive, SubscriptionTrialing, SubscriptionPastDue:
		return true
	}
	return false
}
