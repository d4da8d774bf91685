package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PluginStatusActive   = "ACTIVE"
	PluginStatusInactive = "INACTIVE"
)

// PlanFree is the implicit plan backing plugins with no paid plans.
const PlanFree = "free"

// Plugin is a marketplace catalog entry. Created by catalog admins; the
// entitlement engine treats it as read-only apart from the install counter.
type Plugin struct {
	ID           uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Slug         string             `gorm:"size:100;not null;uniqueIndex" json:"slug"`
	Name         string             `gorm:"size:255;not null" json:"name"`
	Description  string             `gorm:"type:text" json:"description"`
	Status       string             `gorm:"size:20;not null;default:'ACTIVE'" json:"status"`
	InstallCount int                `gorm:"not null;default:0" json:"install_count"`
	Plans        []SubscriptionPlan `gorm:"foreignKey:PluginID" json:"plans,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// SubscriptionPlan is a billing plan offered by a plugin. A plan with
// TrialDays > 0 is trial-eligible.
type SubscriptionPlan struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PluginID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_plans_plugin_plan" json:"plugin_id"`
	PlanID    string    `gorm:"size:100;not null;uniqueIndex:idx_plans_plugin_plan" json:"plan_id"`
	Name      string    `gorm:"size:255" json:"name"`
	Amount    int64     `gorm:"not null;default:0" json:"amount"` // smallest currency unit
	Currency  string    `gorm:"size:3;not null;default:'USD'" json:"currency"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	TrialDays int       `gorm:"not null;default:0" json:"trial_days"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
