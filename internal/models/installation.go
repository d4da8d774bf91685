package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	InstallationActive  = "ACTIVE"
	InstallationTrial   = "TRIAL"
	InstallationExpired = "EXPIRED"
)

// PluginInstallation records a plugin being present on a tenant's account.
// Uninstall soft-deletes the row so reinstall counting and the audit trail in
// ConfigData survive; uniqueness of live rows per (tenant, plugin) is enforced
// by a partial index created in internal/database.
type PluginInstallation struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID       string         `gorm:"size:50;not null;index:idx_installations_tenant_plugin" json:"-"`
	PluginID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_installations_tenant_plugin" json:"plugin_id"`
	Status         string         `gorm:"size:20;not null;default:'ACTIVE'" json:"status"`
	Enabled        bool           `gorm:"not null;default:true" json:"enabled"`
	InstalledAt    time.Time      `gorm:"not null" json:"installed_at"`
	TrialStartDate *time.Time     `json:"trial_start_date,omitempty"`
	TrialEndDate   *time.Time     `json:"trial_end_date,omitempty"`
	ConfigData     datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"config_data"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
