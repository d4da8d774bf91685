package entitlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shoplyne/commerce-backend/internal/models"
)

// InstallResult is the discriminated outcome of Install. Exactly one of the
// following holds: Installation is set (success), or RequiresSubscription is
// true and AvailablePlans carries the catalog (caller-driven continuation, not
// an error).
type InstallResult struct {
	Installation *models.PluginInstallation `json:"installation,omitempty"`
	Subscription *models.Subscription       `json:"subscription,omitempty"`

	// RequiresPayment is true when a new paid subscription was created; false
	// on free installs and on restores of a previously paid subscription.
	RequiresPayment bool `json:"requires_payment"`

	// PreservedUsage is true when this install was a reinstall whose usage
	// history carried over (restored subscription or reused free one).
	PreservedUsage bool `json:"preserved_usage"`

	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"`

	RequiresSubscription bool                      `json:"requires_subscription,omitempty"`
	AvailablePlans       []models.SubscriptionPlan `json:"available_plans,omitempty"`
}

type UninstallResult struct {
	SubscriptionSuspended bool       `json:"subscription_suspended"`
	SubscriptionID        *uuid.UUID `json:"subscription_id,omitempty"`
}

type ToggleResult struct {
	Installation *models.PluginInstallation `json:"installation"`
}

type ConfigureResult struct {
	Installation *models.PluginInstallation `json:"installation"`
}
