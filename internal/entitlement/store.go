package entitlement

import (
	"context"

	"github.com/google/uuid"
	"github.com/shoplyne/commerce-backend/internal/models"
)

// SubscriptionFilter narrows FindSubscription. Zero-value fields are ignored.
type SubscriptionFilter struct {
	PlanID   string   // exact match when non-empty
	Statuses []string // any-of when non-empty
}

// Store is the persistence seam of the entitlement engine. Contract for
// implementations:
//
//   - Find* methods return (nil, nil) when no record matches.
//   - FindSubscription returns the most-recently-updated match.
//   - FindInstallation sees only live installations; ListInstallations also
//     includes removed ones, newest first (reinstall counting needs them).
//   - CreateInstallation must enforce at most one live installation per
//     (tenant, plugin) and return ErrAlreadyInstalled on a violation, so
//     concurrent installs cannot both pass the engine's existence check.
type Store interface {
	FindPluginBySlug(ctx context.Context, slug string) (*models.Plugin, error)
	FindActivePlans(ctx context.Context, pluginID uuid.UUID) ([]models.SubscriptionPlan, error)

	FindInstallation(ctx context.Context, tenantID string, pluginID uuid.UUID) (*models.PluginInstallation, error)
	ListInstallations(ctx context.Context, tenantID string, pluginID uuid.UUID) ([]models.PluginInstallation, error)
	CreateInstallation(ctx context.Context, inst *models.PluginInstallation) error
	UpdateInstallation(ctx context.Context, inst *models.PluginInstallation) error
	DeleteInstallation(ctx context.Context, id uuid.UUID) error

	IncrementInstallCount(ctx context.Context, pluginID uuid.UUID, delta int) error

	FindSubscription(ctx context.Context, tenantID string, pluginID uuid.UUID, filter SubscriptionFilter) (*models.Subscription, error)
}
