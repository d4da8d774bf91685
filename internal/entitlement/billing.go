package entitlement

import (
	"context"

	"github.com/google/uuid"
	"github.com/shoplyne/commerce-backend/internal/models"
)

// EventMeta is the audit metadata recorded with every billing mutation.
type EventMeta struct {
	Reason      string
	EventSource string
	InitiatedBy string
}

// CreateOptions parameterizes subscription creation.
type CreateOptions struct {
	TrialDays int
	EventMeta
}

// BillingProvider abstracts subscription creation and status changes. Calls are
// synchronous; timeouts are the implementation's responsibility via ctx. The
// engine never retries — a failed call surfaces as ErrBillingProvider and the
// dependent store writes do not happen.
type BillingProvider interface {
	CreateSubscription(ctx context.Context, tenantID string, pluginID uuid.UUID, planID string, opts CreateOptions) (*models.Subscription, error)

	// UpdateSubscriptionStatus is used for both suspend and restore.
	UpdateSubscriptionStatus(ctx context.Context, subscriptionID uuid.UUID, status string, meta EventMeta) (*models.Subscription, error)
}
