// Package billing is the platform's own subscription ledger: subscriptions are
// rows in Postgres and every mutation appends a BillingEvent audit record. The
// external payment processor talks back through webhooks (events.go).
package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shoplyne/commerce-backend/internal/entitlement"
	"github.com/shoplyne/commerce-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LedgerProvider struct {
	db *gorm.DB
}

var _ entitlement.BillingProvider = (*LedgerProvider)(nil)

func NewLedgerProvider(db *gorm.DB) *LedgerProvider {
	return &LedgerProvider{db: db}
}

func (p *LedgerProvider) CreateSubscription(ctx context.Context, tenantID string, pluginID uuid.UUID, planID string, opts entitlement.CreateOptions) (*models.Subscription, error) {
	status := models.SubscriptionActive
	if opts.TrialDays > 0 {
		status = models.SubscriptionTrialing
	}

	sub := models.Subscription{
		ID:       uuid.New(),
		TenantID: tenantID,
		PluginID: pluginID,
		PlanID:   planID,
		Status:   status,
	}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		return tx.Create(&models.BillingEvent{
			ID:             uuid.New(),
			TenantID:       tenantID,
			SubscriptionID: sub.ID,
			Type:           models.BillingEventCreated,
			ToStatus:       status,
			Metadata:       eventMetadata(opts.EventMeta, opts.TrialDays),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (p *LedgerProvider) UpdateSubscriptionStatus(ctx context.Context, subscriptionID uuid.UUID, status string, meta entitlement.EventMeta) (*models.Subscription, error) {
	var sub models.Subscription
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sub, "id = ?", subscriptionID).Error; err != nil {
			return fmt.Errorf("subscription %s not found: %w", subscriptionID, err)
		}
		from := sub.Status

		if err := tx.Model(&sub).Update("status", status).Error; err != nil {
			return fmt.Errorf("failed to update subscription status: %w", err)
		}

		return tx.Create(&models.BillingEvent{
			ID:             uuid.New(),
			TenantID:       sub.TenantID,
			SubscriptionID: sub.ID,
			Type:           models.BillingEventStatusChanged,
			FromStatus:     from,
			ToStatus:       status,
			Metadata:       eventMetadata(meta, 0),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func eventMetadata(meta entitlement.EventMeta, trialDays int) datatypes.JSON {
	payload := map[string]interface{}{
		"reason":       meta.Reason,
		"event_source": meta.EventSource,
		"initiated_by": meta.InitiatedBy,
	}
	if trialDays > 0 {
		payload["trial_days"] = trialDays
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(b)
}
