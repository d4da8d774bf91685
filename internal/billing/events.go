package billing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shoplyne/commerce-backend/internal/dto"
	"github.com/shoplyne/commerce-backend/internal/models"
	"github.com/shoplyne/commerce-backend/internal/tenant"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventService applies payment-processor webhook events to the ledger. This is
// the "externally driven" side of the entitlement state machine: dunning moves
// subscriptions to past_due, expiration cancels them and expires the backing
// installation.
type EventService struct {
	db *gorm.DB
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db}
}

func (s *EventService) HandleProcessorEvent(tenantID string, event *dto.ProcessorEvent) error {
	subID, err := uuid.Parse(event.SubscriptionID)
	if err != nil {
		return fmt.Errorf("invalid subscription id in event: %w", err)
	}

	switch event.Type {
	case "PAYMENT_FAILED":
		return s.setStatus(tenantID, subID, models.SubscriptionPastDue, event)
	case "PAYMENT_RECOVERED":
		return s.setStatus(tenantID, subID, models.SubscriptionActive, event)
	case "EXPIRATION":
		return s.handleExpiration(tenantID, subID, event)
	default:
		return nil
	}
}

func (s *EventService) setStatus(tenantID string, subID uuid.UUID, status string, event *dto.ProcessorEvent) error {
	var sub models.Subscription
	if err := s.db.Scopes(tenant.ForTenant(tenantID)).First(&sub, "id = ?", subID).Error; err != nil {
		return fmt.Errorf("subscription not found for event %s: %w", event.Type, err)
	}
	from := sub.Status

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&sub).Update("status", status).Error; err != nil {
			return err
		}
		return tx.Create(&models.BillingEvent{
			ID:             uuid.New(),
			TenantID:       tenantID,
			SubscriptionID: sub.ID,
			Type:           models.BillingEventStatusChanged,
			FromStatus:     from,
			ToStatus:       status,
			Metadata:       processorMetadata(event),
		}).Error
	})
}

// handleExpiration cancels the subscription and expires the live installation
// backing it. The installation row itself is kept — visibility survives, only
// re-enabling is blocked until a fresh install cycle.
func (s *EventService) handleExpiration(tenantID string, subID uuid.UUID, event *dto.ProcessorEvent) error {
	var sub models.Subscription
	if err := s.db.Scopes(tenant.ForTenant(tenantID)).First(&sub, "id = ?", subID).Error; err != nil {
		return fmt.Errorf("subscription not found for expiration: %w", err)
	}
	from := sub.Status

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&sub).Update("status", models.SubscriptionCanceled).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.PluginInstallation{}).
			Scopes(tenant.ForTenant(tenantID)).
			Where("plugin_id = ?", sub.PluginID).
			Update("status", models.InstallationExpired).Error; err != nil {
			return err
		}

		return tx.Create(&models.BillingEvent{
			ID:             uuid.New(),
			TenantID:       tenantID,
			SubscriptionID: sub.ID,
			Type:           models.BillingEventStatusChanged,
			FromStatus:     from,
			ToStatus:       models.SubscriptionCanceled,
			Metadata:       processorMetadata(event),
		}).Error
	})
}

func processorMetadata(event *dto.ProcessorEvent) datatypes.JSON {
	return datatypes.JSON(fmt.Sprintf(`{"event_source":"processor","event_id":%q,"event_type":%q}`, event.ID, event.Type))
}
