// Package gormstore is the Postgres-backed entitlement.Store.
package gormstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shoplyne/commerce-backend/internal/entitlement"
	"github.com/shoplyne/commerce-backend/internal/models"
	"github.com/shoplyne/commerce-backend/internal/tenant"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

var _ entitlement.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindPluginBySlug(ctx context.Context, slug string) (*models.Plugin, error) {
	var plugin models.Plugin
	err := s.db.WithContext(ctx).Preload("Plans").Where("slug = ?", slug).First(&plugin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plugin, nil
}

func (s *Store) FindActivePlans(ctx context.Context, pluginID uuid.UUID) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := s.db.WithContext(ctx).
		Where("plugin_id = ? AND is_active = true", pluginID).
		Order("created_at ASC").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (s *Store) FindInstallation(ctx context.Context, tenantID string, pluginID uuid.UUID) (*models.PluginInstallation, error) {
	var inst models.PluginInstallation
	err := s.db.WithContext(ctx).
		Scopes(tenant.ForTenant(tenantID)).
		Where("plugin_id = ?", pluginID).
		First(&inst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

// ListInstallations includes soft-deleted rows; reinstall counting and the
// audit-trail merge need the full history, newest first.
func (s *Store) ListInstallations(ctx context.Context, tenantID string, pluginID uuid.UUID) ([]models.PluginInstallation, error) {
	var insts []models.PluginInstallation
	err := s.db.WithContext(ctx).Unscoped().
		Scopes(tenant.ForTenant(tenantID)).
		Where("plugin_id = ?", pluginID).
		Order("installed_at DESC").
		Find(&insts).Error
	if err != nil {
		return nil, err
	}
	return insts, nil
}

func (s *Store) CreateInstallation(ctx context.Context, inst *models.PluginInstallation) error {
	err := s.db.WithContext(ctx).Create(inst).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// The partial unique index on live (tenant_id, plugin_id) pairs fired:
		// a concurrent install won the race.
		return entitlement.ErrAlreadyInstalled
	}
	return err
}

func (s *Store) UpdateInstallation(ctx context.Context, inst *models.PluginInstallation) error {
	return s.db.WithContext(ctx).Save(inst).Error
}

func (s *Store) DeleteInstallation(ctx context.Context, id uuid.UUID) error {
	// Soft delete; the row stays visible to ListInstallations.
	return s.db.WithContext(ctx).Delete(&models.PluginInstallation{}, "id = ?", id).Error
}

func (s *Store) IncrementInstallCount(ctx context.Context, pluginID uuid.UUID, delta int) error {
	return s.db.WithContext(ctx).Model(&models.Plugin{}).
		Where("id = ?", pluginID).
		UpdateColumn("install_count", gorm.Expr("install_count + ?", delta)).Error
}

func (s *Store) FindSubscription(ctx context.Context, tenantID string, pluginID uuid.UUID, filter entitlement.SubscriptionFilter) (*models.Subscription, error) {
	q := s.db.WithContext(ctx).
		Scopes(tenant.ForTenant(tenantID)).
		Where("plugin_id = ?", pluginID)
	if filter.PlanID != "" {
		q = q.Where("plan_id = ?", filter.PlanID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}

	var sub models.Subscription
	err := q.Order("updated_at DESC").First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
