package entitlement

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shoplyne/commerce-backend/internal/models"
	"gorm.io/gorm"
)

// opLog records the order of side effects across both fakes so tests can
// assert ordering constraints (suspend strictly before delete, billing before
// dependent store writes).
type opLog struct {
	ops []string
}

func (l *opLog) add(op string) {
	l.ops = append(l.ops, op)
}

type fakeStore struct {
	log *opLog

	plugins       map[string]*models.Plugin
	plans         map[uuid.UUID][]models.SubscriptionPlan
	installations []*models.PluginInstallation
	subscriptions []*models.Subscription

	failCreateInstallation error
	failIncrement          error
}

func newFakeStore(log *opLog) *fakeStore {
	return &fakeStore{
		log:     log,
		plugins: make(map[string]*models.Plugin),
		plans:   make(map[uuid.UUID][]models.SubscriptionPlan),
	}
}

func (s *fakeStore) addPlugin(slug, status string, plans ...models.SubscriptionPlan) *models.Plugin {
	p := &models.Plugin{ID: uuid.New(), Slug: slug, Name: slug, Status: status}
	for i := range plans {
		plans[i].ID = uuid.New()
		plans[i].PluginID = p.ID
	}
	s.plugins[slug] = p
	s.plans[p.ID] = plans
	return p
}

func (s *fakeStore) addSubscription(tenantID string, pluginID uuid.UUID, planID, status string, updatedAt time.Time) *models.Subscription {
	sub := &models.Subscription{
		ID:        uuid.New(),
		TenantID:  tenantID,
		PluginID:  pluginID,
		PlanID:    planID,
		Status:    status,
		UpdatedAt: updatedAt,
	}
	s.subscriptions = append(s.subscriptions, sub)
	return sub
}

func (s *fakeStore) liveInstallation(tenantID string, pluginID uuid.UUID) *models.PluginInstallation {
	for _, inst := range s.installations {
		if inst.TenantID == tenantID && inst.PluginID == pluginID && !inst.DeletedAt.Valid {
			return inst
		}
	}
	return nil
}

func (s *fakeStore) FindPluginBySlug(_ context.Context, slug string) (*models.Plugin, error) {
	return s.plugins[slug], nil
}

func (s *fakeStore) FindActivePlans(_ context.Context, pluginID uuid.UUID) ([]models.SubscriptionPlan, error) {
	var active []models.SubscriptionPlan
	for _, plan := range s.plans[pluginID] {
		if plan.IsActive {
			active = append(active, plan)
		}
	}
	return active, nil
}

func (s *fakeStore) FindInstallation(_ context.Context, tenantID string, pluginID uuid.UUID) (*models.PluginInstallation, error) {
	return s.liveInstallation(tenantID, pluginID), nil
}

func (s *fakeStore) ListInstallations(_ context.Context, tenantID string, pluginID uuid.UUID) ([]models.PluginInstallation, error) {
	var all []models.PluginInstallation
	for _, inst := range s.installations {
		if inst.TenantID == tenantID && inst.PluginID == pluginID {
			all = append(all, *inst)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].InstalledAt.After(all[j].InstalledAt) })
	return all, nil
}

func (s *fakeStore) CreateInstallation(_ context.Context, inst *models.PluginInstallation) error {
	if s.failCreateInstallation != nil {
		return s.failCreateInstallation
	}
	if s.liveInstallation(inst.TenantID, inst.PluginID) != nil {
		// Mirrors the partial unique index on live rows.
		return ErrAlreadyInstalled
	}
	s.log.add("store.create_installation")
	cp := *inst
	s.installations = append(s.installations, &cp)
	return nil
}

func (s *fakeStore) UpdateInstallation(_ context.Context, inst *models.PluginInstallation) error {
	s.log.add("store.update_installation")
	for i, existing := range s.installations {
		if existing.ID == inst.ID {
			cp := *inst
			s.installations[i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *fakeStore) DeleteInstallation(_ context.Context, id uuid.UUID) error {
	s.log.add("store.delete_installation")
	for _, inst := range s.installations {
		if inst.ID == id {
			inst.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *fakeStore) IncrementInstallCount(_ context.Context, pluginID uuid.UUID, delta int) error {
	if s.failIncrement != nil {
		return s.failIncrement
	}
	s.log.add("store.increment_install_count")
	for _, p := range s.plugins {
		if p.ID == pluginID {
			p.InstallCount += delta
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *fakeStore) FindSubscription(_ context.Context, tenantID string, pluginID uuid.UUID, filter SubscriptionFilter) (*models.Subscription, error) {
	var matches []*models.Subscription
	for _, sub := range s.subscriptions {
		if sub.TenantID != tenantID || sub.PluginID != pluginID {
			continue
		}
		if filter.PlanID != "" && sub.PlanID != filter.PlanID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, sub.Status) {
			continue
		}
		matches = append(matches, sub)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	// Most recently updated first: the store contract.
	sort.Slice(matches, func(i, j int) bool { return matches[i].UpdatedAt.After(matches[j].UpdatedAt) })
	cp := *matches[0]
	return &cp, nil
}

func containsStatus(statuses []string, status string) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type statusChange struct {
	subscriptionID uuid.UUID
	status         string
	meta           EventMeta
}

type fakeBilling struct {
	log   *opLog
	store *fakeStore

	createCalls []string // plan ids
	updateCalls []statusChange

	failCreate error
	failUpdate error
}

func newFakeBilling(log *opLog, store *fakeStore) *fakeBilling {
	return &fakeBilling{log: log, store: store}
}

func (b *fakeBilling) CreateSubscription(_ context.Context, tenantID string, pluginID uuid.UUID, planID string, opts CreateOptions) (*models.Subscription, error) {
	if b.failCreate != nil {
		return nil, b.failCreate
	}
	b.log.add("billing.create_subscription")
	b.createCalls = append(b.createCalls, planID)

	status := models.SubscriptionActive
	if opts.TrialDays > 0 {
		status = models.SubscriptionTrialing
	}
	sub := b.store.addSubscription(tenantID, pluginID, planID, status, time.Now())
	cp := *sub
	return &cp, nil
}

func (b *fakeBilling) UpdateSubscriptionStatus(_ context.Context, subscriptionID uuid.UUID, status string, meta EventMeta) (*models.Subscription, error) {
	if b.failUpdate != nil {
		return nil, b.failUpdate
	}
	b.log.add("billing.update_status:" + status)
	b.updateCalls = append(b.updateCalls, statusChange{subscriptionID: subscriptionID, status: status, meta: meta})

	for _, sub := range b.store.subscriptions {
		if sub.ID == subscriptionID {
			sub.Status = status
			sub.UpdatedAt = time.Now()
			cp := *sub
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fixture struct {
	log     *opLog
	store   *fakeStore
	billing *fakeBilling
	engine  *Engine
}

func newFixture() *fixture {
	log := &opLog{}
	store := newFakeStore(log)
	billing := newFakeBilling(log, store)
	return &fixture{
		log:     log,
		store:   store,
		billing: billing,
		engine:  NewEngine(store, billing),
	}
}
