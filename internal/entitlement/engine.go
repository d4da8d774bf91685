package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shoplyne/commerce-backend/internal/models"
)

// eventSource tags every billing mutation originating from the marketplace
// install flow.
const eventSource = "marketplace"

// Engine owns the plugin entitlement lifecycle: which state transitions are
// legal for install/uninstall/toggle/configure, which billing side effects
// fire, and in what order. It holds no ambient state — both collaborators are
// injected.
type Engine struct {
	store   Store
	billing BillingProvider
}

func NewEngine(store Store, billing BillingProvider) *Engine {
	return &Engine{store: store, billing: billing}
}

// InstallOptions are the caller-supplied knobs of Install.
type InstallOptions struct {
	// PlanID selects a plan explicitly. Empty means "trial if available,
	// otherwise ask the caller to pick".
	PlanID string

	// StartTrial defaults to true when nil.
	StartTrial *bool

	// ConfigData is the initial caller-owned config payload.
	ConfigData map[string]json.RawMessage
}

func (o InstallOptions) wantsTrial() bool {
	return o.StartTrial == nil || *o.StartTrial
}

// Install places a plugin on a tenant's account. Free-model plugins get a
// zero-amount subscription (reused or restored across reinstalls so usage
// counters survive); subscription-model plugins restore a suspended
// subscription when one exists, honor an explicit plan choice, fall back to a
// trial, and otherwise return the RequiresSubscription continuation.
func (e *Engine) Install(ctx context.Context, tenantID, pluginSlug string, opts InstallOptions) (*InstallResult, error) {
	plugin, err := e.resolvePlugin(ctx, pluginSlug)
	if err != nil {
		return nil, err
	}
	if plugin.Status != models.PluginStatusActive {
		return nil, ErrPluginUnavailable
	}

	existing, err := e.store.FindInstallation(ctx, tenantID, plugin.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	if existing != nil {
		return nil, ErrAlreadyInstalled
	}

	plans, err := e.store.FindActivePlans(ctx, plugin.ID)
	if err != nil {
		return nil, storeErr(err)
	}

	if len(plans) == 0 {
		return e.installFree(ctx, tenantID, plugin, opts)
	}
	return e.installSubscription(ctx, tenantID, plugin, plans, opts)
}

func (e *Engine) installFree(ctx context.Context, tenantID string, plugin *models.Plugin, opts InstallOptions) (*InstallResult, error) {
	meta := EventMeta{Reason: "plugin install", EventSource: eventSource, InitiatedBy: tenantID}

	// Any prior free subscription is reused or restored, never recreated, so
	// usage counters tied to it persist across reinstalls.
	sub, err := e.store.FindSubscription(ctx, tenantID, plugin.ID, SubscriptionFilter{PlanID: models.PlanFree})
	if err != nil {
		return nil, storeErr(err)
	}
	switch {
	case sub == nil:
		sub, err = e.billing.CreateSubscription(ctx, tenantID, plugin.ID, models.PlanFree, CreateOptions{EventMeta: meta})
		if err != nil {
			return nil, billingErr(err)
		}
	case !sub.IsActiveFamily():
		// Suspended after an uninstall, or canceled by a processor expiration
		// event. Either way the row is restored, not recreated.
		meta.Reason = "plugin reinstall"
		sub, err = e.billing.UpdateSubscriptionStatus(ctx, sub.ID, models.SubscriptionActive, meta)
		if err != nil {
			return nil, billingErr(err)
		}
	default:
		// Already live: idempotent reinstall, reuse as-is.
	}

	prior, err := e.store.ListInstallations(ctx, tenantID, plugin.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	reinstall := len(prior) > 0

	inst, err := e.createInstallation(ctx, tenantID, plugin, models.InstallationActive, nil, nil, opts.ConfigData, prior, &sub.ID)
	if err != nil {
		return nil, err
	}

	return &InstallResult{
		Installation:   inst,
		Subscription:   sub,
		PreservedUsage: reinstall,
	}, nil
}

func (e *Engine) installSubscription(ctx context.Context, tenantID string, plugin *models.Plugin, plans []models.SubscriptionPlan, opts InstallOptions) (*InstallResult, error) {
	prior, err := e.store.ListInstallations(ctx, tenantID, plugin.ID)
	if err != nil {
		return nil, storeErr(err)
	}

	// A suspended subscription from a prior install wins over everything else:
	// restoring it is what keeps a paying tenant from being charged again
	// after an uninstall/reinstall cycle.
	suspended, err := e.store.FindSubscription(ctx, tenantID, plugin.ID, SubscriptionFilter{
		Statuses: []string{models.SubscriptionSuspended},
	})
	if err != nil {
		return nil, storeErr(err)
	}
	if suspended != nil {
		restored, err := e.billing.UpdateSubscriptionStatus(ctx, suspended.ID, models.SubscriptionActive, EventMeta{
			Reason: "plugin reinstall", EventSource: eventSource, InitiatedBy: tenantID,
		})
		if err != nil {
			return nil, billingErr(err)
		}

		inst, err := e.createInstallation(ctx, tenantID, plugin, models.InstallationActive, nil, nil, opts.ConfigData, prior, &restored.ID)
		if err != nil {
			return nil, err
		}
		return &InstallResult{
			Installation:    inst,
			Subscription:    restored,
			RequiresPayment: false,
			PreservedUsage:  true,
		}, nil
	}

	if opts.PlanID != "" {
		plan := findPlan(plans, opts.PlanID)
		if plan == nil {
			return nil, ErrPlanNotFound
		}

		sub, err := e.billing.CreateSubscription(ctx, tenantID, plugin.ID, plan.PlanID, CreateOptions{
			EventMeta: EventMeta{Reason: "plugin install", EventSource: eventSource, InitiatedBy: tenantID},
		})
		if err != nil {
			return nil, billingErr(err)
		}

		inst, err := e.createInstallation(ctx, tenantID, plugin, models.InstallationActive, nil, nil, opts.ConfigData, prior, &sub.ID)
		if err != nil {
			return nil, err
		}
		return &InstallResult{
			Installation:    inst,
			Subscription:    sub,
			RequiresPayment: plan.PlanID != models.PlanFree,
		}, nil
	}

	if opts.wantsTrial() {
		if plan := trialPlan(plans); plan != nil {
			// No subscription exists yet during a trial; billing starts at
			// conversion. A reinstall therefore re-grants a fresh trial —
			// known loophole, kept visible in the logs.
			if len(prior) > 0 {
				slog.Warn("fresh trial granted on reinstall",
					"tenant_id", tenantID, "plugin_slug", plugin.Slug, "prior_installs", len(prior))
			}

			start := time.Now().UTC()
			end := start.AddDate(0, 0, plan.TrialDays)
			inst, err := e.createInstallation(ctx, tenantID, plugin, models.InstallationTrial, &start, &end, opts.ConfigData, prior, nil)
			if err != nil {
				return nil, err
			}
			return &InstallResult{
				Installation: inst,
				TrialEndsAt:  &end,
			}, nil
		}
	}

	// No suspended subscription, no plan chosen, no trial available: hand the
	// plan catalog back to the caller. This is a continuation, not a failure.
	return &InstallResult{
		RequiresSubscription: true,
		AvailablePlans:       plans,
	}, nil
}

// createInstallation builds the config envelope (merging the reinstall audit
// trail from the most recent prior installation, if any), persists the row and
// bumps the plugin's install counter. Store failures after a successful
// billing call carry the subscription id for manual reconciliation.
func (e *Engine) createInstallation(
	ctx context.Context,
	tenantID string,
	plugin *models.Plugin,
	status string,
	trialStart, trialEnd *time.Time,
	callerConfig map[string]json.RawMessage,
	prior []models.PluginInstallation,
	subscriptionID *uuid.UUID,
) (*models.PluginInstallation, error) {
	cfg := ConfigData{SubscriptionID: subscriptionID, Extra: callerConfig}
	if len(prior) > 0 {
		if prevCfg, err := ParseConfigData(prior[0].ConfigData); err == nil {
			cfg.ReinstallHistory = prevCfg.ReinstallHistory
		}
		cfg.ReinstallHistory = append(cfg.ReinstallHistory, ReinstallEntry{
			ReinstalledAt:  time.Now().UTC(),
			PriorInstalls:  len(prior),
			SubscriptionID: subscriptionID,
		})
	}

	raw, err := cfg.Marshal()
	if err != nil {
		return nil, fmt.Errorf("encoding config data: %w", err)
	}

	inst := &models.PluginInstallation{
		ID:             uuid.New(),
		TenantID:       tenantID,
		PluginID:       plugin.ID,
		Status:         status,
		Enabled:        true,
		InstalledAt:    time.Now().UTC(),
		TrialStartDate: trialStart,
		TrialEndDate:   trialEnd,
		ConfigData:     raw,
	}

	if err := e.store.CreateInstallation(ctx, inst); err != nil {
		if subscriptionID != nil {
			return nil, fmt.Errorf("creating installation for subscription %s: %w", *subscriptionID, wrapCreateErr(err))
		}
		return nil, wrapCreateErr(err)
	}

	if err := e.store.IncrementInstallCount(ctx, plugin.ID, 1); err != nil {
		return nil, storeErr(err)
	}
	return inst, nil
}

// Uninstall removes the plugin from the tenant's account. An active-family
// subscription is suspended — never canceled — strictly before the
// installation row is deleted, so a crash in between never leaves a live
// subscription behind a vanished installation.
func (e *Engine) Uninstall(ctx context.Context, tenantID, pluginSlug string) (*UninstallResult, error) {
	plugin, err := e.resolvePlugin(ctx, pluginSlug)
	if err != nil {
		return nil, err
	}

	inst, err := e.store.FindInstallation(ctx, tenantID, plugin.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	if inst == nil {
		return nil, ErrNotInstalled
	}

	result := &UninstallResult{}

	plans, err := e.store.FindActivePlans(ctx, plugin.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	if len(plans) > 0 {
		sub, err := e.store.FindSubscription(ctx, tenantID, plugin.ID, SubscriptionFilter{
			Statuses: models.ActiveFamilyStatuses(),
		})
		if err != nil {
			return nil, storeErr(err)
		}
		if sub != nil {
			if _, err := e.billing.UpdateSubscriptionStatus(ctx, sub.ID, models.SubscriptionSuspended, EventMeta{
				Reason: "plugin uninstall", EventSource: eventSource, InitiatedBy: tenantID,
			}); err != nil {
				return nil, billingErr(err)
			}
			id := sub.ID
			result.SubscriptionSuspended = true
			result.SubscriptionID = &id
		}
	}

	if err := e.store.DeleteInstallation(ctx, inst.ID); err != nil {
		return nil, storeErr(err)
	}
	if err := e.store.IncrementInstallCount(ctx, plugin.ID, -1); err != nil {
		return nil, storeErr(err)
	}

	return result, nil
}

// Toggle flips the enabled flag. An EXPIRED installation cannot be re-enabled;
// it takes a fresh install cycle.
func (e *Engine) Toggle(ctx context.Context, tenantID, pluginSlug string, enabled bool) (*ToggleResult, error) {
	plugin, err := e.resolvePlugin(ctx, pluginSlug)
	if err != nil {
		return nil, err
	}

	inst, err := e.store.FindInstallation(ctx, tenantID, plugin.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	if inst == nil {
		return nil, ErrNotInstalled
	}
	if inst.Status == models.InstallationExpired && enabled {
		return nil, ErrCannotEnableExpired
	}

	inst.Enabled = enabled
	if err := e.store.UpdateInstallation(ctx, inst); err != nil {
		return nil, storeErr(err)
	}
	return &ToggleResult{Installation: inst}, nil
}

// Configure replaces the caller-owned config payload with last-write-wins
// semantics at the top level. The engine-owned keys (subscription id,
// reinstall history) survive unless the caller names them explicitly.
// Subscription state is untouched.
func (e *Engine) Configure(ctx context.Context, tenantID, pluginSlug string, payload map[string]json.RawMessage) (*ConfigureResult, error) {
	plugin, err := e.resolvePlugin(ctx, pluginSlug)
	if err != nil {
		return nil, err
	}

	inst, err := e.store.FindInstallation(ctx, tenantID, plugin.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	if inst == nil {
		return nil, ErrNotInstalled
	}

	cfg, err := ParseConfigData(inst.ConfigData)
	if err != nil {
		return nil, fmt.Errorf("decoding stored config data: %w", err)
	}
	cfg.MergeCaller(payload)

	raw, err := cfg.Marshal()
	if err != nil {
		return nil, fmt.Errorf("encoding config data: %w", err)
	}
	inst.ConfigData = raw

	if err := e.store.UpdateInstallation(ctx, inst); err != nil {
		return nil, storeErr(err)
	}
	return &ConfigureResult{Installation: inst}, nil
}

func (e *Engine) resolvePlugin(ctx context.Context, slug string) (*models.Plugin, error) {
	plugin, err := e.store.FindPluginBySlug(ctx, slug)
	if err != nil {
		return nil, storeErr(err)
	}
	if plugin == nil {
		return nil, ErrPluginNotFound
	}
	return plugin, nil
}

// wrapCreateErr keeps the store's uniqueness violation recognizable as
// AlreadyInstalled instead of burying it in a generic store error.
func wrapCreateErr(err error) error {
	if errors.Is(err, ErrAlreadyInstalled) {
		return err
	}
	return storeErr(err)
}

func findPlan(plans []models.SubscriptionPlan, planID string) *models.SubscriptionPlan {
	for i := range plans {
		if plans[i].PlanID == planID {
			return &plans[i]
		}
	}
	return nil
}

func trialPlan(plans []models.SubscriptionPlan) *models.SubscriptionPlan {
	for i := range plans {
		if plans[i].TrialDays > 0 {
			return &plans[i]
		}
	}
	return nil
}
