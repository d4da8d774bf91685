package entitlement

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrMissingTenant = errors.New("tenant id is required")
	ErrMissingSlug   = errors.New("plugin slug is required")
)

// Facade is the surface the HTTP layer talks to. It checks input shape and
// delegates; all business logic lives in the Engine.
type Facade struct {
	engine *Engine
}

func NewFacade(engine *Engine) *Facade {
	return &Facade{engine: engine}
}

func (f *Facade) Install(ctx context.Context, tenantID, pluginSlug string, opts InstallOptions) (*InstallResult, error) {
	if err := checkIdentity(tenantID, pluginSlug); err != nil {
		return nil, err
	}
	return f.engine.Install(ctx, tenantID, pluginSlug, opts)
}

func (f *Facade) Uninstall(ctx context.Context, tenantID, pluginSlug string) (*UninstallResult, error) {
	if err := checkIdentity(tenantID, pluginSlug); err != nil {
		return nil, err
	}
	return f.engine.Uninstall(ctx, tenantID, pluginSlug)
}

func (f *Facade) Toggle(ctx context.Context, tenantID, pluginSlug string, enabled bool) (*ToggleResult, error) {
	if err := checkIdentity(tenantID, pluginSlug); err != nil {
		return nil, err
	}
	return f.engine.Toggle(ctx, tenantID, pluginSlug, enabled)
}

func (f *Facade) Configure(ctx context.Context, tenantID, pluginSlug string, payload map[string]json.RawMessage) (*ConfigureResult, error) {
	if err := checkIdentity(tenantID, pluginSlug); err != nil {
		return nil, err
	}
	return f.engine.Configure(ctx, tenantID, pluginSlug, payload)
}

func checkIdentity(tenantID, pluginSlug string) error {
	if tenantID == "" {
		return ErrMissingTenant
	}
	if pluginSlug == "" {
		return ErrMissingSlug
	}
	return nil
}
