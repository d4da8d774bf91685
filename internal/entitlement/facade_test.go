package entitlement

import (
	"context"
	"testing"

	"github.com/shoplyne/commerce-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacadeRejectsMissingIdentity(t *testing.T) {
	f := newFixture()
	facade := NewFacade(f.engine)
	ctx := context.Background()

	_, err := facade.Install(ctx, "", "seo-booster", InstallOptions{})
	assert.ErrorIs(t, err, ErrMissingTenant)

	_, err = facade.Install(ctx, testTenant, "", InstallOptions{})
	assert.ErrorIs(t, err, ErrMissingSlug)

	_, err = facade.Uninstall(ctx, "", "seo-booster")
	assert.ErrorIs(t, err, ErrMissingTenant)

	_, err = facade.Toggle(ctx, testTenant, "", true)
	assert.ErrorIs(t, err, ErrMissingSlug)

	_, err = facade.Configure(ctx, "", "seo-booster", nil)
	assert.ErrorIs(t, err, ErrMissingTenant)

	// Nothing reached the store or billing.
	assert.Empty(t, f.log.ops)
}

func TestFacadeDelegates(t *testing.T) {
	f := newFixture()
	facade := NewFacade(f.engine)
	f.store.addPlugin("seo-booster", models.PluginStatusActive)

	res, err := facade.Install(context.Background(), testTenant, "seo-booster", InstallOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.InstallationActive, res.Installation.Status)
}
