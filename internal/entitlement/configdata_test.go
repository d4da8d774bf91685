package entitlement

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestParseConfigDataEmpty(t *testing.T) {
	cases := []struct {
		name string
		raw  datatypes.JSON
	}{
		{"nil", nil},
		{"empty", datatypes.JSON("")},
		{"null", datatypes.JSON("null")},
		{"empty object", datatypes.JSON("{}")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := ParseConfigData(tc.raw)
			require.NoError(t, err)
			assert.Nil(t, cfg.SubscriptionID)
			assert.Empty(t, cfg.ReinstallHistory)
			assert.Empty(t, cfg.Extra)
		})
	}
}

func TestParseConfigDataInvalid(t *testing.T) {
	_, err := ParseConfigData(datatypes.JSON(`not json`))
	assert.Error(t, err)
}

func TestConfigDataRoundTrip(t *testing.T) {
	subID := uuid.New()
	cfg := ConfigData{
		SubscriptionID: &subID,
		ReinstallHistory: []ReinstallEntry{
			{ReinstalledAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), PriorInstalls: 2, SubscriptionID: &subID},
		},
		Extra: map[string]json.RawMessage{
			"theme":  json.RawMessage(`"dark"`),
			"limits": json.RawMessage(`{"daily":100}`),
		},
	}

	raw, err := cfg.Marshal()
	require.NoError(t, err)

	parsed, err := ParseConfigData(raw)
	require.NoError(t, err)

	require.NotNil(t, parsed.SubscriptionID)
	assert.Equal(t, subID, *parsed.SubscriptionID)
	require.Len(t, parsed.ReinstallHistory, 1)
	assert.Equal(t, 2, parsed.ReinstallHistory[0].PriorInstalls)
	assert.True(t, cfg.ReinstallHistory[0].ReinstalledAt.Equal(parsed.ReinstallHistory[0].ReinstalledAt))
	assert.JSONEq(t, `"dark"`, string(parsed.Extra["theme"]))
	assert.JSONEq(t, `{"daily":100}`, string(parsed.Extra["limits"]))
}

func TestConfigDataStorageIsFlat(t *testing.T) {
	subID := uuid.New()
	cfg := ConfigData{
		SubscriptionID: &subID,
		Extra:          map[string]json.RawMessage{"theme": json.RawMessage(`"dark"`)},
	}

	raw, err := cfg.Marshal()
	require.NoError(t, err)

	// Reserved keys and caller keys share one flat JSON object.
	var flat map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &flat))
	assert.Contains(t, flat, "subscription_id")
	assert.Contains(t, flat, "theme")
	assert.NotContains(t, flat, "reinstall_history")
}

func TestMergeCallerReplacesPayloadWholesale(t *testing.T) {
	subID := uuid.New()
	cfg := ConfigData{
		SubscriptionID:   &subID,
		ReinstallHistory: []ReinstallEntry{{PriorInstalls: 1}},
		Extra: map[string]json.RawMessage{
			"theme":    json.RawMessage(`"dark"`),
			"currency": json.RawMessage(`"EUR"`),
		},
	}

	cfg.MergeCaller(map[string]json.RawMessage{
		"theme": json.RawMessage(`"light"`),
	})

	assert.JSONEq(t, `"light"`, string(cfg.Extra["theme"]))
	assert.NotContains(t, cfg.Extra, "currency")

	// Engine-owned fields are untouched by a payload that doesn't name them.
	require.NotNil(t, cfg.SubscriptionID)
	assert.Equal(t, subID, *cfg.SubscriptionID)
	assert.Len(t, cfg.ReinstallHistory, 1)
}

func TestMergeCallerCanOverrideReservedKeys(t *testing.T) {
	oldID := uuid.New()
	newID := uuid.New()
	cfg := ConfigData{SubscriptionID: &oldID}

	idJSON, err := json.Marshal(newID)
	require.NoError(t, err)

	cfg.MergeCaller(map[string]json.RawMessage{
		"subscription_id": idJSON,
	})

	require.NotNil(t, cfg.SubscriptionID)
	assert.Equal(t, newID, *cfg.SubscriptionID)
	// The reserved key does not leak into the opaque payload.
	assert.NotContains(t, cfg.Extra, "subscription_id")
}

func TestMergeCallerIgnoresMalformedReservedValues(t *testing.T) {
	oldID := uuid.New()
	cfg := ConfigData{SubscriptionID: &oldID}

	cfg.MergeCaller(map[string]json.RawMessage{
		"subscription_id": json.RawMessage(`"not-a-uuid"`),
	})

	require.NotNil(t, cfg.SubscriptionID)
	assert.Equal(t, oldID, *cfg.SubscriptionID)
}
