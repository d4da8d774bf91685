package entitlement

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Reserved top-level keys of the installation config blob. Everything else
// belongs to the caller.
const (
	keySubscriptionID   = "subscription_id"
	keyReinstallHistory = "reinstall_history"
)

// ReinstallEntry is one audit record of a reinstall cycle.
type ReinstallEntry struct {
	ReinstalledAt  time.Time  `json:"reinstalled_at"`
	PriorInstalls  int        `json:"prior_installs"`
	SubscriptionID *uuid.UUID `json:"subscription_id,omitempty"`
}

// ConfigData is the typed envelope over an installation's config blob: two
// engine-owned fields plus an opaque caller payload, all flattened into a
// single JSON object in storage.
type ConfigData struct {
	SubscriptionID   *uuid.UUID
	ReinstallHistory []ReinstallEntry
	Extra            map[string]json.RawMessage
}

// ParseConfigData decodes a stored blob. Empty or null blobs decode to a zero
// envelope.
func ParseConfigData(raw datatypes.JSON) (ConfigData, error) {
	var cd ConfigData
	if len(raw) == 0 || string(raw) == "null" {
		return cd, nil
	}

	var flat map[string]json.RawMessage
	if err := json.Unmarshal(raw, &flat); err != nil {
		return cd, err
	}

	if v, ok := flat[keySubscriptionID]; ok {
		var id uuid.UUID
		if err := json.Unmarshal(v, &id); err == nil {
			cd.SubscriptionID = &id
		}
		delete(flat, keySubscriptionID)
	}
	if v, ok := flat[keyReinstallHistory]; ok {
		var history []ReinstallEntry
		if err := json.Unmarshal(v, &history); err == nil {
			cd.ReinstallHistory = history
		}
		delete(flat, keyReinstallHistory)
	}

	if len(flat) > 0 {
		cd.Extra = flat
	}
	return cd, nil
}

// Marshal flattens the envelope back into a single JSON object.
func (cd ConfigData) Marshal() (datatypes.JSON, error) {
	flat := make(map[string]json.RawMessage, len(cd.Extra)+2)
	for k, v := range cd.Extra {
		flat[k] = v
	}
	if cd.SubscriptionID != nil {
		b, err := json.Marshal(cd.SubscriptionID)
		if err != nil {
			return nil, err
		}
		flat[keySubscriptionID] = b
	}
	if len(cd.ReinstallHistory) > 0 {
		b, err := json.Marshal(cd.ReinstallHistory)
		if err != nil {
			return nil, err
		}
		flat[keyReinstallHistory] = b
	}

	b, err := json.Marshal(flat)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// MergeCaller applies a caller payload with last-write-wins semantics at the
// top level: the caller's keys replace the opaque payload wholesale, and the
// engine-owned keys survive unless the payload names them explicitly.
func (cd *ConfigData) MergeCaller(payload map[string]json.RawMessage) {
	extra := make(map[string]json.RawMessage, len(payload))
	for k, v := range payload {
		switch k {
		case keySubscriptionID:
			var id uuid.UUID
			if err := json.Unmarshal(v, &id); err == nil {
				cd.SubscriptionID = &id
			}
		case keyReinstallHistory:
			var history []ReinstallEntry
			if err := json.Unmarshal(v, &history); err == nil {
				cd.ReinstallHistory = history
			}
		default:
			extra[k] = v
		}
	}
	cd.Extra = extra
}
