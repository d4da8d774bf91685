package dto

import "encoding/json"

type InstallRequest struct {
	PlanID     string                     `json:"plan_id,omitempty"`
	StartTrial *bool                      `json:"start_trial,omitempty"`
	ConfigData map[string]json.RawMessage `json:"config_data,omitempty"`
}

type ToggleRequest struct {
	Enabled bool `json:"enabled"`
}

// ConfigureRequest is the raw top-level config object supplied by the caller.
type ConfigureRequest map[string]json.RawMessage

type CreatePluginRequest struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type CreatePlanRequest struct {
	PlanID    string `json:"plan_id"`
	Name      string `json:"name,omitempty"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency,omitempty"`
	TrialDays int    `json:"trial_days"`
}

type UpdatePluginRequest struct {
	Status *string `json:"status,omitempty"`
	Name   *string `json:"name,omitempty"`
}

type UpdatePlanRequest struct {
	IsActive *bool `json:"is_active,omitempty"`
}
