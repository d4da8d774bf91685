package dto

// ProcessorWebhook is the envelope the payment processor posts to
// /api/webhooks/billing/:tenant_id.
type ProcessorWebhook struct {
	APIVersion string         `json:"api_version"`
	Event      ProcessorEvent `json:"event"`
}

type ProcessorEvent struct {
	Type           string `json:"type"` // PAYMENT_FAILED, PAYMENT_RECOVERED, EXPIRATION
	ID             string `json:"id"`
	SubscriptionID string `json:"subscription_id"`
	OccurredAtMs   int64  `json:"occurred_at_ms"`
	Reason         string `json:"reason,omitempty"`
}
