package entitlement

import "errors"

var (
	ErrPluginNotFound      = errors.New("plugin not found")
	ErrPluginUnavailable   = errors.New("plugin is not available for installation")
	ErrAlreadyInstalled    = errors.New("plugin is already installed")
	ErrNotInstalled        = errors.New("plugin is not installed")
	ErrPlanNotFound        = errors.New("subscription plan not found")
	ErrCannotEnableExpired = errors.New("expired installation cannot be enabled")

	// ErrBillingProvider and ErrStore wrap failures from the two collaborators;
	// callers match them with errors.Is and still see the original cause.
	ErrBillingProvider = errors.New("billing provider error")
	ErrStore           = errors.New("entitlement store error")
)

func billingErr(cause error) error {
	return errors.Join(ErrBillingProvider, cause)
}

func storeErr(cause error) error {
	return errors.Join(ErrStore, cause)
}
