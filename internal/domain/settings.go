package domain

import "context"

// Settings keys. Values are numeric; monetary values are stored in minor
// currency units.
const (
	SettingTaxRatePercent    = "gst_percentage"
	SettingDeliveryCharge    = "delivery_charge"
	SettingLowStockThreshold = "low_stock_threshold"
)

// ErrUnknownSettingKey rejects writes to keys outside the fixed set.
var ErrUnknownSettingKey = &Error{Code: EINVALID, Message: "Unknown settings key"}

// KnownSettingKeys lists every valid settings key.
var KnownSettingKeys = []string{
	SettingTaxRatePercent,
	SettingDeliveryCharge,
	SettingLowStockThreshold,
}

// PricingSnapshot is the settings state read once at order-creation time and
// passed into the pricing engine. Later settings changes never retroactively
// alter an existing order.
type PricingSnapshot struct {
	TaxRatePercent    float64
	DeliveryCharge    int64 // minor units
	LowStockThreshold int32
}

// Setting is a single key/value pair with upsert, last-writer-wins semantics.
type Setting struct {
	Key   string
	Value float64
}

// SettingsService reads and writes the admin-mutable configuration.
type SettingsService interface {
	// Snapshot reads all pricing-relevant settings in one call. Missing keys
	// fall back to configured defaults.
	Snapshot(ctx context.Context) (*PricingSnapshot, error)

	// List returns all stored settings.
	List(ctx context.Context) ([]Setting, error)

	// Upsert writes a settings key. Returns ErrUnknownSettingKey for keys
	// outside the fixed set.
	Upsert(ctx context.Context, key string, value float64) error
}
