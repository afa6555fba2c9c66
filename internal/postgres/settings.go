package postgres

import (
	"context"
	"slices"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
)

// Default settings values used when a key has never been written.
const (
	DefaultTaxRatePercent    = 18.0
	DefaultDeliveryCharge    = 4000 // minor units
	DefaultLowStockThreshold = 10
)

// SettingsStore implements domain.SettingsService using PostgreSQL.
type SettingsStore struct {
	*Store
}

var _ domain.SettingsService = (*SettingsStore)(nil)

// NewSettingsStore creates a PostgreSQL-backed settings service.
func NewSettingsStore(store *Store) *SettingsStore {
	return &SettingsStore{Store: store}
}

// Snapshot reads all pricing-relevant settings in one query, substituting
// defaults for missing keys.
func (s *SettingsStore) Snapshot(ctx context.Context) (*domain.PricingSnapshot, error) {
	const op = "settings.snapshot"

	values := map[string]float64{
		domain.SettingTaxRatePercent:    DefaultTaxRatePercent,
		domain.SettingDeliveryCharge:    DefaultDeliveryCharge,
		domain.SettingLowStockThreshold: DefaultLowStockThreshold,
	}

	rows, err := s.pool.Query(ctx,
		`SELECT key, value FROM settings WHERE key = ANY($1)`, domain.KnownSettingKeys)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to read settings")
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value float64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, domain.Internal(err, op, "failed to scan setting")
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to iterate settings")
	}

	return &domain.PricingSnapshot{
		TaxRatePercent:    values[domain.SettingTaxRatePercent],
		DeliveryCharge:    int64(values[domain.SettingDeliveryCharge]),
		LowStockThreshold: int32(values[domain.SettingLowStockThreshold]),
	}, nil
}

// List returns all stored settings.
func (s *SettingsStore) List(ctx context.Context) ([]domain.Setting, error) {
	const op = "settings.list"

	rows, err := s.pool.Query(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list settings")
	}
	defer rows.Close()

	var settings []domain.Setting
	for rows.Next() {
		var setting domain.Setting
		if err := rows.Scan(&setting.Key, &setting.Value); err != nil {
			return nil, domain.Internal(err, op, "failed to scan setting")
		}
		settings = append(settings, setting)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to iterate settings")
	}
	return settings, nil
}

// Upsert writes a settings key with last-writer-wins semantics.
func (s *SettingsStore) Upsert(ctx context.Context, key string, value float64) error {
	const op = "settings.upsert"

	if !slices.Contains(domain.KnownSettingKeys, key) {
		return domain.ErrUnknownSettingKey
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		return domain.Internal(err, op, "failed to upsert setting")
	}
	return nil
}
