package service

import (
	"context"
	"math"
	"time"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
)

// defaultDaysInStock is assumed when a variant has never been restocked.
const defaultDaysInStock = 30

// Velocity classification thresholds, in sales per day.
const (
	fastSellingVelocity = 5.0
	slowSellingVelocity = 0.5
	slowSellingMinDays  = 7
)

// VariantReport is one variant row in an inventory report.
type VariantReport struct {
	ProductName string  `json:"product"`
	Variant     string  `json:"variant"`
	SKU         string  `json:"sku"`
	Stock       int32   `json:"stock"`
	Velocity    float64 `json:"velocity"`
	DaysInStock int     `json:"daysInStock"`

	// Discount fields are populated for slow sellers only.
	SuggestedDiscount int    `json:"suggestedDiscount,omitempty"`
	DiscountReason    string `json:"discountReason,omitempty"`
}

// LowStockItem is one variant at or below the restock threshold.
type LowStockItem struct {
	ProductName string `json:"product"`
	Variant     string `json:"variant"`
	SKU         string `json:"sku"`
	Stock       int32  `json:"stock"`
	Threshold   int32  `json:"threshold"`
}

// InventoryReport is the admin-facing analytics summary.
type InventoryReport struct {
	FastSelling []VariantReport `json:"fastSelling"`
	SlowSelling []VariantReport `json:"slowSelling"`
	LowStock    []LowStockItem  `json:"lowStock"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// AnalyticsService derives sales velocity reports from the catalog.
type AnalyticsService struct {
	catalog  domain.CatalogService
	settings domain.SettingsService
	now      func() time.Time
}

// NewAnalyticsService creates the analytics service.
func NewAnalyticsService(catalog domain.CatalogService, settings domain.SettingsService) *AnalyticsService {
	return &AnalyticsService{catalog: catalog, settings: settings, now: time.Now}
}

// SalesVelocity is sales per day over the time a variant has been in stock.
func SalesVelocity(salesCount int64, daysInStock int) float64 {
	if daysInStock == 0 {
		return 0
	}
	return float64(salesCount) / float64(daysInStock)
}

// SuggestDiscount returns a rule-based markdown percentage for a slow mover.
func SuggestDiscount(daysInStock int, currentStock int32) (int, string) {
	switch {
	case daysInStock > 60 && currentStock > 20:
		return 30, "Very slow movement with high stock"
	case daysInStock > 45 && currentStock > 15:
		return 20, "Slow movement with moderate stock"
	case daysInStock > 30 && currentStock > 10:
		return 15, "Slow movement"
	case daysInStock > 20:
		return 10, "Slightly slow movement"
	}
	return 0, "No discount needed"
}

// daysInStock counts whole days since the last restock, defaulting when the
// variant has never been restocked.
func (s *AnalyticsService) daysInStock(v *domain.Variant) int {
	if v.LastRestocked == nil {
		return defaultDaysInStock
	}
	days := int(math.Ceil(s.now().Sub(*v.LastRestocked).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

// Report builds the full inventory analytics report.
func (s *AnalyticsService) Report(ctx context.Context) (*InventoryReport, error) {
	variants, err := s.catalog.ListVariants(ctx)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	report := &InventoryReport{GeneratedAt: s.now()}
	for i := range variants {
		v := &variants[i].Variant
		days := s.daysInStock(v)
		velocity := SalesVelocity(v.SalesCount, days)

		row := VariantReport{
			ProductName: variants[i].ProductName,
			Variant:     v.Description(),
			SKU:         v.SKU,
			Stock:       v.Stock,
			Velocity:    velocity,
			DaysInStock: days,
		}

		if velocity > fastSellingVelocity {
			report.FastSelling = append(report.FastSelling, row)
		}
		if velocity < slowSellingVelocity && days > slowSellingMinDays && v.Stock > 0 {
			row.SuggestedDiscount, row.DiscountReason = SuggestDiscount(days, v.Stock)
			report.SlowSelling = append(report.SlowSelling, row)
		}
		if v.Stock > 0 && v.Stock <= snapshot.LowStockThreshold {
			report.LowStock = append(report.LowStock, LowStockItem{
				ProductName: variants[i].ProductName,
				Variant:     v.Description(),
				SKU:         v.SKU,
				Stock:       v.Stock,
				Threshold:   snapshot.LowStockThreshold,
			})
		}
	}

	return report, nil
}

// LowStock returns only the low-stock portion of the report. Used by the
// periodic worker scan.
func (s *AnalyticsService) LowStock(ctx context.Context) ([]LowStockItem, error) {
	report, err := s.Report(ctx)
	if err != nil {
		return nil, err
	}
	return report.LowStock, nil
}
