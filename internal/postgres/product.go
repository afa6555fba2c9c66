package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
)

// CatalogStore implements domain.CatalogService using PostgreSQL.
type CatalogStore struct {
	*Store
}

var _ domain.CatalogService = (*CatalogStore)(nil)

// NewCatalogStore creates a PostgreSQL-backed catalog service.
func NewCatalogStore(store *Store) *CatalogStore {
	return &CatalogStore{Store: store}
}

const productColumns = `id, name, description, category, base_price, is_active, created_at, updated_at`

const variantColumns = `id, product_id, sku, type, size, fragrance, price_adjustment, stock, sales_count, last_restocked, created_at, updated_at`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.BasePrice, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanVariant(row pgx.Row) (*domain.Variant, error) {
	var v domain.Variant
	err := row.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Type, &v.Size, &v.Fragrance,
		&v.PriceAdjustment, &v.Stock, &v.SalesCount, &v.LastRestocked, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListProducts returns all active products with their variants.
func (s *CatalogStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "catalog.list_products"

	rows, err := s.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list products")
	}
	defer rows.Close()

	var products []domain.Product
	byID := make(map[uuid.UUID]int)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan product")
		}
		byID[p.ID] = len(products)
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to iterate products")
	}

	vrows, err := s.pool.Query(ctx,
		`SELECT `+joinVariantColumns("v")+`
		   FROM variants v JOIN products p ON p.id = v.product_id
		  WHERE p.is_active
		  ORDER BY v.sku`)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list variants")
	}
	defer vrows.Close()

	for vrows.Next() {
		v, err := scanVariant(vrows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan variant")
		}
		if i, ok := byID[v.ProductID]; ok {
			products[i].Variants = append(products[i].Variants, *v)
		}
	}
	if err := vrows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to iterate variants")
	}

	return products, nil
}

// GetProduct retrieves a product with variants by ID.
func (s *CatalogStore) GetProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	const op = "catalog.get_product"

	p, err := scanProduct(s.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, productID))
	if err != nil {
		return nil, mapQueryErr(err, op, domain.ErrProductNotFound)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+variantColumns+` FROM variants WHERE product_id = $1 ORDER BY sku`, productID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list variants")
	}
	defer rows.Close()

	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan variant")
		}
		p.Variants = append(p.Variants, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to iterate variants")
	}

	return p, nil
}

// ResolveVariant resolves a product and one of its variants. Inactive
// products resolve as not found.
func (s *CatalogStore) ResolveVariant(ctx context.Context, productID, variantID uuid.UUID) (*domain.Product, *domain.Variant, error) {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	if !p.IsActive {
		return nil, nil, domain.ErrProductNotFound
	}
	v := p.Variant(variantID)
	if v == nil {
		return nil, nil, domain.ErrVariantNotFound
	}
	return p, v, nil
}

// CreateProduct creates a catalog product.
func (s *CatalogStore) CreateProduct(ctx context.Context, params domain.CreateProductParams) (*domain.Product, error) {
	const op = "catalog.create_product"

	p, err := scanProduct(s.pool.QueryRow(ctx,
		`INSERT INTO products (name, description, category, base_price, is_active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+productColumns,
		params.Name, params.Description, params.Category, params.BasePrice, params.IsActive))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create product")
	}
	return p, nil
}

// UpdateProduct applies a partial update and returns the product with its
// variants reloaded.
func (s *CatalogStore) UpdateProduct(ctx context.Context, productID uuid.UUID, params domain.UpdateProductParams) (*domain.Product, error) {
	const op = "catalog.update_product"

	tag, err := s.pool.Exec(ctx,
		`UPDATE products
		 SET name = COALESCE($2, name),
		     description = COALESCE($3, description),
		     category = COALESCE($4, category),
		     base_price = COALESCE($5, base_price),
		     is_active = COALESCE($6, is_active),
		     updated_at = now()
		 WHERE id = $1`,
		productID, params.Name, params.Description, params.Category,
		params.BasePrice, params.IsActive)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to update product")
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrProductNotFound
	}
	return s.GetProduct(ctx, productID)
}

// CreateVariant adds a variant to an existing product.
func (s *CatalogStore) CreateVariant(ctx context.Context, params domain.CreateVariantParams) (*domain.Variant, error) {
	const op = "catalog.create_variant"

	v, err := scanVariant(s.pool.QueryRow(ctx,
		`INSERT INTO variants (product_id, sku, type, size, fragrance, price_adjustment, stock, last_restocked)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		 RETURNING `+variantColumns,
		params.ProductID, params.SKU, params.Type, params.Size, params.Fragrance,
		params.PriceAdjustment, params.Stock))
	if err != nil {
		if isUniqueViolation(err, "variants_sku_key") {
			return nil, domain.ErrDuplicateSKU
		}
		if isForeignKeyViolation(err) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.Internal(err, op, "failed to create variant")
	}
	return v, nil
}

// RestockVariant increases a variant's stock and stamps LastRestocked.
func (s *CatalogStore) RestockVariant(ctx context.Context, variantID uuid.UUID, quantity int32) (*domain.Variant, error) {
	const op = "catalog.restock_variant"

	if quantity <= 0 {
		return nil, domain.Invalid(op, "restock quantity must be positive")
	}

	v, err := scanVariant(s.pool.QueryRow(ctx,
		`UPDATE variants
		    SET stock = stock + $2, last_restocked = $3, updated_at = now()
		  WHERE id = $1
		 RETURNING `+variantColumns,
		variantID, quantity, time.Now()))
	if err != nil {
		return nil, mapQueryErr(err, op, domain.ErrVariantNotFound)
	}
	return v, nil
}

// ListVariants returns every variant across active products, with the
// owning product attached.
func (s *CatalogStore) ListVariants(ctx context.Context) ([]domain.VariantWithProduct, error) {
	const op = "catalog.list_variants"

	rows, err := s.pool.Query(ctx,
		`SELECT `+joinVariantColumns("v")+`, p.name, p.base_price
		   FROM variants v JOIN products p ON p.id = v.product_id
		  WHERE p.is_active
		  ORDER BY v.sku`)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list variants")
	}
	defer rows.Close()

	var out []domain.VariantWithProduct
	for rows.Next() {
		var item domain.VariantWithProduct
		v := &item.Variant
		err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Type, &v.Size, &v.Fragrance,
			&v.PriceAdjustment, &v.Stock, &v.SalesCount, &v.LastRestocked,
			&v.CreatedAt, &v.UpdatedAt, &item.ProductName, &item.BasePrice)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan variant")
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to iterate variants")
	}

	return out, nil
}

// joinVariantColumns prefixes each variant column with the given alias.
func joinVariantColumns(alias string) string {
	return alias + `.id, ` + alias + `.product_id, ` + alias + `.sku, ` + alias + `.type, ` +
		alias + `.size, ` + alias + `.fragrance, ` + alias + `.price_adjustment, ` +
		alias + `.stock, ` + alias + `.sales_count, ` + alias + `.last_restocked, ` +
		alias + `.created_at, ` + alias + `.updated_at`
}
