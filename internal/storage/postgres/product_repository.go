package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nikitagorshkov/farmmarket/internal/domain"
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

func (r *productRepository) Create(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var promoPrice sql.NullInt64
	if product.PromotionPriceMinor != nil {
		promoPrice = sql.NullInt64{Int64: *product.PromotionPriceMinor, Valid: true}
	}
	promoType := product.PromotionType
	if promoType == "" {
		promoType = domain.PromotionNone
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (
			id, name, category, base_price_minor, promotion_type,
			promotion_price_minor, stock, image_ref, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		product.ID, product.Name, product.Category, product.BasePriceMinor,
		string(promoType), promoPrice, product.Stock,
		product.ImageRef, product.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("product %s already exists: %w", product.ID, err)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

const productColumns = `
	id, name, category, base_price_minor, promotion_type,
	promotion_price_minor, stock, image_ref, created_at
`

func scanProduct(row interface{ Scan(...any) error }) (domain.Product, error) {
	var (
		product    domain.Product
		promoType  string
		promoPrice sql.NullInt64
	)
	err := row.Scan(
		&product.ID, &product.Name, &product.Category, &product.BasePriceMinor,
		&promoType, &promoPrice, &product.Stock, &product.ImageRef, &product.CreatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}
	product.PromotionType = domain.PromotionType(promoType)
	if promoPrice.Valid {
		v := promoPrice.Int64
		product.PromotionPriceMinor = &v
	}
	return product, nil
}

func (r *productRepository) Get(id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	return product, nil
}

// List возвращает товары в порядке добавления в каталог с опциональными
// фильтрами по акции и категории.
func (r *productRepository) List(filter domain.ProductFilter) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products`
	var (
		conds []string
		args  []any
	)
	if filter.Promotion != "" {
		args = append(args, string(filter.Promotion))
		conds = append(conds, fmt.Sprintf("promotion_type = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at ASC, id ASC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
