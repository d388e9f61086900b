package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/inventory-console/internal/core/domain"
	"github.com/rl1809/inventory-console/internal/port"
)

const mysqlDuplicateEntry = 1062

const productColumns = `id, sku, barcode, name, description, category, supplier, location,
	current_stock, min_stock, max_stock, unit_price, unit_cost, status, last_restocked,
	image, rating, reviews`

const createProductsTable = `
CREATE TABLE IF NOT EXISTS products (
	seq            BIGINT AUTO_INCREMENT UNIQUE,
	id             VARCHAR(20) PRIMARY KEY,
	sku            VARCHAR(50) NOT NULL DEFAULT '',
	barcode        VARCHAR(50) NOT NULL DEFAULT '',
	name           VARCHAR(200) NOT NULL,
	description    TEXT NOT NULL,
	category       VARCHAR(100) NOT NULL,
	supplier       VARCHAR(100) NOT NULL,
	location       VARCHAR(100) NOT NULL DEFAULT '',
	current_stock  BIGINT NOT NULL DEFAULT 0,
	min_stock      BIGINT NOT NULL DEFAULT 0,
	max_stock      BIGINT NOT NULL DEFAULT 100,
	unit_price     DECIMAL(10,2) NOT NULL DEFAULT 0,
	unit_cost      DECIMAL(10,2) NOT NULL DEFAULT 0,
	status         VARCHAR(20) NOT NULL DEFAULT 'in-stock',
	last_restocked DATETIME NULL,
	image          VARCHAR(255) NOT NULL DEFAULT '',
	rating         INT NOT NULL DEFAULT 5,
	reviews        INT NOT NULL DEFAULT 0,
	created_at     TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at     TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`

type MySQLAdapter struct {
	db *sql.DB
}

var _ port.DatabaseRepository = (*MySQLAdapter)(nil)

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

const widenStockColumns = `ALTER TABLE products
	MODIFY current_stock BIGINT NOT NULL DEFAULT 0,
	MODIFY min_stock     BIGINT NOT NULL DEFAULT 0,
	MODIFY max_stock     BIGINT NOT NULL DEFAULT 100`

// Migrate creates the products table when it does not exist yet and widens
// stock columns left as INT by older schemas.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, createProductsTable); err != nil {
		return fmt.Errorf("create products table: %w", err)
	}
	if _, err := m.db.ExecContext(ctx, widenStockColumns); err != nil {
		return fmt.Errorf("widen stock columns: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) ListProducts(ctx context.Context, criteria domain.Criteria) ([]domain.Product, error) {
	where, args := criteriaClause(criteria)
	rows, err := m.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products`+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := m.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (m *MySQLAdapter) CreateProduct(ctx context.Context, p domain.Product) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SKU, p.Barcode, p.Name, p.Description, p.Category, p.Supplier, p.Location,
		p.CurrentStock, p.MinStock, p.MaxStock, p.UnitPrice, p.UnitCost, p.Status, p.LastRestocked,
		p.Image, p.Rating, p.Reviews,
	)
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return domain.ErrDuplicateProduct
	}
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) UpdateProduct(ctx context.Context, p domain.Product) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET sku = ?, barcode = ?, name = ?, description = ?, category = ?, supplier = ?,
			location = ?, current_stock = ?, min_stock = ?, max_stock = ?, unit_price = ?,
			unit_cost = ?, status = ?, last_restocked = ?, image = ?, rating = ?, reviews = ?
		WHERE id = ?`,
		p.SKU, p.Barcode, p.Name, p.Description, p.Category, p.Supplier,
		p.Location, p.CurrentStock, p.MinStock, p.MaxStock, p.UnitPrice,
		p.UnitCost, p.Status, p.LastRestocked, p.Image, p.Rating, p.Reviews,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		return nil
	}
	// MySQL reports 0 affected rows when nothing changed
	existing, err := m.GetProduct(ctx, p.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrProductNotFound
	}
	return nil
}

func (m *MySQLAdapter) DeleteProduct(ctx context.Context, id string) error {
	result, err := m.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (m *MySQLAdapter) StockByCategory(ctx context.Context) ([]domain.CategoryStock, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT COALESCE(NULLIF(category, ''), 'Uncategorized') AS name, SUM(current_stock) AS stock
		FROM products
		GROUP BY name
		ORDER BY stock DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("query stock by category: %w", err)
	}
	defer rows.Close()

	out := []domain.CategoryStock{}
	for rows.Next() {
		var c domain.CategoryStock
		if err := rows.Scan(&c.Name, &c.Stock); err != nil {
			return nil, fmt.Errorf("scan category stock: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p         domain.Product
		restocked sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.SKU, &p.Barcode, &p.Name, &p.Description, &p.Category, &p.Supplier, &p.Location,
		&p.CurrentStock, &p.MinStock, &p.MaxStock, &p.UnitPrice, &p.UnitCost, &p.Status, &restocked,
		&p.Image, &p.Rating, &p.Reviews,
	)
	if err != nil {
		return domain.Product{}, err
	}
	if restocked.Valid {
		t := restocked.Time
		p.LastRestocked = &t
	}
	return p, nil
}

// criteriaClause renders criteria as a WHERE clause with the same semantics
// as Criteria.Matches under the table's case-insensitive collation.
func criteriaClause(c domain.Criteria) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if c.Search != "" {
		like := "%" + escapeLike(c.Search) + "%"
		conds = append(conds, `(id LIKE ? OR sku LIKE ? OR name LIKE ? OR location LIKE ? OR barcode LIKE BINARY ?)`)
		args = append(args, like, like, like, like, like)
	}
	for _, f := range []struct{ column, value string }{
		{"category", c.Category},
		{"status", c.Status},
		{"supplier", c.Supplier},
	} {
		if f.value == "" || f.value == domain.All {
			continue
		}
		conds = append(conds, f.column+" = BINARY ?")
		args = append(args, f.value)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
