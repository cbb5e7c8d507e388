package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
	_ "github.com/lib/pq"

	"github.com/shreyasmhade/QickServe/internal/domain"
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// PostgresOrderRepository keeps live and archived orders in separate tables.
// The whole-collection Load/Save contract is preserved for compatibility with
// the KV backend, and MoveToArchive migrates records in a single transaction
// so a crash mid-pass cannot lose or duplicate an order.
type PostgresOrderRepository struct {
	db *sql.DB
}

func NewPostgresOrderRepository(cred *Credentials) (*PostgresOrderRepository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &PostgresOrderRepository{db: db}, nil
}

func (r *PostgresOrderRepository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *PostgresOrderRepository) LoadLive(ctx context.Context) ([]domain.Order, error) {
	return r.loadTable(ctx, "orders_live")
}

func (r *PostgresOrderRepository) SaveLive(ctx context.Context, orders []domain.Order) error {
	return r.saveTable(ctx, "orders_live", orders)
}

func (r *PostgresOrderRepository) LoadArchive(ctx context.Context) ([]domain.Order, error) {
	return r.loadTable(ctx, "orders_archive")
}

func (r *PostgresOrderRepository) SaveArchive(ctx context.Context, orders []domain.Order) error {
	return r.saveTable(ctx, "orders_archive", orders)
}

// MoveToArchive implements ArchiveMover. Returns the number of orders moved;
// ids absent from the live table are skipped, not errors.
func (r *PostgresOrderRepository) MoveToArchive(ctx context.Context, orderIDs []string) (int, error) {
	if len(orderIDs) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders_archive
		SELECT * FROM orders_live WHERE id = ANY($1)
		ON CONFLICT (id) DO NOTHING`, pq.Array(orderIDs))
	if err != nil {
		return 0, fmt.Errorf("copy to archive: %w", err)
	}
	moved, _ := res.RowsAffected()

	if _, errDel := tx.ExecContext(ctx,
		`DELETE FROM orders_live WHERE id = ANY($1)`, pq.Array(orderIDs)); errDel != nil {
		return 0, fmt.Errorf("remove from live: %w", errDel)
	}

	if errCommit := tx.Commit(); errCommit != nil {
		return 0, fmt.Errorf("commit archive tx: %w", errCommit)
	}
	return int(moved), nil
}

func (r *PostgresOrderRepository) loadTable(ctx context.Context, table string) ([]domain.Order, error) {
	query := fmt.Sprintf(`SELECT id, restaurant_id, restaurant_name, customer, items,
	       special_instructions, order_type, status, total_amount, created_at, completion_time
	       FROM %s ORDER BY created_at DESC`, table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var order domain.Order
		var customerJSON, itemsJSON []byte
		var completionTime sql.NullTime
		if errScan := rows.Scan(
			&order.ID,
			&order.RestaurantID,
			&order.RestaurantName,
			&customerJSON,
			&itemsJSON,
			&order.SpecialInstructions,
			&order.OrderType,
			&order.Status,
			&order.TotalAmount,
			&order.CreatedAt,
			&completionTime,
		); errScan != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, errScan)
		}
		if errUnmarshal := json.Unmarshal(customerJSON, &order.Customer); errUnmarshal != nil {
			return nil, fmt.Errorf("unmarshal customer: %w", errUnmarshal)
		}
		if errUnmarshal := json.Unmarshal(itemsJSON, &order.Items); errUnmarshal != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", errUnmarshal)
		}
		if completionTime.Valid {
			order.CompletionTime = completionTime.Time
		}
		orders = append(orders, order)
	}

	if errRows := rows.Err(); errRows != nil {
		return nil, fmt.Errorf("row iteration error: %w", errRows)
	}
	return orders, nil
}

func (r *PostgresOrderRepository) saveTable(ctx context.Context, table string, orders []domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer tx.Rollback()

	if _, errDel := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); errDel != nil {
		return fmt.Errorf("clear %s: %w", table, errDel)
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, restaurant_id, restaurant_name, customer, items,
	         special_instructions, order_type, status, total_amount, created_at, completion_time)
	         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`, table)

	for _, order := range orders {
		customerJSON, errMarshal := json.Marshal(order.Customer)
		if errMarshal != nil {
			return fmt.Errorf("marshal customer: %w", errMarshal)
		}
		itemsJSON, errMarshal := json.Marshal(order.Items)
		if errMarshal != nil {
			return fmt.Errorf("marshal order items: %w", errMarshal)
		}

		var completionTime sql.NullTime
		if !order.CompletionTime.IsZero() {
			completionTime = sql.NullTime{Time: order.CompletionTime, Valid: true}
		}

		if _, errInsert := tx.ExecContext(ctx, query,
			order.ID,
			order.RestaurantID,
			order.RestaurantName,
			customerJSON,
			itemsJSON,
			order.SpecialInstructions,
			order.OrderType,
			order.Status,
			order.TotalAmount,
			order.CreatedAt,
			completionTime,
		); errInsert != nil {
			return fmt.Errorf("insert into %s: %w", table, errInsert)
		}
	}

	if errCommit := tx.Commit(); errCommit != nil {
		return fmt.Errorf("commit save tx: %w", errCommit)
	}
	return nil
}

func (r *PostgresOrderRepository) Close() error {
	return r.db.Close()
}
