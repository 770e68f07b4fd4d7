package repository

import (
	"database/sql"

	"github.com/kirillm/sns-trade-bot/internal/domain"
)

// OrderRepository реализует журнал отправленных заявок
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository создает новый репозиторий заявок
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Save сохраняет заявку
func (r *OrderRepository) Save(order *domain.OrderRecord) error {
	query := `
		INSERT INTO orders (job_id, account, code, name, side, quantity, ret_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return r.db.QueryRow(
		query,
		order.JobID,
		order.Account,
		order.Code,
		order.Name,
		order.Side,
		order.Quantity,
		order.RetCode,
		order.CreatedAt,
	).Scan(&order.ID)
}

// GetRecent получает последние N заявок
func (r *OrderRepository) GetRecent(limit int) ([]domain.OrderRecord, error) {
	query := `
		SELECT id, job_id, account, code, name, side, quantity, ret_code, created_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.OrderRecord
	for rows.Next() {
		var o domain.OrderRecord
		err := rows.Scan(
			&o.ID,
			&o.JobID,
			&o.Account,
			&o.Code,
			&o.Name,
			&o.Side,
			&o.Quantity,
			&o.RetCode,
			&o.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}
