package repository

import (
	"database/sql"

	"github.com/kirillm/sns-trade-bot/internal/domain"
)

// FillRepository реализует журнал уведомлений об исполнении
type FillRepository struct {
	db *sql.DB
}

// NewFillRepository создает новый репозиторий исполнений
func NewFillRepository(db *sql.DB) *FillRepository {
	return &FillRepository{db: db}
}

// Save сохраняет уведомление
func (r *FillRepository) Save(fill *domain.FillRecord) error {
	query := `
		INSERT INTO fills (account, order_no, code, name, side, status, price, quantity, remained_qty, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return r.db.QueryRow(
		query,
		fill.Account,
		fill.OrderNo,
		fill.Code,
		fill.Name,
		fill.Side,
		fill.Status,
		fill.Price,
		fill.Quantity,
		fill.RemainedQty,
		fill.CreatedAt,
	).Scan(&fill.ID)
}

// GetByCode получает последние N уведомлений по инструменту
func (r *FillRepository) GetByCode(code string, limit int) ([]domain.FillRecord, error) {
	query := `
		SELECT id, account, order_no, code, name, side, status, price, quantity, remained_qty, created_at
		FROM fills
		WHERE code = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(query, code, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fills []domain.FillRecord
	for rows.Next() {
		var f domain.FillRecord
		err := rows.Scan(
			&f.ID,
			&f.Account,
			&f.OrderNo,
			&f.Code,
			&f.Name,
			&f.Side,
			&f.Status,
			&f.Price,
			&f.Quantity,
			&f.RemainedQty,
			&f.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		fills = append(fills, f)
	}

	return fills, rows.Err()
}
