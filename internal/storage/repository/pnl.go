package repository

import (
	"database/sql"
	"time"

	"github.com/kirillm/sns-trade-bot/internal/domain"
)

// PnLRepository реализует работу с дневным результатом
type PnLRepository struct {
	db *sql.DB
}

// NewPnLRepository создает новый репозиторий для PnL
func NewPnLRepository(db *sql.DB) *PnLRepository {
	return &PnLRepository{db: db}
}

// Upsert сохраняет результат дня, повторный запрос за тот же день перезаписывает строку
func (r *PnLRepository) Upsert(p *domain.DailyProfit) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO daily_pnl (account, trade_date, realized, buy_amount, sell_amount, commission, tax, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (account, trade_date) DO UPDATE SET
			realized = EXCLUDED.realized,
			buy_amount = EXCLUDED.buy_amount,
			sell_amount = EXCLUDED.sell_amount,
			commission = EXCLUDED.commission,
			tax = EXCLUDED.tax,
			created_at = EXCLUDED.created_at
		RETURNING id
	`
	return r.db.QueryRow(
		query,
		p.Account,
		p.TradeDate,
		p.Realized,
		p.BuyAmount,
		p.SellAmount,
		p.Commission,
		p.Tax,
		p.CreatedAt,
	).Scan(&p.ID)
}

// GetRecent получает последние N дней по счету
func (r *PnLRepository) GetRecent(account string, limit int) ([]domain.DailyProfit, error) {
	query := `
		SELECT id, account, trade_date, realized, buy_amount, sell_amount, commission, tax, created_at
		FROM daily_pnl
		WHERE account = $1
		ORDER BY trade_date DESC
		LIMIT $2
	`
	rows, err := r.db.Query(query, account, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.DailyProfit
	for rows.Next() {
		var p domain.DailyProfit
		err := rows.Scan(
			&p.ID,
			&p.Account,
			&p.TradeDate,
			&p.Realized,
			&p.BuyAmount,
			&p.SellAmount,
			&p.Commission,
			&p.Tax,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		history = append(history, p)
	}

	return history, rows.Err()
}
