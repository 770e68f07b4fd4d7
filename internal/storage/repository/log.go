package repository

import (
	"database/sql"
	"time"

	"github.com/kirillm/sns-trade-bot/internal/domain"
)

// LogRepository реализует журнал операторских и аварийных событий
type LogRepository struct {
	db *sql.DB
}

// NewLogRepository создает новый репозиторий для логов
func NewLogRepository(db *sql.DB) *LogRepository {
	return &LogRepository{db: db}
}

// Save сохраняет запись
func (r *LogRepository) Save(l *domain.Log) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	query := `INSERT INTO logs (level, message, data, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	return r.db.QueryRow(query, l.Level, l.Message, l.Data, l.CreatedAt).Scan(&l.ID)
}

// GetRecent получает последние N записей, пустой level означает все уровни
func (r *LogRepository) GetRecent(level string, limit int) ([]domain.Log, error) {
	query := `
		SELECT id, level, message, COALESCE(data, ''), created_at
		FROM logs
		WHERE $1 = '' OR level = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(query, level, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.Log
	for rows.Next() {
		var l domain.Log
		if err := rows.Scan(&l.ID, &l.Level, &l.Message, &l.Data, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}

	return logs, rows.Err()
}
