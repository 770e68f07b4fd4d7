package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/internal/storage/repository"
	_ "github.com/lib/pq"
)

// PostgresStorage является фасадом журнала торговли в PostgreSQL
type PostgresStorage struct {
	db     *sql.DB
	orders domain.OrderRepository
	fills  domain.FillRepository
	pnl    domain.ProfitRepository
	config domain.ConfigRepository
	logs   domain.LogRepository
}

func NewPostgresStorage(host string, port int, user, password, dbname, sslmode string, maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration) (*PostgresStorage, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w: %v", domain.ErrDatabaseConnection, err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	storage := &PostgresStorage{
		db:     db,
		orders: repository.NewOrderRepository(db),
		fills:  repository.NewFillRepository(db),
		pnl:    repository.NewPnLRepository(db),
		config: repository.NewConfigRepository(db),
		logs:   repository.NewLogRepository(db),
	}

	if err := storage.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGSERIAL PRIMARY KEY,
			job_id VARCHAR(36) NOT NULL,
			account VARCHAR(20) NOT NULL,
			code VARCHAR(12) NOT NULL,
			name VARCHAR(100) NOT NULL DEFAULT '',
			side VARCHAR(10) NOT NULL,
			quantity INTEGER NOT NULL,
			ret_code INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS fills (
			id BIGSERIAL PRIMARY KEY,
			account VARCHAR(20) NOT NULL DEFAULT '',
			order_no VARCHAR(20) NOT NULL DEFAULT '',
			code VARCHAR(12) NOT NULL,
			name VARCHAR(100) NOT NULL DEFAULT '',
			side VARCHAR(10) NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL,
			price BIGINT NOT NULL DEFAULT 0,
			quantity INTEGER NOT NULL DEFAULT 0,
			remained_qty INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS daily_pnl (
			id BIGSERIAL PRIMARY KEY,
			account VARCHAR(20) NOT NULL,
			trade_date CHAR(8) NOT NULL,
			realized BIGINT NOT NULL,
			buy_amount BIGINT NOT NULL,
			sell_amount BIGINT NOT NULL,
			commission BIGINT NOT NULL,
			tax BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (account, trade_date)
		)`,
		`CREATE TABLE IF NOT EXISTS config_params (
			id SERIAL PRIMARY KEY,
			key VARCHAR(100) NOT NULL UNIQUE,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS logs (
			id SERIAL PRIMARY KEY,
			level VARCHAR(10) NOT NULL,
			message TEXT NOT NULL,
			data TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		// Индексы
		`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_fills_code ON fills(code)`,
		`CREATE INDEX IF NOT EXISTS idx_fills_created_at ON fills(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// ==================== ORDERS ====================

func (s *PostgresStorage) SaveOrder(o *domain.OrderRecord) error {
	return s.orders.Save(o)
}

func (s *PostgresStorage) GetRecentOrders(limit int) ([]domain.OrderRecord, error) {
	return s.orders.GetRecent(limit)
}

// ==================== FILLS ====================

func (s *PostgresStorage) SaveFill(f *domain.FillRecord) error {
	return s.fills.Save(f)
}

func (s *PostgresStorage) GetFills(code string, limit int) ([]domain.FillRecord, error) {
	return s.fills.GetByCode(code, limit)
}

// ==================== DAILY PNL ====================

func (s *PostgresStorage) UpsertProfit(p *domain.DailyProfit) error {
	return s.pnl.Upsert(p)
}

func (s *PostgresStorage) GetRecentProfits(account string, limit int) ([]domain.DailyProfit, error) {
	return s.pnl.GetRecent(account, limit)
}

// ==================== CONFIG PARAMS ====================

func (s *PostgresStorage) SetConfigParam(key, value string) error {
	return s.config.Set(key, value)
}

func (s *PostgresStorage) GetConfigParam(key string) (string, error) {
	return s.config.Get(key)
}

func (s *PostgresStorage) GetConfigParams(prefix string) (map[string]string, error) {
	return s.config.GetByPrefix(prefix)
}

// ==================== LOGS ====================

func (s *PostgresStorage) SaveLog(l *domain.Log) error {
	return s.logs.Save(l)
}

func (s *PostgresStorage) GetRecentLogs(level string, limit int) ([]domain.Log, error) {
	return s.logs.GetRecent(level, limit)
}

// Close закрывает соединение с базой данных
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
