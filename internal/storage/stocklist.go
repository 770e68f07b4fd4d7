package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/internal/ledger"
	"github.com/kirillm/sns-trade-bot/internal/strategy"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

// StockEntry сохраненное состояние инструмента
type StockEntry struct {
	Code           string                    `json:"code"`
	Name           string                    `json:"name"`
	TargetQty      int                       `json:"target_qty"`
	BuyStrategies  map[string]map[string]any `json:"buy_strategy_dic"`
	SellStrategies map[string]map[string]any `json:"sell_strategy_dic"`
}

// LoadStockList читает список инструментов. Отсутствие файла не ошибка.
func LoadStockList(path string) ([]StockEntry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stock list: %w", err)
	}

	var entries []StockEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse stock list: %w", err)
	}
	return entries, nil
}

// SaveStockList перезаписывает файл целиком
func SaveStockList(path string, entries []StockEntry) error {
	if entries == nil {
		entries = []StockEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode stock list: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".stock_list-*")
	if err != nil {
		return fmt.Errorf("failed to save stock list: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to save stock list: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to save stock list: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Snapshot собирает записи по всем инструментам реестра
func Snapshot(l *ledger.Ledger) []StockEntry {
	stocks := l.Stocks(domain.HoldAll)
	entries := make([]StockEntry, 0, len(stocks))
	for _, s := range stocks {
		entries = append(entries, StockEntry{
			Code:           s.Code,
			Name:           s.Name,
			TargetQty:      s.TargetQty,
			BuyStrategies:  strategyParams(s.Strategies(ledger.SideBuy)),
			SellStrategies: strategyParams(s.Strategies(ledger.SideSell)),
		})
	}
	return entries
}

func strategyParams(list []ledger.Strategy) map[string]map[string]any {
	out := make(map[string]map[string]any, len(list))
	for _, st := range list {
		params := st.Params()
		if params == nil {
			params = map[string]any{}
		}
		out[st.Name()] = params
	}
	return out
}

// Apply переносит записи в реестр. Стратегии прикрепляются в порядке имен,
// неизвестные имена пропускаются.
func Apply(l *ledger.Ledger, reg *strategy.Registry, entries []StockEntry, logger *utils.Logger) {
	for _, e := range entries {
		if e.Code == "" {
			logger.Warn("stock list entry without code skipped")
			continue
		}
		s := l.GetOrCreate(e.Code)
		if e.Name != "" {
			s.Name = e.Name
		}
		s.TargetQty = e.TargetQty

		attachAll(reg, s, ledger.SideBuy, e.BuyStrategies, logger)
		attachAll(reg, s, ledger.SideSell, e.SellStrategies, logger)
	}
	l.SetUpdated(domain.TopicBalanceTable)
}

func attachAll(reg *strategy.Registry, s *ledger.Stock, side ledger.Side, list map[string]map[string]any, logger *utils.Logger) {
	names := make([]string, 0, len(list))
	for name := range list {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := reg.Attach(s, side, name, strategy.Params(list[name])); err != nil {
			logger.Error("%s(%s) %s strategy %s skipped: %v", s.Name, s.Code, side, name, err)
		}
	}
}
