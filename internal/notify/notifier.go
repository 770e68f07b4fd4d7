package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillm/sns-trade-bot/internal/domain"
)

// Notifier канал уведомлений о позициях и событиях. Ошибки доставки не повторяются.
type Notifier interface {
	SendBalance(ctx context.Context, positions []domain.Position) error
	SendMessage(ctx context.Context, text string) error
}

// Multi рассылает уведомление во все каналы
type Multi []Notifier

func (m Multi) SendBalance(ctx context.Context, positions []domain.Position) error {
	var errs []error
	for _, n := range m {
		if err := n.SendBalance(ctx, positions); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) SendMessage(ctx context.Context, text string) error {
	var errs []error
	for _, n := range m {
		if err := n.SendMessage(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BalanceTitle заголовок сводки по позициям
const BalanceTitle = "현재잔고"

// PositionLines возвращает три строки описания позиции: имя, цены, количество и доходность
func PositionLines(p domain.Position) [3]string {
	return [3]string{
		fmt.Sprintf("`%s` (%s)", p.Name, p.Code),
		fmt.Sprintf("현재가: %d, 매입가: %d", p.CurPrice, p.BuyPrice),
		fmt.Sprintf("수량: %d, 수익율: %.1f%%", p.Qty, p.EarningRate),
	}
}

// FormatBalance текстовая сводка для каналов без разметки блоков
func FormatBalance(positions []domain.Position) string {
	var b strings.Builder
	b.WriteString(BalanceTitle)
	b.WriteString("\n")
	if len(positions) == 0 {
		b.WriteString("(empty)\n")
	}
	for _, p := range positions {
		lines := PositionLines(p)
		b.WriteString("\n")
		b.WriteString(strings.Join(lines[:], "\n"))
		b.WriteString("\n")
	}
	return b.String()
}
