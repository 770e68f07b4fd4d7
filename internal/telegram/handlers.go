package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillm/sns-trade-bot/internal/condition"
	"github.com/kirillm/sns-trade-bot/internal/domain"
)

// Operator действия бота, доступные из чата. Реализация сама переносит
// вызовы в цикл событий.
type Operator interface {
	Status(ctx context.Context) (Status, error)
	Positions(ctx context.Context) ([]domain.Position, error)
	TodayProfit(ctx context.Context) (domain.DailyProfit, error)
	Conditions(ctx context.Context) ([]condition.Condition, error)
	Classify(ctx context.Context, index int, t domain.SignalType) error
	CheckCondition(ctx context.Context, index int) error
	AddTempStocks(ctx context.Context) (int, error)
	SelectAccount(ctx context.Context, account string) error
	Refresh(ctx context.Context) error
	AddCode(ctx context.Context, code string) error
	Remove(ctx context.Context, code string) error
	Attach(ctx context.Context, code, name string, params map[string]any) error
	Detach(ctx context.Context, code, target string) (int, error)
	Release(ctx context.Context, code string) (int, error)
	Sell(ctx context.Context, code string) (int, error)
	SellAll(ctx context.Context) (int, error)
	PanicStop(reason string)
	Resume()
}

// RegisterOperatorHandlers подключает команды оператора к роутеру
func RegisterOperatorHandlers(r *Router, op Operator, f *Formatter) {
	r.RegisterHandler(CmdHelp, func(ctx context.Context, args *CommandArgs) (string, error) {
		return helpText(), nil
	})

	r.RegisterHandler(CmdStatus, func(ctx context.Context, args *CommandArgs) (string, error) {
		s, err := op.Status(ctx)
		if err != nil {
			return "", err
		}
		return f.FormatStatus(s), nil
	})

	r.RegisterHandler(CmdBalance, func(ctx context.Context, args *CommandArgs) (string, error) {
		positions, err := op.Positions(ctx)
		if err != nil {
			return "", err
		}
		return f.FormatPositions(positions), nil
	})

	r.RegisterHandler(CmdProfit, func(ctx context.Context, args *CommandArgs) (string, error) {
		p, err := op.TodayProfit(ctx)
		if err != nil {
			return "", err
		}
		return f.FormatProfit(p), nil
	})

	r.RegisterHandler(CmdConditions, func(ctx context.Context, args *CommandArgs) (string, error) {
		list, err := op.Conditions(ctx)
		if err != nil {
			return "", err
		}
		return f.FormatConditions(list), nil
	})

	r.RegisterHandler(CmdClassify, func(ctx context.Context, args *CommandArgs) (string, error) {
		if err := op.Classify(ctx, args.Index, args.Signal); err != nil {
			return "", err
		}
		return f.FormatSuccess(fmt.Sprintf("condition %d -> %s", args.Index, args.Signal)), nil
	})

	r.RegisterHandler(CmdCheck, func(ctx context.Context, args *CommandArgs) (string, error) {
		if err := op.CheckCondition(ctx, args.Index); err != nil {
			return "", err
		}
		return f.FormatExecuting(fmt.Sprintf("condition %d", args.Index)), nil
	})

	r.RegisterHandler(CmdAddTemp, func(ctx context.Context, args *CommandArgs) (string, error) {
		n, err := op.AddTempStocks(ctx)
		if err != nil {
			return "", err
		}
		return f.FormatSuccess(fmt.Sprintf("%d stocks added", n)), nil
	})

	r.RegisterHandler(CmdAccount, func(ctx context.Context, args *CommandArgs) (string, error) {
		if args.Account == "" {
			s, err := op.Status(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s: %s\n%s: %s", f.T("account"), s.Account,
				f.T("accounts"), strings.Join(s.Accounts, ", ")), nil
		}
		if err := op.SelectAccount(ctx, args.Account); err != nil {
			return "", err
		}
		return f.FormatSuccess(fmt.Sprintf("%s %s", f.T("account"), args.Account)), nil
	})

	r.RegisterHandler(CmdRefresh, func(ctx context.Context, args *CommandArgs) (string, error) {
		if err := op.Refresh(ctx); err != nil {
			return "", err
		}
		return f.FormatExecuting("refresh"), nil
	})

	r.RegisterHandler(CmdAdd, func(ctx context.Context, args *CommandArgs) (string, error) {
		if err := op.AddCode(ctx, args.Code); err != nil {
			return "", err
		}
		return f.FormatExecuting("add " + args.Code), nil
	})

	r.RegisterHandler(CmdRemove, func(ctx context.Context, args *CommandArgs) (string, error) {
		if err := op.Remove(ctx, args.Code); err != nil {
			return "", err
		}
		return f.FormatSuccess(args.Code + " removed"), nil
	})

	r.RegisterHandler(CmdAttach, func(ctx context.Context, args *CommandArgs) (string, error) {
		if err := op.Attach(ctx, args.Code, args.Strategy, args.Params); err != nil {
			return "", err
		}
		return f.FormatSuccess(fmt.Sprintf("%s %s attached", args.Code, args.Strategy)), nil
	})

	r.RegisterHandler(CmdDetach, func(ctx context.Context, args *CommandArgs) (string, error) {
		n, err := op.Detach(ctx, args.Code, args.Strategy)
		if err != nil {
			return "", err
		}
		return f.FormatSuccess(fmt.Sprintf("%s %d strategies detached", args.Code, n)), nil
	})

	r.RegisterHandler(CmdRelease, func(ctx context.Context, args *CommandArgs) (string, error) {
		n, err := op.Release(ctx, args.Code)
		if err != nil {
			return "", err
		}
		return f.FormatSuccess(fmt.Sprintf("%s %d sides released", args.Code, n)), nil
	})

	r.RegisterHandler(CmdSell, func(ctx context.Context, args *CommandArgs) (string, error) {
		qty, err := op.Sell(ctx, args.Code)
		if err != nil {
			return "", err
		}
		return f.FormatExecuting(fmt.Sprintf("sell %s %d", args.Code, qty)), nil
	})

	r.RegisterHandler(CmdSellAll, func(ctx context.Context, args *CommandArgs) (string, error) {
		n, err := op.SellAll(ctx)
		if err != nil {
			return "", err
		}
		return f.FormatExecuting(fmt.Sprintf("sell all (%d orders)", n)), nil
	})

	r.RegisterHandler(CmdPanicStop, func(ctx context.Context, args *CommandArgs) (string, error) {
		switch args.Action {
		case "on":
			op.PanicStop("manual stop from telegram")
			return "🚨 " + f.T("kill_switch") + ": " + f.T("active"), nil
		case "off":
			op.Resume()
			return "🟢 " + f.T("kill_switch") + ": " + f.T("inactive"), nil
		}
		s, err := op.Status(ctx)
		if err != nil {
			return "", err
		}
		if s.KillSwitch {
			return fmt.Sprintf("🚨 %s: %s (%s)", f.T("kill_switch"), f.T("active"), s.KillReason), nil
		}
		return "🟢 " + f.T("kill_switch") + ": " + f.T("inactive"), nil
	})

	r.RegisterHandler(CmdResume, func(ctx context.Context, args *CommandArgs) (string, error) {
		op.Resume()
		return "🟢 " + f.T("kill_switch") + ": " + f.T("inactive"), nil
	})
}

func helpText() string {
	return strings.Join([]string{
		"command list",
		"/status - account and bot state",
		"/balance - positions",
		"/profit - realized today",
		"/conditions - condition list",
		"/classify <index> <buy|sell|buy_on_closing|undefined>",
		"/check <index> - run condition once",
		"/addtemp - add last search result",
		"/account [no] - show or select account",
		"/refresh - request balance again",
		"/add <code> - add stock",
		"/remove <code> - remove stock without position",
		"/attach <code> <strategy> [key=value ...]",
		"/detach <code> <strategy|buy|sell|all>",
		"/release <code> - allow orders again after a rejection",
		"/sell <code> - sell whole position",
		"/sellall - sell all positions",
		"/panicstop [on|off] - kill switch",
		"/resume - release kill switch",
	}, "\n")
}
