package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kirillm/sns-trade-bot/internal/domain"
)

// CommandArgs представляет распарсенные аргументы команды
type CommandArgs struct {
	Command string
	Code    string
	Index   int
	Signal  domain.SignalType
	Account string
	Action  string // on/off/status для panicstop
	// Strategy имя стратегии, для detach также buy, sell или all
	Strategy string
	Params   map[string]any
	Raw      []string
}

// CommandType представляет тип команды
type CommandType string

const (
	// Info commands
	CmdStatus     CommandType = "status"
	CmdBalance    CommandType = "balance"
	CmdProfit     CommandType = "profit"
	CmdConditions CommandType = "conditions"
	CmdHelp       CommandType = "help"

	// Operator commands
	CmdRefresh  CommandType = "refresh"
	CmdAccount  CommandType = "account"
	CmdClassify CommandType = "classify"
	CmdCheck    CommandType = "check"
	CmdAddTemp  CommandType = "addtemp"
	CmdAdd      CommandType = "add"
	CmdRemove   CommandType = "remove"
	CmdAttach   CommandType = "attach"
	CmdDetach   CommandType = "detach"
	CmdRelease  CommandType = "release"

	// Admin commands
	CmdSell      CommandType = "sell"
	CmdSellAll   CommandType = "sellall"
	CmdPanicStop CommandType = "panicstop"
	CmdResume    CommandType = "resume"
)

// ParseCommand парсит команду и аргументы
func ParseCommand(text string) (*CommandArgs, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return nil, fmt.Errorf("not a command")
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	cmd := strings.TrimPrefix(parts[0], "/")
	// /status@my_bot в групповых чатах
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	cmd = normalizeCommand(cmd)
	args := &CommandArgs{
		Command: cmd,
		Raw:     parts[1:],
	}

	switch CommandType(cmd) {
	case CmdStatus, CmdBalance, CmdProfit, CmdConditions, CmdHelp, CmdRefresh,
		CmdAddTemp, CmdSellAll, CmdResume, "start":
		return args, nil

	case CmdAccount:
		// /account [NO]
		if len(parts) >= 2 {
			args.Account = strings.TrimSpace(parts[1])
		}
		return args, nil

	case CmdClassify:
		// /classify <INDEX> <TYPE>
		if len(parts) < 3 {
			return nil, fmt.Errorf("usage: /classify <INDEX> <buy|sell|buy_on_closing|undefined>")
		}
		index, err := parseIndex(parts[1])
		if err != nil {
			return nil, err
		}
		signal, err := domain.ParseSignalType(parts[2])
		if err != nil {
			return nil, fmt.Errorf("unknown signal type %q: %w", parts[2], err)
		}
		args.Index = index
		args.Signal = signal
		return args, nil

	case CmdSell, CmdAdd, CmdRemove, CmdRelease:
		// /sell <CODE>
		if len(parts) < 2 {
			return nil, fmt.Errorf("usage: /%s <CODE>", cmd)
		}
		code, err := normalizeCode(parts[1])
		if err != nil {
			return nil, err
		}
		args.Code = code
		return args, nil

	case CmdAttach:
		// /attach <CODE> <STRATEGY> [key=value ...]
		if len(parts) < 3 {
			return nil, fmt.Errorf("usage: /attach <CODE> <STRATEGY> [key=value ...]")
		}
		code, err := normalizeCode(parts[1])
		if err != nil {
			return nil, err
		}
		params, err := parseParams(parts[3:])
		if err != nil {
			return nil, err
		}
		args.Code = code
		args.Strategy = strings.ToLower(parts[2])
		args.Params = params
		return args, nil

	case CmdDetach:
		// /detach <CODE> <STRATEGY|buy|sell|all>
		if len(parts) < 3 {
			return nil, fmt.Errorf("usage: /detach <CODE> <STRATEGY|buy|sell|all>")
		}
		code, err := normalizeCode(parts[1])
		if err != nil {
			return nil, err
		}
		args.Code = code
		args.Strategy = strings.ToLower(parts[2])
		return args, nil

	case CmdCheck:
		// /check <INDEX>
		if len(parts) < 2 {
			return nil, fmt.Errorf("usage: /check <INDEX>")
		}
		index, err := parseIndex(parts[1])
		if err != nil {
			return nil, err
		}
		args.Index = index
		return args, nil

	case CmdPanicStop:
		// /panicstop [on|off]
		if len(parts) >= 2 {
			args.Action = normalizeAction(parts[1])
			if args.Action != "on" && args.Action != "off" {
				return nil, fmt.Errorf("usage: /panicstop [on|off]")
			}
		} else {
			args.Action = "status"
		}
		return args, nil

	default:
		return nil, fmt.Errorf("unknown command: %s", cmd)
	}
}

// normalizeCode приводит код инструмента к шести цифрам
func normalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	code = strings.TrimPrefix(code, "A")
	if len(code) != 6 {
		return "", fmt.Errorf("invalid stock code %q", code)
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return "", fmt.Errorf("invalid stock code %q", code)
		}
	}
	return code, nil
}

// normalizeCommand нормализует команду (поддержка русского и корейского)
func normalizeCommand(cmd string) string {
	cmd = strings.ToLower(strings.TrimSpace(cmd))

	aliases := map[string]string{
		"статус":     "status",
		"баланс":     "balance",
		"прибыль":    "profit",
		"условия":    "conditions",
		"помощь":     "help",
		"продатьвсе": "sellall",
		"стоп":       "panicstop",
		"продать":    "sell",
		"잔고":         "balance",
		"상태":         "status",
		"수익":         "profit",
		"조건":         "conditions",
		"도움":         "help",
		"sell_all":   "sellall",
		"panic":      "panicstop",
	}

	if en, ok := aliases[cmd]; ok {
		return en
	}

	return cmd
}

// normalizeAction нормализует действие (on/off)
func normalizeAction(action string) string {
	action = strings.ToLower(strings.TrimSpace(action))

	actionMap := map[string]string{
		"вкл":       "on",
		"включить":  "on",
		"да":        "on",
		"yes":       "on",
		"выкл":      "off",
		"выключить": "off",
		"нет":       "off",
		"no":        "off",
	}

	if normalized, ok := actionMap[action]; ok {
		return normalized
	}

	return action
}

// parseParams разбирает параметры стратегии вида key=value. Числа сохраняются как float64.
func parseParams(fields []string) (map[string]any, error) {
	params := make(map[string]any, len(fields))
	for _, f := range fields {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" || value == "" {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", f)
		}
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			params[key] = n
		} else {
			params[key] = value
		}
	}
	return params, nil
}

// parseIndex парсит неотрицательный индекс условия
func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || index < 0 {
		return 0, fmt.Errorf("invalid condition index %q", s)
	}
	return index, nil
}
