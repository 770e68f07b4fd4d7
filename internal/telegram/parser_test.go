package telegram

import (
	"reflect"
	"testing"

	"github.com/kirillm/sns-trade-bot/internal/domain"
)

func TestParseCommand_Simple(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantCmd string
		wantErr bool
	}{
		{"simple status", "/status", "status", false},
		{"uppercase", "/STATUS", "status", false},
		{"with spaces", "  /balance  ", "balance", false},
		{"bot suffix", "/conditions@sns_bot", "conditions", false},
		{"russian alias", "/баланс", "balance", false},
		{"korean alias", "/잔고", "balance", false},
		{"sell_all alias", "/sell_all", "sellall", false},
		{"not a command", "status", "", true},
		{"unknown", "/gridinit", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := ParseCommand(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseCommand() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && args.Command != tt.wantCmd {
				t.Errorf("ParseCommand() command = %v, want %v", args.Command, tt.wantCmd)
			}
		})
	}
}

func TestParseCommand_Classify(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantIndex  int
		wantSignal domain.SignalType
		wantErr    bool
	}{
		{"buy", "/classify 3 buy", 3, domain.SignalBuy, false},
		{"sell upper", "/classify 0 SELL", 0, domain.SignalSell, false},
		{"closing", "/classify 12 buy_on_closing", 12, domain.SignalBuyOnClosing, false},
		{"undefined", "/classify 1 undefined", 1, domain.SignalUndefined, false},
		{"missing type", "/classify 3", 0, "", true},
		{"bad index", "/classify x buy", 0, "", true},
		{"negative index", "/classify -1 buy", 0, "", true},
		{"bad type", "/classify 1 hold", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := ParseCommand(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseCommand() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if args.Index != tt.wantIndex {
				t.Errorf("ParseCommand() index = %v, want %v", args.Index, tt.wantIndex)
			}
			if args.Signal != tt.wantSignal {
				t.Errorf("ParseCommand() signal = %v, want %v", args.Signal, tt.wantSignal)
			}
		})
	}
}

func TestParseCommand_Sell(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode string
		wantErr  bool
	}{
		{"plain", "/sell 005930", "005930", false},
		{"prefixed", "/sell A005930", "005930", false},
		{"no code", "/sell", "", true},
		{"short", "/sell 5930", "", true},
		{"letters", "/sell 00593X", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := ParseCommand(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseCommand() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && args.Code != tt.wantCode {
				t.Errorf("ParseCommand() code = %v, want %v", args.Code, tt.wantCode)
			}
		})
	}
}

func TestParseCommand_PanicStop(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantAction string
		wantErr    bool
	}{
		{"status", "/panicstop", "status", false},
		{"on", "/panicstop on", "on", false},
		{"off russian", "/panicstop выкл", "off", false},
		{"yes", "/panicstop yes", "on", false},
		{"bad", "/panicstop maybe", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := ParseCommand(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseCommand() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && args.Action != tt.wantAction {
				t.Errorf("ParseCommand() action = %v, want %v", args.Action, tt.wantAction)
			}
		})
	}
}

func TestParseCommand_AccountAndCheck(t *testing.T) {
	args, err := ParseCommand("/account 8000001")
	if err != nil || args.Account != "8000001" {
		t.Errorf("ParseCommand(/account) = %+v, %v", args, err)
	}
	args, err = ParseCommand("/account")
	if err != nil || args.Account != "" {
		t.Errorf("ParseCommand(/account) without number = %+v, %v", args, err)
	}
	args, err = ParseCommand("/check 7")
	if err != nil || args.Index != 7 {
		t.Errorf("ParseCommand(/check 7) = %+v, %v", args, err)
	}
	if _, err := ParseCommand("/check"); err == nil {
		t.Error("ParseCommand(/check) should require an index")
	}
}

func TestParseCommand_Strategy(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantCode   string
		wantName   string
		wantParams map[string]any
		wantErr    bool
	}{
		{"attach no params", "/attach 005930 buy_just_buy", "005930", "buy_just_buy", map[string]any{}, false},
		{"attach numbers", "/attach A005930 SELL_STOP_LOSS threshold=-5 from_top=-1.5", "005930", "sell_stop_loss",
			map[string]any{"threshold": -5.0, "from_top": -1.5}, false},
		{"attach time kept numeric", "/attach 005930 buy_on_closing time=152500", "005930", "buy_on_closing",
			map[string]any{"time": 152500.0}, false},
		{"attach string param", "/attach 005930 buy_on_opening mode=fast", "005930", "buy_on_opening",
			map[string]any{"mode": "fast"}, false},
		{"attach bad param", "/attach 005930 buy_just_buy budget", "", "", nil, true},
		{"attach missing strategy", "/attach 005930", "", "", nil, true},
		{"attach bad code", "/attach 5930 buy_just_buy", "", "", nil, true},
		{"detach side", "/detach 005930 sell", "005930", "sell", nil, false},
		{"detach missing target", "/detach 005930", "", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := ParseCommand(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCommand() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if args.Code != tt.wantCode || args.Strategy != tt.wantName {
				t.Errorf("ParseCommand() = %s %s, want %s %s", args.Code, args.Strategy, tt.wantCode, tt.wantName)
			}
			if tt.wantParams != nil && !reflect.DeepEqual(args.Params, tt.wantParams) {
				t.Errorf("ParseCommand() params = %v, want %v", args.Params, tt.wantParams)
			}
		})
	}
}

func TestParseCommand_CodeCommands(t *testing.T) {
	for _, input := range []string{"/add 005930", "/remove a005930", "/release 005930"} {
		args, err := ParseCommand(input)
		if err != nil {
			t.Errorf("ParseCommand(%q) error = %v", input, err)
			continue
		}
		if args.Code != "005930" {
			t.Errorf("ParseCommand(%q) code = %q", input, args.Code)
		}
	}
	if _, err := ParseCommand("/remove"); err == nil {
		t.Error("ParseCommand(/remove) should require a code")
	}
}
