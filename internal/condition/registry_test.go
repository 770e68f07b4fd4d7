package condition

import (
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

func newTestRegistry() *Registry {
	return NewRegistry(utils.NewLoggerWithWriter("error", io.Discard))
}

func TestRegistry_ReplaceAllKeepsSignalType(t *testing.T) {
	r := newTestRegistry()
	r.ReplaceAll(map[int]string{1: "A", 2: "B"})
	if err := r.Classify(1, domain.SignalSell); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	r.ReplaceAll(map[int]string{1: "A2", 3: "C"})

	want := []Condition{
		{Index: 1, Name: "A2", SignalType: domain.SignalSell},
		{Index: 3, Name: "C", SignalType: domain.SignalUndefined},
	}
	if got := r.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %+v, want %+v", got, want)
	}
}

func TestRegistry_Classify(t *testing.T) {
	r := newTestRegistry()
	r.ReplaceAll(map[int]string{5: "gap"})

	tests := []struct {
		name    string
		index   int
		typ     domain.SignalType
		wantErr error
	}{
		{"known", 5, domain.SignalBuy, nil},
		{"unknown", 6, domain.SignalSell, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Classify(tt.index, tt.typ)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Classify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if r.Get(5).SignalType != domain.SignalBuy {
		t.Errorf("SignalType = %s", r.Get(5).SignalType)
	}
}

func TestRegistry_GetCreatesOnMiss(t *testing.T) {
	r := newTestRegistry()
	c := r.Get(9)
	if c.Name != UndefinedName || c.SignalType != domain.SignalUndefined {
		t.Errorf("Get() = %+v", c)
	}
	if r.Get(9) != c {
		t.Error("Get() created a second instance")
	}
	if len(r.List()) != 1 {
		t.Errorf("List() len = %d, want 1", len(r.List()))
	}
}

func TestParseNameList(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[int]string
		wantErr bool
	}{
		{"two", "000^골든크로스;001^급등;", map[int]string{0: "골든크로스", 1: "급등"}, false},
		{"empty", "", map[int]string{}, false},
		{"caret in name", "002^a^b;", map[int]string{2: "a^b"}, false},
		{"missing caret", "003;", nil, true},
		{"bad index", "x^name;", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNameList(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseNameList() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseNameList() = %v, want %v", got, tt.want)
			}
		})
	}
}
