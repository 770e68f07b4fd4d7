package broker

import (
	"errors"
	"reflect"
	"testing"

	"github.com/kirillm/sns-trade-bot/internal/domain"
)

func TestParseSigned(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"-00000014688", -14688, false},
		{"+00000002915", 2915, false},
		{"  000123  ", 123, false},
		{"0", 0, false},
		{"", 0, true},
		{"   ", 0, true},
		{"12a", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseSigned(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSigned(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, domain.ErrMalformedField) {
			t.Errorf("ParseSigned(%q) error = %v, want ErrMalformedField", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseSigned(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParsePriceAndQty(t *testing.T) {
	if got, err := ParsePrice("-67200"); err != nil || got != 67200 {
		t.Errorf("ParsePrice() = %d, %v, want 67200", got, err)
	}
	if _, err := ParseQty("-3"); !errors.Is(err, domain.ErrMalformedField) {
		t.Errorf("ParseQty(-3) error = %v, want ErrMalformedField", err)
	}
	if got, err := ParseQty("000010"); err != nil || got != 10 {
		t.Errorf("ParseQty() = %d, %v, want 10", got, err)
	}
}

func TestTrimCode(t *testing.T) {
	tests := map[string]string{
		"A005930":  "005930",
		" 005930 ": "005930",
		"ABC":      "ABC",
		"":         "",
	}
	for in, want := range tests {
		if got := TrimCode(in); got != want {
			t.Errorf("TrimCode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitList(t *testing.T) {
	if got := SplitList("8000001;8000002;"); !reflect.DeepEqual(got, []string{"8000001", "8000002"}) {
		t.Errorf("SplitList() = %v", got)
	}
	if got := SplitList(""); len(got) != 0 {
		t.Errorf("SplitList(empty) = %v", got)
	}
}
