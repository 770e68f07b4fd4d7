package broker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kirillm/sns-trade-bot/internal/domain"
)

// ParseSigned разбирает число брокера: ведущие нули и знак, например "-00000014688"
func ParseSigned(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value: %w", domain.ErrMalformedField)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, domain.ErrMalformedField)
	}
	return n, nil
}

// ParsePrice разбирает цену. Знак показывает направление изменения и отбрасывается.
func ParsePrice(s string) (int, error) {
	n, err := ParseSigned(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		n = -n
	}
	return int(n), nil
}

// ParseQty разбирает количество, отрицательное значение считается ошибкой
func ParseQty(s string) (int, error) {
	n, err := ParseSigned(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative quantity %d: %w", n, domain.ErrMalformedField)
	}
	return int(n), nil
}

// TrimCode убирает пробелы и префикс "A" из кода инструмента
func TrimCode(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 7 && (s[0] == 'A' || s[0] == 'a') {
		return s[1:]
	}
	return s
}

// SplitList разбивает список через ';' и отбрасывает пустые элементы
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ";") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
