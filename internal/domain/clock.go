package domain

import "strings"

// MatchTime сравнивает биржевое время HHMMSS с шаблоном: шесть символов
// дают точное совпадение, более короткий шаблон задает окно по префиксу.
func MatchTime(pattern, hhmmss string) bool {
	if pattern == "" {
		return false
	}
	if len(pattern) >= 6 {
		return pattern == hhmmss
	}
	return strings.HasPrefix(hhmmss, pattern)
}
