package store

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry читает claim exp из JWT без проверки подписи.
// Подпись проверяет сервер; клиенту срок нужен только для TTL и вывода.
// Для непрозрачных токенов возвращает false.
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
