package store

import (
	"context"
	"errors"
)

// Ключи постоянного хранилища
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
)

var (
	// ErrNotFound возвращается, когда ключ отсутствует в хранилище
	ErrNotFound = errors.New("store: key not found")
	// ErrTokenExpired возвращается при попытке сохранить только истекшие токены
	ErrTokenExpired = errors.New("store: token expired")
)

// KeyValue описывает постоянное key/value хранилище клиента.
// Delete отсутствующего ключа не является ошибкой.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// BatchWriter пишет несколько ключей одной операцией: сохраняются
// либо все значения, либо ни одного.
type BatchWriter interface {
	SetAll(ctx context.Context, values map[string]string) error
}
