package store

import (
	"context"
	"errors"
	"fmt"
)

// Tokens пара bearer токенов сессии
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// CredentialStore хранит пару токенов поверх key/value хранилища.
// Писать в него должен только контроллер сессии; остальные читают.
type CredentialStore struct {
	kv KeyValue
}

// NewCredentialStore создает хранилище токенов
func NewCredentialStore(kv KeyValue) *CredentialStore {
	return &CredentialStore{kv: kv}
}

// AccessToken возвращает access токен или пустую строку, если его нет
func (cs *CredentialStore) AccessToken(ctx context.Context) (string, error) {
	return cs.get(ctx, KeyAccessToken)
}

// RefreshToken возвращает refresh токен или пустую строку, если его нет
func (cs *CredentialStore) RefreshToken(ctx context.Context) (string, error) {
	return cs.get(ctx, KeyRefreshToken)
}

// Tokens возвращает оба токена
func (cs *CredentialStore) Tokens(ctx context.Context) (Tokens, error) {
	access, err := cs.AccessToken(ctx)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := cs.RefreshToken(ctx)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// HasTokens сообщает о наличии access токена
func (cs *CredentialStore) HasTokens(ctx context.Context) bool {
	access, err := cs.AccessToken(ctx)
	return err == nil && access != ""
}

// SaveTokens сохраняет оба токена. Хранилище с BatchWriter пишет пару
// одной операцией; иначе при ошибке второго ключа первый откатывается.
// В хранилище не остается половины пары.
func (cs *CredentialStore) SaveTokens(ctx context.Context, tokens Tokens) error {
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return fmt.Errorf("пара токенов неполная")
	}

	if bw, ok := cs.kv.(BatchWriter); ok {
		err := bw.SetAll(ctx, map[string]string{
			KeyAccessToken:  tokens.AccessToken,
			KeyRefreshToken: tokens.RefreshToken,
		})
		if err != nil {
			return fmt.Errorf("ошибка сохранения токенов: %w", err)
		}
		return nil
	}

	if err := cs.kv.Set(ctx, KeyAccessToken, tokens.AccessToken); err != nil {
		return fmt.Errorf("ошибка сохранения access токена: %w", err)
	}
	if err := cs.kv.Set(ctx, KeyRefreshToken, tokens.RefreshToken); err != nil {
		_ = cs.kv.Delete(ctx, KeyAccessToken)
		return fmt.Errorf("ошибка сохранения refresh токена: %w", err)
	}
	return nil
}

// ClearTokens удаляет оба токена. Второй ключ удаляется,
// даже если удаление первого завершилось ошибкой.
func (cs *CredentialStore) ClearTokens(ctx context.Context) error {
	accessErr := cs.kv.Delete(ctx, KeyAccessToken)
	refreshErr := cs.kv.Delete(ctx, KeyRefreshToken)
	return errors.Join(accessErr, refreshErr)
}

func (cs *CredentialStore) get(ctx context.Context, key string) (string, error) {
	v, err := cs.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}
