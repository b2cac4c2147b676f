package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

// backends возвращает все реализации KeyValue для общих тестов
func backends(t *testing.T) map[string]KeyValue {
	t.Helper()

	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "prono", "credentials.json"))
	require.NoError(t, err)
	_, rdb := newTestRedis(t)

	return map[string]KeyValue{
		"memory": NewMemoryStore(),
		"file":   fileStore,
		"redis":  NewRedisStore(rdb, ""),
	}
}

func TestKeyValue_Contract(t *testing.T) {
	ctx := context.Background()

	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := kv.Get(ctx, "missing")
			assert.True(t, errors.Is(err, ErrNotFound))

			require.NoError(t, kv.Set(ctx, "k", "v1"))
			require.NoError(t, kv.Set(ctx, "k", "v2"))
			v, err := kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v2", v)

			require.NoError(t, kv.Delete(ctx, "k"))
			require.NoError(t, kv.Delete(ctx, "k"))
			_, err = kv.Get(ctx, "k")
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestCredentialStore_RoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			cs := NewCredentialStore(kv)
			assert.False(t, cs.HasTokens(ctx))

			want := Tokens{AccessToken: "access-1", RefreshToken: "refresh-1"}
			require.NoError(t, cs.SaveTokens(ctx, want))
			assert.True(t, cs.HasTokens(ctx))

			got, err := cs.Tokens(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			require.NoError(t, cs.ClearTokens(ctx))
			require.NoError(t, cs.ClearTokens(ctx))

			got, err = cs.Tokens(ctx)
			require.NoError(t, err)
			assert.Empty(t, got.AccessToken)
			assert.Empty(t, got.RefreshToken)
		})
	}
}

func TestCredentialStore_RejectsIncompletePair(t *testing.T) {
	mem := NewMemoryStore()
	cs := NewCredentialStore(mem)

	assert.Error(t, cs.SaveTokens(context.Background(), Tokens{AccessToken: "only-access"}))
	assert.Equal(t, 0, mem.Len())
}

// failingStore отказывает в записи выбранного ключа
type failingStore struct {
	*MemoryStore
	failSet    string
	failDelete string
}

func (f *failingStore) Set(ctx context.Context, key, value string) error {
	if key == f.failSet {
		return errors.New("disk full")
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func (f *failingStore) Delete(ctx context.Context, key string) error {
	if key == f.failDelete {
		return errors.New("read-only")
	}
	return f.MemoryStore.Delete(ctx, key)
}

func TestCredentialStore_SaveRollsBack(t *testing.T) {
	fs := &failingStore{MemoryStore: NewMemoryStore(), failSet: KeyRefreshToken}
	cs := NewCredentialStore(fs)

	err := cs.SaveTokens(context.Background(), Tokens{AccessToken: "a", RefreshToken: "r"})
	require.Error(t, err)
	assert.Equal(t, 0, fs.Len(), "access token must be rolled back")
}

func TestCredentialStore_ClearAttemptsBothKeys(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{MemoryStore: NewMemoryStore(), failDelete: KeyAccessToken}
	require.NoError(t, fs.MemoryStore.Set(ctx, KeyAccessToken, "a"))
	require.NoError(t, fs.MemoryStore.Set(ctx, KeyRefreshToken, "r"))

	err := NewCredentialStore(fs).ClearTokens(ctx)
	require.Error(t, err)

	_, getErr := fs.Get(ctx, KeyRefreshToken)
	assert.True(t, errors.Is(getErr, ErrNotFound), "refresh token must be removed anyway")
}

func TestFileStore_PermissionsAndCleanup(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")
	fs, err := NewFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, path, fs.Path())

	require.NoError(t, fs.Set(ctx, KeyAccessToken, "a"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, fs.Delete(ctx, KeyAccessToken))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty store file must be removed")
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	fs, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = fs.Get(context.Background(), KeyAccessToken)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestNewFileStore_EmptyPath(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}

func TestRedisStore_TTLFromTokenExpiry(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	rs := NewRedisStore(rdb, "test:")

	require.NoError(t, rs.Set(ctx, KeyAccessToken, signedToken(t, time.Now().Add(time.Hour))))
	ttl := mr.TTL("test:" + KeyAccessToken)
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, "unexpected ttl %s", ttl)

	require.NoError(t, rs.Set(ctx, KeyRefreshToken, "opaque-refresh"))
	assert.Equal(t, time.Duration(0), mr.TTL("test:"+KeyRefreshToken))

	mr.FastForward(2 * time.Hour)
	_, err := rs.Get(ctx, KeyAccessToken)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRedisStore_ExpiredTokenNotStored(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	rs := NewRedisStore(rdb, "test:")

	err := rs.Set(ctx, KeyAccessToken, signedToken(t, time.Now().Add(-time.Minute)))
	assert.True(t, errors.Is(err, ErrTokenExpired))
	assert.False(t, mr.Exists("test:"+KeyAccessToken))
}

func TestCredentialStore_RedisPairSharesTTL(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	creds := NewCredentialStore(NewRedisStore(rdb, "test:"))

	access := signedToken(t, time.Now().Add(time.Minute))
	refresh := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, creds.SaveTokens(ctx, Tokens{AccessToken: access, RefreshToken: refresh}))
	assert.Equal(t, mr.TTL("test:"+KeyAccessToken), mr.TTL("test:"+KeyRefreshToken))

	// access истек, но пара остается целой до срока refresh токена
	mr.FastForward(2 * time.Minute)
	tokens, err := creds.Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, Tokens{AccessToken: access, RefreshToken: refresh}, tokens)

	mr.FastForward(time.Hour)
	tokens, err = creds.Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, Tokens{}, tokens)
}

func TestCredentialStore_RedisOpaqueRefreshKeepsPair(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	creds := NewCredentialStore(NewRedisStore(rdb, "test:"))

	access := signedToken(t, time.Now().Add(time.Minute))
	require.NoError(t, creds.SaveTokens(ctx, Tokens{AccessToken: access, RefreshToken: "refresh-0"}))

	mr.FastForward(2 * time.Minute)
	tokens, err := creds.Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, Tokens{AccessToken: access, RefreshToken: "refresh-0"}, tokens)
}

func TestCredentialStore_RedisExpiredAccessStillStored(t *testing.T) {
	ctx := context.Background()
	_, rdb := newTestRedis(t)
	creds := NewCredentialStore(NewRedisStore(rdb, "test:"))

	expired := signedToken(t, time.Now().Add(-time.Minute))
	require.NoError(t, creds.SaveTokens(ctx, Tokens{AccessToken: expired, RefreshToken: "refresh-9"}))

	tokens, err := creds.Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, Tokens{AccessToken: expired, RefreshToken: "refresh-9"}, tokens)
}

func TestCredentialStore_RedisBothExpiredFails(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	creds := NewCredentialStore(NewRedisStore(rdb, "test:"))

	err := creds.SaveTokens(ctx, Tokens{
		AccessToken:  signedToken(t, time.Now().Add(-time.Hour)),
		RefreshToken: signedToken(t, time.Now().Add(-time.Minute)),
	})
	assert.True(t, errors.Is(err, ErrTokenExpired))
	assert.False(t, mr.Exists("test:"+KeyAccessToken))
	assert.False(t, mr.Exists("test:"+KeyRefreshToken))
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)

	got, ok := TokenExpiry(signedToken(t, exp))
	require.True(t, ok)
	assert.True(t, got.Equal(exp))

	_, ok = TokenExpiry("opaque")
	assert.False(t, ok)
	_, ok = TokenExpiry("")
	assert.False(t, ok)
}
