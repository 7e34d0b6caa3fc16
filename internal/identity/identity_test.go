package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/progresskeeper/internal/common"
	"github.com/dmitrijs2005/progresskeeper/internal/repositories/session"
)

type memSession struct {
	session.Repository
	values map[string][]byte
	err    error
}

func newMemSession() *memSession { return &memSession{values: map[string][]byte{}} }

func (m *memSession) Get(_ context.Context, key string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.values[key], nil
}

func (m *memSession) SetAll(_ context.Context, values map[string][]byte) error {
	if m.err != nil {
		return m.err
	}
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *memSession) Delete(_ context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func TestParseUserID_Verified(t *testing.T) {
	secret := []byte("super-secret")

	tok, err := GenerateToken("user-123", secret, time.Hour)
	require.NoError(t, err)

	id, err := ParseUserID(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-123", id)

	_, err = ParseUserID(tok, []byte("other"))
	require.ErrorIs(t, err, common.ErrUnauthenticated)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseUserID_Unverified(t *testing.T) {
	tok, err := GenerateToken("user-9", []byte("backend-secret"), time.Hour)
	require.NoError(t, err)

	id, err := ParseUserID(tok, nil)
	require.NoError(t, err)
	assert.Equal(t, "user-9", id)
}

func TestParseUserID_Expired(t *testing.T) {
	secret := []byte("s")
	tok, err := GenerateToken("u1", secret, -time.Second)
	require.NoError(t, err)

	_, err = ParseUserID(tok, secret)
	require.ErrorIs(t, err, ErrTokenExpired)
	require.ErrorIs(t, err, common.ErrUnauthenticated)

	_, err = ParseUserID(tok, nil)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseUserID_UserIDClaimFallback(t *testing.T) {
	secret := []byte("s")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "legacy-user"}).SignedString(secret)
	require.NoError(t, err)

	id, err := ParseUserID(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "legacy-user", id)
}

func TestParseUserID_Rejects(t *testing.T) {
	_, err := ParseUserID("garbage", nil)
	require.ErrorIs(t, err, ErrInvalidToken)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString([]byte("s"))
	require.NoError(t, err)
	_, err = ParseUserID(tok, nil)
	require.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseUserID(none, []byte("s"))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestStatic(t *testing.T) {
	id, err := Static("u1").CurrentUserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	_, err = Static("").CurrentUserID(context.Background())
	require.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestSessionProvider_LoginWhoamiLogout(t *testing.T) {
	ctx := context.Background()
	repo := newMemSession()
	p := NewSessionProvider(repo, nil)

	_, err := p.CurrentUserID(ctx)
	require.ErrorIs(t, err, common.ErrUnauthenticated)

	tok, err := GenerateToken("u42", []byte("k"), time.Hour)
	require.NoError(t, err)

	id, err := p.Login(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "u42", id)
	assert.NotEmpty(t, repo.values[LoggedInAtKey])

	id, err = p.CurrentUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u42", id)

	require.NoError(t, p.Logout(ctx))
	_, err = p.CurrentUserID(ctx)
	require.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestSessionProvider_LoginRejectsBadToken(t *testing.T) {
	repo := newMemSession()
	p := NewSessionProvider(repo, []byte("k"))

	_, err := p.Login(context.Background(), "nope")
	require.ErrorIs(t, err, common.ErrUnauthenticated)
	assert.Empty(t, repo.values)
}

func TestSessionProvider_StoreErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("db down")
	repo := newMemSession()
	repo.err = boom
	p := NewSessionProvider(repo, nil)

	_, err := p.CurrentUserID(ctx)
	require.ErrorIs(t, err, boom)

	tok, err := GenerateToken("u", []byte("k"), time.Hour)
	require.NoError(t, err)
	_, err = p.Login(ctx, tok)
	require.ErrorIs(t, err, boom)
}
