// Package identity answers "who is the current user" for the photo services.
//
// The session token is issued by the remote backend and stored in the local
// session table; this package only reads and validates it.
package identity

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/progresskeeper/internal/common"
	"github.com/dmitrijs2005/progresskeeper/internal/repositories/session"
)

// LoggedInAtKey records when the stored token was accepted.
const LoggedInAtKey = "logged_in_at"

// Provider returns the current user id or fails with
// common.ErrUnauthenticated.
type Provider interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// Static always reports the same user. An empty Static is unauthenticated.
type Static string

func (s Static) CurrentUserID(context.Context) (string, error) {
	if s == "" {
		return "", common.ErrUnauthenticated
	}
	return string(s), nil
}

// SessionProvider reads the session token from the local session store.
type SessionProvider struct {
	repo   session.Repository
	secret []byte
}

func NewSessionProvider(repo session.Repository, secret []byte) *SessionProvider {
	return &SessionProvider{repo: repo, secret: secret}
}

func (p *SessionProvider) CurrentUserID(ctx context.Context) (string, error) {
	token, err := p.repo.Get(ctx, common.AccessTokenKey)
	if err != nil {
		return "", err
	}
	if len(token) == 0 {
		return "", common.ErrUnauthenticated
	}
	return ParseUserID(string(token), p.secret)
}

// Login validates token and stores it as the current session. It returns
// the user id the token carries.
func (p *SessionProvider) Login(ctx context.Context, token string) (string, error) {
	userID, err := ParseUserID(token, p.secret)
	if err != nil {
		return "", err
	}

	err = p.repo.SetAll(ctx, map[string][]byte{
		common.AccessTokenKey: []byte(token),
		LoggedInAtKey:         []byte(strconv.FormatInt(time.Now().UnixMilli(), 10)),
	})
	if err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return userID, nil
}

// Logout forgets the stored session.
func (p *SessionProvider) Logout(ctx context.Context) error {
	if err := p.repo.Delete(ctx, common.AccessTokenKey); err != nil {
		return err
	}
	return p.repo.Delete(ctx, LoggedInAtKey)
}
