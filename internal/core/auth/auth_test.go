package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-management-service/internal/domain"
)

var errMissing = errors.New("missing")

type memUsers map[int64]*domain.User

func (m memUsers) Get(_ context.Context, id int64) (*domain.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, errMissing
}

type memDeny map[string]time.Duration

func (m memDeny) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := m[jti]
	return ok, nil
}

func (m memDeny) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	m[jti] = ttl
	return nil
}

func newJWTer() *JWTer {
	return &JWTer{Secret: []byte("test-secret"), Issuer: "test", TTL: time.Hour}
}

func newDeps(users memUsers, deny Denylist) Deps {
	return Deps{
		JWT:      newJWTer(),
		Denylist: deny,
		Users:    users,
		NotFound: func(err error) bool { return errors.Is(err, errMissing) },
	}
}

func TestJWT_RoundTrip(t *testing.T) {
	j := newJWTer()
	tok, err := j.Issue(42)
	require.NoError(t, err)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	id, err := c.UserID()
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
	assert.Equal(t, "test", c.Issuer)
	assert.NotEmpty(t, c.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), c.ExpiresAt.Time, 5*time.Second)
}

func TestJWT_Rejects(t *testing.T) {
	j := newJWTer()
	tok, err := j.Issue(1)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := &JWTer{Secret: []byte("other"), Issuer: "test", TTL: time.Hour}
		_, err := other.Parse(tok)
		assert.Error(t, err)
	})
	t.Run("wrong issuer", func(t *testing.T) {
		other := &JWTer{Secret: j.Secret, Issuer: "someone-else", TTL: time.Hour}
		_, err := other.Parse(tok)
		assert.Error(t, err)
	})
	t.Run("expired", func(t *testing.T) {
		late := &JWTer{Secret: j.Secret, Issuer: "test", Now: func() time.Time { return time.Now().Add(2 * time.Hour) }}
		_, err := late.Parse(tok)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := j.Parse("not.a.token")
		assert.Error(t, err)
	})
	t.Run("other alg", func(t *testing.T) {
		raw := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
			Subject: "1", Issuer: "test", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		s, err := raw.SignedString(j.Secret)
		require.NoError(t, err)
		_, err = j.Parse(s)
		assert.Error(t, err)
	})
}

func TestClaims_UserID(t *testing.T) {
	for _, sub := range []string{"", "abc", "0", "-4"} {
		c := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: sub}}
		_, err := c.UserID()
		assert.Error(t, err, sub)
	}
}

func TestChain_Stages(t *testing.T) {
	users := memUsers{
		1: {ID: 1, Email: "ok@b.com", IsActive: true},
		2: {ID: 2, Email: "off@b.com", IsActive: false, IsSuperuser: true},
		3: {ID: 3, Email: "root@b.com", IsActive: true, IsSuperuser: true},
	}
	d := newDeps(users, nil)
	token := func(id int64) string {
		tok, err := d.JWT.Issue(id)
		require.NoError(t, err)
		return tok
	}

	cases := []struct {
		name  string
		guard Guard
		token string
		want  error
	}{
		{"missing token", d.CurrentUser(), "", ErrInvalidCredentials},
		{"bad token", d.CurrentUser(), "xxx", ErrInvalidCredentials},
		{"unknown user", d.CurrentUser(), token(99), ErrUserNotFound},
		{"inactive passes current user", d.CurrentUser(), token(2), nil},
		{"inactive rejected", d.CurrentActiveUser(), token(2), ErrInactiveUser},
		{"inactive superuser rejected before privilege", d.CurrentActiveSuperuser(), token(2), ErrInactiveUser},
		{"active user", d.CurrentActiveUser(), token(1), nil},
		{"not superuser", d.CurrentActiveSuperuser(), token(1), ErrNotSuperuser},
		{"superuser", d.CurrentActiveSuperuser(), token(3), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &Subject{Token: tc.token}
			err := tc.guard(context.Background(), s)
			if tc.want == nil {
				require.NoError(t, err)
				require.NotNil(t, s.User)
				require.NotNil(t, s.Claims)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestChain_ShortCircuits(t *testing.T) {
	var calls []string
	step := func(name string, err error) Guard {
		return func(context.Context, *Subject) error {
			calls = append(calls, name)
			return err
		}
	}
	boom := errors.New("boom")
	err := Chain(step("a", nil), step("b", boom), step("c", nil))(context.Background(), &Subject{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestDecodeToken_Revoked(t *testing.T) {
	deny := memDeny{}
	d := newDeps(memUsers{1: {ID: 1, IsActive: true}}, deny)
	tok, err := d.JWT.Issue(1)
	require.NoError(t, err)

	s := &Subject{Token: tok}
	require.NoError(t, d.CurrentActiveUser()(context.Background(), s))
	require.NoError(t, deny.Revoke(context.Background(), s.Claims.ID, time.Hour))

	err = d.CurrentActiveUser()(context.Background(), &Subject{Token: tok})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolveUser_LoaderFault(t *testing.T) {
	fault := errors.New("db down")
	loader := loaderFunc(func(context.Context, int64) (*domain.User, error) { return nil, fault })
	d := Deps{JWT: newJWTer(), Users: loader, NotFound: func(err error) bool { return errors.Is(err, errMissing) }}
	tok, err := d.JWT.Issue(1)
	require.NoError(t, err)

	err = d.CurrentUser()(context.Background(), &Subject{Token: tok})
	assert.ErrorIs(t, err, fault)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}

type loaderFunc func(context.Context, int64) (*domain.User, error)

func (f loaderFunc) Get(ctx context.Context, id int64) (*domain.User, error) { return f(ctx, id) }
