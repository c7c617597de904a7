package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken_RoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	p := &Principal{Name: "alice", Groups: []string{"ops", "sci"}}

	token, err := GenerateToken(p, secret, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := PrincipalFromToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserName())
	assert.True(t, got.IsInGroup("ops"))
	assert.True(t, got.IsInGroup("sci"))
	assert.False(t, got.IsInGroup("admin"))
}

func TestPrincipalFromToken_WrongKey(t *testing.T) {
	token, err := GenerateToken(&Principal{Name: "alice"}, []byte("right"), time.Minute)
	require.NoError(t, err)

	_, err = PrincipalFromToken(token, []byte("wrong"))
	require.Error(t, err)
}

func TestPrincipalFromToken_Expired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken(&Principal{Name: "alice"}, secret, -time.Minute)
	require.NoError(t, err)

	_, err = PrincipalFromToken(token, secret)
	require.Error(t, err)
}

func TestPrincipalFromToken_Garbage(t *testing.T) {
	_, err := PrincipalFromToken("not.a.token", []byte("k"))
	require.Error(t, err)
}

func TestPrincipalContext(t *testing.T) {
	p := &Principal{Name: "alice", Groups: []string{"ops"}}

	ctx := WithPrincipal(t.Context(), p)
	got, ok := PrincipalFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, p, got)

	_, ok = PrincipalFrom(t.Context())
	assert.False(t, ok)
}
