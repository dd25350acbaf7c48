package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtservice "github.com/limbo/streakd/pkg/jwt_service"
)

func execute(args ...string) (string, error) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--env-file", "./does-not-exist.env"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	uid := uuid.New()

	out, err := execute("token", "--user", uid.String(), "--ttl", "2h")
	require.NoError(t, err)
	claims, err := jwtservice.New("secret").ParseToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, uid.String(), claims.UserID)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenCommandErrors(t *testing.T) {
	testCases := []struct {
		Desc   string
		Secret string
		Args   []string
	}{
		{Desc: "missing user", Secret: "secret", Args: []string{"token"}},
		{Desc: "invalid user", Secret: "secret", Args: []string{"token", "--user", "bob"}},
		{Desc: "negative ttl", Secret: "secret", Args: []string{"token", "--user", uuid.NewString(), "--ttl", "-1m"}},
		{Desc: "no secret", Secret: "", Args: []string{"token", "--user", uuid.NewString()}},
	}
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			t.Setenv("JWT_SECRET", tc.Secret)
			_, err := execute(tc.Args...)
			assert.Error(t, err)
		})
	}
}

func TestRecomputeRejectsBadUser(t *testing.T) {
	_, err := execute("recompute", "--user", "not-a-uuid")
	assert.Error(t, err)
}
