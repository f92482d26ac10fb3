package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitList(t *testing.T) {
	t.Parallel()

	t.Run("empty string yields nil", func(t *testing.T) {
		require.Nil(t, SplitList(""))
	})

	t.Run("single value", func(t *testing.T) {
		require.Equal(t, []string{"https://example.com/cb"}, SplitList("https://example.com/cb"))
	})

	t.Run("segments are not trimmed", func(t *testing.T) {
		require.Equal(t,
			[]string{"https://a.example", " https://b.example"},
			SplitList("https://a.example, https://b.example"),
		)
	})

	t.Run("empty segments are preserved", func(t *testing.T) {
		require.Equal(t, []string{"a", "", "b"}, SplitList("a,,b"))
		require.Equal(t, []string{"", "a", ""}, SplitList(",a,"))
	})
}

func TestJoinListRoundTrip(t *testing.T) {
	t.Parallel()

	values := []string{"https://a.example", " spaced", "", "last"}
	require.Equal(t, values, SplitList(JoinList(values)))
}

func TestClientAllowsGrant(t *testing.T) {
	t.Parallel()

	c := Client{Grants: []string{"client_credentials", "refresh_token"}}

	require.True(t, c.AllowsGrant("client_credentials"))
	require.True(t, c.AllowsGrant("refresh_token"))
	require.False(t, c.AllowsGrant("password"))
	require.False(t, c.AllowsGrant(""))

	empty := Client{}
	require.False(t, empty.AllowsGrant("client_credentials"))
}
