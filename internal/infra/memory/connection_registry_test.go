package memory

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"live-trivia-service/internal/domain"
)

func TestConnectionRegistryBindOnce(t *testing.T) {
	reg := NewConnectionRegistry()

	require.NoError(t, reg.Bind("c1", domain.Membership{Code: "ABCDEF", Role: domain.RolePlayer}))
	err := reg.Bind("c1", domain.Membership{Code: "ZZZZZZ", Role: domain.RoleHost})
	assert.ErrorIs(t, err, domain.ErrAlreadyInGame)

	m, ok := reg.Lookup("c1")
	require.True(t, ok)
	assert.Equal(t, "ABCDEF", m.Code)
	assert.Equal(t, domain.RolePlayer, m.Role)

	m, ok = reg.Unbind("c1")
	assert.True(t, ok)
	assert.Equal(t, "ABCDEF", m.Code)
	_, ok = reg.Lookup("c1")
	assert.False(t, ok)
	_, ok = reg.Unbind("c1")
	assert.False(t, ok)
}

func TestConnectionRegistryUnbindGame(t *testing.T) {
	reg := NewConnectionRegistry()
	require.NoError(t, reg.Bind("host", domain.Membership{Code: "ABCDEF", Role: domain.RoleHost}))
	require.NoError(t, reg.Bind("p1", domain.Membership{Code: "ABCDEF", Role: domain.RolePlayer}))
	require.NoError(t, reg.Bind("other", domain.Membership{Code: "GHJKMN", Role: domain.RolePlayer}))

	ids := reg.UnbindGame("ABCDEF")
	sort.Strings(ids)
	assert.Equal(t, []string{"host", "p1"}, ids)

	_, ok := reg.Lookup("p1")
	assert.False(t, ok)
	_, ok = reg.Lookup("other")
	assert.True(t, ok)
}
