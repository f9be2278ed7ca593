package endpoints

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUserFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "endpoints.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuiltinEndpoints(t *testing.T) {
	r, err := NewRegistry("")
	require.NoError(t, err)

	list := r.List()
	require.Len(t, list, 4)
	assert.Equal(t, "polkadot", list[0].ID)
	assert.Equal(t, "wss://rpc.polkadot.io", list[0].URL)
	assert.Equal(t, "kusama", list[1].ID)
	assert.Equal(t, "westend", list[2].ID)
	assert.Equal(t, "local", list[3].ID)
	assert.Equal(t, "ws://127.0.0.1:9944", list[3].URL)
}

func TestMissingUserFileIsIgnored(t *testing.T) {
	r, err := NewRegistry(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Len(t, r.List(), 4)
}

func TestUserOverridesMergeByID(t *testing.T) {
	path := writeUserFile(t, `
[endpoints.local]
url = "ws://127.0.0.1:9955"

[endpoints.rococo]
name = "Rococo"
url = "wss://rococo-rpc.polkadot.io"
order = 40

[endpoints.kusama]
disabled = true
`)

	r, err := NewRegistry(path)
	require.NoError(t, err)

	local, ok := r.Lookup("local")
	require.True(t, ok)
	assert.Equal(t, "ws://127.0.0.1:9955", local.URL)
	assert.Equal(t, "Local node", local.Name, "unset fields keep the built-in value")
	assert.Equal(t, 100, local.Order)

	_, ok = r.Lookup("kusama")
	assert.False(t, ok)

	list := r.List()
	ids := make([]string, len(list))
	for i, ep := range list {
		ids[i] = ep.ID
	}
	assert.Equal(t, []string{"polkadot", "westend", "rococo", "local"}, ids)
}

func TestInvalidUserEntriesAreSkipped(t *testing.T) {
	path := writeUserFile(t, `
[endpoints.broken]
name = "Broken"
url = "not a url"

[endpoints.bare]
url = "ws://10.0.0.2:9944"
`)

	r, err := NewRegistry(path)
	require.NoError(t, err)

	_, ok := r.Lookup("broken")
	assert.False(t, ok)

	bare, ok := r.Lookup("bare")
	require.True(t, ok)
	assert.Equal(t, "bare", bare.Name, "name falls back to the ID")
}

func TestMalformedUserFileKeepsBuiltins(t *testing.T) {
	path := writeUserFile(t, "[endpoints.x\nurl = ")

	r, err := NewRegistry(path)
	require.Error(t, err)
	require.NotNil(t, r)
	assert.Len(t, r.List(), 4)
}

func TestOrderTiesSortByName(t *testing.T) {
	path := writeUserFile(t, `
[endpoints.b]
name = "Beta"
url = "wss://b.example"
order = 5

[endpoints.a]
name = "Alpha"
url = "wss://a.example"
order = 5
`)

	r, err := NewRegistry(path)
	require.NoError(t, err)

	list := r.List()
	assert.Equal(t, "Alpha", list[0].Name)
	assert.Equal(t, "Beta", list[1].Name)
}
