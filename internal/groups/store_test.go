package groups

import (
	"path/filepath"
	"testing"

	"github.com/dl-alexandre/mail/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(t *testing.T, raw string) types.Address {
	t.Helper()
	a, err := types.ParseAddress(raw)
	require.NoError(t, err)
	return a
}

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore(t.TempDir())

	group, err := store.Create("team", []types.Address{addr(t, "a@x.com"), addr(t, "b@x.com")})
	require.NoError(t, err)
	assert.Len(t, group.Members, 2)

	loaded, err := store.Get("team")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", loaded.Members[0].Email())
	assert.Equal(t, "b@x.com", loaded.Members[1].Email())
}

func TestStore_Get_UnknownGroup(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Get("nope")
	var unknown *ErrUnknownGroup
	assert.ErrorAs(t, err, &unknown)
}

func TestStore_AddMember_RejectsDuplicate(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Create("team", []types.Address{addr(t, "a@x.com")})
	require.NoError(t, err)

	_, err = store.AddMember("team", addr(t, "A@X.COM"))
	var dup *ErrDuplicateMember
	assert.ErrorAs(t, err, &dup, "domain comparison is case-insensitive")
}

func TestStore_AddMember_PreservesOrder(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Create("team", []types.Address{addr(t, "a@x.com")})
	require.NoError(t, err)

	group, err := store.AddMember("team", addr(t, "b@x.com"))
	require.NoError(t, err)
	require.Len(t, group.Members, 2)
	assert.Equal(t, "a@x.com", group.Members[0].Email())
	assert.Equal(t, "b@x.com", group.Members[1].Email())
}

func TestStore_Delete_WritesBackup(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	_, err := store.Create("team", []types.Address{addr(t, "a@x.com")})
	require.NoError(t, err)

	require.NoError(t, store.Delete("team"))

	matches, err := filepath.Glob(filepath.Join(dir, storeFileName+".backup.*"))
	require.NoError(t, err)
	assert.NotEmpty(t, matches, "delete must leave a timestamped backup")

	_, err = store.Get("team")
	assert.Error(t, err)
}

func TestStore_Validate_FlagsDuplicatesAndMalformed(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	doc := map[string][]string{
		"team": {"a@x.com", "A@x.com", "not-an-address"},
	}
	require.NoError(t, store.writeAtomic(doc))

	verdicts, err := store.Validate("team")
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.False(t, verdicts[0].OK)
	assert.Len(t, verdicts[0].Duplicates, 1)
	assert.Len(t, verdicts[0].Malformed, 1)
}

func TestStore_Expand(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	_, err := store.Create("team", []types.Address{addr(t, "a@x.com"), addr(t, "b@x.com")})
	require.NoError(t, err)
	_, err = store.Create("ops", []types.Address{addr(t, "c@y.com")})
	require.NoError(t, err)

	expanded, err := store.Expand([]string{"#team", "#ops", "a@x.com"})
	require.NoError(t, err)
	require.Len(t, expanded, 3, "a@x.com is a duplicate of #team's first member and must not reappear")
	assert.Equal(t, "a@x.com", expanded[0].Email())
	assert.Equal(t, "b@x.com", expanded[1].Email())
	assert.Equal(t, "c@y.com", expanded[2].Email())
}

func TestStore_Expand_UnknownGroup(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Expand([]string{"#ghost"})
	var unknown *ErrUnknownGroup
	assert.ErrorAs(t, err, &unknown)
}
