package store

import (
	"path/filepath"
	"testing"

	"github.com/Azoozya/toktok/wire"
	"github.com/stretchr/testify/require"
)

func TestAddrHashDeterministic(t *testing.T) {
	a := wire.MustHost("127.0.0.1:1111")
	b := wire.MustHost("127.0.0.1:1111")
	c := wire.MustHost("127.0.0.1:2222")

	require.Equal(t, AddrHash(a), AddrHash(b))
	require.NotEqual(t, AddrHash(a), AddrHash(c))
}

func TestNewCore(t *testing.T) {
	client := wire.MustHost("10.0.0.5:9000")
	row := NewCore(client)

	require.Equal(t, AddrHash(client), row.Addr)
	require.False(t, row.Active)
}

func TestInitDBMigratesCoreTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toktok.db")
	db, err := InitDB(path)
	require.NoError(t, err)
	require.True(t, db.Migrator().HasTable(&Core{}))
}
