package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_Embedded(t *testing.T) {
	all, err := All()
	require.NoError(t, err)
	require.NotEmpty(t, all)

	first := all[0]
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, "init", first.Name)
	assert.Contains(t, first.Up, "CREATE TABLE")
	assert.Contains(t, first.Up, "stock_entries")
	assert.Contains(t, first.Down, "DROP TABLE IF EXISTS stock_entries")
}

func TestLoad_OrdersByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"0010_alerts.up.sql":    {Data: []byte("ALTER TABLE a;")},
		"0002_tickets.up.sql":   {Data: []byte("CREATE TABLE t;")},
		"0002_tickets.down.sql": {Data: []byte("DROP TABLE t;")},
		"README.md":             {Data: []byte("ignored")},
	}

	all, err := Load(fsys)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 2, all[0].Version)
	assert.Equal(t, "DROP TABLE t;", all[0].Down)
	assert.Equal(t, 10, all[1].Version)
	assert.Empty(t, all[1].Down)
}

func TestLoad_RejectsBadNames(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"no direction": {"0001_init.sql": {Data: []byte("x")}},
		"no name":      {"0001.up.sql": {Data: []byte("x")}},
		"bad version":  {"abc_init.up.sql": {Data: []byte("x")}},
		"down only":    {"0001_init.down.sql": {Data: []byte("x")}},
		"two names": {
			"0001_init.up.sql":    {Data: []byte("x")},
			"0001_other.down.sql": {Data: []byte("x")},
		},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(fsys)
			assert.Error(t, err)
		})
	}
}

func TestPending(t *testing.T) {
	all := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}

	pending := Pending(all, []int{1, 3})
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Version)

	assert.Empty(t, Pending(all, []int{1, 2, 3}))
	assert.Len(t, Pending(all, nil), 3)
}
