package storage

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inmemdb "github.com/devnest/devnest/storage/inmem"
	"github.com/devnest/devnest/tests"
)

func TestNewRepositories(t *testing.T) {
	cat := testutil.LoadCatalog(t)

	repos, err := NewRepositories(cat, BackendMemory, Backends{DataDir: t.TempDir()})
	require.NoError(t, err)
	assert.Len(t, repos, len(cat.All()))
	assert.Equal(t, "*csvstore.submissionRepository", fmt.Sprintf("%T", repos["hackverse"]))
	assert.Equal(t, "*inmemdb.submissionRepository", fmt.Sprintf("%T", repos["bytebloom"]))

	_, err = NewRepositories(cat, BackendMemory, Backends{Mem: inmemdb.Open()})
	assert.NoError(t, err)

	_, err = NewRepositories(cat, BackendPostgres, Backends{})
	assert.EqualError(t, err, "bytebloom: postgres backend is not open")

	_, err = NewRepositories(cat, BackendSheets, Backends{})
	assert.EqualError(t, err, "bytebloom: sheets backend is not open")

	_, err = NewRepositories(cat, "mongo", Backends{})
	assert.EqualError(t, err, `unknown document backend "mongo"`)
}
