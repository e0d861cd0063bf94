//go:build unix

package source

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_MapBackend(t *testing.T) {
	src, err := Open(t.Context(), writeFile(t, "#!x\nmapped"), WithBackend(BackendMap))
	require.NoError(t, err)

	assert.Equal(t, BackendMap, src.Backend())
	assert.Equal(t, "mapped", string(src.Bytes()))
	assert.Equal(t, byte(0), src.Terminated()[src.Len()])

	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
}

func TestOpen_MapUnusable(t *testing.T) {
	aligned := writeFile(t, strings.Repeat("a", os.Getpagesize()))

	_, err := Open(t.Context(), aligned, WithBackend(BackendMap))
	var ioe *IOError
	require.ErrorAs(t, err, &ioe)
	assert.Equal(t, "map", ioe.Op)
	assert.ErrorIs(t, err, ErrMapUnusable)

	src, err := Open(t.Context(), aligned)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, BackendRead, src.Backend())
	assert.Equal(t, os.Getpagesize(), src.Len())
	assert.Equal(t, byte(0), src.Terminated()[src.Len()])
}

func TestOpen_AutoPrefersMap(t *testing.T) {
	src, err := Open(t.Context(), writeFile(t, "abc"))
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, BackendMap, src.Backend())
}
