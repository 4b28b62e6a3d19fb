package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndRecent(t *testing.T) {
	dir := t.TempDir()

	log, err := Open(dir)
	require.NoError(t, err)
	defer log.Close()

	log.Record("store", "alpha", true)
	log.Record("retrieve", "alpha", true)
	log.Record("delete", "beta", false)

	ops, err := log.Recent(0)
	require.NoError(t, err)
	require.Len(t, ops, 3)

	// Newest first
	assert.Equal(t, "delete", ops[0].Type)
	assert.False(t, ops[0].Success)
	assert.Equal(t, "retrieve", ops[1].Type)
	assert.Equal(t, "store", ops[2].Type)

	for _, op := range ops {
		assert.False(t, op.Timestamp.IsZero())
		assert.NotContains(t, []string{"alpha", "beta"}, op.KeyDigest)
	}
}

func TestRecentLimit(t *testing.T) {
	dir := t.TempDir()

	log, err := Open(dir)
	require.NoError(t, err)
	defer log.Close()

	for i := 0; i < 10; i++ {
		log.Record("store", "k", true)
	}

	ops, err := log.Recent(3)
	require.NoError(t, err)
	assert.Len(t, ops, 3)
}

func TestKeyDigestStableAndOpaque(t *testing.T) {
	d1 := KeyDigest("my-secret-key")
	d2 := KeyDigest("my-secret-key")
	d3 := KeyDigest("other-key")

	assert.Equal(t, d1, d2)
	assert.NotEqual(t, d1, d3)
	assert.Len(t, d1, digestLen*2)
	assert.NotContains(t, d1, "my-secret-key")
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	log, err := Open(dir)
	require.NoError(t, err)
	log.Record("store", "k", true)
	require.NoError(t, log.Close())

	log2, err := Open(dir)
	require.NoError(t, err)
	defer log2.Close()

	ops, err := log2.Recent(0)
	require.NoError(t, err)
	assert.Len(t, ops, 1)
}
