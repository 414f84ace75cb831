package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/genmeta/api"
)

func TestWriter_RoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")

	w, err := NewWriter(dbPath)
	require.NoError(t, err)

	s1 := api.Summary{PositivePrompt: "a cat", Model: "base.safetensors", Sampler: "euler"}
	s2 := api.Summary{PositivePrompt: "a dog", Model: "other.ckpt", Sampler: "ddim"}
	require.NoError(t, w.Add("fp-1", "a.png", s1))
	require.NoError(t, w.Add("fp-2", "b.png", s2))
	require.NoError(t, w.Close())

	records, err := Load(dbPath)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a.png", records[0].Path)
	assert.Equal(t, s1, records[0].Summary)
	assert.Equal(t, "fp-2", records[1].Fingerprint)
	assert.Equal(t, s2, records[1].Summary)
}

func TestWriter_ReplacesByFingerprint(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")

	w, err := NewWriter(dbPath)
	require.NoError(t, err)
	require.NoError(t, w.Add("fp", "a.png", api.Summary{Model: "first"}))
	require.NoError(t, w.Add("fp", "a.png", api.Summary{Model: "second"}))
	require.NoError(t, w.Close())

	records, err := Load(dbPath)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "second", records[0].Summary.Model)
}
