package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSchemas(t *testing.T) {
	dir := t.TempDir()
	for _, f := range schemaFiles {
		require.NoError(t, writeSchema(filepath.Join(dir, f.name), buildSchema(f)))
	}

	raw, err := os.ReadFile(filepath.Join(dir, "entities.schema.json"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "worldsim entities", doc["title"])
	assert.Contains(t, string(raw), `"patrol"`)
	assert.Contains(t, string(raw), `"character"`)

	_, err = os.Stat(filepath.Join(dir, "entities.schema.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}
