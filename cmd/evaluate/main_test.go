package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingArtifactFails(t *testing.T) {
	root := t.TempDir()
	cmd := newCommand()
	cmd.SetArgs([]string{"--root", root, "--data", filepath.Join(root, "absent.csv"), "--log-level", "error"})

	assert.Error(t, cmd.Execute())

	_, err := os.Stat(filepath.Join(root, "figures"))
	assert.True(t, os.IsNotExist(err))
}
