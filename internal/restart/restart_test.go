package restart

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandInvoke(t *testing.T) {
	err := Command{Argv: []string{"true"}}.Invoke(context.Background())
	assert.NoError(t, err)
}

func TestCommandMissingBinary(t *testing.T) {
	argv := []string{filepath.Join(t.TempDir(), "no-such-binary")}
	err := Command{Argv: argv}.Invoke(context.Background())
	assert.Error(t, err)
}

func TestCommandEmptyArgv(t *testing.T) {
	err := Command{}.Invoke(context.Background())
	assert.ErrorIs(t, err, ErrNoCommand)
}
