package deepdive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootGuardResolve(t *testing.T) {
	root := t.TempDir()
	guard, err := newRootGuard(root)
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr error
	}{
		{name: "relative", path: "a/b.pdf", want: filepath.Join(root, "a", "b.pdf")},
		{name: "absolute inside", path: filepath.Join(root, "x.pdf"), want: filepath.Join(root, "x.pdf")},
		{name: "root itself", path: root, want: root},
		{name: "dot dot escape", path: "../x.pdf", wantErr: ErrOutsideRoot},
		{name: "absolute outside", path: filepath.Join(filepath.Dir(root), "x.pdf"), wantErr: ErrOutsideRoot},
		{name: "sibling prefix", path: root + "-other/x.pdf", wantErr: ErrOutsideRoot},
		{name: "null bytes stripped", path: "a\x00.pdf", want: filepath.Join(root, "a.pdf")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := guard.resolve(tt.path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRootGuardRejectsEscapingSymlink(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "root")
	outside := filepath.Join(base, "outside.pdf")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(outside, []byte("%PDF"), 0o644))

	link := filepath.Join(root, "link.pdf")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	guard, err := newRootGuard(root)
	require.NoError(t, err)
	_, err = guard.resolve("link.pdf")
	assert.ErrorIs(t, err, ErrOutsideRoot)
}

func TestRootGuardEmpty(t *testing.T) {
	_, err := newRootGuard("")
	assert.Error(t, err)

	guard, err := newRootGuard(t.TempDir())
	require.NoError(t, err)
	_, err = guard.resolve("\x00")
	assert.Error(t, err)
}
