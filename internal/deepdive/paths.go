package deepdive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for paths that escape the documents root
var ErrOutsideRoot = errors.New("path is outside the documents root")

// rootGuard confines caller-supplied paths to the documents root
type rootGuard struct {
	root string
}

func newRootGuard(root string) (*rootGuard, error) {
	if root == "" {
		return nil, errors.New("documents root cannot be empty")
	}
	return &rootGuard{root: root}, nil
}

// resolve turns path into an absolute path inside the root. Relative paths
// are taken relative to the root.
func (g *rootGuard) resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		return "", errors.New("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(g.root, path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	ok, err := g.contains(abs)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return abs, nil
}

// contains reports whether abs lies under the root, following symlinks on
// both sides so a link cannot point out of the tree
func (g *rootGuard) contains(abs string) (bool, error) {
	rootAbs, err := filepath.Abs(g.root)
	if err != nil {
		return false, fmt.Errorf("failed to resolve documents root: %w", err)
	}
	rootAbs = filepath.Clean(rootAbs)
	realRoot := rootAbs
	if resolved, err := filepath.EvalSymlinks(rootAbs); err == nil {
		realRoot = resolved
	}

	clean := filepath.Clean(abs)
	real := clean
	if info, err := os.Lstat(clean); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(clean); err == nil {
			real = resolved
		}
	}

	under := func(p string) bool {
		for _, dir := range []string{rootAbs, realRoot} {
			if p == dir || strings.HasPrefix(p, dir+string(filepath.Separator)) {
				return true
			}
		}
		return false
	}
	return under(clean) && under(real), nil
}
