package documents

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// ErrRootNotFound is returned when the documents root does not exist or
	// is not a readable directory
	ErrRootNotFound = errors.New("documents root not found")

	// ErrInvalidStudentID is returned for ids that would escape the glob
	ErrInvalidStudentID = errors.New("invalid student id")
)

var leadingDigits = regexp.MustCompile(`^(\d+)`)

// checkRoot verifies root is an existing directory
func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRootNotFound, root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrRootNotFound, root)
	}
	return nil
}

// ValidateStudentID rejects empty ids and ids containing path or glob syntax
func ValidateStudentID(studentID string) error {
	if strings.TrimSpace(studentID) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidStudentID)
	}
	if strings.ContainsAny(studentID, `/\*?[]{}`) || strings.Contains(studentID, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidStudentID, studentID)
	}
	return nil
}

// Discover finds every document for a student anywhere under root. A
// document belongs to the student when its basename starts with the id and
// contains ".pdf". Results are classified and ordered by path.
func Discover(root, studentID string) ([]Document, error) {
	if err := ValidateStudentID(studentID); err != nil {
		return nil, err
	}
	if err := checkRoot(root); err != nil {
		return nil, err
	}

	matches, err := doublestar.Glob(os.DirFS(root), "**/"+studentID+"*.pdf*", doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", root, err)
	}

	paths := make([]string, 0, len(matches))
	for _, rel := range matches {
		paths = append(paths, filepath.Join(root, filepath.FromSlash(rel)))
	}
	sort.Strings(paths)

	docs := make([]Document, 0, len(paths))
	for _, p := range paths {
		doc, err := ClassifyFile(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// FindAllStudents returns the sorted, unique student ids found as the
// leading digit run of every PDF filename under root
func FindAllStudents(root string) ([]string, error) {
	if err := checkRoot(root); err != nil {
		return nil, err
	}

	matches, err := doublestar.Glob(os.DirFS(root), "**/*.pdf*", doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", root, err)
	}

	seen := make(map[string]struct{})
	for _, rel := range matches {
		if m := leadingDigits.FindStringSubmatch(filepath.Base(filepath.FromSlash(rel))); m != nil {
			seen[m[1]] = struct{}{}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
