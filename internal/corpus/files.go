package corpus

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// listFiles returns the regular files in dir with extension ext, sorted by
// name so that enumeration order is reproducible.
func listFiles(fsys afero.Fs, dir, ext string) ([]string, error) {
	infos, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var out []string
	for _, fi := range infos {
		if fi.IsDir() || !strings.EqualFold(filepath.Ext(fi.Name()), ext) {
			continue
		}
		out = append(out, filepath.Join(dir, fi.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// partition splits items into at most n contiguous groups of nearly equal
// length.
func partition[T any](items []T, n int) [][]T {
	if n < 1 {
		n = 1
	}
	n = min(n, len(items))
	out := make([][]T, 0, n)
	for i := range n {
		lo := i * len(items) / n
		hi := (i + 1) * len(items) / n
		out = append(out, items[lo:hi])
	}
	return out
}
