package corpus

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/go-bpe-trainer/internal/token"
	"github.com/example/go-bpe-trainer/internal/train"
	"github.com/spf13/afero"
)

// Corpus formats accepted by Open.
const (
	FormatAuto         = "auto"
	FormatShard        = "shard"
	FormatArrow        = "arrow"
	FormatEncyclopedia = "json"
	FormatMarkup       = "xml"
)

var (
	// ErrUnknownFormat is returned for a format name Open does not know.
	ErrUnknownFormat = errors.New("unknown corpus format")
	// ErrNoCorpus is returned when no corpus path is given or a format
	// cannot be detected.
	ErrNoCorpus = errors.New("no corpus input")
)

// OpenSpec describes the corpus inputs.
type OpenSpec struct {
	// Paths are files or directories; glob patterns are expanded.
	Paths []string
	// Format is one of the Format* constants; "" means auto.
	Format string
	// TextColumn selects the Arrow column by name, or by index when it is a
	// number. Empty selects DefaultTextColumn.
	TextColumn string
	// Tokenizer is applied to raw input. Usually the vocabulary's.
	Tokenizer token.Tokenizer
}

// Open builds the source described by spec. Several inputs are combined
// with Multi.
func Open(fsys afero.Fs, spec OpenSpec) (train.Source, error) {
	paths, err := expand(fsys, spec.Paths)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, ErrNoCorpus
	}
	var sources []train.Source
	for _, p := range paths {
		src, err := openOne(fsys, p, spec)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if len(sources) == 1 {
		return sources[0], nil
	}
	return NewMulti(sources...), nil
}

func expand(fsys afero.Fs, patterns []string) ([]string, error) {
	var out []string
	for _, p := range patterns {
		if !strings.ContainsAny(p, "*?[") {
			out = append(out, p)
			continue
		}
		matches, err := afero.Glob(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", p, err)
		}
		out = append(out, matches...)
	}
	return out, nil
}

func openOne(fsys afero.Fs, path string, spec OpenSpec) (train.Source, error) {
	format := spec.Format
	if format == "" || format == FormatAuto {
		var err error
		if format, err = DetectFormat(fsys, path); err != nil {
			return nil, err
		}
	}
	switch format {
	case FormatShard:
		return NewTokenShard(fsys, path, spec.Tokenizer), nil
	case FormatArrow:
		name, index := "", DefaultTextColumn
		if spec.TextColumn != "" {
			if n, err := strconv.Atoi(spec.TextColumn); err == nil {
				index = n
			} else {
				name = spec.TextColumn
			}
		}
		return NewArrowShard(fsys, path, name, index, spec.Tokenizer), nil
	case FormatEncyclopedia:
		return NewEncyclopedia(fsys, path, spec.Tokenizer)
	case FormatMarkup:
		return NewMarkup(fsys, path, spec.Tokenizer)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// DetectFormat guesses the format of path: files by extension, directories
// by whether they hold *.json or *.xml files.
func DetectFormat(fsys afero.Fs, path string) (string, error) {
	fi, err := fsys.Stat(path)
	if err != nil {
		return "", fmt.Errorf("corpus input: %w", err)
	}
	if fi.IsDir() {
		for _, c := range []struct{ ext, format string }{
			{".json", FormatEncyclopedia},
			{".xml", FormatMarkup},
		} {
			files, err := listFiles(fsys, path, c.ext)
			if err != nil {
				return "", err
			}
			if len(files) > 0 {
				return c.format, nil
			}
		}
		return "", fmt.Errorf("%w: no .json or .xml files in %s", ErrNoCorpus, path)
	}
	name := strings.ToLower(strings.TrimSuffix(path, zstdExt))
	switch filepath.Ext(name) {
	case ".bin", ".tok":
		return FormatShard, nil
	case ".arrow", ".ipc":
		return FormatArrow, nil
	}
	return "", fmt.Errorf("%w: cannot detect format of %s", ErrNoCorpus, path)
}
