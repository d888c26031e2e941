package train

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/example/go-bpe-trainer/internal/merge"
	"github.com/example/go-bpe-trainer/internal/token"
)

// ErrInvalidConfig is returned by New for unusable training settings.
var ErrInvalidConfig = errors.New("invalid training config")

// Config holds the training settings.
type Config struct {
	// TargetSize is the total vocabulary size to reach, byte tokens
	// included.
	TargetSize int
	Policy     merge.Policy
	// Workers bounds counting parallelism. 0 uses GOMAXPROCS.
	Workers int
}

func (c Config) validate() error {
	if c.TargetSize <= token.ByteTokens || c.TargetSize > token.MaxVocabulary {
		return fmt.Errorf("%w: target size %d outside (%d, %d]", ErrInvalidConfig, c.TargetSize, token.ByteTokens, token.MaxVocabulary)
	}
	if c.Policy.MaxTokenLength < 0 {
		return fmt.Errorf("%w: negative max token length %d", ErrInvalidConfig, c.Policy.MaxTokenLength)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: negative worker count %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}
