package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Vocab    VocabConfig  `mapstructure:"vocab"`
	Train    TrainConfig  `mapstructure:"train"`
	Corpus   CorpusConfig `mapstructure:"corpus"`
	LogLevel string       `mapstructure:"log_level"`
}

type VocabConfig struct {
	Path string `mapstructure:"path"`
}

type TrainConfig struct {
	TargetSize     int      `mapstructure:"target_size"`
	Eta            string   `mapstructure:"eta"`
	MaxTokenLength int      `mapstructure:"max_token_length"`
	Forbidden      []string `mapstructure:"forbidden"`
	Workers        int      `mapstructure:"workers"`
}

type CorpusConfig struct {
	Paths       []string `mapstructure:"paths"`
	Format      string   `mapstructure:"format"`
	TextColumn  string   `mapstructure:"text_column"`
	Materialize bool     `mapstructure:"materialize"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Vocab: VocabConfig{
			Path: "",
		},
		Train: TrainConfig{
			TargetSize:     32768,
			Eta:            "piecewise:0.5:0.9,0.5,0.1",
			MaxTokenLength: 24,
			Forbidden:      nil,
			Workers:        0,
		},
		Corpus: CorpusConfig{
			Paths:       nil,
			Format:      FormatAuto,
			TextColumn:  "",
			Materialize: true,
		},
		LogLevel: "info",
	}
}

// flagKeys maps every config key to its command line flag.
var flagKeys = []struct{ key, flag string }{
	{"vocab.path", "vocab"},
	{"train.target_size", "target-size"},
	{"train.eta", "eta"},
	{"train.max_token_length", "max-token-length"},
	{"train.forbidden", "forbid"},
	{"train.workers", "workers"},
	{"corpus.paths", "corpus"},
	{"corpus.format", "format"},
	{"corpus.text_column", "text-column"},
	{"corpus.materialize", "materialize"},
	{"log_level", "log-level"},
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.StringP("vocab", "v", defaults.Vocab.Path, "Vocabulary log file")
	fs.Int("target-size", defaults.Train.TargetSize, "Total vocabulary size to train up to, byte tokens included")
	fs.String("eta", defaults.Train.Eta, "Merge threshold schedule (constant:V | linear:A,B | piecewise:S:V0,V1,V2)")
	fs.Int("max-token-length", defaults.Train.MaxTokenLength, "Maximum token length in bytes (0 disables the limit)")
	fs.StringSlice("forbid", defaults.Train.Forbidden, "Forbidden token pattern (literal, re:REGEXP or hex:BYTES); repeatable")
	fs.Int("workers", defaults.Train.Workers, "Worker goroutines for counting and re-tokenization (0 = GOMAXPROCS)")
	fs.StringSlice("corpus", defaults.Corpus.Paths, "Corpus file, directory or glob; repeatable")
	fs.String("format", defaults.Corpus.Format, "Corpus format (auto|shard|arrow|json|xml)")
	fs.String("text-column", defaults.Corpus.TextColumn, "Arrow text column name or index")
	fs.Bool("materialize", defaults.Corpus.Materialize, "Load the corpus into memory and re-tokenize it incrementally")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("BPETRAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("bpetrain")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Corpus.Format = strings.ToLower(strings.TrimSpace(cfg.Corpus.Format))

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("vocab.path", c.Vocab.Path)
	v.SetDefault("train.target_size", c.Train.TargetSize)
	v.SetDefault("train.eta", c.Train.Eta)
	v.SetDefault("train.max_token_length", c.Train.MaxTokenLength)
	v.SetDefault("train.forbidden", c.Train.Forbidden)
	v.SetDefault("train.workers", c.Train.Workers)
	v.SetDefault("corpus.paths", c.Corpus.Paths)
	v.SetDefault("corpus.format", c.Corpus.Format)
	v.SetDefault("corpus.text_column", c.Corpus.TextColumn)
	v.SetDefault("corpus.materialize", c.Corpus.Materialize)
	v.SetDefault("log_level", c.LogLevel)
}

// bindFlags binds the registered flags to their config keys. Flags a
// command does not define are skipped.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, fk := range flagKeys {
		f := fs.Lookup(fk.flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(fk.key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", fk.flag, err)
		}
	}
	return nil
}

// ParseLogLevel maps a level name to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}
