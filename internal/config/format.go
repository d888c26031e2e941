package config

import (
	"fmt"
	"strings"
)

const (
	FormatAuto         = "auto"
	FormatShard        = "shard"
	FormatArrow        = "arrow"
	FormatEncyclopedia = "json"
	FormatMarkup       = "xml"
)

// NormalizeFormat canonicalizes a corpus format name. Aliases name the
// source the format usually comes from.
func NormalizeFormat(raw string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(raw))
	if format == "" {
		format = FormatAuto
	}
	switch format {
	case FormatAuto, FormatShard, FormatArrow, FormatEncyclopedia, FormatMarkup:
		return format, nil
	case "bin", "tokens":
		return FormatShard, nil
	case "ipc", "huggingface":
		return FormatArrow, nil
	case "wikipedia":
		return FormatEncyclopedia, nil
	case "markup":
		return FormatMarkup, nil
	default:
		return "", fmt.Errorf(
			"invalid corpus format %q (expected %s|%s|%s|%s|%s)",
			raw,
			FormatAuto,
			FormatShard,
			FormatArrow,
			FormatEncyclopedia,
			FormatMarkup,
		)
	}
}
