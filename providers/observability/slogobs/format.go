package slogobs

import (
	"os"
	"strings"
)

// Format selects how records are rendered.
type Format string

const (
	// FormatCompact renders one line per record with attributes as a JSON object:
	//   2026-01-02 15:04:05  INFO node finished → {"workflow.node":"a"}
	FormatCompact Format = "compact"

	// FormatPretty renders one attribute per indented line.
	FormatPretty Format = "pretty"

	// FormatJSON renders every record as a single JSON object.
	FormatJSON Format = "json"
)

// ParseFormat maps s to a Format, defaulting to FormatCompact.
func ParseFormat(s string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPretty:
		return FormatPretty
	case FormatJSON:
		return FormatJSON
	default:
		return FormatCompact
	}
}

// GetFormatFromEnv reads AIGRAPH_LOG_FORMAT, then LOG_FORMAT.
func GetFormatFromEnv() Format {
	for _, key := range []string{"AIGRAPH_LOG_FORMAT", "LOG_FORMAT"} {
		if v := os.Getenv(key); v != "" {
			return ParseFormat(v)
		}
	}
	return FormatCompact
}

func (f Format) String() string {
	return string(f)
}
