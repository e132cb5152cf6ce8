// Package exif decodes an image's embedded tag table and narrows every
// value to a JSON-safe scalar.
package exif

import (
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/pixly/pixly/pkg/pixly"
)

// Normalizer implements pixly.Normalizer on top of goexif.
//
// Value policy: integers and strings pass through; rationals reduce to the
// integer quotient numerator/denominator (the numerator alone when the
// denominator is zero); anything else is stringified through the tag's
// canonical form and logged as an anomaly. Multi-component int and rational
// tags contribute their first component.
type Normalizer struct {
	logger *slog.Logger
}

// New creates a Normalizer. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

type walkFunc func(exif.FieldName, *tiff.Tag) error

func (f walkFunc) Walk(name exif.FieldName, tag *tiff.Tag) error {
	return f(name, tag)
}

// Normalize decodes the tag table reachable from r and returns the
// normalized mapping. A stream with no tag table, or one that cannot be
// decoded, yields an empty mapping rather than an error.
func (n *Normalizer) Normalize(r io.Reader) pixly.Metadata {
	out := pixly.Metadata{}

	x, err := exif.Decode(r)
	if err != nil {
		n.logger.Debug("no readable tag table", "error", err)
		return out
	}

	seen := make(map[uint16]bool)
	_ = x.Walk(walkFunc(func(name exif.FieldName, tag *tiff.Tag) error {
		seen[tag.Id] = true
		out[string(name)] = n.scalar(string(name), tag)
		return nil
	}))

	// Tags in the primary directory with no name mapping keep their raw
	// numeric identifier as the key.
	if x.Tiff != nil && len(x.Tiff.Dirs) > 0 {
		for _, tag := range x.Tiff.Dirs[0].Tags {
			if seen[tag.Id] {
				continue
			}
			key := strconv.Itoa(int(tag.Id))
			out[key] = n.scalar(key, tag)
		}
	}

	return out
}

func (n *Normalizer) scalar(key string, tag *tiff.Tag) any {
	switch tag.Format() {
	case tiff.IntVal:
		v, err := tag.Int64(0)
		if err != nil {
			return n.fallback(key, tag)
		}
		return v
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return n.fallback(key, tag)
		}
		return s
	case tiff.RatVal:
		num, den, err := tag.Rat2(0)
		if err != nil {
			return n.fallback(key, tag)
		}
		if den == 0 {
			return num
		}
		return num / den
	default:
		return n.fallback(key, tag)
	}
}

// fallback stringifies a value that matches no handled shape. The anomaly
// never aborts the surrounding ingestion.
func (n *Normalizer) fallback(key string, tag *tiff.Tag) any {
	n.logger.Debug("metadata value outside scalar shapes, stringified", "tag", key)
	return strings.Trim(tag.String(), `"`)
}
