// Package normalize holds the shared cleanup rules every source adapter runs
// its raw upstream values through: timestamp parsing, title cleanup and link
// validation. Keeping them here means a new upstream format is handled once
// instead of per adapter.
package normalize

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CST is the zone assumed for upstream timestamps that carry no offset of
// their own. All four upstreams publish Beijing time. A fixed zone avoids
// depending on tzdata being present in the runtime image.
var CST = time.FixedZone("CST", 8*60*60)

// ErrUnparseableTime marks a timestamp no known layout could resolve.
// Callers drop the record rather than guess a publication time.
var ErrUnparseableTime = errors.New("unparseable timestamp")

// Epoch values above this are milliseconds, below it seconds. The cutoff is
// September 2001 expressed in milliseconds, far outside any plausible
// publication time in seconds.
const millisCutoff = 1_000_000_000_000

// naiveLayouts carry no zone information and resolve in the caller's
// location. Ordered by how often the upstreams emit them.
var naiveLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
}

// zonedLayouts carry their own offset.
var zonedLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
}

var (
	digitsPattern = regexp.MustCompile(`^\d+$`)
	tagPattern    = regexp.MustCompile(`<[^>]*>`)
	spacePattern  = regexp.MustCompile(`\s+`)
)

// ParseTime resolves a raw upstream timestamp to an instant in UTC, truncated
// to whole seconds so equal inputs always serialize to equal output. Bare
// digit strings are treated as epoch values, layouts without an offset are
// interpreted in loc. Failure returns ErrUnparseableTime; it never falls back
// to the current time.
func ParseTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrUnparseableTime)
	}

	if digitsPattern.MatchString(raw) {
		epoch, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableTime, raw)
		}
		return FromUnix(epoch)
	}

	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableTime, raw)
}

// FromUnix resolves an epoch value to an instant in UTC. Values large enough
// to be milliseconds are treated as such; the upstreams mix both units.
// Non-positive values are how the upstream JSON decodes a missing field, so
// they are unresolvable rather than 1970.
func FromUnix(epoch int64) (time.Time, error) {
	if epoch <= 0 {
		return time.Time{}, fmt.Errorf("%w: epoch %d", ErrUnparseableTime, epoch)
	}
	if epoch >= millisCutoff {
		return time.UnixMilli(epoch).UTC().Truncate(time.Second), nil
	}
	return time.Unix(epoch, 0).UTC(), nil
}

// CleanText strips markup and entities from an upstream title and collapses
// runs of whitespace. Disclosure titles in particular arrive with <em>
// highlight tags around matched keywords.
func CleanText(raw string) string {
	s := tagPattern.ReplaceAllString(raw, "")
	s = html.UnescapeString(s)
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ValidLink reports whether a link is an absolute http or https URL. Anything
// else is useless to feed consumers and gets the record dropped.
func ValidLink(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
