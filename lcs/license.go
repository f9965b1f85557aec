package lcs

import (
	"strings"
	"time"

	"github.com/iancoleman/orderedmap"
)

const (
	TagCloud  = "Cloud license"
	TagHeroku = "Heroku license"
)

// License is a verified license body, digest line excluded. It is never
// mutated after creation.
type License struct {
	body string
}

func newLicense(body string) *License {
	return &License{body: body}
}

// Body returns the license text with its line terminators.
func (l *License) Body() string {
	if l == nil {
		return ""
	}
	return l.body
}

// HasFeature reports whether tag occurs anywhere in the license body.
func (l *License) HasFeature(tag string) bool {
	if l == nil {
		return false
	}
	return strings.Contains(l.body, tag)
}

func (l *License) IsCloud() bool {
	return l.HasFeature(TagCloud)
}

func (l *License) IsHeroku() bool {
	return l.HasFeature(TagHeroku)
}

// ShouldTrackUsage is true for license classes billed on usage.
func (l *License) ShouldTrackUsage() bool {
	return l.IsCloud() || l.IsHeroku()
}

// ExpiresAfter returns the raw expiration date, if the license has one.
func (l *License) ExpiresAfter() (string, bool) {
	if l == nil {
		return "", false
	}
	return findExpiresAfter(l.body)
}

// ExpiresAt parses ExpiresAfter as the end of that day in loc.
func (l *License) ExpiresAt(loc *time.Location) (time.Time, bool) {
	date, ok := l.ExpiresAfter()
	if !ok {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	t, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t.AddDate(0, 0, 1).Add(-time.Nanosecond), true
}

// Fields returns the "Key: value" lines of the body in file order.
// Lines without a colon are skipped; the first occurrence of a key wins.
func (l *License) Fields() *orderedmap.OrderedMap {
	fields := orderedmap.New()
	for _, line := range strings.Split(l.Body(), "\n") {
		line = strings.TrimSuffix(line, "\r")
		i := strings.Index(line, ":")
		if i <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:i])
		if key == "" {
			continue
		}
		if _, ok := fields.Get(key); ok {
			continue
		}
		fields.Set(key, strings.TrimSpace(line[i+1:]))
	}

	return fields
}
