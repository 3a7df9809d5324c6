package service

import (
	"errors"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

var errEmptyTimestamp = errors.New("empty timestamp")

// Zone-less layouts are read in the caller's location.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp decodes an action timestamp produced by the language model:
// RFC 3339 first, then zone-less ISO forms in loc, then natural language
// relative to now.
func ParseTimestamp(input string, now time.Time, loc *time.Location) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, errEmptyTimestamp
	}
	if loc == nil {
		loc = time.Local
	}

	if t, err := time.Parse(time.RFC3339Nano, input); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, input, loc); err == nil {
			return t, nil
		}
	}

	cfg := &dateparser.Configuration{
		CurrentTime: now.In(loc),
	}
	result, err := dateparser.Parse(cfg, input)
	if err != nil {
		return time.Time{}, err
	}
	return result.Time, nil
}
