package utils

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTimeFormat is the timestamp pattern of the generated table
// (DD/MM/YYYY HH:MM:SS, 24-hour clock).
const DefaultTimeFormat = "%d/%m/%Y %H:%M:%S"

var strftimeDirectives = map[byte]string{
	'd': "02",
	'm': "01",
	'Y': "2006",
	'y': "06",
	'H': "15",
	'I': "03",
	'M': "04",
	'S': "05",
	'p': "PM",
	'b': "Jan",
	'B': "January",
	'a': "Mon",
	'A': "Monday",
	'j': "002",
	'z': "-0700",
	'Z': "MST",
	'%': "%",
}

// StrftimeLayout translates a strftime-style pattern into a Go time layout.
// A pattern without any '%' is assumed to already be a Go layout.
func StrftimeLayout(pattern string) (string, error) {
	if !strings.Contains(pattern, "%") {
		return pattern, nil
	}
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(pattern) {
			return "", fmt.Errorf("time format %q: dangling %%", pattern)
		}
		i++
		layout, ok := strftimeDirectives[pattern[i]]
		if !ok {
			return "", fmt.Errorf("time format %q: unsupported directive %%%c", pattern, pattern[i])
		}
		b.WriteString(layout)
	}
	return b.String(), nil
}

// LoadLocation resolves a configured zone name. "" and "Local" mean the
// process's local zone.
func LoadLocation(name string) (*time.Location, error) {
	switch name {
	case "", "Local", "local":
		return time.Local, nil
	case "UTC", "utc":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", name, err)
	}
	return loc, nil
}

// SessionName returns a unique session directory name:
//
//	<prefix>_YYYYMMDD_HHMMSS
func SessionName(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, time.Now().Format("20060102_150405"))
}
