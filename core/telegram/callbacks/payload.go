// Package callbacks encodes and parses the plain-string callback payloads
// carried by inline buttons: <action>-<id>, <action>-<id>-<suffix> and bare keywords.
package callbacks

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	yearPrefix  = "select-year-"
	monthPrefix = "select-month-"
)

// Join builds a payload from an action and its parts.
func Join(action string, parts ...string) string {
	if len(parts) == 0 {
		return action
	}
	return action + "-" + strings.Join(parts, "-")
}

// Match reports whether data addresses prefix, either exactly or as prefix-<id>.
// The id is empty for an exact match.
func Match(data, prefix string) (id string, ok bool) {
	if data == prefix {
		return "", true
	}
	if rest, found := strings.CutPrefix(data, prefix+"-"); found {
		return rest, true
	}
	return "", false
}

// Year builds a select-year payload.
func Year(y int) string { return yearPrefix + strconv.Itoa(y) }

// Month builds a select-month payload.
func Month(y, m int) string { return monthPrefix + strconv.Itoa(y) + "-" + strconv.Itoa(m) }

// ParseYear extracts the year from select-year-YYYY.
func ParseYear(data string) (int, bool) {
	rest, ok := strings.CutPrefix(data, yearPrefix)
	if !ok {
		return 0, false
	}
	y, err := strconv.Atoi(rest)
	if err != nil || y < 1 {
		return 0, false
	}
	return y, true
}

// ParseMonth extracts year and month from select-month-YYYY-M.
func ParseMonth(data string) (year, month int, ok bool) {
	rest, found := strings.CutPrefix(data, monthPrefix)
	if !found {
		return 0, 0, false
	}
	ys, ms, found := strings.Cut(rest, "-")
	if !found {
		return 0, 0, false
	}
	y, err1 := strconv.Atoi(ys)
	m, err2 := strconv.Atoi(ms)
	if err1 != nil || err2 != nil || y < 1 || m < 1 || m > 12 {
		return 0, 0, false
	}
	return y, m, true
}

var menuIDPattern = regexp.MustCompile(`^(readings|address|account|reading|tariffs|tariff)-([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})(?:-(\d+))?$`)

// MenuID is a parsed dynamic menu identifier such as readings-<uuid>-2024.
type MenuID struct {
	Kind   string
	ID     string
	Suffix int
}

// ParseMenuID parses a dynamic menu id. Suffix is 0 when absent.
func ParseMenuID(data string) (MenuID, bool) {
	m := menuIDPattern.FindStringSubmatch(data)
	if m == nil {
		return MenuID{}, false
	}
	out := MenuID{Kind: m[1], ID: strings.ToLower(m[2])}
	if m[3] != "" {
		n, err := strconv.Atoi(m[3])
		if err != nil {
			return MenuID{}, false
		}
		out.Suffix = n
	}
	return out, true
}

// String formats the id back into its payload form.
func (m MenuID) String() string {
	if m.Suffix != 0 {
		return Join(m.Kind, m.ID, strconv.Itoa(m.Suffix))
	}
	return Join(m.Kind, m.ID)
}
