package transpile

import (
	"strconv"
	"strings"
)

// ListTable maps the 0-based source line on which a list starts, formatted as
// a decimal string, to the text of its items.
type ListTable map[string][]string

// Items returns the entries recorded for the list starting at line.
func (t ListTable) Items(line int) ([]string, bool) {
	items, ok := t[strconv.Itoa(line)]
	return items, ok
}

// ExtractLists scans raw text line by line for bullet ("- ", "* ") and
// numbered ("1. ") lists. Thematic breaks such as "* * *" end a list and
// never open one. Indented non-item lines continue the previous item;
// a blank line or an unindented non-item line ends the list. The scan is
// textual only: nesting is flattened and code fences are not recognized.
func ExtractLists(text string) ListTable {
	table := make(ListTable)

	var (
		inList bool
		key    string
		items  []string
	)
	closeList := func() {
		if inList && len(items) > 0 {
			table[key] = items
		}
		inList = false
		items = nil
	}

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSuffix(raw, "\r")
		trimmed := strings.TrimSpace(line)

		if isRule(trimmed) {
			closeList()
			continue
		}
		if item, ok := listItemText(trimmed); ok {
			if !inList {
				inList = true
				key = strconv.Itoa(i)
			}
			items = append(items, item)
			continue
		}
		if !inList {
			continue
		}

		switch {
		case trimmed == "":
			closeList()
		case len(items) > 0 && (line[0] == ' ' || line[0] == '\t'):
			items[len(items)-1] += " " + trimmed
		default:
			closeList()
		}
	}
	closeList()

	return table
}

// listItemText reports whether trimmed opens a list item and returns the item
// text with its marker removed.
func listItemText(trimmed string) (string, bool) {
	if rest, ok := strings.CutPrefix(trimmed, "- "); ok {
		return strings.TrimSpace(rest), true
	}
	if rest, ok := strings.CutPrefix(trimmed, "* "); ok {
		return strings.TrimSpace(rest), true
	}

	digits := 0
	for digits < len(trimmed) && trimmed[digits] >= '0' && trimmed[digits] <= '9' {
		digits++
	}
	if digits > 0 {
		if rest, ok := strings.CutPrefix(trimmed[digits:], ". "); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

// isRule reports whether trimmed is a thematic break: three or more of the
// same '-', '*' or '_' character, optionally separated by spaces or tabs.
func isRule(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	c := trimmed[0]
	if c != '-' && c != '*' && c != '_' {
		return false
	}
	count := 0
	for i := 0; i < len(trimmed); i++ {
		switch trimmed[i] {
		case c:
			count++
		case ' ', '\t':
		default:
			return false
		}
	}
	return count >= 3
}
