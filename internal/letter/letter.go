// Package letter holds the text rules shared by the wishlist letter page
// and the reply form.
package letter

import "strings"

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// FormatNames joins child names for a salutation:
// "Emma", "Emma and Liam", "Emma, Liam, and Noah".
func FormatNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	}
	return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
}
