package htmlutil

import (
	"strings"

	"github.com/k3a/html2text"
)

// ToText converts HTML to plain text, decoding entities and stripping tags.
func ToText(s string) string {
	return html2text.HTML2Text(s)
}

// CleanText strips markup from user input and collapses whitespace to single
// spaces. The result is empty when nothing readable remains.
func CleanText(s string) string {
	return strings.Join(strings.Fields(ToText(s)), " ")
}
