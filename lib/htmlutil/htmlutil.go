package htmlutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// OwnText returns the text that directly follows the opening tag of `node`
// up to its first non-text child, nil if there is none.
//
// ex. <td>CS <b>101</b></td> -> "CS ", <td><a>CS</a></td> -> nil
func OwnText(node *html.Node) *string {
	if node == nil {
		return nil
	}

	var buffer strings.Builder
	found := false
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.TextNode {
			break
		}
		buffer.WriteString(child.Data)
		found = true
	}
	if !found || buffer.Len() == 0 {
		return nil
	}

	text := buffer.String()
	return &text
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// Normalize strips non-printable characters, trims surrounding whitespace
// and collapses inner runs of whitespace to one space.
func Normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return ' '
	}, s)
	s = strings.Trim(s, " \t\n")
	return innerWhitespace.ReplaceAllString(s, " ")
}
