// Package ids derives stable identifiers for generated course parts so that
// identical inputs yield byte-identical content.
package ids

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var namespace = uuid.MustParse("3b0f5c7e-2a4d-5e61-9c8b-7d1e0f2a6b94")

func derive(kind string, pos int, parts ...string) string {
	var b strings.Builder
	b.WriteString(kind)
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(pos))
	for _, p := range parts {
		b.WriteByte(0)
		b.WriteString(p)
	}
	return uuid.NewSHA1(namespace, []byte(b.String())).String()
}

func Section(pos int, title string) string { return derive("section", pos, title) }

func Module(pos int, title string) string { return derive("module", pos, title) }

func Question(pos int, stem string) string { return derive("question", pos, stem) }

// Document ids depend on name and content so re-uploads of the same file agree.
func Document(name string, content string) string {
	return derive("document", 0, name, content)
}
