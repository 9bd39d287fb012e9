// pkg/transport/rest/builder.go
package rest

import (
	"net/url"
	"strings"
)

// Builder builds export URLs from path segments.
type Builder struct {
	BaseURL string
}

// NewBuilder constructs a Builder. A trailing slash on baseURL is ignored.
func NewBuilder(baseURL string) *Builder {
	return &Builder{BaseURL: strings.TrimRight(baseURL, "/")}
}

// URL joins the base and the escaped segments with "/".
func (b *Builder) URL(segments ...string) string {
	var sb strings.Builder
	sb.WriteString(b.BaseURL)
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s == "" {
			continue
		}
		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(s))
	}
	return sb.String()
}
