// Package extract turns raw uploaded bytes into plain text based on the
// declared media type. Binary document formats are rejected; the service
// does not parse PDF or Word containers.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"
)

var (
	ErrPDFNotSupported  = errors.New("pdf content extraction not implemented, upload text files")
	ErrWordNotSupported = errors.New("word document content extraction not implemented, upload text files")
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrNotUTF8          = errors.New("content is not valid utf-8 text")
)

// Word processor media types rejected alongside PDF.
var wordMimeTypes = map[string]bool{
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// Text extracts plain text from content given its declared media type.
//
// text/markdown is flattened to plain text (formatting stripped); other
// text/* types decode directly. PDF and Word documents are rejected with
// sentinel errors. Unknown types get a best-effort decode as UTF-8 text and
// are rejected if that fails.
func Text(content []byte, mimeType string) (string, error) {
	mediaType := normalizeMediaType(mimeType)

	switch {
	case mediaType == "text/markdown":
		if !utf8.Valid(content) {
			return "", fmt.Errorf("%w (media type %q)", ErrNotUTF8, mimeType)
		}
		return flattenMarkdown(content), nil

	case strings.HasPrefix(mediaType, "text/"):
		if !utf8.Valid(content) {
			return "", fmt.Errorf("%w (media type %q)", ErrNotUTF8, mimeType)
		}
		return string(content), nil

	case mediaType == "application/pdf":
		return "", ErrPDFNotSupported

	case wordMimeTypes[mediaType]:
		return "", ErrWordNotSupported

	default:
		// Try to decode as text anyway; many uploads arrive with a
		// generic or missing media type.
		if utf8.Valid(content) {
			return string(content), nil
		}
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, mimeType)
	}
}

// normalizeMediaType lowercases the type and drops parameters such as
// "; charset=utf-8".
func normalizeMediaType(mimeType string) string {
	mediaType, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// flattenMarkdown strips markdown structure down to its text content.
// Headings, emphasis, and link targets disappear; paragraph and code block
// text survives with block boundaries preserved as blank lines.
func flattenMarkdown(source []byte) string {
	md := goldmark.New()
	doc := md.Parser().Parse(gtext.NewReader(source))

	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			switch v := n.(type) {
			case *ast.Text:
				buf.Write(v.Segment.Value(source))
				if v.SoftLineBreak() || v.HardLineBreak() {
					buf.WriteByte('\n')
				}
			case *ast.AutoLink:
				buf.Write(v.URL(source))
			case *ast.CodeBlock:
				writeLines(&buf, source, v)
			case *ast.FencedCodeBlock:
				writeLines(&buf, source, v)
			case *ast.CodeSpan:
				// Children are Text nodes, handled above.
			}
			return ast.WalkContinue, nil
		}

		if n.Type() == ast.TypeBlock {
			buf.WriteString("\n\n")
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(buf.String())
}

func writeLines(buf *bytes.Buffer, source []byte, n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		buf.Write(segment.Value(source))
	}
}
