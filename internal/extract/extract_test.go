package extract

import (
	"errors"
	"strings"
	"testing"
)

// TestText_PlainText verifies text/plain content passes through unchanged.
func TestText_PlainText(t *testing.T) {
	input := "Hello world.\nSecond line."

	text, err := Text([]byte(input), "text/plain")
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if text != input {
		t.Errorf("Expected unchanged content, got %q", text)
	}
}

// TestText_CharsetParameter verifies media type parameters are ignored.
func TestText_CharsetParameter(t *testing.T) {
	text, err := Text([]byte("hello"), "text/plain; charset=utf-8")
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if text != "hello" {
		t.Errorf("Expected 'hello', got %q", text)
	}
}

// TestText_MarkdownFlattened verifies markdown structure is stripped while
// the text content survives.
func TestText_MarkdownFlattened(t *testing.T) {
	input := `# Title

Some **bold** and *italic* text with a [link](https://example.com).

- item one
- item two

` + "```go\nfunc main() {}\n```" + `
`

	text, err := Text([]byte(input), "text/markdown")
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}

	for _, want := range []string{"Title", "bold", "italic", "link", "item one", "item two", "func main() {}"} {
		if !strings.Contains(text, want) {
			t.Errorf("Flattened text missing %q", want)
		}
	}
	for _, unwanted := range []string{"#", "**", "```", "https://example.com"} {
		if strings.Contains(text, unwanted) {
			t.Errorf("Flattened text still contains markdown syntax %q", unwanted)
		}
	}
}

// TestText_MarkdownBlockBoundaries verifies paragraphs stay separated after
// flattening so chunk boundaries remain sensible.
func TestText_MarkdownBlockBoundaries(t *testing.T) {
	input := "First paragraph.\n\nSecond paragraph."

	text, err := Text([]byte(input), "text/markdown")
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if !strings.Contains(text, "First paragraph.\n\nSecond paragraph.") {
		t.Errorf("Expected blank line between paragraphs, got %q", text)
	}
}

// TestText_PDFRejected verifies PDF uploads fail with the sentinel error.
func TestText_PDFRejected(t *testing.T) {
	_, err := Text([]byte("%PDF-1.4 ..."), "application/pdf")
	if !errors.Is(err, ErrPDFNotSupported) {
		t.Errorf("Expected ErrPDFNotSupported, got %v", err)
	}
}

// TestText_WordRejected verifies both Word media types fail with the
// sentinel error.
func TestText_WordRejected(t *testing.T) {
	for _, mimeType := range []string{
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	} {
		_, err := Text([]byte("binary"), mimeType)
		if !errors.Is(err, ErrWordNotSupported) {
			t.Errorf("Media type %q: expected ErrWordNotSupported, got %v", mimeType, err)
		}
	}
}

// TestText_InvalidUTF8 verifies non-UTF-8 bytes under a text type are rejected.
func TestText_InvalidUTF8(t *testing.T) {
	invalid := []byte{0xff, 0xfe, 0x00, 0x41}

	_, err := Text(invalid, "text/plain")
	if !errors.Is(err, ErrNotUTF8) {
		t.Errorf("Expected ErrNotUTF8, got %v", err)
	}

	_, err = Text(invalid, "text/markdown")
	if !errors.Is(err, ErrNotUTF8) {
		t.Errorf("Markdown: expected ErrNotUTF8, got %v", err)
	}
}

// TestText_UnknownTypeBestEffort verifies unknown media types decode as text
// when the bytes are valid UTF-8 and are rejected otherwise.
func TestText_UnknownTypeBestEffort(t *testing.T) {
	text, err := Text([]byte("plain enough"), "application/octet-stream")
	if err != nil {
		t.Fatalf("Expected best-effort decode, got %v", err)
	}
	if text != "plain enough" {
		t.Errorf("Expected 'plain enough', got %q", text)
	}

	_, err = Text([]byte{0xff, 0xfe}, "application/octet-stream")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("Expected ErrUnsupportedType, got %v", err)
	}
}

// TestText_CaseInsensitiveType verifies media type matching ignores case.
func TestText_CaseInsensitiveType(t *testing.T) {
	_, err := Text([]byte("x"), "Application/PDF")
	if !errors.Is(err, ErrPDFNotSupported) {
		t.Errorf("Expected ErrPDFNotSupported for mixed-case type, got %v", err)
	}
}
