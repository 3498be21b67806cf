// Package wrapping turns partial template files into complete documents the validator accepts.
package wrapping

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

const (
	documentHead = "<!DOCTYPE html>\n<html>\n<head><title>Dummy</title></head>\n<body>\n"
	documentTail = "\n</body>\n</html>"

	tempPattern = "htmlint-*.html"
)

// ReleaseFunc deletes a temporary document. It is safe to call more than once.
type ReleaseFunc func() error

// IsTemplate reports whether path names a partial template, judged by its suffix
func IsTemplate(path, suffix string) bool {
	return suffix != "" && strings.HasSuffix(path, suffix)
}

// Document embeds a template body in a minimal HTML5 document
func Document(body []byte) []byte {
	doc := make([]byte, 0, len(documentHead)+len(body)+len(documentTail))
	doc = append(doc, documentHead...)
	doc = append(doc, body...)
	doc = append(doc, documentTail...)
	return doc
}

// BodyFragment returns the original template bytes from a document built by Document
func BodyFragment(doc []byte) ([]byte, error) {
	if !bytes.HasPrefix(doc, []byte(documentHead)) || !bytes.HasSuffix(doc, []byte(documentTail)) {
		return nil, fmt.Errorf("not a wrapped template document")
	}
	if len(doc) < len(documentHead)+len(documentTail) {
		return nil, fmt.Errorf("wrapped template document is truncated")
	}
	return doc[len(documentHead) : len(doc)-len(documentTail)], nil
}

// Wrap writes the template at path into a new temporary document.
// The caller must invoke release once validation is done, on every exit path.
func Wrap(path string) (tempPath string, release ReleaseFunc, err error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}

	tmp, err := os.CreateTemp("", tempPattern)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temporary document: %w", err)
	}
	tempPath = tmp.Name()

	released := false
	release = func() error {
		if released {
			return nil
		}
		released = true
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove temporary document %s: %w", tempPath, err)
		}
		return nil
	}

	if _, err := tmp.Write(Document(body)); err != nil {
		_ = tmp.Close()
		_ = release()
		return "", nil, fmt.Errorf("failed to write temporary document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = release()
		return "", nil, fmt.Errorf("failed to close temporary document: %w", err)
	}

	return tempPath, release, nil
}
