package session

import "sync"

// Document is the open document a session annotates.
type Document interface {
	Path() string
	Text() string
}

// TextDocument is an in-memory Document that is safe for concurrent use.
type TextDocument struct {
	path string

	mu   sync.RWMutex
	text string
}

// NewTextDocument returns a document with the given path and content.
func NewTextDocument(path, text string) *TextDocument {
	return &TextDocument{path: path, text: text}
}

// Path returns the document path.
func (d *TextDocument) Path() string { return d.path }

// Text returns the current content.
func (d *TextDocument) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

// SetText replaces the content.
func (d *TextDocument) SetText(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = text
}
