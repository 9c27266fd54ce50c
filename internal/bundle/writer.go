package bundle

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/matsen/pubfold/internal/reference"
)

// Writer emits one bundle per record under a root directory.
type Writer struct {
	root    string
	dryRun  bool
	preview io.Writer
	log     zerolog.Logger
	written map[string]string // slug -> title
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithDryRun prints each bundle to preview instead of writing it.
func WithDryRun(preview io.Writer) WriterOption {
	return func(w *Writer) {
		w.dryRun = true
		w.preview = preview
	}
}

// WithWriterLogger sets the writer's logger.
func WithWriterLogger(log zerolog.Logger) WriterOption {
	return func(w *Writer) {
		w.log = log
	}
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string, opts ...WriterOption) *Writer {
	w := &Writer{
		root:    dir,
		log:     zerolog.Nop(),
		written: make(map[string]string),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write emits rec and returns the page path.
func (w *Writer) Write(rec reference.Record) (string, error) {
	slug := Slug(rec.Title, rec.Published.Year)
	path := filepath.Join(w.root, slug, IndexFile)
	content := Render(rec)

	if prev, ok := w.written[slug]; ok {
		w.log.Warn().Str("slug", slug).Str("title", rec.Title).Str("previous", prev).Msg("slug collision, overwriting")
	}
	w.written[slug] = rec.Title

	if w.dryRun {
		if w.preview != nil {
			fmt.Fprintf(w.preview, "# %s\n%s\n", path, content)
		}
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating bundle dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing bundle: %w", err)
	}
	return path, nil
}

// Count returns the number of distinct slugs written.
func (w *Writer) Count() int { return len(w.written) }
