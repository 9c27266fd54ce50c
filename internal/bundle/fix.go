package bundle

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/matsen/pubfold/internal/reference"
	"github.com/matsen/pubfold/internal/venue"
)

var (
	arxivPDF   = regexp.MustCompile(`(?i)^https?://arxiv\.org/pdf/(\d{4}\.\d{4,5})(?:v\d+)?\.pdf$`)
	yearSuffix = regexp.MustCompile(`-(\d{4})$`)
	braces     = strings.NewReplacer("{", "", "}", "")
)

const fence = "---"

// ErrNoFrontMatter means a page does not start with a --- fenced block.
var ErrNoFrontMatter = errors.New("no front matter")

// FixOptions controls a repair pass over existing bundles.
type FixOptions struct {
	Root    string // bundles to read
	Out     string // where repaired copies go
	MinYear int    // skip bundles whose slug year is older
	DryRun  bool
	Now     time.Time
}

// FixReport summarizes a repair pass.
type FixReport struct {
	Scanned  int `json:"scanned"`
	Modified int `json:"modified"`
	Skipped  int `json:"skipped"`
}

// Fix copies every bundle under opts.Root whose slug year is at least
// opts.MinYear into opts.Out, stripping braces from titles and, for bundles
// whose PDF is an arXiv link, setting the publication to arXiv:<id> and both
// dates to the identifier's month.
func Fix(opts FixOptions, log zerolog.Logger) (FixReport, error) {
	var report FixReport
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	dirs, err := os.ReadDir(opts.Root)
	if err != nil {
		return report, fmt.Errorf("reading bundle root: %w", err)
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name() < dirs[j].Name() })

	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		m := yearSuffix.FindStringSubmatch(d.Name())
		if m == nil {
			continue
		}
		if year, _ := strconv.Atoi(m[1]); year < opts.MinYear {
			continue
		}

		src := filepath.Join(opts.Root, d.Name(), IndexFile)
		data, err := os.ReadFile(src)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return report, fmt.Errorf("reading %s: %w", src, err)
		}
		report.Scanned++

		fixed, changed, err := FixPage(data, opts.Now)
		if err != nil {
			log.Warn().Str("path", src).Err(err).Msg("copying page unchanged")
			report.Skipped++
			fixed, changed = data, false
		}
		if changed {
			report.Modified++
		}

		dst := filepath.Join(opts.Out, d.Name(), IndexFile)
		if opts.DryRun {
			log.Info().Str("path", dst).Bool("modified", changed).Msg("would write")
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return report, fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
		}
		if err := os.WriteFile(dst, fixed, 0644); err != nil {
			return report, fmt.Errorf("writing %s: %w", dst, err)
		}
	}
	return report, nil
}

// FixPage repairs one page. Pages without a url_pdf are returned unchanged.
// Fields the repair does not touch are preserved.
func FixPage(page []byte, now time.Time) ([]byte, bool, error) {
	head, body, err := splitFrontMatter(page)
	if err != nil {
		return page, false, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(head, &doc); err != nil {
		return page, false, fmt.Errorf("parsing front matter: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return page, false, fmt.Errorf("front matter is not a mapping")
	}
	fm := doc.Content[0]

	pdf := strings.TrimSpace(scalar(fm, "url_pdf"))
	if pdf == "" {
		return page, false, nil
	}

	changed := false
	if title := scalar(fm, "title"); title != "" {
		if clean := braces.Replace(title); clean != title {
			setScalar(fm, "title", clean, yaml.DoubleQuotedStyle)
			changed = true
		}
	}

	if m := arxivPDF.FindStringSubmatch(pdf); m != nil {
		id := m[1]
		changed = setIfDifferent(fm, "publication", "arXiv:"+id, yaml.DoubleQuotedStyle) || changed
		if year, month, ok := venue.ArxivDate(id, now); ok {
			iso := ISODate(reference.PublicationDate{Year: year, Month: month, Day: 1})
			changed = setIfDifferent(fm, "date", iso, yaml.SingleQuotedStyle) || changed
			changed = setIfDifferent(fm, "publishDate", iso, yaml.SingleQuotedStyle) || changed
		}
	}

	if !changed {
		return page, false, nil
	}

	var buf bytes.Buffer
	buf.WriteString(fence + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return page, false, fmt.Errorf("encoding front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return page, false, fmt.Errorf("encoding front matter: %w", err)
	}
	buf.WriteString(fence + "\n")
	buf.Write(body)
	return buf.Bytes(), true, nil
}

// splitFrontMatter separates the YAML between the opening and closing fences
// from the rest of the page.
func splitFrontMatter(page []byte) (head, body []byte, err error) {
	lines := bytes.SplitAfter(page, []byte("\n"))
	if len(lines) == 0 || strings.TrimSpace(string(lines[0])) != fence {
		return nil, nil, ErrNoFrontMatter
	}
	offset := len(lines[0])
	for _, line := range lines[1:] {
		if strings.TrimSpace(string(line)) == fence {
			return page[len(lines[0]):offset], page[offset+len(line):], nil
		}
		offset += len(line)
	}
	return nil, nil, ErrNoFrontMatter
}

func scalar(m *yaml.Node, key string) string {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key && m.Content[i+1].Kind == yaml.ScalarNode {
			return m.Content[i+1].Value
		}
	}
	return ""
}

func setScalar(m *yaml.Node, key, value string, style yaml.Style) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value, Style: style}
			return
		}
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value, Style: style},
	)
}

func setIfDifferent(m *yaml.Node, key, value string, style yaml.Style) bool {
	if scalar(m, key) == value {
		return false
	}
	setScalar(m, key, value, style)
	return true
}
