package router

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Document is one file of the document corpus.
type Document struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Stem is the file name without its extension.
func (d Document) Stem() string {
	return strings.TrimSuffix(d.Name, filepath.Ext(d.Name))
}

// Company is the lower-cased stem, or the part of it before the first hyphen.
func (d Document) Company() string {
	stem := d.Stem()
	if i := strings.Index(stem, "-"); i >= 0 {
		stem = stem[:i]
	}
	return strings.ToLower(strings.TrimSpace(stem))
}

// Topic is the lower-cased stem with separators turned into spaces.
func (d Document) Topic() string {
	topic := strings.NewReplacer("-", " ", "_", " ").Replace(d.Stem())
	return strings.ToLower(strings.TrimSpace(topic))
}

// Corpus is a snapshot of the PDF documents in a directory.
type Corpus struct {
	Dir       string     `json:"dir"`
	Documents []Document `json:"documents"`
}

// ScanCorpus lists the .pdf files of dir. A missing directory yields an empty
// corpus and no error.
func ScanCorpus(dir string) (Corpus, error) {
	corpus := Corpus{Dir: dir}
	if strings.TrimSpace(dir) == "" {
		return corpus, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return corpus, nil
		}
		return corpus, fmt.Errorf("scan corpus %q: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
			continue
		}
		corpus.Documents = append(corpus.Documents, Document{
			Name: entry.Name(),
			Path: filepath.Join(dir, entry.Name()),
		})
	}
	slices.SortFunc(corpus.Documents, func(a, b Document) int { return strings.Compare(a.Name, b.Name) })
	return corpus, nil
}

// ForCompanies returns the documents whose company is one of companies.
func (c Corpus) ForCompanies(companies []string) []Document {
	if len(companies) == 0 {
		return nil
	}
	var out []Document
	for _, doc := range c.Documents {
		company := doc.Company()
		for _, want := range companies {
			if strings.EqualFold(company, want) {
				out = append(out, doc)
				break
			}
		}
	}
	return out
}
