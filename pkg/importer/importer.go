// Package importer pulls integration records out of the marketing site's
// data modules (integrations.ts and friends) so the catalog can be seeded
// from the code the site already ships.
package importer

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/intcat/pkg/catalog"
	"github.com/gnana997/intcat/pkg/parser"
	"github.com/gnana997/intcat/pkg/util"
)

// Warning describes a record the importer skipped or had to patch up.
type Warning struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s:%d: %s", w.File, w.Line, w.Message)
}

// Result is what an import produced.
type Result struct {
	Integrations []catalog.Integration `json:"integrations"`
	Warnings     []Warning             `json:"warnings"`
}

// Importer extracts records with tree-sitter.
type Importer struct {
	parsers *parser.Manager
	logger  *slog.Logger
}

// New creates an Importer using parsers from m.
func New(m *parser.Manager, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{parsers: m, logger: logger}
}

// ImportFiles extracts records from every file, parsing up to one file per
// pooled parser at a time. Output keeps file order. When an id appears more
// than once the first occurrence wins and the rest become warnings.
func (im *Importer) ImportFiles(paths []string) (*Result, error) {
	type fileResult struct {
		res *Result
		err error
	}
	results := make([]fileResult, len(paths))

	sem := make(chan struct{}, im.parsers.PoolSize())
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()

			src, err := util.ReadFileMapped(path)
			if err != nil {
				results[i].err = err
				return
			}
			results[i].res, results[i].err = im.ExtractFile(path, src)
		}(i, path)
	}
	wg.Wait()

	out := &Result{Integrations: make([]catalog.Integration, 0)}
	seen := make(map[string]bool)
	for i, r := range results {
		if r.err != nil {
			return nil, r.err
		}
		out.Warnings = append(out.Warnings, r.res.Warnings...)
		for _, rec := range r.res.Integrations {
			if seen[rec.ID] {
				out.Warnings = append(out.Warnings, Warning{File: paths[i], Message: fmt.Sprintf("duplicate id %q skipped", rec.ID)})
				continue
			}
			seen[rec.ID] = true
			out.Integrations = append(out.Integrations, rec)
		}
	}

	im.logger.Info("import finished", "files", len(paths), "integrations", len(out.Integrations), "warnings", len(out.Warnings))
	return out, nil
}

// ExtractFile returns every object literal inside an array literal in src
// that looks like an integration record: it has string name and category
// properties. Records without an id get one from slug or name.
func (im *Importer) ExtractFile(path string, src []byte) (*Result, error) {
	tree, err := im.parsers.ParseFile(src, path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	defer tree.Close()

	x := &extraction{path: path, src: src, res: &Result{Integrations: make([]catalog.Integration, 0)}}
	x.walk(tree.RootNode())
	return x.res, nil
}

// BuildCatalog wraps imported records in a validated catalog document.
func BuildCatalog(name, version string, res *Result) (*catalog.Catalog, error) {
	cat := &catalog.Catalog{Name: name, Version: version, Integrations: res.Integrations}
	if errs := cat.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("imported catalog is invalid: %w", errors.Join(errs...))
	}
	return cat, nil
}

type extraction struct {
	path string
	src  []byte
	res  *Result
}

func (x *extraction) walk(node *ts.Node) {
	if node == nil {
		return
	}
	if node.Kind() == "array" {
		for i := uint(0); i < uint(node.NamedChildCount()); i++ {
			child := unwrap(node.NamedChild(i))
			if child != nil && child.Kind() == "object" {
				x.object(child)
			}
		}
	}
	for i := uint(0); i < uint(node.ChildCount()); i++ {
		x.walk(node.Child(i))
	}
}

func (x *extraction) warn(node *ts.Node, format string, args ...any) {
	x.res.Warnings = append(x.res.Warnings, Warning{
		File:    x.path,
		Line:    int(node.StartPosition().Row) + 1,
		Message: fmt.Sprintf(format, args...),
	})
}

func (x *extraction) object(obj *ts.Node) {
	props := make(map[string]*ts.Node)
	for i := uint(0); i < uint(obj.NamedChildCount()); i++ {
		pair := obj.NamedChild(i)
		if pair.Kind() != "pair" {
			continue
		}
		key := pair.ChildByFieldName("key")
		value := pair.ChildByFieldName("value")
		if key == nil || value == nil {
			continue
		}
		props[keyText(key, x.src)] = unwrap(value)
	}

	nameNode, hasName := props["name"]
	catNode, hasCat := props["category"]
	if !hasName || !hasCat {
		return
	}

	var rec catalog.Integration
	var ok bool
	if rec.Name, ok = stringValue(nameNode, x.src); !ok {
		x.warn(obj, "name is not a string literal, record skipped")
		return
	}
	if rec.Category, ok = stringValue(catNode, x.src); !ok {
		x.warn(obj, "integration %q: category is not a string literal, record skipped", rec.Name)
		return
	}

	rec.ID = x.str(obj, props, rec.Name, "id", "slug")
	if rec.ID == "" {
		rec.ID = slugify(rec.Name)
		x.warn(obj, "integration %q: no id, using %q", rec.Name, rec.ID)
	}
	rec.Description = x.str(obj, props, rec.Name, "description", "summary")
	rec.Logo = x.str(obj, props, rec.Name, "logo", "image")
	rec.Website = x.str(obj, props, rec.Name, "website", "url")
	rec.DetailPath = x.str(obj, props, rec.Name, "detailPath", "detail_path", "href")

	for _, key := range []string{"keyFeatures", "key_features", "features"} {
		if node, ok := props[key]; ok {
			features, ok := stringArray(node, x.src)
			if !ok {
				x.warn(node, "integration %q: %s is not a list of string literals, ignored", rec.Name, key)
			}
			rec.KeyFeatures = features
			break
		}
	}

	for _, key := range []string{"popular", "featured"} {
		if node, ok := props[key]; ok {
			switch node.Kind() {
			case "true":
				rec.Popular = true
			case "false":
			default:
				x.warn(node, "integration %q: %s is not a boolean literal, treated as false", rec.Name, key)
			}
			break
		}
	}

	x.res.Integrations = append(x.res.Integrations, rec)
}

// str reads the first present key as a string literal. Non-literal values
// are reported and read as empty.
func (x *extraction) str(obj *ts.Node, props map[string]*ts.Node, name string, keys ...string) string {
	for _, key := range keys {
		node, ok := props[key]
		if !ok {
			continue
		}
		s, ok := stringValue(node, x.src)
		if !ok {
			x.warn(node, "integration %q: %s is not a string literal, ignored", name, key)
			return ""
		}
		return s
	}
	return ""
}

// unwrap strips TypeScript assertions and parentheses around a value:
// `[...] as const`, `x satisfies T`, `(x)`.
func unwrap(node *ts.Node) *ts.Node {
	for node != nil {
		switch node.Kind() {
		case "as_expression", "satisfies_expression", "parenthesized_expression", "non_null_expression":
			if node.NamedChildCount() == 0 {
				return node
			}
			node = node.NamedChild(0)
		default:
			return node
		}
	}
	return nil
}

func keyText(key *ts.Node, src []byte) string {
	if key.Kind() == "string" {
		if s, ok := stringValue(key, src); ok {
			return s
		}
	}
	return key.Utf8Text(src)
}

// stringValue reads string and substitution-free template literals.
func stringValue(node *ts.Node, src []byte) (string, bool) {
	switch node.Kind() {
	case "string":
		var b strings.Builder
		for i := uint(0); i < uint(node.NamedChildCount()); i++ {
			part := node.NamedChild(i)
			switch part.Kind() {
			case "string_fragment":
				b.WriteString(part.Utf8Text(src))
			case "escape_sequence":
				b.WriteString(unescape(part.Utf8Text(src)))
			}
		}
		return b.String(), true

	case "template_string":
		for i := uint(0); i < uint(node.NamedChildCount()); i++ {
			if node.NamedChild(i).Kind() == "template_substitution" {
				return "", false
			}
		}
		text := node.Utf8Text(src)
		if len(text) < 2 {
			return "", false
		}
		return text[1 : len(text)-1], true
	}
	return "", false
}

func stringArray(node *ts.Node, src []byte) ([]string, bool) {
	if node.Kind() != "array" {
		return nil, false
	}
	out := make([]string, 0, node.NamedChildCount())
	for i := uint(0); i < uint(node.NamedChildCount()); i++ {
		el := node.NamedChild(i)
		if el.Kind() == "comment" {
			continue
		}
		s, ok := stringValue(el, src)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func unescape(seq string) string {
	switch seq {
	case `\'`:
		return "'"
	case "\\`":
		return "`"
	}
	if s, err := strconv.Unquote(`"` + seq + `"`); err == nil {
		return s
	}
	return seq
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}
