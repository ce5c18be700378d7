// Package parser wraps tree-sitter grammars for the site's TypeScript and
// JavaScript sources.
package parser

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Manager owns one parser pool per grammar, created on first use.
// Safe for concurrent use. Callers own the returned trees and must Close them.
//
//	m := parser.NewManager(logger)
//	defer m.Close()
//
//	tree, err := m.ParseFile(src, "src/data/integrations.ts")
//	if err != nil {
//	    return err
//	}
//	defer tree.Close()
type Manager struct {
	mu       sync.Mutex
	pools    map[Language]*pool
	poolSize int
	logger   *slog.Logger
	parses   int
}

// NewManager creates a Manager. A nil logger uses slog.Default().
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		pools:    make(map[Language]*pool),
		poolSize: defaultPoolSize(),
		logger:   logger,
	}
}

// Parse parses source with the given grammar. Trees with syntax errors are
// still returned; partial trees usually hold the data we are after.
func (m *Manager) Parse(source []byte, lang Language) (*ts.Tree, error) {
	p, err := m.poolFor(lang)
	if err != nil {
		return nil, err
	}

	parser, err := p.acquire()
	if err != nil {
		return nil, err
	}
	tree := parser.Parse(source, nil)
	p.release(parser)

	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned no tree for %s source", lang)
	}
	if tree.RootNode().HasError() {
		m.logger.Warn("parse tree contains errors", "language", lang.String())
	}
	return tree, nil
}

// ParseFile parses source using the grammar matching path's extension.
func (m *Manager) ParseFile(source []byte, path string) (*ts.Tree, error) {
	lang := DetectLanguage(path)
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("unsupported file extension: %s", path)
	}
	return m.Parse(source, lang)
}

// PoolSize is the most parsers kept per grammar, and so the most parses of
// one grammar that run at once.
func (m *Manager) PoolSize() int {
	return m.poolSize
}

// Close releases idle parsers. The Manager must not be used afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	closed := 0
	for lang, p := range m.pools {
		closed += p.drain()
		delete(m.pools, lang)
	}
	m.logger.Debug("parser manager closed", "parses", m.parses, "parsers_closed", closed)
	return nil
}

func (m *Manager) poolFor(lang Language) (*pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.parses++
	if p, ok := m.pools[lang]; ok {
		return p, nil
	}

	tsLang, err := grammar(lang)
	if err != nil {
		return nil, err
	}
	p := newPool(lang, tsLang, m.poolSize, m.logger)
	m.pools[lang] = p
	return p, nil
}

func grammar(lang Language) (*ts.Language, error) {
	switch lang {
	case LanguageTypeScript:
		return ts.NewLanguage(ts_typescript.LanguageTypescript()), nil
	case LanguageTSX:
		return ts.NewLanguage(ts_typescript.LanguageTSX()), nil
	case LanguageJavaScript:
		return ts.NewLanguage(ts_javascript.Language()), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// defaultPoolSize is one parser per CPU, between 2 and 8. Imports touch a
// handful of files, so more would only hold memory.
func defaultPoolSize() int {
	n := runtime.NumCPU()
	if n < 2 {
		n = 2
	}
	if n > 8 {
		n = 8
	}
	return n
}
