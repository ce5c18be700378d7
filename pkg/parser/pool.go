package parser

import (
	"fmt"
	"log/slog"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// pool hands out parsers for one grammar. Parsers are created lazily up to
// max; past that, acquire blocks until one is released.
type pool struct {
	lang   Language
	tsLang *ts.Language
	free   chan *ts.Parser
	max    int
	logger *slog.Logger

	mu      sync.Mutex
	created int
}

func newPool(lang Language, tsLang *ts.Language, max int, logger *slog.Logger) *pool {
	return &pool{
		lang:   lang,
		tsLang: tsLang,
		free:   make(chan *ts.Parser, max),
		max:    max,
		logger: logger,
	}
}

func (p *pool) acquire() (*ts.Parser, error) {
	select {
	case parser := <-p.free:
		return parser, nil
	default:
	}

	p.mu.Lock()
	if p.created >= p.max {
		p.mu.Unlock()
		return <-p.free, nil
	}

	parser := ts.NewParser()
	if err := parser.SetLanguage(p.tsLang); err != nil {
		p.mu.Unlock()
		parser.Close()
		return nil, fmt.Errorf("failed to set %s grammar: %w", p.lang, err)
	}
	p.created++
	n := p.created
	p.mu.Unlock()

	p.logger.Debug("created parser", "language", p.lang.String(), "pool_size", n)
	return parser, nil
}

func (p *pool) release(parser *ts.Parser) {
	select {
	case p.free <- parser:
	default:
		parser.Close()
	}
}

// drain closes idle parsers and returns how many it closed.
func (p *pool) drain() int {
	n := 0
	for {
		select {
		case parser := <-p.free:
			parser.Close()
			n++
		default:
			return n
		}
	}
}
