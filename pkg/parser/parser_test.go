package parser

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/intcat/pkg/util"
)

func TestDetectLanguage(t *testing.T) {
	tests := map[string]Language{
		"src/data/integrations.ts": LanguageTypeScript,
		"lib/x.MTS":                LanguageTypeScript,
		"components/Grid.tsx":      LanguageTSX,
		"data.js":                  LanguageJavaScript,
		"page.jsx":                 LanguageJavaScript,
		"config.mjs":               LanguageJavaScript,
		"catalog.json":             LanguageUnknown,
		"README":                   LanguageUnknown,
	}
	for path, want := range tests {
		assert.Equal(t, want, DetectLanguage(path), path)
	}
}

func TestParseTypeScript(t *testing.T) {
	m := NewManager(util.NopLogger())
	defer m.Close()

	tree, err := m.ParseFile([]byte(`export const xs: string[] = ["a", "b"];`), "data.ts")
	require.NoError(t, err)
	defer tree.Close()

	root := tree.RootNode()
	assert.Equal(t, "program", root.Kind())
	assert.False(t, root.HasError())
}

func TestParseTSX(t *testing.T) {
	m := NewManager(util.NopLogger())
	defer m.Close()

	tree, err := m.Parse([]byte(`const el = <div className="card">Hi</div>;`), LanguageTSX)
	require.NoError(t, err)
	defer tree.Close()
	assert.Contains(t, tree.RootNode().ToSexp(), "jsx_element")
}

func TestParseJavaScript(t *testing.T) {
	m := NewManager(util.NopLogger())
	defer m.Close()

	tree, err := m.ParseFile([]byte(`module.exports = [{ id: "a" }];`), "data.js")
	require.NoError(t, err)
	defer tree.Close()
	assert.Equal(t, "program", tree.RootNode().Kind())
}

func TestParse_PartialTreeOnSyntaxError(t *testing.T) {
	m := NewManager(util.NopLogger())
	defer m.Close()

	tree, err := m.Parse([]byte(`const x = [ {id: "a"}, `), LanguageTypeScript)
	require.NoError(t, err)
	defer tree.Close()
	assert.True(t, tree.RootNode().HasError())
}

func TestParseFile_UnsupportedExtension(t *testing.T) {
	m := NewManager(util.NopLogger())
	defer m.Close()

	_, err := m.ParseFile([]byte(`{}`), "catalog.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file extension")
}

func TestParse_Concurrent(t *testing.T) {
	m := NewManager(util.NopLogger())
	defer m.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lang := LanguageTypeScript
			if i%2 == 0 {
				lang = LanguageJavaScript
			}
			tree, err := m.Parse([]byte(`const n = 1;`), lang)
			if assert.NoError(t, err) {
				assert.Equal(t, "program", tree.RootNode().Kind())
				tree.Close()
			}
		}(i)
	}
	wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pools {
		assert.LessOrEqual(t, p.created, m.poolSize)
	}
}
