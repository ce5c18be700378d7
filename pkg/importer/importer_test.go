package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/intcat/pkg/catalog"
	"github.com/gnana997/intcat/pkg/parser"
	"github.com/gnana997/intcat/pkg/util"
)

const integrationsTS = `
import type { Integration } from "./types";
import hubspotLogo from "../assets/hubspot.svg";

export const integrations: Integration[] = [
  {
    id: "salesforce",
    name: "Salesforce",
    category: "CRM",
    description: 'Sync calls and leads to Salesforce.',
    keyFeatures: ["Lead sync", ` + "`Call logging`" + `],
    popular: true,
    logo: "/logos/salesforce.svg",
    detailPath: "/integrations/salesforce",
  },
  {
    id: "hubspot",
    name: "HubSpot",
    category: "CRM",
    description: "Contacts and deals, kept current.",
    key_features: ["Contact sync"],
    logo: hubspotLogo,
  },
  {
    "name": "Google Calendar",
    "category": "Scheduling",
    "description": "Book meetings on the caller\'s behalf.",
    "featured": false,
  },
] as const;

export const footerLinks = [{ label: "Docs", href: "/docs" }];
`

func newTestImporter(t *testing.T) *Importer {
	t.Helper()
	m := parser.NewManager(util.NopLogger())
	t.Cleanup(func() { m.Close() })
	return New(m, util.NopLogger())
}

// --- ExtractFile ---

func TestExtractFile_TypeScript(t *testing.T) {
	im := newTestImporter(t)

	res, err := im.ExtractFile("integrations.ts", []byte(integrationsTS))
	require.NoError(t, err)
	require.Len(t, res.Integrations, 3)

	sf := res.Integrations[0]
	assert.Equal(t, "salesforce", sf.ID)
	assert.Equal(t, "Salesforce", sf.Name)
	assert.Equal(t, "CRM", sf.Category)
	assert.Equal(t, "Sync calls and leads to Salesforce.", sf.Description)
	assert.Equal(t, []string{"Lead sync", "Call logging"}, sf.KeyFeatures)
	assert.True(t, sf.Popular)
	assert.Equal(t, "/logos/salesforce.svg", sf.Logo)
	assert.Equal(t, "/integrations/salesforce", sf.DetailPath)

	hs := res.Integrations[1]
	assert.Equal(t, []string{"Contact sync"}, hs.KeyFeatures)
	assert.Empty(t, hs.Logo)
	assert.False(t, hs.Popular)

	gc := res.Integrations[2]
	assert.Equal(t, "google-calendar", gc.ID)
	assert.Equal(t, "Book meetings on the caller's behalf.", gc.Description)
	assert.False(t, gc.Popular)
}

func TestExtractFile_Warnings(t *testing.T) {
	im := newTestImporter(t)

	res, err := im.ExtractFile("integrations.ts", []byte(integrationsTS))
	require.NoError(t, err)
	require.Len(t, res.Warnings, 2)

	assert.Contains(t, res.Warnings[0].Message, `"HubSpot": logo is not a string literal`)
	assert.Equal(t, "integrations.ts", res.Warnings[0].File)
	assert.Positive(t, res.Warnings[0].Line)
	assert.Contains(t, res.Warnings[1].Message, `no id, using "google-calendar"`)
}

func TestExtractFile_JavaScript(t *testing.T) {
	im := newTestImporter(t)
	src := `module.exports = [
  { id: "clio", name: "Clio", category: "Legal", popular: false },
  { id: "dyn", name: ` + "`${prefix} CRM`" + `, category: "CRM" },
];`

	res, err := im.ExtractFile("data.js", []byte(src))
	require.NoError(t, err)
	require.Len(t, res.Integrations, 1)
	assert.Equal(t, "clio", res.Integrations[0].ID)

	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0].Message, "name is not a string literal")
}

func TestExtractFile_NonLiteralFeaturesIgnored(t *testing.T) {
	im := newTestImporter(t)
	src := `const xs = [{ id: "a", name: "A", category: "CRM", keyFeatures: shared, popular: isPopular }];`

	res, err := im.ExtractFile("data.ts", []byte(src))
	require.NoError(t, err)
	require.Len(t, res.Integrations, 1)
	assert.Nil(t, res.Integrations[0].KeyFeatures)
	assert.False(t, res.Integrations[0].Popular)
	assert.Len(t, res.Warnings, 2)
}

func TestExtractFile_NoRecords(t *testing.T) {
	im := newTestImporter(t)

	res, err := im.ExtractFile("nav.ts", []byte(`export const links = [{ label: "Home", href: "/" }];`))
	require.NoError(t, err)
	assert.NotNil(t, res.Integrations)
	assert.Empty(t, res.Integrations)
	assert.Empty(t, res.Warnings)
}

func TestExtractFile_UnsupportedFile(t *testing.T) {
	im := newTestImporter(t)

	_, err := im.ExtractFile("catalog.json", []byte(`[]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog.json")
}

// --- ImportFiles ---

func TestImportFiles_DuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.ts")
	b := filepath.Join(dir, "b.js")
	require.NoError(t, os.WriteFile(a, []byte(`export default [{ id: "x", name: "X", category: "CRM" }];`), 0644))
	require.NoError(t, os.WriteFile(b, []byte(`export default [{ id: "x", name: "X2", category: "CRM" }, { id: "y", name: "Y", category: "Legal" }];`), 0644))

	im := newTestImporter(t)
	res, err := im.ImportFiles([]string{a, b})
	require.NoError(t, err)

	require.Len(t, res.Integrations, 2)
	assert.Equal(t, "X", res.Integrations[0].Name)
	assert.Equal(t, "y", res.Integrations[1].ID)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0].Message, `duplicate id "x"`)
}

func TestImportFiles_KeepsFileOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 12; i++ {
		p := filepath.Join(dir, fmt.Sprintf("part%02d.ts", i))
		src := fmt.Sprintf(`export default [{ id: "rec-%02d", name: "Rec %d", category: "CRM" }];`, i, i)
		require.NoError(t, os.WriteFile(p, []byte(src), 0644))
		paths = append(paths, p)
	}

	im := newTestImporter(t)
	res, err := im.ImportFiles(paths)
	require.NoError(t, err)
	require.Len(t, res.Integrations, 12)
	for i, rec := range res.Integrations {
		assert.Equal(t, fmt.Sprintf("rec-%02d", i), rec.ID)
	}
}

func TestImportFiles_MissingFile(t *testing.T) {
	im := newTestImporter(t)
	_, err := im.ImportFiles([]string{filepath.Join(t.TempDir(), "nope.ts")})
	assert.Error(t, err)
}

// --- BuildCatalog ---

func TestBuildCatalog(t *testing.T) {
	res := &Result{Integrations: []catalog.Integration{{ID: "a", Name: "A", Category: "CRM"}}}

	cat, err := BuildCatalog("site", "2.0.0", res)
	require.NoError(t, err)
	assert.Equal(t, "site", cat.Name)
	assert.Len(t, cat.Integrations, 1)

	res.Integrations = append(res.Integrations, catalog.Integration{ID: "b", Name: "B", Category: catalog.AllCategory})
	_, err = BuildCatalog("site", "2.0.0", res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserved")
}
