package demo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/codepoint"
)

var testAssignments = []codepoint.Assignment{
	{Name: "add", Codepoint: 0xE601},
	{Name: "arrow-left", Codepoint: 0xE602},
	{Name: "userProfile", Codepoint: 0xE603},
}

func generate(t *testing.T, opts Options) string {
	t.Helper()
	if opts.OutputDir == "" {
		opts.OutputDir = t.TempDir()
	}
	if opts.FontName == "" {
		opts.FontName = "myfont"
	}
	if opts.Formats == nil {
		opts.Formats = []string{"svg", "ttf", "eot", "woff", "woff2"}
	}
	require.NoError(t, New(opts).Generate(testAssignments))
	return opts.OutputDir
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

// elementsByTag parses doc and returns every element with the given tag.
func elementsByTag(t *testing.T, doc, tag string) []*html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(doc))
	require.NoError(t, err)

	var found []*html.Node
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			found = append(found, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(root)
	return found
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)
	return sb.String()
}

func TestGenerateWritesAllArtifacts(t *testing.T) {
	dir := generate(t, Options{})
	for _, name := range []string{"demo_unicode.html", "demo_fontclass.html", "demo.css"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "missing %s", name)
	}
}

func TestUnicodePage(t *testing.T) {
	dir := generate(t, Options{})
	page := readFile(t, dir, "demo_unicode.html")

	items := elementsByTag(t, page, "li")
	require.Len(t, items, len(testAssignments))

	t.Run("every icon renders through the base class", func(t *testing.T) {
		for _, icon := range elementsByTag(t, page, "i") {
			assert.Equal(t, "myfont", attrValue(icon, "class"))
		}
		assert.Len(t, elementsByTag(t, page, "i"), 3)
	})

	t.Run("each codepoint appears exactly once as an entity", func(t *testing.T) {
		for _, entity := range []string{"&#xe601;", "&#xe602;", "&#xe603;"} {
			assert.Equal(t, 1, strings.Count(page, entity), "entity %s", entity)
		}
	})

	t.Run("copyable code is shown escaped", func(t *testing.T) {
		assert.Contains(t, page, "&amp;#xe601;")
	})

	t.Run("labels are humanized", func(t *testing.T) {
		assert.Contains(t, page, "Arrow Left")
		assert.Contains(t, page, "User Profile")
	})

	t.Run("stylesheet is linked", func(t *testing.T) {
		links := elementsByTag(t, page, "link")
		require.Len(t, links, 1)
		assert.Equal(t, "demo.css", attrValue(links[0], "href"))
	})
}

func TestFontClassPage(t *testing.T) {
	dir := generate(t, Options{})
	page := readFile(t, dir, "demo_fontclass.html")

	t.Run("icon classes are kebab-cased with the prefix", func(t *testing.T) {
		var classes []string
		for _, icon := range elementsByTag(t, page, "i") {
			classes = append(classes, attrValue(icon, "class"))
		}
		assert.Equal(t, []string{
			"myfont myfont-add",
			"myfont myfont-arrow-left",
			"myfont myfont-user-profile",
		}, classes)
	})

	t.Run("no raw entities on the class page", func(t *testing.T) {
		assert.NotContains(t, page, "&#xe601;")
	})

	t.Run("class selectors shown as copyable text", func(t *testing.T) {
		var codes []string
		for _, code := range elementsByTag(t, page, "code") {
			codes = append(codes, textContent(code))
		}
		assert.Contains(t, codes, ".myfont-user-profile")
	})
}

func TestStylesheet(t *testing.T) {
	t.Run("full format cascade", func(t *testing.T) {
		dir := generate(t, Options{})
		css := readFile(t, dir, "demo.css")

		assert.Contains(t, css, `font-family: "myfont"`)
		assert.Contains(t, css, "src: url('myfont.eot');")
		assert.Contains(t, css, "url('myfont.eot?#iefix') format('embedded-opentype')")
		assert.Contains(t, css, "url('myfont.woff2') format('woff2')")
		assert.Contains(t, css, "url('myfont.woff') format('woff')")
		assert.Contains(t, css, "url('myfont.ttf') format('truetype')")
		assert.Contains(t, css, "url('myfont.svg#myfont') format('svg')")

		assert.Contains(t, css, ".myfont {")
		assert.Contains(t, css, ".myfont-add::before {")
		assert.Contains(t, css, `content: "\e601";`)
		assert.Contains(t, css, `content: "\e603";`)
	})

	t.Run("only generated formats referenced", func(t *testing.T) {
		dir := generate(t, Options{Formats: []string{"woff2", "ttf"}})
		css := readFile(t, dir, "demo.css")

		assert.Contains(t, css, "url('myfont.woff2') format('woff2')")
		assert.Contains(t, css, "url('myfont.ttf') format('truetype')")
		assert.NotContains(t, css, ".eot")
		assert.NotContains(t, css, "format('woff')")
		assert.NotContains(t, css, "format('svg')")
	})
}

func TestCustomNames(t *testing.T) {
	dir := t.TempDir()
	generate(t, Options{
		OutputDir:     dir,
		UnicodeHTML:   "unicode.htm",
		FontClassHTML: "classes.htm",
		ClassPrefix:   "icon",
	})

	page := readFile(t, dir, "classes.htm")
	assert.Contains(t, page, "icon-arrow-left")

	_, err := os.Stat(filepath.Join(dir, "unicode.htm"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "demo_unicode.html"))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateEmptySet(t *testing.T) {
	dir := t.TempDir()
	g := New(Options{FontName: "empty", OutputDir: dir, Formats: []string{"ttf"}})
	require.NoError(t, g.Generate(nil))

	css := readFile(t, dir, "demo.css")
	assert.Contains(t, css, "@font-face")
	assert.NotContains(t, css, "::before")

	page := readFile(t, dir, "demo_unicode.html")
	assert.Empty(t, elementsByTag(t, page, "li"))
}

func TestGenerateUnwritableDir(t *testing.T) {
	g := New(Options{
		FontName:  "myfont",
		OutputDir: filepath.Join(t.TempDir(), "missing", "nested"),
		Formats:   []string{"ttf"},
	})
	assert.Error(t, g.Generate(testAssignments))
}
