package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func collect(n *html.Node, a atom.Atom, attr string) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			for _, at := range n.Attr {
				if at.Key == attr {
					out = append(out, at.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func TestWriteIndex(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"fig_2.png", "fig_1.JPG", "table_1.png", "notes.txt", "boxes.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0755))

	path, err := WriteIndex(dir, "Extracted images")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "index.html"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	doc, err := html.Parse(f)
	require.NoError(t, err)

	want := []string{"fig_1.JPG", "fig_2.png", "table_1.png"}
	assert.Equal(t, want, collect(doc, atom.A, "href"))
	assert.Equal(t, want, collect(doc, atom.Img, "src"))
}

func TestWriteIndexRerunSkipsItself(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("x"), 0644))

	_, err := WriteIndex(dir, "first")
	require.NoError(t, err)
	path, err := WriteIndex(dir, "second")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<title>second</title>")
	assert.NotContains(t, string(data), `href="index.html"`)
}

func TestWriteIndexMissingDir(t *testing.T) {
	_, err := WriteIndex(filepath.Join(t.TempDir(), "missing"), "x")
	assert.Error(t, err)
}

func TestBuildIndexEscapesNames(t *testing.T) {
	doc := BuildIndex("t", []string{`a"b<c>.png`, "fig#1.png", "what?.png", "100%.png", "page 2.png"})

	want := []string{"a%22b%3Cc%3E.png", "fig%231.png", "what%3F.png", "100%25.png", "page%202.png"}
	assert.Equal(t, want, collect(doc, atom.A, "href"))
	assert.Equal(t, want, collect(doc, atom.Img, "src"))
	assert.Equal(t, []string{`a"b<c>.png`, "fig#1.png", "what?.png", "100%.png", "page 2.png"},
		collect(doc, atom.Img, "alt"))
}
