package report

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nodewee/picaxe/pkg/constants"
)

// ListImages returns the sorted names of image files directly inside dir
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var images []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if isImage(entry.Name()) {
			images = append(images, entry.Name())
		}
	}
	sort.Strings(images)
	return images, nil
}

func isImage(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, known := range constants.ImageExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// WriteIndex writes index.html into dir, linking and previewing every image
// in it, and returns the path written
func WriteIndex(dir, title string) (string, error) {
	images, err := ListImages(dir)
	if err != nil {
		return "", fmt.Errorf("failed to list images in %s: %w", dir, err)
	}

	path := filepath.Join(dir, constants.IndexFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.DefaultFilePermission)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := html.Render(f, BuildIndex(title, images)); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to render %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	return path, nil
}

// BuildIndex returns the document node of the index page
func BuildIndex(title string, images []string) *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	doc.AppendChild(root)

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	head.AppendChild(withText(element(atom.Title), title))
	root.AppendChild(head)

	body := element(atom.Body)
	body.AppendChild(withText(element(atom.H1), title))
	body.AppendChild(withText(element(atom.P), fmt.Sprintf("%d extracted images", len(images))))

	list := element(atom.Ul)
	for _, name := range images {
		ref := (&url.URL{Path: name}).String()
		img := element(atom.Img,
			html.Attribute{Key: "src", Val: ref},
			html.Attribute{Key: "alt", Val: name},
			html.Attribute{Key: "loading", Val: "lazy"},
			html.Attribute{Key: "width", Val: "240"},
		)
		link := element(atom.A, html.Attribute{Key: "href", Val: ref})
		link.AppendChild(img)

		item := element(atom.Li)
		item.AppendChild(link)
		item.AppendChild(withText(element(atom.Span), name))
		list.AppendChild(item)
	}
	body.AppendChild(list)
	root.AppendChild(body)

	return doc
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

func withText(n *html.Node, text string) *html.Node {
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}
