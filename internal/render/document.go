package render

import (
	"bytes"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

// Document is a rendered page ready for selector execution. Both DOM
// views parse lazily, so a site using only CSS rules never builds the
// XPath tree and vice versa.
type Document struct {
	// URL is the final URL after any redirects.
	URL string

	// HTML is the raw page markup.
	HTML []byte

	mu   sync.Mutex
	doc  *goquery.Document
	root *html.Node
}

// NewDocument wraps rendered markup for extraction.
func NewDocument(finalURL string, markup []byte) *Document {
	return &Document{URL: finalURL, HTML: markup}
}

// Doc returns the goquery view of the page, parsing on first use.
func (d *Document) Doc() (*goquery.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.doc != nil {
		return d.doc, nil
	}
	if len(d.HTML) == 0 {
		return nil, types.ErrEmptyResponse
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(d.HTML))
	if err != nil {
		return nil, err
	}
	d.doc = doc
	return doc, nil
}

// Root returns the x/net html root of the page for XPath evaluation,
// parsing on first use.
func (d *Document) Root() (*html.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.root != nil {
		return d.root, nil
	}
	if len(d.HTML) == 0 {
		return nil, types.ErrEmptyResponse
	}
	root, err := htmlquery.Parse(bytes.NewReader(d.HTML))
	if err != nil {
		return nil, err
	}
	d.root = root
	return root, nil
}
