// internal/pipeline/registry-source/parser.go
package registrysource

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"ksel-bot/internal/models"
)

// ParseTable reads a registry result page. Every tr directly under a
// table's tbody becomes one RawRecord of its td texts; rows without td
// cells (headers, spacers) are dropped. NoMatch is reported separately
// from the rows, so a page can carry both.
func ParseTable(r io.Reader, noMatchMarkers []string) (models.RawTable, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return models.RawTable{}, fmt.Errorf("parse registry html: %w", err)
	}

	var table models.RawTable
	walk(doc, func(n *html.Node) {
		if n.DataAtom != atom.Tbody || !hasAncestor(n, atom.Table) {
			return
		}
		for tr := n.FirstChild; tr != nil; tr = tr.NextSibling {
			if tr.Type != html.ElementNode || tr.DataAtom != atom.Tr {
				continue
			}
			if row := rowCells(tr); len(row) > 0 {
				table.Rows = append(table.Rows, row)
			}
		}
	})

	text := collapse(textOf(doc))
	for _, marker := range noMatchMarkers {
		m := collapse(marker)
		if m != "" && strings.Contains(text, m) {
			table.NoMatch = true
			break
		}
	}
	return table, nil
}

func rowCells(tr *html.Node) models.RawRecord {
	var cells models.RawRecord
	for td := tr.FirstChild; td != nil; td = td.NextSibling {
		if td.Type == html.ElementNode && td.DataAtom == atom.Td {
			cells = append(cells, collapse(textOf(td)))
		}
	}
	return cells
}

func walk(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func hasAncestor(n *html.Node, a atom.Atom) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == a {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
