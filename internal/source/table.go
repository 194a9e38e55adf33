package source

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const docxBody = "word/document.xml"

// Table is the cell text of a word-processing table, row by row.
type Table struct {
	Rows [][]string
}

// ReadFirstTable extracts the first top-level table of a .docx or HTML
// document. The format is chosen by extension, then by content sniffing.
func ReadFirstTable(f File) (*Table, error) {
	var (
		t   *Table
		err error
	)
	switch strings.ToLower(filepath.Ext(f.Name)) {
	case ".docx":
		t, err = readDocxTable(f.Data)
	case ".html", ".htm":
		t, err = readHTMLTable(f.Data)
	default:
		switch {
		case bytes.HasPrefix(f.Data, []byte("PK")):
			t, err = readDocxTable(f.Data)
		case bytes.HasPrefix(bytes.TrimSpace(f.Data), []byte("<")):
			t, err = readHTMLTable(f.Data)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.Name)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read table from %s: %w", f.Name, err)
	}
	return t, nil
}

func readDocxTable(data []byte) (*Table, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open docx archive: %w", err)
	}
	var body *zip.File
	for _, zf := range zr.File {
		if zf.Name == docxBody {
			body = zf
			break
		}
	}
	if body == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingPart, docxBody)
	}
	rc, err := body.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", docxBody, err)
	}
	defer rc.Close()

	return scanDocxTable(xml.NewDecoder(rc))
}

// scanDocxTable walks WordprocessingML tokens. Text of nested tables folds
// into the enclosing top-level cell.
func scanDocxTable(dec *xml.Decoder) (*Table, error) {
	var (
		depth  int
		found  bool
		inText bool
		rows   [][]string
		row    []string
		cell   strings.Builder
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "tbl":
				depth++
				found = true
			case "tr":
				if depth == 1 {
					row = nil
				}
			case "tc":
				if depth == 1 {
					cell.Reset()
				}
			case "p", "tab", "br":
				if depth >= 1 && cell.Len() > 0 {
					cell.WriteByte(' ')
				}
			case "t":
				inText = depth >= 1
			}
		case xml.CharData:
			if inText {
				cell.Write(el)
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "tc":
				if depth == 1 {
					row = append(row, Normalize(cell.String()))
				}
			case "tr":
				if depth == 1 {
					rows = append(rows, row)
				}
			case "tbl":
				depth--
				if depth == 0 {
					return &Table{Rows: rows}, nil
				}
			}
		}
	}
	if !found {
		return nil, ErrNoTable
	}
	return &Table{Rows: rows}, nil
}

func readHTMLTable(data []byte) (*Table, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	tbl := findElement(doc, atom.Table)
	if tbl == nil {
		return nil, ErrNoTable
	}
	t := &Table{}
	collectHTMLRows(tbl, t)
	return t, nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// collectHTMLRows descends through thead/tbody/tfoot but never into a
// nested table.
func collectHTMLRows(n *html.Node, t *Table) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Tr:
			var row []string
			for td := c.FirstChild; td != nil; td = td.NextSibling {
				if td.Type == html.ElementNode && (td.DataAtom == atom.Td || td.DataAtom == atom.Th) {
					row = append(row, Normalize(nodeText(td)))
				}
			}
			t.Rows = append(t.Rows, row)
		case atom.Thead, atom.Tbody, atom.Tfoot:
			collectHTMLRows(c, t)
		}
	}
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && (n.DataAtom == atom.Br || n.DataAtom == atom.P):
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
