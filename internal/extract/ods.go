package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hyperjump/reviewlens/internal/models"
)

// odsContentPath is the path to the main content inside an .ods zip (OpenDocument Spreadsheet).
const odsContentPath = "content.xml"

// maxRepeated caps table:number-columns-repeated, which trailing empty cells
// commonly set to the sheet width.
const maxRepeated = 64

// extractODS reads the first table of an OpenDocument spreadsheet.
func extractODS(content []byte) ([]models.RawReview, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract ODS: not a zip: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != odsContentPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("extract ODS: open %s: %w", f.Name, err)
		}
		defer rc.Close()
		rows, err := odsRows(rc)
		if err != nil {
			return nil, fmt.Errorf("extract ODS: %w", err)
		}
		return fromTable(rows)
	}
	return nil, fmt.Errorf("extract ODS: %s not found", odsContentPath)
}

// odsRows collects the cell text of the first table:table element.
func odsRows(r io.Reader) ([][]string, error) {
	dec := xml.NewDecoder(r)
	var (
		rows    [][]string
		row     []string
		cell    strings.Builder
		repeat  int
		inTable bool
		inCell  bool
		paras   int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "table":
				if t.Name.Space != "" && strings.HasSuffix(t.Name.Space, ":table:1.0") {
					inTable = true
				}
			case "table-row":
				row = nil
			case "table-cell", "covered-table-cell":
				inCell = true
				paras = 0
				cell.Reset()
				repeat = 1
				for _, a := range t.Attr {
					if a.Name.Local == "number-columns-repeated" {
						if n, err := strconv.Atoi(a.Value); err == nil && n > 0 {
							repeat = min(n, maxRepeated)
						}
					}
				}
			case "p":
				if inCell && paras > 0 {
					cell.WriteByte('\n')
				}
				paras++
			}
		case xml.CharData:
			if inTable && inCell {
				cell.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "table-cell", "covered-table-cell":
				for i := 0; i < repeat; i++ {
					row = append(row, cell.String())
				}
				inCell = false
			case "table-row":
				if inTable {
					rows = append(rows, row)
				}
			case "table":
				if inTable {
					return rows, nil
				}
			}
		}
	}
}
