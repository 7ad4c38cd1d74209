// Package e2e runs the whole pipeline over a synthetic review snapshot in
// every supported input format and checks what the search index and the API serve.
package e2e

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Row is one raw review as it appears in a snapshot.
type Row struct {
	Review string `json:"review"`
	Rating int    `json:"rating"`
	Date   string `json:"date"`
	Bank   string `json:"bank"`
	Source string `json:"source"`
}

// SearchCase is a query and the bank whose reviews must come back for it.
type SearchCase struct {
	Query       string
	Bank        string
	MinHits     int
	Description string
}

// Corpus is a synthetic snapshot plus the searches it supports.
type Corpus struct {
	Rows  []Row
	Cases []SearchCase
}

var banks = []string{"CBE", "BOA", "Dashen"}

// Each bank gets its own signature complaint so searches can be checked per bank.
var signatures = map[string]string{
	"CBE":    "fingerprint login rejected",
	"BOA":    "transfer stuck pending",
	"Dashen": "statement download missing",
}

var common = []struct {
	text   string
	rating int
}{
	{"The app crashes when I open it", 1},
	{"Very slow to load and keeps freezing", 2},
	{"Excellent service, easy and fast", 5},
	{"Customer support was helpful and quick", 4},
	{"Please add dark mode and budgeting features", 3},
	{"Nice interface but the otp code never arrives", 2},
}

// BuildCorpus returns perBank reviews for each bank. Every review is unique.
func BuildCorpus(perBank int) *Corpus {
	c := &Corpus{}
	for _, bank := range banks {
		for i := 0; i < perBank; i++ {
			var text string
			var rating int
			if i%3 == 0 {
				text, rating = signatures[bank], 1
			} else {
				p := common[i%len(common)]
				text, rating = p.text, p.rating
			}
			c.Rows = append(c.Rows, Row{
				Review: fmt.Sprintf("%s (review %d)", text, i),
				Rating: rating,
				Date:   fmt.Sprintf("2024-%02d-%02d", 1+i%6, 1+i%28),
				Bank:   bank,
				Source: "Google Play",
			})
		}
		c.Cases = append(c.Cases, SearchCase{
			Query:       signatures[bank],
			Bank:        bank,
			MinHits:     (perBank + 2) / 3,
			Description: "signature complaint of " + bank,
		})
	}
	return c
}

func (c *Corpus) table() [][]string {
	rows := [][]string{{"review", "rating", "date", "bank", "source"}}
	for _, r := range c.Rows {
		rows = append(rows, []string{r.Review, strconv.Itoa(r.Rating), r.Date, r.Bank, r.Source})
	}
	return rows
}

// CSV encodes the snapshot with a header row.
func (c *Corpus) CSV() ([]byte, error) {
	var buf bytes.Buffer
	if err := csv.NewWriter(&buf).WriteAll(c.table()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// JSON encodes the snapshot as an array of records.
func (c *Corpus) JSON() ([]byte, error) {
	return json.Marshal(c.Rows)
}

// XLSX encodes the snapshot as a single-sheet workbook.
func (c *Corpus) XLSX() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range c.table() {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
