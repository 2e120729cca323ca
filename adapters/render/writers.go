package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/xuri/excelize/v2"
)

// Format names accepted by Write.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatHTML = "html"
)

// ContentTypes maps each format to its media type.
var ContentTypes = map[string]string{
	FormatJSON: "application/json",
	FormatCSV:  "text/csv",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatHTML: "text/html; charset=utf-8",
}

// Write encodes g in the named format.
func Write(w io.Writer, format string, g *Grid) error {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return WriteJSON(w, g)
	case FormatCSV:
		return WriteCSV(w, g)
	case FormatXLSX:
		return WriteXLSX(w, g)
	case FormatHTML:
		return WriteHTML(w, g)
	}
	return fmt.Errorf("unsupported output format %q", format)
}

func WriteJSON(w io.Writer, g *Grid) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}

// WriteCSV writes the header names then one record per row.
func WriteCSV(w io.Writer, g *Grid) error {
	cw := csv.NewWriter(w)
	names := make([]string, len(g.Headers))
	for i, h := range g.Headers {
		names[i] = h.Name
	}
	if err := cw.Write(names); err != nil {
		return err
	}
	if err := cw.WriteAll(g.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteXLSX writes the grid to a single-sheet workbook. Number columns are
// stored as numbers.
func WriteXLSX(w io.Writer, g *Grid) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "outliers"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	header := make([]any, len(g.Headers))
	for i, h := range g.Headers {
		header[i] = h.Column
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for r, row := range g.Rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
			if g.Headers[i].Type == "NUMBER" {
				if num, err := strconv.ParseFloat(v, 64); err == nil {
					cells[i] = num
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}
	_, err := f.WriteTo(w)
	return err
}

// WriteHTML renders the grid as a markdown table converted to a complete
// HTML page.
func WriteHTML(w io.Writer, g *Grid) error {
	_, err := w.Write(markdown.ToHTML([]byte(Markdown(g)), parser.NewWithExtensions(parser.CommonExtensions), html.NewRenderer(html.RendererOptions{
		Title: g.Title,
		Flags: html.CommonFlags | html.CompletePage,
	})))
	return err
}

// Markdown renders the grid as a markdown table.
func Markdown(g *Grid) string {
	var sb strings.Builder
	if g.Title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", escapeCell(g.Title))
	}
	cols := make([]string, len(g.Headers))
	seps := make([]string, len(g.Headers))
	for i, h := range g.Headers {
		cols[i] = escapeCell(h.Column)
		seps[i] = "---"
		if h.Type == "NUMBER" {
			seps[i] = "---:"
		}
	}
	fmt.Fprintf(&sb, "| %s |\n| %s |\n", strings.Join(cols, " | "), strings.Join(seps, " | "))
	for _, row := range g.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = escapeCell(c)
		}
		fmt.Fprintf(&sb, "| %s |\n", strings.Join(cells, " | "))
	}
	return sb.String()
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\n", " ", "<", "&lt;", ">", "&gt;")

func escapeCell(s string) string {
	return cellEscaper.Replace(s)
}
