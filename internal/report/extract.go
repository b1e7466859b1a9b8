// Package report extracts control inventory tables from published PDF
// volumes, where controls appear only as unstructured prose lines like
// "Table SC-202. AC-1: Access Control Policy and Procedures". It shares the
// control identifier scheme with the catalog tables but none of the catalog
// data model.
package report

import (
	"bytes"
	"regexp"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	"ctldb/internal/util"
)

type Row struct {
	TableCode    string
	ControlID    string
	ControlLabel string
	Title        string
}

var (
	// known malformed caption shapes in the source volumes
	reDashTable   = regexp.MustCompile(`(SC|PC)-Table\s+(\d+)`)
	reTablePrefix = regexp.MustCompile(`Table\s+((SC|PC)-\d+)\.`)
	reCodeDot     = regexp.MustCompile(`((SC|PC)-\d+)\.\s+([A-Z]{2}-)`)
	// one caption misspells DI-1 as D-1
	reMisspelledDI = regexp.MustCompile(`(PC-356\.\s+)D-1\s+\(`)

	// table code, control label (standard or agency-specific, optional
	// enhancement), title, optional trailing dot leader + page number
	reControlRow = regexp.MustCompile(`\b((SC|PC)-\d+)\.?\s+([A-Z]{2}-(?:[A-Z]+-)?[A-Z]*\d+(?: ?\(\d+\))?):\s+(.*?)(?:\s+\.{3,}\s+\d+)?$`)
)

// ExtractControlTables scans every page of a PDF volume and collects one row
// per recognized control table caption.
func ExtractControlTables(content []byte) ([]Row, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	var out []Row
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		out = append(out, extractFromText(text)...)
	}
	return out, nil
}

func extractFromText(text string) []Row {
	var out []Row
	for _, line := range splitLines(text) {
		if !looksLikeCaption(line) {
			continue
		}
		row, ok := parseCaptionLine(line)
		if !ok {
			continue
		}
		out = append(out, row)
	}
	return out
}

func looksLikeCaption(line string) bool {
	for _, prefix := range []string{"Table SC", "Table PC", "SC", "PC"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func parseCaptionLine(line string) (Row, bool) {
	line = repairLine(line)
	m := reControlRow.FindStringSubmatch(line)
	if m == nil {
		return Row{}, false
	}
	label := m[3]
	return Row{
		TableCode:    m[1],
		ControlID:    util.NormalizeControlID(label),
		ControlLabel: label,
		Title:        m[4],
	}, true
}

// repairLine fixes the caption shapes the source volumes are known to emit
// malformed before the row pattern runs.
func repairLine(line string) string {
	line = reDashTable.ReplaceAllString(line, `$1-$2`)
	line = reTablePrefix.ReplaceAllString(line, `$1.`)
	line = reCodeDot.ReplaceAllString(line, `$1. $3`)
	line = reMisspelledDI.ReplaceAllString(line, `${1}DI-1 (`)
	return line
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
