// Package xlsxexport renders a parse batch as an Excel workbook.
package xlsxexport

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"flowforge/internal/domain"
)

// SummarySheet is the first sheet of every workbook.
const SummarySheet = "Processes"

// maxSheetName is the Excel limit on sheet name length.
const maxSheetName = 31

var summaryColumns = []string{
	"#",
	"Process Name",
	"Description",
	"Actors",
	"Node Count",
	"Gap Count",
	"Critical Gaps",
	"Improvement Opportunities",
}

var nodeColumns = []string{
	"ID",
	"Type",
	"Title",
	"Description",
	"Actors",
	"Dependencies",
	"Parallel With",
	"Sub-steps",
	"Failures",
	"Current State",
	"Ideal State",
	"Gap",
	"Impact",
	"Time Estimate",
}

// Build writes the batch into a new workbook and returns its bytes. The
// summary sheet holds one row per process; every process then gets its own
// node sheet in batch order.
func Build(batch *domain.ParseBatchResult) ([]byte, error) {
	if batch == nil || len(batch.Processes) == 0 {
		return nil, fmt.Errorf("xlsxexport.Build: empty batch")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, fmt.Errorf("xlsxexport.Build rename: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsxexport.Build style: %w", err)
	}

	if err := writeRow(f, SummarySheet, 1, toCells(summaryColumns)); err != nil {
		return nil, err
	}
	_ = f.SetRowStyle(SummarySheet, 1, 1, header)

	used := map[string]bool{SummarySheet: true}
	for i := range batch.Processes {
		p := &batch.Processes[i]
		if err := writeRow(f, SummarySheet, i+2, summaryRow(i+1, p)); err != nil {
			return nil, err
		}

		name := SheetName(i+1, p.Name, used)
		used[name] = true
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("xlsxexport.Build sheet %q: %w", name, err)
		}
		if err := writeRow(f, name, 1, toCells(nodeColumns)); err != nil {
			return nil, err
		}
		_ = f.SetRowStyle(name, 1, 1, header)
		for j := range p.Nodes {
			if err := writeRow(f, name, j+2, nodeRow(&p.Nodes[j])); err != nil {
				return nil, err
			}
		}
	}
	_ = f.SetColWidth(SummarySheet, "B", "C", 40)
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsxexport.Build write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsxexport: cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("xlsxexport: writing %s!%s: %w", sheet, cell, err)
	}
	return nil
}

func summaryRow(n int, p *domain.ParsedProcess) []interface{} {
	gaps := 0
	for i := range p.Nodes {
		if p.Nodes[i].Type == domain.NodeTypeGap {
			gaps++
		}
	}
	opportunities := make([]string, 0, len(p.ImprovementOpportunities))
	for _, o := range p.ImprovementOpportunities {
		s := o.Description
		if o.EstimatedSavings != "" {
			s += " (" + o.EstimatedSavings + ")"
		}
		opportunities = append(opportunities, s)
	}
	return []interface{}{
		n,
		p.Name,
		p.Description,
		joinList(p.Actors),
		len(p.Nodes),
		gaps,
		joinList(p.CriticalGaps),
		joinList(opportunities),
	}
}

func nodeRow(n *domain.Node) []interface{} {
	return []interface{}{
		n.ID,
		string(n.Type),
		n.Title,
		n.Description,
		joinList(n.Actors),
		joinList(n.Dependencies),
		joinList(n.ParallelWith),
		joinList(n.SubSteps),
		joinList(n.Failures),
		deref(n.CurrentState),
		deref(n.IdealState),
		deref(n.Gap),
		deref(n.Impact),
		deref(n.TimeEstimate),
	}
}

func toCells(cols []string) []interface{} {
	out := make([]interface{}, len(cols))
	for i, c := range cols {
		out[i] = c
	}
	return out
}

func joinList(items []string) string {
	return strings.Join(items, "; ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// invalidSheetChars are rejected by Excel in sheet names.
var invalidSheetChars = regexp.MustCompile(`[\[\]:*?/\\']+`)

// SheetName derives a unique, Excel-safe sheet name for the n-th process.
func SheetName(n int, processName string, used map[string]bool) string {
	prefix := strconv.Itoa(n) + ". "
	base := strings.Join(strings.Fields(invalidSheetChars.ReplaceAllString(processName, " ")), " ")
	if base == "" {
		base = "Process"
	}
	name := truncateRunes(prefix+base, maxSheetName)
	for i := 2; used[name]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		name = truncateRunes(prefix+base, maxSheetName-len(suffix)) + suffix
	}
	return name
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a process name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "processes"
	}
	return s
}

// BuildFilename returns {sanitized_name}_{YYYY-MM-DD}.xlsx.
func BuildFilename(name string, now time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", SanitizeFilename(name), now.Format("2006-01-02"))
}
