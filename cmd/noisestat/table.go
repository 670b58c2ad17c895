package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/workplace-hygiene/noiseexposure/internal/recompute"
	"github.com/workplace-hygiene/noiseexposure/pkg/exposure"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// renderTable draws box characters on terminals and plain ASCII otherwise
func renderTable(headers []string, rows [][]string, aligns []columnAlignment, terminal bool) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if terminal {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}
	// Headers carry acoustic notation (LEX,8h, n, s) that must keep its case.
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

var statisticsHeaders = []string{"Group", "Strategy", "n", "LAeq", "s", "LEX,8h", "U", "LEX,8h+U", "Verdict", "Peak", "Protected"}

var statisticsAligns = []columnAlignment{
	alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft, alignRight, alignRight,
}

func dB(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func optionalDB(v *float64) string {
	if v == nil {
		return "-"
	}
	return dB(*v)
}

func protectedLevel(p *exposure.Protection) string {
	if p == nil || !p.Assessed {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", dB(p.ProtectedLEX8h), p.Rating)
}

func statisticsRow(st exposure.Statistics) []string {
	return []string{
		st.GroupName,
		string(st.Strategy),
		strconv.Itoa(st.SampleCount),
		optionalDB(st.LAeq),
		optionalDB(st.StandardDeviation),
		dB(st.LEX8h),
		dB(st.Uncertainty.Expanded),
		dB(st.LEX8hUpper),
		st.Verdict.Label(),
		optionalDB(st.PeakMax),
		protectedLevel(st.Protection),
	}
}

// renderResults prints one table per investigation followed by its warnings
func renderResults(results []recompute.Result, terminal bool) string {
	var b strings.Builder
	for i, res := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		if res.InvestigationID != "" {
			fmt.Fprintf(&b, "Investigation %s\n", res.InvestigationID)
		}
		if len(res.Statistics) == 0 {
			b.WriteString("No exposure group has enough eligible measurements.\n")
			continue
		}

		rows := make([][]string, 0, len(res.Statistics))
		for _, st := range res.Statistics {
			rows = append(rows, statisticsRow(st))
		}
		b.WriteString(renderTable(statisticsHeaders, rows, statisticsAligns, terminal))
		b.WriteString("\n")

		for _, st := range res.Statistics {
			for _, w := range st.Warnings {
				fmt.Fprintf(&b, "  ! %s: %s\n", st.GroupName, w.Message)
			}
		}
	}
	return b.String()
}
