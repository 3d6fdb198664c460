package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/seuros/funnelscope/internal/aggregate"
	"github.com/seuros/funnelscope/internal/navigator"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

// stdoutIsTerminal is swapped in tests.
var stdoutIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// resolveFormat validates --format; unset means table on a terminal and
// json when piped.
func resolveFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "":
		if stdoutIsTerminal() {
			return formatTable, nil
		}
		return formatJSON, nil
	case formatTable:
		return formatTable, nil
	case formatJSON:
		return formatJSON, nil
	case formatCSV:
		return formatCSV, nil
	default:
		return "", fmt.Errorf("invalid format: %s (use table, json, or csv)", format)
	}
}

// writeFrame renders a navigator frame in the chosen format.
func writeFrame(w io.Writer, frame navigator.Frame, format string) error {
	switch format {
	case formatJSON:
		return writeJSON(w, frame)
	case formatCSV:
		header, rows := frameRows(frame)
		return writeCSV(w, header, rows)
	default:
		fmt.Fprintf(w, "%s | %s\n", frame.Key.String(), breadcrumb(frame.Path))
		header, rows := frameRows(frame)
		if err := writeTable(w, header, rows); err != nil {
			return err
		}
		if frame.Breakdown != nil && frame.Breakdown.ParentCount != frame.Breakdown.ChildrenTotal {
			fmt.Fprintf(w, "\nstage count %d, children total %d\n", frame.Breakdown.ParentCount, frame.Breakdown.ChildrenTotal)
		}
		return nil
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func breadcrumb(path []navigator.Crumb) string {
	labels := make([]string, len(path))
	for i, c := range path {
		labels[i] = c.Label
	}
	return strings.Join(labels, " > ")
}

// frameRows flattens the populated section of a frame. Lookup lists show
// every record in source order.
func frameRows(frame navigator.Frame) ([]string, [][]string) {
	switch {
	case frame.Root != nil:
		rows := make([][]string, 0, len(frame.Root.Stages))
		for _, s := range frame.Root.Stages {
			drill := "-"
			if s.Expandable {
				drill = strconv.Itoa(s.Children)
			}
			rows = append(rows, []string{s.Stage, s.Label, count(s.Count), pct(s.Percentage), drill})
		}
		return []string{"STAGE", "LABEL", "COUNT", "PCT", "CHILDREN"}, rows

	case frame.Trend != nil:
		rows := make([][]string, 0, len(frame.Trend.Points))
		for _, p := range frame.Trend.Points {
			rows = append(rows, []string{p.Month, count(p.Count)})
		}
		return []string{"MONTH", strings.ToUpper(frame.Trend.Stage)}, rows

	case frame.Breakdown != nil:
		rows := make([][]string, 0, len(frame.Breakdown.Children))
		for _, c := range frame.Breakdown.Children {
			drill := c.Drill
			if drill == "" {
				drill = "-"
			}
			rows = append(rows, []string{c.ID, c.Label, count(c.Count), pct(c.Percentage), pct(c.Share), drill})
		}
		return []string{"ID", "LABEL", "COUNT", "PCT", "SHARE", "DRILL"}, rows

	case frame.ErrorCodes != nil:
		s := frame.ErrorCodes.Summary
		rows := make([][]string, 0, len(s.All))
		for _, r := range s.All {
			rows = append(rows, []string{r.Code, count(r.Count), share(r.Count, s.Total)})
		}
		return []string{"CODE", "COUNT", "SHARE"}, rows

	case frame.FailureReasons != nil:
		s := frame.FailureReasons.Summary
		rows := make([][]string, 0, len(s.All))
		for _, r := range s.All {
			rows = append(rows, []string{r.FailureReason, count(r.Count), share(r.Count, s.Total)})
		}
		return []string{"REASON", "COUNT", "SHARE"}, rows

	case frame.PageURLs != nil:
		s := frame.PageURLs.Summary
		rows := make([][]string, 0, len(s.All))
		for _, r := range s.All {
			rows = append(rows, []string{r.PageURL, count(r.Count), share(r.Count, s.Total)})
		}
		return []string{"PAGE URL", "COUNT", "SHARE"}, rows
	}
	return []string{"VIEW"}, [][]string{{string(frame.View)}}
}

func count(n int64) string { return strconv.FormatInt(n, 10) }

func pct(p float64) string { return strconv.FormatFloat(p, 'f', 1, 64) }

// share is n as a truncated percentage of total.
func share(n, total int64) string { return pct(aggregate.Percent(n, total)) }
