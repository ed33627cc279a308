// Package report renders collision results for people and for other programs.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/steric/bvh"
	"go.viam.com/steric/collision"
)

// Format is an output format for a result.
type Format string

const (
	// FormatText prints the matched ids and the evaluation count on two lines.
	FormatText Format = "text"
	// FormatTable prints a summary table followed by a table of matched pairs.
	FormatTable Format = "table"
	// FormatJSON prints the result as a single JSON document.
	FormatJSON Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatTable, FormatJSON}

// ParseFormat parses a format name. An empty name selects FormatText.
func ParseFormat(name string) (Format, error) {
	if name == "" {
		return FormatText, nil
	}
	f := Format(strings.ToLower(name))
	if !lo.Contains(Formats, f) {
		return "", errors.Errorf("unknown output format %q, expected one of %v", name, Formats)
	}
	return f, nil
}

// Write renders res to w in the given format.
func Write(w io.Writer, res *collision.Result, format Format) error {
	switch format {
	case FormatText, "":
		return writeText(w, res)
	case FormatTable:
		return writeTable(w, res)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	default:
		return errors.Errorf("unknown output format %q", format)
	}
}

func writeText(w io.Writer, res *collision.Result) error {
	ids := lo.Map(res.Matches, func(id, _ int) string {
		return fmt.Sprint(id)
	})
	_, err := fmt.Fprintf(w, "Collisions: [%s]\nComparisons: %d\n", strings.Join(ids, ", "), res.Evaluations)
	return err
}

func writeTable(w io.Writer, res *collision.Result) error {
	summary := table.NewWriter()
	summary.SetOutputMirror(w)
	summary.SetStyle(table.StyleLight)
	summary.AppendHeader(table.Row{"Reference", "Query", "Reference atoms", "Query atoms", "Collisions", "Comparisons", "Elapsed"})
	summary.AppendRow(table.Row{
		res.Reference,
		res.Query,
		res.ReferenceCount,
		res.QueryCount,
		len(res.Matches),
		res.Evaluations,
		res.Elapsed.String(),
	})
	summary.Render()

	if len(res.Pairs) == 0 {
		return nil
	}
	pairs := table.NewWriter()
	pairs.SetOutputMirror(w)
	pairs.SetStyle(table.StyleLight)
	pairs.AppendHeader(table.Row{"#", "Query atom", "Reference atom"})
	pairs.AppendRows(lo.Map(res.Pairs, func(p collision.Pair, i int) table.Row {
		return table.Row{i + 1, p.QueryID, p.ReferenceID}
	}))
	pairs.Render()
	return nil
}

// WriteStats renders tree statistics as a table.
func WriteStats(w io.Writer, name string, opts bvh.Options, stats bvh.Stats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(name)
	t.AppendRows([]table.Row{
		{"Split", opts.Split.String()},
		{"Storage", opts.Storage.String()},
		{"Atoms", stats.Atoms},
		{"Nodes", stats.Nodes},
		{"Leaves", stats.Leaves},
		{"Empty leaves", stats.EmptyLeaves},
		{"Max depth", stats.MaxDepth},
		{"Mean leaf depth", fmt.Sprintf("%.2f", stats.MeanLeafDepth)},
		{"Mean leaf size", fmt.Sprintf("%.2f", stats.MeanLeafSize)},
		{"Stored atom entries", stats.StoredAtoms},
	})
	t.Render()
}
