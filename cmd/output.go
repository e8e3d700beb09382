package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// table is a header plus rows, rendered with aligned columns.
type table struct {
	header []string
	rows   [][]string
}

func (t *table) add(cols ...string) {
	t.rows = append(t.rows, cols)
}

// render writes v as json or yaml, or writes tbl in table mode.
func render(w io.Writer, v interface{}, tbl *table) error {
	switch outputFormat {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	if tbl == nil {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(tbl.header, "\t"))
	for _, row := range tbl.rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
