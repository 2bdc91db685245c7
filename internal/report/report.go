// Package report renders a forage.Summary for human or machine
// consumption. It is pure formatting; nothing here touches the
// filesystem or mutates the summary.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"

	"github.com/justapithecus/forage/forage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Render writes a plain-text summary suitable for a terminal.
func Render(w io.Writer, s *forage.Summary) error {
	fmt.Fprintln(w, "DATA LOADING SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintf(w, "Datasets loaded: %d\n", s.TotalDatasets)
	fmt.Fprintf(w, "Total files: %d\n", s.TotalFiles)
	fmt.Fprintf(w, "Total records: %d\n", s.TotalRecords)

	if len(s.Datasets) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "DATASET BREAKDOWN:")

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  DATASET\tFILES\tRECORDS\tCOMMON KEYS")
	for _, name := range sortedNames(s.Datasets) {
		ds := s.Datasets[name]
		fmt.Fprintf(tw, "  %s\t%d\t%d\t%s\n",
			name, ds.Files, ds.Records, strings.Join(ds.CommonKeys, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, name := range sortedNames(s.Datasets) {
		ds := s.Datasets[name]
		if len(ds.SampleSchema) == 0 {
			continue
		}
		fmt.Fprintf(w, "\nSchema sample for %s:\n", name)
		for _, field := range sortedNames(ds.SampleSchema) {
			tags := make([]string, len(ds.SampleSchema[field]))
			for i, t := range ds.SampleSchema[field] {
				tags[i] = string(t)
			}
			fmt.Fprintf(w, "  %s: %s\n", field, strings.Join(tags, "|"))
		}
	}

	return nil
}

// RenderJSON writes the summary as indented JSON.
func RenderJSON(w io.Writer, s *forage.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
