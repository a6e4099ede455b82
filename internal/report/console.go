package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/fredxotic/cord19-explorer/internal/aggregate"
)

// PrintTables writes the per-axis counts as aligned console tables,
// mirroring the CSV artifacts for interactive runs.
func PrintTables(out io.Writer, data Data) {
	fmt.Fprintf(out, "Papers analyzed: %d (%d with a publication year)\n", data.TotalRows, data.RowsWithYear)

	printCountTable(out, "Publications by year", []string{"Year", "Papers"}, data.Years)
	printCountTable(out, "Top journals", []string{"Journal", "Papers"}, data.Journals)
	printCountTable(out, "Top sources", []string{"Source", "Papers"}, data.Sources)
	printCountTable(out, "Top title words", []string{"Word", "Occurrences"}, data.Words)
}

func printCountTable(out io.Writer, title string, header []string, entries []aggregate.Entry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s\n", title)

	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	for _, e := range entries {
		table.Append([]string{e.Key, strconv.Itoa(e.Count)})
	}
	table.Render()
}
