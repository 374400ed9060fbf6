package acquire

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderResults formats per-entry outcomes as a terminal table.
func RenderResults(results []Result) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"NAME", "STATUS", "SIZE", "TIME", "DIR"})

	for _, r := range results {
		status := "ok"
		dir := r.Dir
		if r.Err != nil {
			status = "failed: " + r.Err.Error()
			dir = "-"
		}
		size := "-"
		if r.Size > 0 {
			size = humanize.Bytes(uint64(r.Size))
		}
		tw.AppendRow(table.Row{r.Name, status, size, r.Elapsed.Round(10 * time.Millisecond), dir})
	}

	return tw.Render()
}
