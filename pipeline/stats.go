package pipeline

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Timing information for a single pipeline stage.
type StageStats struct {
	Name      string
	WorkItems int
	Elapsed   time.Duration
}

// Statistics collected while building an octree.
type Stats struct {
	NumPoints     int
	NumKeys       int
	NumInnerNodes int
	NumOctNodes   int
	RootLevel     int

	Stages    []StageStats
	BuildTime time.Duration
}

func (s *Stats) addStage(name string, workItems int, elapsed time.Duration) {
	s.Stages = append(s.Stages, StageStats{Name: name, WorkItems: workItems, Elapsed: elapsed})
}

// Table renders the per-stage statistics as a text table.
func (s *Stats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Stage", "Work items", "Time"})
	for _, stage := range s.Stages {
		table.Append([]string{
			stage.Name,
			fmt.Sprintf("%d", stage.WorkItems),
			fmt.Sprintf("%s", stage.Elapsed),
		})
	}
	table.SetFooter([]string{"TOTAL", "", fmt.Sprintf("%s", s.BuildTime)})

	table.Render()
	return buf.String()
}

// Summary renders the element counts as a text table.
func (s *Stats) Summary() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Points", "Unique keys", "Radix nodes", "Octree nodes", "Root level"})
	table.Append([]string{
		fmt.Sprintf("%d", s.NumPoints),
		fmt.Sprintf("%d", s.NumKeys),
		fmt.Sprintf("%d", s.NumInnerNodes),
		fmt.Sprintf("%d", s.NumOctNodes),
		fmt.Sprintf("%d", s.RootLevel),
	})

	table.Render()
	return buf.String()
}
