// Package verify compares the arrays produced by two octree builders (for
// example a device build against the sequential reference) element by
// element.
//
// Mismatches are diagnostics rather than failures: every mismatching index is
// logged and the comparison continues so that a single report lists all
// differences.
package verify

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"

	"github.com/achilleasa/octree/brt"
	"github.com/achilleasa/octree/log"
	"github.com/achilleasa/octree/octree"
)

var logger = log.New("verify")

// Cap on the number of mismatch diagnostics logged per report.
const maxLoggedMismatches = 32

// The outcome of comparing two arrays.
type Report struct {
	Name       string
	Checked    int
	Mismatches int
}

// Check whether all compared elements match.
func (r Report) OK() bool {
	return r.Mismatches == 0
}

func (r Report) String() string {
	status := "OK"
	if !r.OK() {
		status = "MISMATCH"
	}
	return fmt.Sprintf("%s: %s (%d checked, %d mismatches)", r.Name, status, r.Checked, r.Mismatches)
}

// Compare two slices element by element using eq. A length difference is
// reported as a mismatch at the first missing index.
func compare[T any](name string, ref, got []T, eq func(a, b T) bool, describe func(T) string) Report {
	report := Report{Name: name}

	n := min(len(ref), len(got))
	for i := 0; i < n; i++ {
		report.Checked++
		if eq(ref[i], got[i]) {
			continue
		}

		report.Mismatches++
		if report.Mismatches <= maxLoggedMismatches {
			logger.Errorf("%s mismatch at index %d: expected %s; got %s", name, i, describe(ref[i]), describe(got[i]))
		}
	}

	if len(ref) != len(got) {
		report.Mismatches++
		logger.Errorf("%s length mismatch at index %d: expected %d elements; got %d", name, n, len(ref), len(got))
	}

	if report.Mismatches > maxLoggedMismatches {
		logger.Errorf("%s: %d additional mismatches not shown", name, report.Mismatches-maxLoggedMismatches)
	}

	return report
}

func eq[T comparable](a, b T) bool {
	return a == b
}

// Keys compares two sorted key arrays.
func Keys(ref, got []uint32) Report {
	return compare("keys", ref, got, eq[uint32], func(k uint32) string { return fmt.Sprintf("%#08x", k) })
}

// InnerNodes compares two radix trees.
func InnerNodes(ref, got []brt.InnerNode) Report {
	return compare("inner nodes", ref, got, eq[brt.InnerNode], func(n brt.InnerNode) string {
		return fmt.Sprintf("{delta: %d, left: %s, right: %s, parent: %d}", n.DeltaNode, n.LeftChild(), n.RightChild(), n.Parent)
	})
}

// EdgeCounts compares two edge count (or offset) arrays.
func EdgeCounts(ref, got []int32) Report {
	return compare("edge counts", ref, got, eq[int32], func(v int32) string { return fmt.Sprint(v) })
}

// Offsets compares two octree node offset arrays.
func Offsets(ref, got []int32) Report {
	return compare("offsets", ref, got, eq[int32], func(v int32) string { return fmt.Sprint(v) })
}

// OctNodes compares two octree node arrays.
func OctNodes(ref, got []octree.OctNode) Report {
	return compare("octree nodes", ref, got, eq[octree.OctNode], func(n octree.OctNode) string { return n.String() })
}

// Trees compares every array of two assembled octrees.
func Trees(ref, got *octree.Tree) []Report {
	return []Report{
		Keys(ref.Keys, got.Keys),
		InnerNodes(ref.InnerNodes, got.InnerNodes),
		EdgeCounts(ref.EdgeCounts, got.EdgeCounts),
		Offsets(ref.Offsets, got.Offsets),
		OctNodes(ref.Nodes, got.Nodes),
	}
}

// Table renders a list of reports as a text table.
func Table(reports []Report) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Array", "Checked", "Mismatches", "Status"})

	failed := 0
	for _, r := range reports {
		status := "OK"
		if !r.OK() {
			status = "MISMATCH"
			failed++
		}
		table.Append([]string{r.Name, fmt.Sprint(r.Checked), fmt.Sprint(r.Mismatches), status})
	}
	table.SetFooter([]string{"", "", "Failed", fmt.Sprint(failed)})

	table.Render()
	return buf.String()
}
