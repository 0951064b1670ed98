// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package report renders batch results for the console.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/matt-FFFFFF/pkgcanary/internal/batch"
	"github.com/matt-FFFFFF/pkgcanary/internal/pipeline"
	"github.com/matt-FFFFFF/pkgcanary/internal/supervisor"
)

const (
	title         = "Package test results"
	noOutcome     = "-"
	errorWidthMax = 60

	colourPassed  = "2"
	colourFailed  = "1"
	colourSkipped = "3"
)

// Writer renders results to an io.Writer.
// Colours follow the terminal capabilities of the destination and NO_COLOR.
type Writer struct {
	w        io.Writer
	renderer *lipgloss.Renderer
}

// New returns a Writer for w.
func New(w io.Writer) *Writer {
	return &Writer{w: w, renderer: lipgloss.NewRenderer(w)}
}

// Table writes one row per record, in order.
func (rw *Writer) Table(res batch.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(rw.w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"#", "Package", "Status", "Clone", "Install", "Test", "Note"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "Clone", Align: text.AlignRight},
		{Name: "Install", Align: text.AlignRight},
		{Name: "Test", Align: text.AlignRight},
		{Name: "Note", WidthMax: errorWidthMax, WidthMaxEnforcer: text.WrapSoft},
	})

	for i, rec := range res {
		t.AppendRow(table.Row{
			i + 1,
			rec.Name,
			rw.status(&rec),
			formatOutcome(rec.CloneOutcome),
			formatOutcome(rec.InstallOutcome),
			formatOutcome(rec.TestOutcome),
			note(&rec),
		})
	}

	t.Render()
}

// Summary writes a one line count of the results.
func (rw *Writer) Summary(res batch.Result) {
	s := res.Summarize()
	fmt.Fprintf(rw.w, "%d packages: %s, %s, %s\n", // nolint:errcheck
		s.Total,
		rw.paint(fmt.Sprintf("%d passed", s.Passed), colourPassed),
		rw.paint(fmt.Sprintf("%d failed", s.Failed), colourFailed),
		rw.paint(fmt.Sprintf("%d skipped", s.Skipped), colourSkipped),
	)
}

func (rw *Writer) status(rec *pipeline.Record) string {
	switch st := rec.Status(); st {
	case pipeline.StatusPassed:
		return rw.paint("✓ "+st.String(), colourPassed)
	case pipeline.StatusFailed:
		return rw.paint("✗ "+st.String(), colourFailed)
	default:
		return rw.paint("~ "+st.String(), colourSkipped)
	}
}

func (rw *Writer) paint(s, colour string) string {
	return rw.renderer.NewStyle().Foreground(lipgloss.Color(colour)).Render(s)
}

func formatOutcome(o *supervisor.Outcome) string {
	if o == nil {
		return noOutcome
	}

	d := o.Elapsed().Round(time.Millisecond).String()

	switch {
	case o.TimedOut:
		return d + " timeout"
	case !o.Passed:
		return d + " fail"
	default:
		return d
	}
}

func note(rec *pipeline.Record) string {
	switch {
	case rec.Error != "":
		return string(rec.SkipReason) + ": " + rec.Error
	case rec.Skipped:
		return string(rec.SkipReason)
	case rec.FailedStep() != "":
		return string(rec.FailedStep()) + " failed"
	default:
		return ""
	}
}
