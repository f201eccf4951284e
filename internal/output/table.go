// Package output renders findings, routing deliveries, provisioning reports
// and remediation results as plain-text tables or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pankaj-dahiya-devops/findings-remediator/internal/models"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/provision"
	"github.com/pankaj-dahiya-devops/findings-remediator/internal/router"
)

// ANSI color codes for severity output (used when Colored=true).
const (
	ansiReset   = "\033[0m"
	ansiBoldRed = "\033[1;31m"
	ansiRed     = "\033[0;31m"
	ansiYellow  = "\033[0;33m"
	ansiBlue    = "\033[0;34m"
)

// TableOptions controls how tables are rendered.
type TableOptions struct {
	// Colored wraps severity labels with ANSI codes. Default false (CI-safe).
	Colored bool
}

func severityCode(sev models.Severity) string {
	switch sev {
	case models.SeverityCritical:
		return ansiBoldRed
	case models.SeverityHigh:
		return ansiRed
	case models.SeverityMedium:
		return ansiYellow
	case models.SeverityLow:
		return ansiBlue
	default:
		return ""
	}
}

// ShortenMessage truncates msg to at most max runes, appending "..." when truncated.
// max is treated as at least 4 to guarantee space for the ellipsis.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max-3]) + "..."
}

// severityCell returns the severity padded to width characters.
// When colored, ANSI codes wrap only the text; trailing padding spaces are plain
// so subsequent columns stay aligned.
func severityCell(sev models.Severity, width int, colored bool) string {
	text := string(sev)
	code := severityCode(sev)
	if !colored || code == "" {
		return fmt.Sprintf("%-*s", width, text)
	}
	spaces := width - len(text)
	if spaces < 0 {
		spaces = 0
	}
	return code + text + ansiReset + strings.Repeat(" ", spaces)
}

// table writes fixed-width rows under a header and a dashed separator. The
// last column is never padded.
type table struct {
	w      io.Writer
	widths []int
}

func (t table) row(cells ...string) {
	var b strings.Builder
	for i, c := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		if i == len(cells)-1 || i >= len(t.widths) {
			b.WriteString(c)
			continue
		}
		b.WriteString(fmt.Sprintf("%-*s", t.widths[i], ShortenMessage(c, t.widths[i])))
	}
	fmt.Fprintln(t.w, strings.TrimRight(b.String(), " "))
}

func (t table) header(cells ...string) {
	var b strings.Builder
	for i, c := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		if i < len(t.widths) && i < len(cells)-1 {
			b.WriteString(fmt.Sprintf("%-*s", t.widths[i], c))
		} else {
			b.WriteString(c)
		}
	}
	h := b.String()
	fmt.Fprintln(t.w, h)
	fmt.Fprintln(t.w, strings.Repeat("-", len(h)))
}

// RenderFindings writes a findings table to w.
//
// Column order:
//
//	FINDING ID  REGION  SEVERITY  TYPE  RESOURCE
func RenderFindings(w io.Writer, findings []models.Finding, opts TableOptions) {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No findings.")
		return
	}

	const (
		wID       = 24
		wRegion   = 15
		wSeverity = 10
		wType     = 40
	)
	t := table{w: w, widths: []int{wID, wRegion, wSeverity, wType}}
	t.header("FINDING ID", "REGION", "SEVERITY", "TYPE", "RESOURCE")
	for _, f := range findings {
		var b strings.Builder
		b.WriteString(fmt.Sprintf("%-*s", wID, ShortenMessage(f.ID, wID)))
		b.WriteString(fmt.Sprintf("  %-*s", wRegion, ShortenMessage(f.Region, wRegion)))
		b.WriteString("  " + severityCell(f.SeverityLabel(), wSeverity, opts.Colored))
		b.WriteString(fmt.Sprintf("  %-*s", wType, ShortenMessage(f.Type, wType)))
		b.WriteString("  " + resourceLabel(f.Resource))
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

func resourceLabel(r models.ResourceRef) string {
	switch {
	case r.Type == "" && r.ID == "":
		return "-"
	case r.Type == "":
		return r.ID
	default:
		return r.Type + "/" + r.ID
	}
}

// RenderDeliveries writes one row per routing attempt.
func RenderDeliveries(w io.Writer, deliveries []router.Delivery) {
	if len(deliveries) == 0 {
		fmt.Fprintln(w, "No matching route.")
		return
	}
	t := table{w: w, widths: []int{30, 20, 8}}
	t.header("RULE", "TARGET", "STATUS", "ERROR")
	for _, d := range deliveries {
		status, msg := "ok", ""
		if d.Err != nil {
			status, msg = "failed", d.Err.Error()
		}
		t.row(d.Rule, d.Target, status, msg)
	}
}

// RenderReport writes a provisioning report followed by the registered
// action target handles.
func RenderReport(w io.Writer, rep *provision.Report) {
	fmt.Fprintf(w, "%s in %s (account %s)\n\n", rep.Operation, rep.Region, rep.AccountID)

	t := table{w: w, widths: []int{20, 60, 8}}
	t.header("STEP", "RESOURCE", "STATUS", "DETAIL")
	for _, s := range rep.Steps {
		t.row(s.Name, s.Resource, string(s.Status), s.Detail)
	}

	if len(rep.Targets) > 0 {
		fmt.Fprintln(w)
		at := table{w: w, widths: []int{20, 28}}
		at.header("ACTION ID", "NAME", "HANDLE")
		for _, a := range rep.Targets {
			at.row(a.ID, a.Name, a.Handle)
		}
	}

	fmt.Fprintf(w, "\n%d step(s), %d failed\n", len(rep.Steps), rep.Failed())
}

// RenderResult writes a one-block summary of a remediation outcome.
func RenderResult(w io.Writer, res models.RemediationResult) {
	status := "SUCCESS"
	if !res.Success {
		status = "FAILED"
	}
	changed := "no change (already converged)"
	if res.Changed {
		changed = "changed"
	}
	fmt.Fprintf(w, "action:   %s\n", res.ActionID)
	fmt.Fprintf(w, "targets:  %s\n", strings.Join(res.Targets, ", "))
	fmt.Fprintf(w, "status:   %s\n", status)
	if res.Success {
		fmt.Fprintf(w, "outcome:  %s\n", changed)
	}
	if res.Error != "" {
		fmt.Fprintf(w, "error:    %s\n", res.Error)
	}
}

// RenderJSON writes v as indented JSON followed by a newline.
func RenderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
