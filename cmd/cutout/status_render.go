package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"cutout/internal/api"
)

type severity int

const (
	sevInfo severity = iota
	sevOK
	sevWarn
	sevError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var severityStyles = [...]struct{ tag, color string }{
	sevInfo:  {"INFO", ansiBlue},
	sevOK:    {"OK", ansiGreen},
	sevWarn:  {"WARN", ansiYellow},
	sevError: {"ERROR", ansiRed},
}

// labelWidth fits "Last error:" with room to spare.
const labelWidth = 14

// statusEntry is one "Label: [TAG] message" row.
type statusEntry struct {
	label string
	sev   severity
	msg   string
}

func (e statusEntry) format(color bool) string {
	style := severityStyles[e.sev]
	body := "[" + style.tag + "]"
	if e.msg != "" {
		body += " " + e.msg
	}
	line := fmt.Sprintf("  %-*s %s", labelWidth, e.label+":", body)
	if color {
		return style.color + line + ansiReset
	}
	return line
}

// report writes sectioned status output, colouring it on terminals.
type report struct {
	w     io.Writer
	color bool
}

func newReport(w io.Writer) *report {
	return &report{w: w, color: isTerminal(w)}
}

func (r *report) section(title string) {
	heading := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(heading))
	if r.color {
		heading, rule = ansiBlue+heading+ansiReset, ansiBlue+rule+ansiReset
	}
	fmt.Fprintln(r.w, heading)
	fmt.Fprintln(r.w, rule)
}

func (r *report) entries(entries ...statusEntry) {
	for _, e := range entries {
		fmt.Fprintln(r.w, e.format(r.color))
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// describeDaemon turns a status snapshot into the rows of `cutout status`.
func describeDaemon(status api.DaemonStatus) []statusEntry {
	engine := statusEntry{"Engine", sevInfo, status.Engine}
	if !status.Running {
		return []statusEntry{{"Daemon", sevWarn, "Not running (run `cutout start`)"}, engine}
	}

	out := []statusEntry{{"Daemon", sevOK, fmt.Sprintf("Running (pid %d)", status.PID)}, engine}
	if status.APIAddress == "" {
		out = append(out, statusEntry{"HTTP API", sevInfo, "Disabled"})
	} else {
		out = append(out, statusEntry{"HTTP API", sevOK, "http://" + status.APIAddress + "/api"})
	}

	wf := status.Workflow
	activity := statusEntry{"Workflow", sevInfo, "Idle"}
	if wf.Running {
		activity = statusEntry{"Workflow", sevOK, "Processing"}
		if wf.LastItem != nil {
			activity.msg += " " + wf.LastItem.Name
		}
	}
	out = append(out, activity)
	if wf.LastError != "" {
		out = append(out, statusEntry{"Last error", sevError, wf.LastError})
	}
	return out
}

func queueCountRows(counts api.QueueCounts) [][]string {
	rows := []struct {
		label string
		n     int
	}{
		{"Pending", counts.Pending},
		{"Processing", counts.Processing},
		{"Failed", counts.Failed},
		{"Completed", counts.Completed},
		{"In queue", counts.Total},
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{r.label, fmt.Sprint(r.n)}
	}
	return out
}
