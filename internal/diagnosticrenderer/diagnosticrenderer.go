// Package diagnosticrenderer turns diagnostic.Diagnostic records into
// terminal-facing text; the diagnostic data model is deliberately
// decoupled from any particular rendering. Two renderers are available: an
// in-process ANSI renderer (the default) and an external JSON-RPC exec
// plugin speaking newline-delimited JSON over stdin/stdout, for projects
// that want to swap in their own formatter without recompiling jellyfish.
package diagnosticrenderer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"jellyfish/internal/diagnostic"
	"jellyfish/internal/source"
)

// Renderer renders diagnostics, produced against src, to text.
type Renderer interface {
	Render(diags []*diagnostic.Diagnostic, src *source.Source) string
}

// ---- ANSI renderer ----

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31;1m"
	ansiBlue   = "\x1b[34;1m"
	ansiYellow = "\x1b[33;1m"
	ansiDim    = "\x1b[2m"
)

// ANSIRenderer renders diagnostics as colored text when writing to a
// terminal, and as plain text otherwise (isatty.IsTerminal governs this).
type ANSIRenderer struct {
	// Color forces color on/off; when nil, color is auto-detected from fd.
	Color *bool
	fd    uintptr
}

// NewANSIRenderer builds a renderer that auto-detects color support from
// the file descriptor fd (typically os.Stdout.Fd()).
func NewANSIRenderer(fd uintptr) *ANSIRenderer {
	return &ANSIRenderer{fd: fd}
}

func (r *ANSIRenderer) useColor() bool {
	if r.Color != nil {
		return *r.Color
	}
	return isatty.IsTerminal(r.fd) || isatty.IsCygwinTerminal(r.fd)
}

func (r *ANSIRenderer) Render(diags []*diagnostic.Diagnostic, src *source.Source) string {
	color := r.useColor()
	var sb strings.Builder
	for i, d := range diags {
		if i > 0 {
			sb.WriteByte('\n')
		}
		r.renderOne(&sb, d, src, color)
	}
	return sb.String()
}

func (r *ANSIRenderer) renderOne(sb *strings.Builder, d *diagnostic.Diagnostic, src *source.Source, color bool) {
	title := d.Title
	if color {
		title = ansiRed + "error" + ansiReset + ": " + title
	} else {
		title = "error: " + title
	}
	fmt.Fprintln(sb, title)

	for _, label := range d.Labels {
		if label.Span == nil {
			if label.Message != "" {
				fmt.Fprintf(sb, "  %s\n", label.Message)
			}
			continue
		}
		line, col := 1, 1
		if src != nil {
			line, col = src.LineCol(label.Span.Start)
		}
		loc := fmt.Sprintf("%s:%d:%d", sourceName(src), line, col)
		if color {
			loc = ansiBlue + loc + ansiReset
		}
		if label.Message != "" {
			fmt.Fprintf(sb, "  --> %s: %s\n", loc, label.Message)
		} else {
			fmt.Fprintf(sb, "  --> %s\n", loc)
		}
		if src != nil {
			r.renderExcerpt(sb, src, *label.Span, line, col, color)
		}
	}

	for _, note := range d.Notes {
		prefix := "note"
		if color {
			prefix = ansiDim + "note" + ansiReset
		}
		fmt.Fprintf(sb, "  %s: %s\n", prefix, note)
	}
	for _, hint := range d.Hints {
		prefix := "hint"
		if color {
			prefix = ansiYellow + "hint" + ansiReset
		}
		fmt.Fprintf(sb, "  %s: %s\n", prefix, hint)
	}
}

// renderExcerpt prints the labelled source line with a caret underline
// aligned under the span. Spans reaching past the line's end (an unclosed
// construct, say) are clamped so the carets never run past the text.
func (r *ANSIRenderer) renderExcerpt(sb *strings.Builder, src *source.Source, span source.Span, line, col int, color bool) {
	text := src.Line(src.LineIndex(span.Start))

	gutter := fmt.Sprintf("%4d | ", line)
	lineText := text
	if color {
		lineText = ansiDim + lineText + ansiReset
	}
	fmt.Fprintf(sb, "%s%s\n", gutter, lineText)

	width := span.Len()
	if rest := len(text) - (col - 1); width > rest {
		width = rest
	}
	if width < 1 {
		width = 1
	}
	carets := strings.Repeat("^", width)
	if color {
		carets = ansiRed + carets + ansiReset
	}
	fmt.Fprintf(sb, "%s%s%s\n", strings.Repeat(" ", len(gutter)), strings.Repeat(" ", col-1), carets)
}

func sourceName(src *source.Source) string {
	if src == nil {
		return "<input>"
	}
	return src.Name
}

// ---- exec-plugin renderer ----

// pluginRequest/pluginResponse form the line-delimited JSON protocol: one
// request object per line on the plugin's stdin, one response object per
// line on its stdout.
type pluginRequest struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

type pluginResponse struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// PluginRenderer delegates rendering to an external process over a
// persistent stdin/stdout JSON-RPC pipe.
type PluginRenderer struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner
	mu     sync.Mutex
}

// StartPlugin launches the executable at path as a diagnostic-renderer
// plugin, speaking one request/response pair per Render call.
func StartPlugin(path string) (*PluginRenderer, error) {
	cmd := exec.Command(path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("diagnosticrenderer: stdin pipe: %w", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("diagnosticrenderer: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("diagnosticrenderer: start plugin: %w", err)
	}
	return &PluginRenderer{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewScanner(stdoutPipe),
	}, nil
}

// Close terminates the plugin process.
func (p *PluginRenderer) Close() error {
	p.stdin.Close()
	return p.cmd.Wait()
}

func (p *PluginRenderer) Render(diags []*diagnostic.Diagnostic, src *source.Source) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	params := make([]interface{}, len(diags))
	for i, d := range diags {
		params[i] = diagnosticToMap(d)
	}
	req := pluginRequest{Method: "render", Params: params}

	reqBytes, err := json.Marshal(req)
	if err != nil {
		return fmt.Sprintf("diagnosticrenderer: marshal request: %v", err)
	}
	if _, err := p.stdin.Write(append(reqBytes, '\n')); err != nil {
		return fmt.Sprintf("diagnosticrenderer: write to plugin: %v", err)
	}

	if !p.stdout.Scan() {
		if err := p.stdout.Err(); err != nil {
			return fmt.Sprintf("diagnosticrenderer: read from plugin: %v", err)
		}
		return "diagnosticrenderer: plugin closed its output unexpectedly"
	}

	var resp pluginResponse
	if err := json.Unmarshal(p.stdout.Bytes(), &resp); err != nil {
		return fmt.Sprintf("diagnosticrenderer: unmarshal response: %v", err)
	}
	if resp.Error != "" {
		return fmt.Sprintf("diagnosticrenderer: plugin error: %s", resp.Error)
	}
	return resp.Result
}

func diagnosticToMap(d *diagnostic.Diagnostic) map[string]interface{} {
	labels := make([]map[string]interface{}, len(d.Labels))
	for i, l := range d.Labels {
		m := map[string]interface{}{"message": l.Message}
		if l.Span != nil {
			m["start"] = l.Span.Start
			m["end"] = l.Span.End
		}
		labels[i] = m
	}
	return map[string]interface{}{
		"title":  d.Title,
		"labels": labels,
		"notes":  d.Notes,
		"hints":  d.Hints,
	}
}
