package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"

	"github.com/leapstack-labs/tabdb/internal/cli/config"
	"github.com/leapstack-labs/tabdb/internal/engine"
	"github.com/leapstack-labs/tabdb/pkg/core"
)

// Response is a parsed server response.
type Response struct {
	OK      bool       `json:"ok"`
	Message string     `json:"error,omitempty"`
	Header  []string   `json:"header,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
}

// ParseResponse splits a response into its marker, header and rows.
func ParseResponse(resp string) Response {
	if !engine.IsOK(resp) {
		msg := strings.TrimPrefix(resp, engine.ErrorMarker)
		return Response{Message: strings.TrimSpace(msg)}
	}
	body := strings.TrimPrefix(resp, engine.OKMarker)
	body = strings.TrimPrefix(body, "\n")
	if body == "" {
		return Response{OK: true}
	}

	lines := strings.Split(strings.TrimSuffix(body, "\n"), "\n")
	r := Response{OK: true, Header: strings.Split(lines[0], "\t"), Rows: [][]string{}}
	for _, line := range lines[1:] {
		r.Rows = append(r.Rows, strings.Split(line, "\t"))
	}
	return r
}

// Styles holds the terminal styles used for response markers.
type Styles struct {
	OK    lipgloss.Style
	Error lipgloss.Style
	Muted lipgloss.Style
}

func newStyles(w io.Writer, isTTY bool) Styles {
	if !isTTY {
		plain := lipgloss.NewStyle()
		return Styles{OK: plain, Error: plain, Muted: plain}
	}
	lr := lipgloss.NewRenderer(w)
	return Styles{
		OK:    lr.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		Error: lr.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		Muted: lr.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Renderer prints responses and audit records in the configured format.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	format string
	isTTY  bool
	styles Styles
}

// NewRenderer creates a renderer, styling output when out is a terminal.
func NewRenderer(out, errOut io.Writer, format string) *Renderer {
	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	return NewRendererWithTTY(out, errOut, format, isTTY)
}

// NewRendererWithTTY creates a renderer with an explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, format string, isTTY bool) *Renderer {
	if format == "" {
		format = config.DefaultFormat
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		format: format,
		isTTY:  isTTY,
		styles: newStyles(out, isTTY),
	}
}

// Format returns the current response format.
func (r *Renderer) Format() string {
	return r.format
}

// SetFormat switches the response format.
func (r *Renderer) SetFormat(format string) error {
	if !slices.Contains(config.Formats, format) {
		return fmt.Errorf("unknown format %q (expected one of %s)", format, strings.Join(config.Formats, ", "))
	}
	r.format = format
	return nil
}

// Response prints one server response.
func (r *Renderer) Response(resp string) error {
	switch r.format {
	case config.FormatJSON:
		return r.json(ParseResponse(resp))
	case config.FormatTable:
		return r.table(ParseResponse(resp))
	default:
		return r.raw(resp)
	}
}

func (r *Renderer) raw(resp string) error {
	marker, rest := engine.OKMarker, ""
	style := r.styles.OK
	switch {
	case engine.IsOK(resp):
		rest = strings.TrimPrefix(resp, engine.OKMarker)
	case strings.HasPrefix(resp, engine.ErrorMarker):
		marker, rest, style = engine.ErrorMarker, strings.TrimPrefix(resp, engine.ErrorMarker), r.styles.Error
	default:
		marker, rest = "", resp
	}
	if !strings.HasSuffix(rest, "\n") {
		rest += "\n"
	}
	_, err := fmt.Fprint(r.out, style.Render(marker)+rest)
	return err
}

func (r *Renderer) table(resp Response) error {
	if !resp.OK {
		_, err := fmt.Fprintf(r.out, "%s %s\n", r.styles.Error.Render(engine.ErrorMarker), resp.Message)
		return err
	}
	if resp.Header == nil {
		_, err := fmt.Fprintln(r.out, r.styles.OK.Render(engine.OKMarker))
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(resp.Header))
	for i, col := range resp.Header {
		header[i] = col
	}
	t.AppendHeader(header)
	for _, row := range resp.Rows {
		tr := make(table.Row, len(row))
		for i, v := range row {
			tr[i] = v
		}
		t.AppendRow(tr)
	}
	t.Render()
	_, err := fmt.Fprintln(r.out, r.styles.Muted.Render(rowCount(len(resp.Rows))))
	return err
}

func (r *Renderer) json(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// History prints audit records, as JSON in json format and as a table
// otherwise.
func (r *Renderer) History(records []*core.CommandRecord) error {
	if r.format == config.FormatJSON {
		type record struct {
			ID         string    `json:"id"`
			ClientID   string    `json:"client_id"`
			Database   string    `json:"database"`
			Command    string    `json:"command"`
			Status     string    `json:"status"`
			Message    string    `json:"message,omitempty"`
			DurationMS float64   `json:"duration_ms"`
			ExecutedAt time.Time `json:"executed_at"`
		}
		out := make([]record, len(records))
		for i, rec := range records {
			out[i] = record{
				ID:         rec.ID,
				ClientID:   rec.ClientID,
				Database:   rec.Database,
				Command:    rec.Command,
				Status:     string(rec.Status),
				Message:    rec.Message,
				DurationMS: float64(rec.Duration.Microseconds()) / 1000,
				ExecutedAt: rec.ExecutedAt,
			}
		}
		return r.json(out)
	}

	if len(records) == 0 {
		_, err := fmt.Fprintln(r.out, "(no commands recorded)")
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Time", "Client", "Database", "Command", "Status", "Duration"})
	for _, rec := range records {
		status := r.styles.OK.Render(string(rec.Status))
		if rec.Status == core.CommandStatusError {
			status = r.styles.Error.Render(string(rec.Status))
		}
		t.AppendRow(table.Row{
			rec.ExecutedAt.Local().Format(time.DateTime),
			shortID(rec.ClientID),
			rec.Database,
			rec.Command,
			status,
			rec.Duration.Round(time.Microsecond).String(),
		})
	}
	t.Render()
	return nil
}

// Errorf prints a styled error line on the error stream.
func (r *Renderer) Errorf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.errOut, "%s %s\n", r.styles.Error.Render("Error:"), fmt.Sprintf(format, args...))
}

func rowCount(n int) string {
	if n == 1 {
		return "(1 row)"
	}
	return fmt.Sprintf("(%d rows)", n)
}

// shortID trims uuids to their first group for display.
func shortID(id string) string {
	if len(id) == 36 && id[8] == '-' {
		return id[:8]
	}
	return id
}
