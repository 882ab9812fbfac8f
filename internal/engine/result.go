package engine

import "strings"

// Response markers.
const (
	OKMarker    = "[OK]"
	ErrorMarker = "[ERROR]"
)

// Result is the outcome of a successful command. Header is nil for
// commands that return no rows.
type Result struct {
	Header []string
	Rows   [][]string
	// Affected counts rows inserted, updated or deleted.
	Affected int
	// Database is the selected database after the command ran.
	Database string
	// Changed is set when the command modified stored data.
	Changed bool
}

// HasRows reports whether the result carries a header and rows.
func (r *Result) HasRows() bool {
	return r != nil && r.Header != nil
}

// Format renders the result as a response: "[OK]" or
// "[OK]\n<header>\n<row>\n...".
func (r *Result) Format() string {
	if !r.HasRows() {
		return OKMarker
	}
	var b strings.Builder
	b.WriteString(OKMarker)
	b.WriteByte('\n')
	b.WriteString(strings.Join(r.Header, "\t"))
	b.WriteByte('\n')
	for _, row := range r.Rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatError renders err as a single-line "[ERROR] <message>" response.
func FormatError(err error) string {
	return ErrorMarker + " " + lineBreaks.Replace(err.Error())
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// IsOK reports whether a formatted response signals success.
func IsOK(response string) bool {
	return strings.HasPrefix(response, OKMarker)
}
