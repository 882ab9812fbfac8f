// Package wire implements the line protocol between tabdb clients and the
// server. A client sends one command per line; the server answers with the
// response text followed by "\n", an EOT byte (0x04) and "\n".
package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// EOT marks the end of a response.
const EOT byte = 0x04

// Terminator follows every response on the wire.
const Terminator = "\n\x04\n"

// maxLine bounds a single command or response line.
const maxLine = 16 * 1024 * 1024

var (
	// ErrLineTooLong is returned when a line exceeds the protocol limit.
	ErrLineTooLong = errors.New("wire: line too long")
	// ErrTerminatorInResponse is returned for a response with a line that
	// would read as the end of the response.
	ErrTerminatorInResponse = errors.New("wire: response contains a terminator line")
)

// Transporter reads and writes protocol messages over a stream.
type Transporter struct {
	reader *bufio.Reader
	writer *bufio.Writer
}

// NewTransporter wraps a connection.
func NewTransporter(rw io.ReadWriter) *Transporter {
	return &Transporter{
		reader: bufio.NewReader(rw),
		writer: bufio.NewWriter(rw),
	}
}

// ReadCommand reads one command line without its line ending. A final
// line without a newline is still returned; io.EOF means the peer closed
// the stream cleanly.
func (t *Transporter) ReadCommand() (string, error) {
	line, err := t.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return trimEOL(line), nil
		}
		return "", err
	}
	return trimEOL(line), nil
}

// WriteCommand sends one command. Line breaks inside the command are
// replaced by spaces so it stays on one line.
func (t *Transporter) WriteCommand(command string) error {
	command = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(command)
	if _, err := t.writer.WriteString(command + "\n"); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	return t.flush()
}

// WriteResponse sends a response followed by the terminator. Nothing is
// sent when a line of the response consists of the EOT byte alone.
func (t *Transporter) WriteResponse(response string) error {
	for line := range strings.Lines(response) {
		if trimEOL(line) == string(EOT) {
			return ErrTerminatorInResponse
		}
	}
	if _, err := t.writer.WriteString(response + Terminator); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}
	return t.flush()
}

// ReadResponse reads lines up to the EOT line and returns the response
// without the terminator.
func (t *Transporter) ReadResponse() (string, error) {
	var b strings.Builder
	for {
		line, err := t.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if b.Len() == 0 && line == "" {
					return "", io.EOF
				}
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		if trimEOL(line) == string(EOT) {
			return strings.TrimSuffix(b.String(), "\n"), nil
		}
		if b.Len()+len(line) > maxLine {
			return "", ErrLineTooLong
		}
		b.WriteString(line)
	}
}

func (t *Transporter) readLine() (string, error) {
	var b strings.Builder
	for {
		chunk, isPrefix, err := t.reader.ReadLine()
		b.Write(chunk)
		if err != nil {
			return b.String(), err
		}
		if b.Len() > maxLine {
			return "", ErrLineTooLong
		}
		if !isPrefix {
			return b.String() + "\n", nil
		}
	}
}

func (t *Transporter) flush() error {
	if err := t.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
