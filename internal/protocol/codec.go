package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	// Terminator ends every request payload.
	Terminator byte = 0

	// StatusLine opens every response. It only looks like HTTP; nothing else
	// about the exchange follows HTTP.
	StatusLine = "HTTP/1.1 200 OK "

	DefaultMaxRequestBytes = 512 * 1024
)

var (
	ErrNoTerminator    = errors.New("no terminator found")
	ErrRequestTooLarge = errors.New("request too large")
	ErrInvalidEncoding = errors.New("request is not valid utf-8")
	ErrInvalidLine     = errors.New("command line must not contain newline or NUL")
	ErrInvalidResponse = errors.New("invalid response")
)

// ReadPayload reads bytes up to the next Terminator, looping over as many
// reads as needed. The terminator is consumed and not returned. A clean EOF
// before any byte of a new request returns io.EOF.
func ReadPayload(r *bufio.Reader, maxBytes int) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestBytes
	}
	var buf []byte
	for {
		frag, err := r.ReadSlice(Terminator)
		if len(buf)+len(frag) > maxBytes+1 {
			return nil, fmt.Errorf("%w: exceeds %d bytes", ErrRequestTooLarge, maxBytes)
		}
		buf = append(buf, frag...)
		if err == nil {
			return buf[:len(buf)-1], nil
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) {
			if len(buf) == 0 {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("%w after %d bytes", ErrNoTerminator, len(buf))
		}
		return nil, err
	}
}

// ReadRequest reads one framed request and returns its command line.
func ReadRequest(r *bufio.Reader, maxBytes int) (string, error) {
	payload, err := ReadPayload(r, maxBytes)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(payload) {
		return "", ErrInvalidEncoding
	}
	return CommandLine(string(payload)), nil
}

// CommandLine picks the last non-blank line of a payload. Anything before it,
// such as header lines, is discarded.
func CommandLine(payload string) string {
	lines := strings.Split(payload, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

func WriteRequest(w *bufio.Writer, line string) error {
	if strings.ContainsAny(line, "\n\x00") {
		return ErrInvalidLine
	}
	if _, err := w.WriteString(line); err != nil {
		return err
	}
	return w.WriteByte(Terminator)
}

func WriteResponse(w *bufio.Writer, result string) error {
	_, err := w.WriteString(StatusLine + "\r\n\r\n" + result + "\r\n")
	return err
}

func ReadResponse(r *bufio.Reader) (string, error) {
	status, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	if strings.TrimSuffix(status, "\r\n") != StatusLine {
		return "", fmt.Errorf("%w: status %q", ErrInvalidResponse, status)
	}
	blank, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	if blank != "\r\n" {
		return "", fmt.Errorf("%w: missing blank line", ErrInvalidResponse)
	}
	body, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%w: truncated body", ErrInvalidResponse)
		}
		return "", err
	}
	if !strings.HasSuffix(body, "\r\n") {
		return "", fmt.Errorf("%w: body not CRLF terminated", ErrInvalidResponse)
	}
	return strings.TrimSuffix(body, "\r\n"), nil
}
