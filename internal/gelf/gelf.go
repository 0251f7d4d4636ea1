package gelf

import (
	"encoding/json"
	"net"
	"os"
	"strings"
	"time"
)

// Syslog levels used for log lines.
const (
	levelError   = 3
	levelWarning = 4
	levelInfo    = 6
)

// Writer sends each log line as a GELF message over UDP. It implements
// io.Writer so it can sit behind log.SetOutput via io.MultiWriter.
type Writer struct {
	conn     net.Conn
	hostname string
	service  string
	now      func() time.Time
}

// New creates a writer sending to addr (e.g. "172.17.0.1:12201") and tagging
// messages with _service.
func New(addr, service string) (*Writer, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = service
	}

	return &Writer{conn: conn, hostname: hostname, service: service, now: time.Now}, nil
}

// Write sends p as one message. Lines from the log package carry a
// "2006/01/02 15:04:05 " prefix, which is dropped from short_message.
// Send failures are ignored so logging never fails.
func (w *Writer) Write(p []byte) (int, error) {
	short := stripDate(strings.TrimRight(string(p), "\n"))

	msg := map[string]any{
		"version":       "1.1",
		"host":          w.hostname,
		"short_message": short,
		"timestamp":     float64(w.now().UnixNano()) / 1e9,
		"level":         level(short),
		"_service":      w.service,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return len(p), nil
	}
	_, _ = w.conn.Write(payload)
	return len(p), nil
}

// Close closes the UDP socket.
func (w *Writer) Close() error {
	return w.conn.Close()
}

func stripDate(msg string) string {
	if len(msg) > 20 && msg[4] == '/' && msg[7] == '/' && msg[10] == ' ' && msg[13] == ':' {
		return msg[20:]
	}
	return msg
}

func level(short string) int {
	switch {
	case strings.Contains(short, "PANIC:") || strings.Contains(short, "Fatal"):
		return levelError
	case strings.HasPrefix(short, "Warning:"):
		return levelWarning
	}
	return levelInfo
}
