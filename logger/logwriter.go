package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"regexp"
	"strings"
	"sync"
)

// LogBufferWriter is an io.Writer that writes to the log buffer. It
// extracts the node ID from the "[nodeID] message" convention every
// logf helper in this module follows (gossip.Engine, node.Node,
// node.Standalone all build their logf as
// logger.Printf("[%s] %s", label, ...)), so a single TUI log view can
// demux lines from every node sharing one process.
type LogBufferWriter struct {
	buffer *LogBuffer
	buf    bytes.Buffer
	mu     sync.Mutex
}

var nodeIDRegex = regexp.MustCompile(`^\[([^\]]+)\]\s*(.*)$`)

// NewLogBufferWriter creates a new writer that writes to the log buffer
func NewLogBufferWriter(buffer *LogBuffer) *LogBufferWriter {
	return &LogBufferWriter{
		buffer: buffer,
	}
}

// Write implements io.Writer
func (lw *LogBufferWriter) Write(p []byte) (n int, err error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	// Buffer until we get a newline
	lw.buf.Write(p)

	// Process complete lines
	for {
		line, err := lw.buf.ReadString('\n')
		if err == io.EOF {
			break
		}
		if err != nil {
			return len(p), err
		}

		// Remove newline
		line = strings.TrimSuffix(line, "\n")
		if len(line) == 0 {
			continue
		}

		// Try to extract node ID from format "[nodeID] message"
		nodeID := "system"
		message := line

		// zerolog hands each writer one JSON object per line; the
		// "[nodeID] message" text is its message field.
		var rec struct {
			Message string `json:"message"`
		}
		if json.Unmarshal([]byte(line), &rec) == nil && rec.Message != "" {
			message = rec.Message
		}

		matches := nodeIDRegex.FindStringSubmatch(message)
		if len(matches) == 3 {
			nodeID = matches[1]
			message = matches[2]
		}

		// Add to log buffer
		lw.buffer.Add(nodeID, message)
	}

	return len(p), nil
}

