package progrock

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/vito/progrock"
)

var _ progrock.Writer = (*Console)(nil)

// Console renders progrock status updates as plain lines: one line when a vertex
// starts, one when it finishes, and every log line prefixed with its vertex name.
// Partial log lines are held per vertex until a newline arrives or the vertex ends.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	names    map[string]string
	finished map[string]bool
	partial  map[string]*bytes.Buffer
	styles   consoleStyles
}

type consoleStyles struct {
	running lipgloss.Style
	done    lipgloss.Style
	cached  lipgloss.Style
	failed  lipgloss.Style
	prefix  lipgloss.Style
}

// NewConsole creates a Console writing to w. Colors follow w's terminal profile.
func NewConsole(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		out:      w,
		names:    make(map[string]string),
		finished: make(map[string]bool),
		partial:  make(map[string]*bytes.Buffer),
		styles: consoleStyles{
			running: r.NewStyle().Foreground(lipgloss.Color("#5D3FD3")),
			done:    r.NewStyle().Foreground(lipgloss.Color("42")),
			cached:  r.NewStyle().Foreground(lipgloss.Color("#667085")),
			failed:  r.NewStyle().Foreground(lipgloss.Color("160")),
			prefix:  r.NewStyle().Foreground(lipgloss.Color("#667085")),
		},
	}
}

// WriteStatus renders one update.
func (c *Console) WriteStatus(update *progrock.StatusUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, v := range update.Vertexes {
		if _, known := c.names[v.Id]; !known {
			c.names[v.Id] = v.Name
			c.printf("%s %s\n", c.styles.running.Render("▸"), v.Name)
		}
	}

	for _, l := range update.Logs {
		buf, ok := c.partial[l.Vertex]
		if !ok {
			buf = new(bytes.Buffer)
			c.partial[l.Vertex] = buf
		}
		buf.Write(l.Data)
		for {
			i := bytes.IndexByte(buf.Bytes(), '\n')
			if i < 0 {
				break
			}
			line := buf.Next(i + 1)
			c.logLine(l.Vertex, line[:i])
		}
	}

	for _, v := range update.Vertexes {
		if v.Completed == nil || c.finished[v.Id] {
			continue
		}
		c.finished[v.Id] = true
		c.flush(v.Id)

		switch {
		case v.Error != nil:
			c.printf("%s %s: %s\n", c.styles.failed.Render("✗"), v.Name, *v.Error)
		case v.Cached:
			c.printf("%s %s (cached)\n", c.styles.cached.Render("✓"), v.Name)
		default:
			c.printf("%s %s\n", c.styles.done.Render("✓"), v.Name)
		}
	}
	return nil
}

// Close flushes any partial log lines.
func (c *Console) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.partial {
		c.flush(id)
	}
	return nil
}

func (c *Console) flush(id string) {
	buf, ok := c.partial[id]
	if !ok {
		return
	}
	if buf.Len() > 0 {
		c.logLine(id, buf.Bytes())
	}
	delete(c.partial, id)
}

func (c *Console) logLine(id string, line []byte) {
	c.printf("%s %s\n", c.styles.prefix.Render(c.names[id]+" |"), bytes.TrimRight(line, "\r"))
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
