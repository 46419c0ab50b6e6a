// Package cli provides an interactive tester for the autocomplete widget.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/wondrvoices/wondrsuggest/internal/logger"
	"github.com/wondrvoices/wondrsuggest/pkg/autocomplete"
	"github.com/wondrvoices/wondrsuggest/pkg/suggest"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"})
	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
)

// InputHandler feeds lines from a reader into an autocomplete widget and
// prints what the widget would render.
//
// Plain lines are typed into the widget. ":all <query>" prints matches for
// every category and ":pick <n>" selects the n-th visible suggestion.
type InputHandler struct {
	loader suggest.Loader
	widget *autocomplete.Widget
	limit  int
	out    *log.Logger

	mu      sync.Mutex
	current []string
}

// NewInputHandler creates a handler whose widget serves category c.
func NewInputHandler(loader suggest.Loader, opts autocomplete.Options, w io.Writer) *InputHandler {
	h := &InputHandler{
		loader: loader,
		limit:  opts.Limit,
		out:    logger.NewWithConfig("", log.InfoLevel, false, false, log.TextFormatter),
	}
	h.out.SetOutput(w)
	opts.OnChange = h.render
	h.widget = autocomplete.New(loader, opts)
	return h
}

// Start begins the interface loop and returns when r is exhausted. A lookup
// still waiting on its debounce when r ends is dropped with the widget.
func (h *InputHandler) Start(r io.Reader) error {
	defer h.widget.Close()

	h.out.Print("WondrSuggest CLI")
	h.out.Print("type something and press Enter to see the suggestions (Ctrl+D to exit):")

	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			h.handleInput(strings.TrimRight(line, "\r\n"))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Widget exposes the underlying widget.
func (h *InputHandler) Widget() *autocomplete.Widget {
	return h.widget
}

func (h *InputHandler) handleInput(line string) {
	switch {
	case strings.HasPrefix(line, ":all "):
		h.printAll(strings.TrimPrefix(line, ":all "))
	case strings.HasPrefix(line, ":pick "):
		h.pick(strings.TrimSpace(strings.TrimPrefix(line, ":pick ")))
	default:
		h.widget.Input(line)
	}
}

func (h *InputHandler) pick(arg string) {
	n, err := strconv.Atoi(arg)
	h.mu.Lock()
	visible := h.current
	h.mu.Unlock()
	if err != nil || n < 1 || n > len(visible) {
		h.out.Errorf("No suggestion #%s", arg)
		return
	}
	h.widget.Select(visible[n-1])
	h.out.Printf("Selected %s", valueStyle.Render(visible[n-1]))
}

func (h *InputHandler) printAll(query string) {
	start := time.Now()
	idx, err := h.loader.Load(context.Background())
	if err != nil {
		h.out.Warnf("Suggestions unavailable: %v", err)
		return
	}
	res := idx.FilterAll(query, h.limit)
	log.Debugf("Took [ %v ] for query '%s'", time.Since(start), query)

	for _, c := range suggest.Categories {
		values := res.Get(c)
		h.out.Print(headerStyle.Render(fmt.Sprintf("%s (%d)", c, len(values))))
		for i, v := range values {
			h.out.Printf("%2d. %s", i+1, valueStyle.Render(v))
		}
	}
}

func (h *InputHandler) render(st autocomplete.State) {
	h.mu.Lock()
	h.current = st.Suggestions
	h.mu.Unlock()

	if !st.Open {
		return
	}
	h.out.Printf("Found %d suggestions for '%s':", len(st.Suggestions), st.Value)
	for i, v := range st.Suggestions {
		h.out.Printf("%2d. %s", i+1, valueStyle.Render(v))
	}
}
