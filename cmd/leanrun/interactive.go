package main

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/lean-runtime/abi/heap"
	"github.com/wippyai/lean-runtime/config"
	"github.com/wippyai/lean-runtime/examples/maparray"
	"github.com/wippyai/lean-runtime/runtime"
)

const (
	maxObjectRows = 12
	maxEventLines = 200
	eventBuffer   = 256
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#98FB98"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// eventFeed forwards heap events to the viewer. Events arriving while the
// buffer is full are counted and dropped so the heap never blocks on the UI.
type eventFeed struct {
	ch      chan heap.Event
	done    chan struct{}
	dropped atomic.Int64
}

func newEventFeed() *eventFeed {
	return &eventFeed{
		ch:   make(chan heap.Event, eventBuffer),
		done: make(chan struct{}),
	}
}

func (f *eventFeed) OnHeapEvent(e heap.Event) {
	select {
	case f.ch <- e:
	default:
		f.dropped.Add(1)
	}
}

func (f *eventFeed) stop() { close(f.done) }

type eventMsg heap.Event

type demoMsg struct {
	name   string
	output string
	err    error
}

type viewerModel struct {
	err     error
	h       *heap.Heap
	rt      *runtime.Runtime
	lib     *maparray.Library
	cfg     *config.Config
	feed    *eventFeed
	text    string
	output  string
	last    string
	events  []string
	input   textinput.Model
	vp      viewport.Model
	editing bool
	running bool
}

func newViewerModel(rt *runtime.Runtime, h *heap.Heap, lib *maparray.Library, cfg *config.Config, feed *eventFeed) *viewerModel {
	ti := textinput.New()
	ti.Prompt = "text: "
	ti.Placeholder = "string demo text"
	ti.Width = 40

	return &viewerModel{
		h:     h,
		rt:    rt,
		lib:   lib,
		cfg:   cfg,
		feed:  feed,
		text:  cfg.Demo.Text,
		input: ti,
		vp:    viewport.New(80, 10),
	}
}

func (m *viewerModel) Init() tea.Cmd {
	return m.waitEvent
}

func (m *viewerModel) waitEvent() tea.Msg {
	select {
	case e := <-m.feed.ch:
		return eventMsg(e)
	case <-m.feed.done:
		return nil
	}
}

// runDemo runs a demo on a secondary thread so the UI goroutine never calls
// into the ABI directly.
func (m *viewerModel) runDemo(name string) tea.Cmd {
	cfg := *m.cfg
	cfg.Demo.Name = name
	cfg.Demo.Text = m.text
	rt, lib := m.rt, m.lib

	return func() tea.Msg {
		var out strings.Builder
		err := runtime.Scoped(rt, func(s *runtime.Scope) error {
			s.Go(runtime.ThreadOptions{Name: "viewer-" + name}, func(child *runtime.Runtime) error {
				return runDemo(&out, child, lib, &cfg)
			})
			return nil
		})
		return demoMsg{name: name, output: out.String(), err: err}
	}
}

func (m *viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "e":
			m.editing = true
			m.input.SetValue(m.text)
			return m, m.input.Focus()
		case "s", "m", "t":
			if m.running {
				return m, nil
			}
			m.running = true
			return m, m.runDemo(demoForKey(msg.String()))
		}

	case tea.WindowSizeMsg:
		m.vp.Width = msg.Width
		m.vp.Height = max(msg.Height-maxObjectRows-12, 3)

	case eventMsg:
		m.addEvent(heap.Event(msg))
		return m, m.waitEvent

	case demoMsg:
		m.running = false
		m.last = msg.name
		m.output = strings.TrimRight(msg.output, "\n")
		m.err = msg.err
	}
	return m, nil
}

func (m *viewerModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.text = m.input.Value()
		m.editing = false
		m.input.Blur()
		return m, nil
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func demoForKey(key string) string {
	switch key {
	case "s":
		return "make-string"
	case "t":
		return "threads"
	default:
		return "map-array"
	}
}

func (m *viewerModel) addEvent(e heap.Event) {
	var line string
	if e.Type == heap.EventLifecycle {
		line = fmt.Sprintf("%-9s %s", e.Type, e.Call)
	} else {
		line = fmt.Sprintf("%-9s %#x %s rc=%d", e.Type, uint64(e.Object), e.Kind, e.RefCount)
	}
	m.events = append(m.events, line)
	if n := len(m.events); n > maxEventLines {
		m.events = m.events[n-maxEventLines:]
	}
	m.vp.SetContent(strings.Join(m.events, "\n"))
	m.vp.GotoBottom()
}

func (m *viewerModel) View() string {
	var b strings.Builder

	attached, peak := m.h.Threads()
	b.WriteString(titleStyle.Render("Lean Heap"))
	fmt.Fprintf(&b, " phase=%s threads=%d (peak %d) live=%d", m.rt.Phase(), attached, peak, m.h.Live())
	if d := m.feed.dropped.Load(); d > 0 {
		fmt.Fprintf(&b, " dropped=%d", d)
	}
	b.WriteString("\n\n")

	objs := m.h.Objects()
	b.WriteString(headerStyle.Render("Objects"))
	b.WriteString("\n")
	for i, o := range objs {
		if i == maxObjectRows {
			fmt.Fprintf(&b, "  ... and %d more\n", len(objs)-maxObjectRows)
			break
		}
		fmt.Fprintf(&b, "  %#06x %s rc=%d %s\n", uint64(o.Object), kindStyle.Render(fmt.Sprintf("%-11s", o.Kind)), o.RefCount, o.Summary)
	}
	if len(objs) == 0 {
		b.WriteString("  (none)\n")
	}
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Events"))
	b.WriteString("\n")
	b.WriteString(m.vp.View())
	b.WriteString("\n\n")

	switch {
	case m.running:
		b.WriteString("running...\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("%s: %v", m.last, m.err)))
		b.WriteString("\n")
	case m.last != "":
		b.WriteString(resultStyle.Render(m.output))
		b.WriteString("\n")
	}

	if m.editing {
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter save • esc cancel"))
	} else {
		fmt.Fprintf(&b, "text: %q\n", m.text)
		b.WriteString(helpStyle.Render("s string • m map-array • t threads • e edit text • q quit"))
	}
	return b.String()
}

func runInteractive(rt *runtime.Runtime, h *heap.Heap, lib *maparray.Library, cfg *config.Config) error {
	feed := newEventFeed()
	h.Subscribe(feed)
	defer h.Unsubscribe(feed)
	defer feed.stop()

	p := tea.NewProgram(newViewerModel(rt, h, lib, cfg, feed), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
