// Package ui provides the Bubble Tea dashboard for the order-book aggregator.
package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quantmesh/lobagg/business/book/app"
	"github.com/quantmesh/lobagg/business/book/domain"
)

// defaultPriceOffsetsBps are the bps offsets shown in the price-bands panel.
var defaultPriceOffsetsBps = []int{10, 25, 50}

var defaultVolumeThresholds = mustThresholds(100, 500, 1000)

func mustThresholds(vals ...int64) []domain.Decimal {
	out := make([]domain.Decimal, 0, len(vals))
	for _, v := range vals {
		d, err := domain.FromInteger(v)
		if err != nil {
			panic(err)
		}
		out = append(out, d)
	}
	return out
}

// Program holds the running Bubble Tea program instance, set once New's
// caller starts it, so engine callbacks running on other goroutines can
// deliver updates via Send.
var Program *tea.Program

// Send delivers msg to the running program, if any. Safe to call before
// Program is set; the message is simply dropped.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}

// Model is the Bubble Tea model for the order-book dashboard.
type Model struct {
	bbo       BBOModel
	priceBand PriceBandsModel
	volBand   VolumeBandsModel
	freshness ExchangeStatusModel

	bandCalc *app.PriceBandCalculator

	quitting   bool
	paused     bool
	lastUpdate time.Time
	errors     []string
	keys       KeyMap
}

// New builds a dashboard model and subscribes to engine for live updates.
// The subscription is never removed; it lasts as long as the engine.
func New(engine *app.Engine) Model {
	m := Model{
		bbo:       NewBBOModel(),
		priceBand: NewPriceBandsModel(),
		volBand:   NewVolumeBandsModel(),
		freshness: NewExchangeStatusModel(),
		bandCalc:  app.NewPriceBandCalculator(),
		keys:      DefaultKeyMap(),
	}

	engine.Subscribe(func(view domain.AggregatedBookView) {
		Send(ViewMsg{View: view})
	})

	return m
}

// Init starts the periodic tick used for the freshness readout.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case matchesKey(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case matchesKey(msg, m.keys.Pause):
			m.paused = !m.paused
		case matchesKey(msg, m.keys.Clear):
			m.errors = nil
		}
		return m, nil

	case TickMsg:
		return m, tickCmd()

	case ViewMsg:
		if m.paused {
			return m, nil
		}
		m.bbo.Update(msg.View)
		m.freshness.Update(msg.View)
		m.priceBand.Update(m.bandCalc.Compute(msg.View, defaultPriceOffsetsBps))
		m.volBand.Update(app.ComputeVolumeBands(msg.View, defaultVolumeThresholds))
		m.lastUpdate = time.Now()
		return m, nil

	case ErrorMsg:
		m.errors = append(m.errors, msg.Error.Error())
		if len(m.errors) > 5 {
			m.errors = m.errors[len(m.errors)-5:]
		}
		return m, nil
	}

	return m, nil
}

func matchesKey(msg tea.KeyMsg, binding interface{ Keys() []string }) bool {
	for _, k := range binding.Keys() {
		if msg.String() == k {
			return true
		}
	}
	return false
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return "shutting down\n"
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		BoxStyle.Render(m.bbo.View()),
		BoxStyle.Render(m.freshness.View()),
	)
	mid := lipgloss.JoinHorizontal(lipgloss.Top,
		BoxStyle.Render(m.priceBand.View()),
		BoxStyle.Render(m.volBand.View()),
	)

	sections := []string{
		TitleStyle.Render(" order-book aggregator "),
		top,
		mid,
	}
	if len(m.errors) > 0 {
		sections = append(sections, BoxStyle.Render(NegativeValue.Render(strings.Join(m.errors, "\n"))))
	}
	if m.paused {
		sections = append(sections, MutedValue.Render("paused"))
	} else if !m.lastUpdate.IsZero() {
		sections = append(sections, MutedValue.Render("last update "+time.Since(m.lastUpdate).Round(time.Millisecond).String()+" ago"))
	}
	sections = append(sections, HelpStyle.Render("q quit · p pause · c clear errors"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
