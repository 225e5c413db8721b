// Package tui is the read-only terminal dashboard served over SSH.
package tui

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"rotchain-bot/internal/domain"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const loadTimeout = 20 * time.Second

type PriceQuoter interface {
	Quotes(ctx context.Context, symbols []string) []domain.PriceQuote
}

type PromotionLister interface {
	Promotions() []domain.Promotion
}

type DigestReader interface {
	Latest(ctx context.Context, job string) (domain.Digest, bool, error)
}

// Services are the data sources shown by the dashboard.
type Services struct {
	Prices     PriceQuoter
	Symbols    []string
	Promotions PromotionLister
	Digests    DigestReader
	Username   string
}

type tab int

const (
	tabPrices tab = iota
	tabAirdrops
	tabDigests
	tabCount
)

var tabNames = [...]string{"Prices", "Airdrops", "Digests"}

type loadedMsg struct {
	quotes   []domain.PriceQuote
	airdrops []domain.Promotion
	digests  []domain.Digest
	err      error
	at       time.Time
}

type AppModel struct {
	svc     Services
	tab     tab
	width   int
	height  int
	loading bool
	spinner spinner.Model

	prices   table.Model
	airdrops table.Model
	digests  []domain.Digest
	err      error
	updated  time.Time
}

func NewAppModel(svc Services) *AppModel {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	return &AppModel{
		svc:     svc,
		loading: true,
		spinner: s,
		prices: table.New(table.WithColumns([]table.Column{
			{Title: "Symbol", Width: 8},
			{Title: "CoinGecko", Width: 14},
			{Title: "Binance", Width: 14},
			{Title: "Spread", Width: 9},
		}), table.WithFocused(true), table.WithHeight(10)),
		airdrops: table.New(table.WithColumns([]table.Column{
			{Title: "Name", Width: 20},
			{Title: "Network", Width: 8},
			{Title: "Status", Width: 9},
			{Title: "Reward", Width: 14},
			{Title: "Link", Width: 30},
		}), table.WithFocused(true), table.WithHeight(10)),
	}
}

// SetSize adapts the tables to the terminal.
func (m *AppModel) SetSize(width, height int) {
	m.width, m.height = width, height
	h := max(3, height-8)
	m.prices.SetHeight(h)
	m.airdrops.SetHeight(h)
}

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m *AppModel) load() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		msg := loadedMsg{at: time.Now()}
		if svc.Prices != nil {
			msg.quotes = svc.Prices.Quotes(ctx, svc.Symbols)
		}
		if svc.Promotions != nil {
			msg.airdrops = svc.Promotions.Promotions()
		}
		if svc.Digests != nil {
			for _, job := range domain.DigestJobs {
				d, ok, err := svc.Digests.Latest(ctx, job)
				if err != nil {
					msg.err = err
					continue
				}
				if ok {
					msg.digests = append(msg.digests, d)
				}
			}
		}
		return msg
	}
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "right", "l":
			m.tab = (m.tab + 1) % tabCount
			return m, nil
		case "shift+tab", "left", "h":
			m.tab = (m.tab + tabCount - 1) % tabCount
			return m, nil
		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.load())
		}

	case loadedMsg:
		m.loading = false
		m.err = msg.err
		m.updated = msg.at
		m.digests = msg.digests
		m.prices.SetRows(priceRows(msg.quotes))
		m.airdrops.SetRows(airdropRows(msg.airdrops))
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.tab {
	case tabPrices:
		m.prices, cmd = m.prices.Update(msg)
	case tabAirdrops:
		m.airdrops, cmd = m.airdrops.Update(msg)
	}
	return m, cmd
}

func (m *AppModel) View() string {
	var b strings.Builder

	user := m.svc.Username
	if user == "" {
		user = "guest"
	}
	b.WriteString(titleStyle.Render("ROTCHAIN dashboard") + helpStyle.Render(" · "+user) + "\n\n")

	tabs := make([]string, 0, len(tabNames))
	for i, name := range tabNames {
		if tab(i) == m.tab {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, tabStyle.Render(name))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " Loading…")
	case m.tab == tabPrices:
		b.WriteString(m.prices.View())
	case m.tab == tabAirdrops:
		b.WriteString(m.airdrops.View())
	default:
		b.WriteString(m.digestView())
	}

	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render("error: "+m.err.Error()) + "\n")
	}
	status := "tab/←→ switch · r refresh · q quit"
	if !m.updated.IsZero() {
		status = "updated " + m.updated.Format("15:04:05") + " · " + status
	}
	b.WriteString(helpStyle.Render(status))
	return b.String()
}

func (m *AppModel) digestView() string {
	if len(m.digests) == 0 {
		return helpStyle.Render("No digests have been sent yet.")
	}
	width := max(40, m.width-4)
	parts := make([]string, 0, len(m.digests))
	for _, d := range m.digests {
		header := fmt.Sprintf("%s · %s", d.Job, d.CreatedAt.Format("2006-01-02 15:04"))
		parts = append(parts, boxStyle.Width(width).Render(titleStyle.Render(header)+"\n"+PlainText(d.Text)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func priceRows(quotes []domain.PriceQuote) []table.Row {
	rows := make([]table.Row, 0, len(quotes))
	for _, q := range quotes {
		rows = append(rows, table.Row{
			strings.ToUpper(q.Symbol),
			formatPrice(q.CoinGecko),
			formatPrice(q.Binance),
			formatSpread(q),
		})
	}
	return rows
}

func airdropRows(items []domain.Promotion) []table.Row {
	rows := make([]table.Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, table.Row{it.Name, it.Network, it.Status, it.Reward, it.Link})
	}
	return rows
}

func formatPrice(p float64) string {
	if p <= 0 {
		return "—"
	}
	return fmt.Sprintf("%.2f", p)
}

func formatSpread(q domain.PriceQuote) string {
	if !q.HasSpread() {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", *q.SpreadPct)
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// PlainText strips the chat markup from a digest.
func PlainText(s string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(s, ""))
}
