// Copyright 2026 The ledcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// ledctl is a terminal dashboard over ledcored's introspection HTTP
// surface (§6). It polls /tasks and /health (taking the task counts from
// /health's summary) and renders a styled table plus a health badge; it
// never calls into FrameManager
// or AnimationEngine directly, only ledcored's read-only HTTP views.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var flagAddr string

func main() {
	root := &cobra.Command{
		Use:   "ledctl",
		Short: "Terminal dashboard for the ledcore rendering daemon",
		RunE:  run,
	}
	root.Flags().StringVar(&flagAddr, "addr", "http://localhost:8080", "ledcored introspection HTTP address")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ledctl: %s\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	m := newModel(flagAddr)
	p := tea.NewProgram(m)
	_, err := p.Run()
	return err
}

// --- HTTP client against ledcored's introspection surface -----------------

type taskView struct {
	ID          int64  `json:"id"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

type summaryView struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

type healthView struct {
	Status string      `json:"status"`
	Reason string      `json:"reason,omitempty"`
	Tasks  summaryView `json:"tasks"`
}

type dashboardClient struct {
	addr string
	http *http.Client
}

func newDashboardClient(addr string) *dashboardClient {
	return &dashboardClient{addr: addr, http: &http.Client{Timeout: 2 * time.Second}}
}

func (c *dashboardClient) fetchTasks() ([]taskView, error) {
	var out []taskView
	if err := c.getJSON("/tasks", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dashboardClient) fetchHealth() (healthView, error) {
	var out healthView
	err := c.getJSON("/health", &out)
	return out, err
}

func (c *dashboardClient) getJSON(path string, v interface{}) error {
	resp, err := c.http.Get(c.addr + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ledctl: %s: unexpected status %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// --- bubbletea model --------------------------------------------------------

const pollInterval = time.Second

type pollMsg struct {
	tasks  []taskView
	health healthView
	err    error
}

type styles struct {
	Title   lipgloss.Style
	Healthy lipgloss.Style
	Degrad  lipgloss.Style
	Muted   lipgloss.Style
	ErrMsg  lipgloss.Style
}

func newStyles() styles {
	return styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")),
		Healthy: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		Degrad:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		ErrMsg:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

type model struct {
	client *dashboardClient
	styles styles
	table  table.Model

	health   healthView
	lastErr  error
	quitting bool
}

func newModel(addr string) model {
	cols := []table.Column{
		{Title: "ID", Width: 4},
		{Title: "Category", Width: 12},
		{Title: "Description", Width: 36},
		{Title: "Status", Width: 10},
		{Title: "Error", Width: 24},
	}
	t := table.New(table.WithColumns(cols), table.WithFocused(false), table.WithHeight(12))
	t.SetStyles(table.DefaultStyles())

	return model{
		client: newDashboardClient(addr),
		styles: newStyles(),
		table:  t,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.poll(), tea.EnterAltScreen)
}

func (m model) poll() tea.Cmd {
	return func() tea.Msg {
		tasks, err := m.client.fetchTasks()
		if err != nil {
			return pollMsg{err: err}
		}
		health, err := m.client.fetchHealth()
		if err != nil {
			return pollMsg{err: err}
		}
		return pollMsg{tasks: tasks, health: health}
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

type tickMsg struct{}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case tickMsg:
		return m, m.poll()
	case pollMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			return m, tick()
		}
		m.lastErr = nil
		m.health = msg.health
		m.table.SetRows(toRows(msg.tasks))
		return m, tick()
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func toRows(tasks []taskView) []table.Row {
	rows := make([]table.Row, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", t.ID), t.Category, t.Description, t.Status, t.Error,
		})
	}
	return rows
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	badge := m.styles.Healthy.Render("HEALTHY")
	if m.health.Status == "degraded" {
		badge = m.styles.Degrad.Render("DEGRADED: " + m.health.Reason)
	}

	header := fmt.Sprintf(
		"%s  %s\n%s total=%d active=%d failed=%d cancelled=%d",
		m.styles.Title.Render("ledctl"), badge,
		m.styles.Muted.Render("tasks:"),
		m.health.Tasks.Total, m.health.Tasks.Active, m.health.Tasks.Failed, m.health.Tasks.Cancelled,
	)

	body := m.table.View()
	footer := m.styles.Muted.Render("q to quit")
	if m.lastErr != nil {
		footer = m.styles.ErrMsg.Render(fmt.Sprintf("poll failed: %s", m.lastErr)) + "  " + footer
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", footer)
}
