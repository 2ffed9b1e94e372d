/*
 * Copyright 2026 Chromatix Labs.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package tui renders the fleet analysis dashboard. It consumes the
// pipeline's per-page status updates and never feeds back into it beyond
// cooperative cancellation.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chromatix/printscope/pkg/models"
	"github.com/chromatix/printscope/pkg/pipeline"
	"github.com/chromatix/printscope/pkg/report"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, cred models.Credential) (*pipeline.Result, error)
}

// Options configure the dashboard.
type Options struct {
	// Credential prefills the connection form, typically from environment
	// variables.
	Credential models.Credential
	// ExportPath is where the CSV report is written on demand.
	ExportPath string
	// NewRun builds a fresh pipeline wired to the given sink. Called once
	// per run so each run gets its own token provider and state.
	NewRun func(sink pipeline.Sink) Runner
}

const (
	phaseCredentials = iota
	phaseRunning
	phaseDone
)

const (
	focusClientID = iota
	focusSecret
	focusRegion
	focusCount
)

type statusMsg models.StatusUpdate

type runDoneMsg struct {
	result *pipeline.Result
	err    error
}

type exportDoneMsg struct {
	path string
	err  error
}

type model struct {
	opts    Options
	styles  styles
	phase   int
	focused int
	inputs  [focusCount]textinput.Model
	reports table.Model

	update     models.StatusUpdate
	result     *pipeline.Result
	runErr     error
	sink       *UpdateSink
	cancel     context.CancelFunc
	exportPath string
	notice     string
	formErr    error
	canCopy    bool
}

// Run starts the dashboard and blocks until the operator quits.
func Run(opts Options) error {
	p := tea.NewProgram(initialModel(opts), tea.WithAltScreen())
	_, err := p.Run()

	return err
}

func initialModel(opts Options) *model {
	m := &model{
		opts:    opts,
		styles:  newStyles(),
		reports: newReportTable(),
	}

	id := textinput.New()
	id.Placeholder = "Client ID"
	id.Width = 40
	id.SetValue(opts.Credential.ClientID)
	id.Focus()

	secret := textinput.New()
	secret.Placeholder = "Client Secret"
	secret.EchoMode = textinput.EchoPassword
	secret.EchoCharacter = '•'
	secret.Width = 40
	secret.SetValue(opts.Credential.ClientSecret)

	region := textinput.New()
	region.Placeholder = "us"
	region.Width = 10
	region.SetValue(opts.Credential.Region)

	m.inputs[focusClientID] = id
	m.inputs[focusSecret] = secret
	m.inputs[focusRegion] = region

	if err := clipboard.WriteAll(""); err == nil {
		m.canCopy = true
	}

	return m
}

func newReportTable() table.Model {
	columns := []table.Column{
		{Title: "Serial", Width: 16},
		{Title: "Model", Width: 20},
		{Title: "Savings", Width: 9},
		{Title: "Insights", Width: 50},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(12),
		table.WithFocused(true),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		Foreground(lipgloss.Color(draculaPurple)).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(draculaGreen))
	t.SetStyles(s)

	return t
}

func (*model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case statusMsg:
		m.update = models.StatusUpdate(msg)
		m.reports.SetRows(reportRows(m.update.Reports))

		return m, m.waitForUpdate()
	case runDoneMsg:
		m.phase = phaseDone
		m.result = msg.result
		m.runErr = msg.err
		m.cancel = nil

		if msg.result != nil {
			m.reports.SetRows(reportRows(msg.result.Reports))
		}

		return m, nil
	case exportDoneMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("export failed: %v", msg.err)
		} else {
			m.exportPath = msg.path
			m.notice = "report written to " + msg.path
		}

		return m, nil
	}

	return m.updateFocusedInput(msg)
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		if m.cancel != nil {
			m.cancel()
		}

		return m, tea.Quit
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyEnter:
		if m.phase == phaseCredentials {
			return m.handleFormKey(msg)
		}
	default:
	}

	switch m.phase {
	case phaseRunning:
		if msg.String() == "s" && m.cancel != nil {
			m.cancel()
			return m, nil
		}
	case phaseDone:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "e":
			return m, m.exportCmd()
		case "c":
			return m, m.copyCmd()
		case "r":
			m.phase = phaseCredentials
			m.notice = ""
			m.formErr = nil

			return m, textinput.Blink
		}
	}

	return m.updateFocusedInput(msg)
}

func (m *model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter && m.focused == focusRegion {
		return m.startRun()
	}

	m.inputs[m.focused].Blur()

	if msg.Type == tea.KeyShiftTab {
		m.focused = (m.focused + focusCount - 1) % focusCount
	} else {
		m.focused = (m.focused + 1) % focusCount
	}

	m.inputs[m.focused].Focus()

	return m, textinput.Blink
}

func (m *model) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.phase != phaseCredentials {
		var cmd tea.Cmd
		m.reports, cmd = m.reports.Update(msg)

		return m, cmd
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)

	return m, cmd
}

func (m *model) credential() models.Credential {
	region := strings.TrimSpace(m.inputs[focusRegion].Value())
	if region == "" {
		region = "us"
	}

	return models.Credential{
		ClientID:     strings.TrimSpace(m.inputs[focusClientID].Value()),
		ClientSecret: strings.TrimSpace(m.inputs[focusSecret].Value()),
		Region:       region,
	}
}

func (m *model) startRun() (tea.Model, tea.Cmd) {
	cred := m.credential()
	if !cred.Valid() {
		m.formErr = pipeline.ErrEmptyCredential
		return m, nil
	}

	m.formErr = nil
	m.notice = ""
	m.runErr = nil
	m.result = nil
	m.update = models.StatusUpdate{}
	m.reports.SetRows(nil)

	m.sink = NewUpdateSink()
	runner := m.opts.NewRun(m.sink)

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.phase = phaseRunning

	runCmd := func() tea.Msg {
		result, err := runner.Run(ctx, cred)
		return runDoneMsg{result: result, err: err}
	}

	return m, tea.Batch(runCmd, m.waitForUpdate())
}

func (m *model) waitForUpdate() tea.Cmd {
	sink := m.sink

	return func() tea.Msg {
		return statusMsg(<-sink.Updates())
	}
}

func (m *model) exportCmd() tea.Cmd {
	reports := m.finalReports()

	path := m.opts.ExportPath
	if path == "" {
		path = "fleet_report.csv"
	}

	return func() tea.Msg {
		return exportDoneMsg{path: path, err: report.ExportFile(path, reports)}
	}
}

func (m *model) copyCmd() tea.Cmd {
	if !m.canCopy || m.exportPath == "" {
		return nil
	}

	path := m.exportPath

	return func() tea.Msg {
		if err := clipboard.WriteAll(path); err != nil {
			return exportDoneMsg{path: path, err: err}
		}

		return nil
	}
}

func (m *model) finalReports() []models.ClassificationReport {
	if m.result != nil {
		return m.result.Reports
	}

	return m.update.Reports
}

func reportRows(reports []models.ClassificationReport) []table.Row {
	high := report.HighImpact(reports)

	rows := make([]table.Row, 0, len(high))

	for i := range high {
		r := &high[i]
		rows = append(rows, table.Row{
			r.Identity,
			r.Model,
			fmt.Sprintf("%.0f", report.EstimateSavings(r)),
			strings.Join(r.Insights, " | "),
		})
	}

	return rows
}

func (m *model) View() string {
	var content strings.Builder

	content.WriteString(m.styles.title.Render("Print Cost Optimizer") + "\n\n")

	switch m.phase {
	case phaseCredentials:
		content.WriteString(m.viewForm())
	case phaseRunning, phaseDone:
		content.WriteString(m.viewDashboard())
	}

	return m.styles.app.Render(content.String())
}

func (m *model) viewForm() string {
	var content strings.Builder

	labels := [focusCount]string{"Client ID:", "Client Secret:", "Region:"}

	for i := range m.inputs {
		content.WriteString(m.styles.label.Render(labels[i]) + "\n")
		content.WriteString(m.inputs[i].View() + "\n\n")
	}

	if m.formErr != nil {
		content.WriteString(m.styles.error.Render(fmt.Sprintf("Error: %v", m.formErr)) + "\n\n")
	}

	content.WriteString(m.styles.help.Render("Enter on region → connect and analyze | Tab → switch field | Ctrl+C/Esc → quit"))

	return content.String()
}

func (m *model) viewDashboard() string {
	var content strings.Builder

	content.WriteString(m.viewStatus() + "\n\n")

	reports := m.finalReports()
	metrics := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.styles.metric.Render(fmt.Sprintf("Printers %d", len(reports))),
		m.styles.metric.Render(fmt.Sprintf("Est. savings %.0f/mo", report.TotalSavings(reports))),
		m.styles.metric.Render(fmt.Sprintf("High impact %d", len(report.HighImpact(reports)))),
		m.styles.metric.Render(fmt.Sprintf("Pages %d", m.pagesSeen())),
	)
	content.WriteString(metrics + "\n\n")

	content.WriteString(m.reports.View() + "\n")

	if policies := report.DistinctPolicies(reports); len(policies) > 0 {
		content.WriteString("\n" + m.styles.hint.Render("Policies: "+strings.Join(policies, " • ")) + "\n")
	}

	if m.notice != "" {
		content.WriteString("\n" + m.styles.success.Render(m.notice) + "\n")
	}

	content.WriteString("\n" + m.styles.help.Render(m.helpLine()))

	return content.String()
}

func (m *model) pagesSeen() int {
	if m.result != nil {
		return m.result.Pages
	}

	return m.update.PageIndex + 1
}

func (m *model) viewStatus() string {
	if m.phase == phaseRunning {
		return m.styles.hint.Render(fmt.Sprintf("Fetching page %d...", m.update.PageIndex+1))
	}

	if m.runErr != nil {
		return m.styles.error.Render(fmt.Sprintf("Analysis failed: %v (partial results kept)", m.runErr))
	}

	if m.result != nil && m.result.Status == models.StatusAbortedSafetyLimit {
		return m.styles.warning.Render("Analysis stopped at the page safety limit; results kept")
	}

	return m.styles.success.Render("Analysis complete")
}

func (m *model) helpLine() string {
	if m.phase == phaseRunning {
		return "s → stop | Ctrl+C/Esc → quit"
	}

	line := "e → export CSV | r → new run | q → quit"
	if m.canCopy && m.exportPath != "" {
		line = "e → export CSV | c → copy path | r → new run | q → quit"
	}

	return line
}
