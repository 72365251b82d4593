package ui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nconklindev/sheetsync/internal/config"
	"github.com/nconklindev/sheetsync/internal/types"

	tea "github.com/charmbracelet/bubbletea"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func preview() *types.FileData {
	return &types.FileData{Sheets: []types.SheetSummary{
		{Name: "销售明细", Columns: []string{"日期", "销量", "售价", "金额"}, Formulas: []string{"金额"}, Rows: 3},
		{Name: "汇总", Columns: []string{"月份", "总额"}, Formulas: []string{"总额"}, Rows: 1},
	}}
}

func TestReviewWorkbook(t *testing.T) {
	m := InitialModel(config.Default())
	m.selectedFile = filepath.Join("render", "店铺-模板.xlsx")

	m = update(t, m, fileLoadedMsg{data: preview()})
	if m.state != stateReview {
		t.Fatalf("state = %v; want review", m.state)
	}
	if want := filepath.Join("render", "店铺.json"); m.outputFile != want {
		t.Errorf("outputFile = %q; want %q", m.outputFile, want)
	}
	if !m.backup || m.strict {
		t.Errorf("toggles should start from the config: backup=%v strict=%v", m.backup, m.strict)
	}

	m = update(t, m, key("b"))
	m = update(t, m, key("s"))
	if m.backup || !m.strict {
		t.Errorf("toggles not applied: backup=%v strict=%v", m.backup, m.strict)
	}
	if !m.options().Strict {
		t.Error("strict toggle must reach the conversion options")
	}

	m = update(t, m, key("down"))
	view := m.View()
	for _, want := range []string{"XLSX → JSON", "汇总", "Formulas: 总额", "Strict formulas:       [x]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}

	m = update(t, m, key("esc"))
	if m.state != stateFilePicker || m.fileData != nil {
		t.Errorf("esc should return to the file picker")
	}
}

func TestReviewDatasetIgnoresWorkbookToggles(t *testing.T) {
	m := InitialModel(config.Default())
	m.selectedFile = "店铺.json"
	m = update(t, m, fileLoadedMsg{data: preview()})

	if m.outputFile != "店铺-模板.xlsx" {
		t.Errorf("outputFile = %q", m.outputFile)
	}
	m = update(t, m, key("s"))
	if m.strict {
		t.Error("strict only applies when reading a workbook")
	}
	if strings.Contains(m.View(), "Strict formulas") {
		t.Error("dataset review must not offer workbook toggles")
	}
}

func TestLoadErrors(t *testing.T) {
	m := InitialModel(config.Default())
	m.selectedFile = "data.xlsx"
	m = update(t, m, fileLoadedMsg{err: errors.New("boom")})
	if m.state != stateError || !strings.Contains(m.View(), "boom") {
		t.Errorf("expected the error screen, got state %v", m.state)
	}
}

func TestCompleteView(t *testing.T) {
	m := InitialModel(config.Default())
	m.selectedFile = "店铺.json"
	m.state = stateProcessing
	m = update(t, m, conversionCompleteMsg{result: &types.ConversionResult{
		InputFile:      "店铺.json",
		OutputFile:     "店铺-模板.xlsx",
		Sheets:         []string{"销售明细", "汇总"},
		FormulaColumns: 2,
		RowsProcessed:  4,
		Warnings:       []string{"sheet \"汇总\" row 2: value for unknown column \"x\" dropped"},
	}})
	if m.state != stateComplete {
		t.Fatalf("state = %v; want complete", m.state)
	}
	view := m.View()
	for _, want := range []string{"Formula columns: 2", "Rows processed: 4", "1 warning(s)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestWaitForProgress(t *testing.T) {
	progressChan := make(chan float64, 1)
	resultChan := make(chan conversionResultMsg, 1)

	progressChan <- 0.5
	if msg := waitForProgress(progressChan, resultChan)(); msg != progressMsg(0.5) {
		t.Errorf("msg = %#v; want progress 0.5", msg)
	}

	resultChan <- conversionResultMsg{result: &types.ConversionResult{RowsProcessed: 1}}
	close(progressChan)
	close(resultChan)
	msg, ok := waitForProgress(progressChan, resultChan)().(conversionCompleteMsg)
	if !ok || msg.result.RowsProcessed != 1 {
		t.Errorf("msg = %#v; want the conversion result", msg)
	}
}
