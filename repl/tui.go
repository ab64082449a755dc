package repl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/minipar-lang/miniparc/parser"
)

// TUI is the split-pane text interface for the REPL: a command input at
// the bottom, with Output/Variables/Arrays panels above it, adapted from
// the teacher's register/memory/stack debugger layout to watch MiniPar
// interpreter state instead of ARM CPU state.
type TUI struct {
	repl *Repl

	app   *tview.Application
	pages *tview.Pages

	outputView  *tview.TextView
	varsView    *tview.TextView
	arraysView  *tview.TextView
	commandLine *tview.InputField
}

// RunTUI starts the REPL in split-pane TUI mode.
func (r *Repl) RunTUI() error {
	t := &TUI{repl: r, app: tview.NewApplication()}
	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	t.refresh()
	return t.app.Run()
}

func (t *TUI) initializeViews() {
	t.outputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.outputView.SetBorder(true).SetTitle(" Output ")

	t.varsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.varsView.SetBorder(true).SetTitle(" Variables ")

	t.arraysView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.arraysView.SetBorder(true).SetTitle(" Arrays ")

	t.commandLine = tview.NewInputField().SetLabel("minipar> ").SetFieldWidth(0)
	t.commandLine.SetBorder(true).SetTitle(" Command (Enter to run, Ctrl+C to quit) ")
	t.commandLine.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	rightPanel := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.varsView, 0, 1, false).
		AddItem(t.arraysView, 0, 1, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.outputView, 0, 2, false).
		AddItem(rightPanel, 0, 1, false)

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.commandLine, 3, 0, true)

	t.pages = tview.NewPages().AddPage("main", layout, true, true)
	t.app.SetRoot(t.pages, true).SetFocus(t.commandLine)
}

func (t *TUI) setupKeyBindings() {
	t.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			t.app.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.outputView.Clear()
			t.refresh()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	line := strings.TrimSpace(t.commandLine.GetText())
	t.commandLine.SetText("")
	if line == "" {
		return
	}
	if line == ":exit" || line == ":quit" {
		t.app.Stop()
		return
	}

	t.executeLine(line)
	t.refresh()
}

// executeLine runs one statement against the REPL's session and writes
// anything it produced to the output view. It wraps and parses the line
// the way RunLine does, but skips RunLine's semantic-analysis step and
// runs the parsed program directly.
func (t *TUI) executeLine(line string) {
	wrapped := "PROGRAMA\n" + line + "\nFIM_PROGRAMA"
	prog, errs := parser.Parse(wrapped)
	if errs.HasErrors() {
		for _, e := range errs.Strings() {
			fmt.Fprintf(t.outputView, "[red]%s[white]\n", e)
		}
		return
	}

	before := t.repl.session.Output()
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				fmt.Fprintf(t.outputView, "[red]runtime error: %v[white]\n", rec)
			}
		}()
		t.repl.session.Run(prog)
	}()
	after := t.repl.session.Output()

	newOutput := strings.TrimPrefix(after, before)
	newOutput = strings.TrimPrefix(newOutput, "\n")
	if newOutput != "" {
		fmt.Fprintf(t.outputView, "[yellow]%s[white]\n", newOutput)
	}
}

func (t *TUI) refresh() {
	t.updateVarsView()
	t.updateArraysView()
	t.app.Draw()
}

func (t *TUI) updateVarsView() {
	t.varsView.Clear()
	vars := t.repl.session.Vars()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(t.varsView, "%s = %s\n", name, vars[name].String())
	}
}

func (t *TUI) updateArraysView() {
	t.arraysView.Clear()
	names := t.repl.session.ArrayNames()
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(t.arraysView, name)
	}
}
