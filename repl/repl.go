// Package repl implements MiniPar's interactive Read-Eval-Print Loop: a
// persistent interpreter session fed one statement at a time, with
// command history and colored feedback, and an optional split-pane TUI
// mode for watching interpreter state change live.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/minipar-lang/miniparc/config"
	"github.com/minipar-lang/miniparc/interp"
	"github.com/minipar-lang/miniparc/parser"
	"github.com/minipar-lang/miniparc/sema"
)

var (
	blueColor   = color.New(color.FgBlue)
	yellowColor = color.New(color.FgYellow)
	redColor    = color.New(color.FgRed)
	greenColor  = color.New(color.FgGreen)
	cyanColor   = color.New(color.FgCyan)
)

const (
	banner = `  __  __ _       _ ____
 |  \/  (_)_ __  (_)  _ \ __ _ _ __
 | |\/| | | '_ \ | | |_) / _' | '__|
 | |  | | | | | || |  __/ (_| | |
 |_|  |_|_|_| |_|/ |_|   \__,_|_|
               |__/`
	separator = "----------------------------------------"
)

// Repl is one interactive MiniPar session: a persistent interpreter plus
// the REPL-level bookkeeping (prompt, banner) around it.
type Repl struct {
	cfg     *config.Config
	session *interp.Interpreter
}

// New creates a REPL backed by a fresh interpreter session.
func New(cfg *config.Config) *Repl {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Repl{cfg: cfg, session: interp.New()}
}

// Run starts the REPL, either line-mode (readline-driven) or, if tui is
// true, in the split-pane TUI.
func Run(cfg *config.Config, tui bool) error {
	r := New(cfg)
	if tui {
		return r.RunTUI()
	}
	return r.RunLine(nil, nil)
}

// RunLine drives the classic line-at-a-time REPL loop over readline. Input
// always comes from the terminal through readline; the reader argument is
// ignored. A nil writer defaults to standard output.
func (r *Repl) RunLine(_ io.Reader, writer io.Writer) error {
	if writer == nil {
		writer = os.Stdout
	}
	r.printBanner(writer)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "minipar> ",
		HistoryFile:     historyFilePath(),
		HistoryLimit:    r.cfg.Runtime.HistorySize,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to start readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF (Ctrl+D) or readline.ErrInterrupt (Ctrl+C)
			fmt.Fprintln(writer, "Goodbye!")
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == ":exit" || line == ":quit" {
			fmt.Fprintln(writer, "Goodbye!")
			return nil
		}
		if r.handleMeta(writer, line) {
			continue
		}

		r.evalWithRecovery(writer, line)
	}
}

// historyFilePath returns where readline persists command history between
// sessions: ~/.config/miniparc/history on every OS, including Windows,
// where config.GetConfigPath uses %APPDATA% instead.
func historyFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "miniparc", "history")
}

func (r *Repl) printBanner(writer io.Writer) {
	blueColor.Fprintln(writer, separator)
	greenColor.Fprintln(writer, banner)
	blueColor.Fprintln(writer, separator)
	cyanColor.Fprintln(writer, "Type a MiniPar statement and press enter.")
	cyanColor.Fprintln(writer, "Commands: :vars  :arrays  :reset  :help  :exit")
	blueColor.Fprintln(writer, separator)
}

// handleMeta processes REPL-only commands (prefixed with ':'); it returns
// true if line was a meta command (handled, not passed to the interpreter).
func (r *Repl) handleMeta(writer io.Writer, line string) bool {
	switch line {
	case ":vars":
		r.printVars(writer)
		return true
	case ":arrays":
		r.printArrays(writer)
		return true
	case ":reset":
		r.session = interp.New()
		greenColor.Fprintln(writer, "session reset")
		return true
	case ":help":
		r.printBanner(writer)
		return true
	}
	return false
}

func (r *Repl) printVars(writer io.Writer) {
	vars := r.session.Vars()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		yellowColor.Fprintf(writer, "%s = %s\n", name, vars[name].String())
	}
}

func (r *Repl) printArrays(writer io.Writer) {
	names := r.session.ArrayNames()
	sort.Strings(names)
	for _, name := range names {
		yellowColor.Fprintln(writer, name)
	}
}

// evalWithRecovery parses line as one MiniPar statement (wrapped in a
// throwaway PROGRAMA/FIM_PROGRAMA header so the existing parser can run
// unmodified) and runs it against the session's persistent interpreter,
// printing only the output the statement itself produced.
func (r *Repl) evalWithRecovery(writer io.Writer, line string) {
	defer func() {
		if rec := recover(); rec != nil {
			redColor.Fprintf(writer, "runtime error: %v\n", rec)
		}
	}()

	wrapped := "PROGRAMA\n" + line + "\nFIM_PROGRAMA"
	prog, errs := parser.Parse(wrapped)
	if errs.HasErrors() {
		for _, e := range errs.Strings() {
			redColor.Fprintln(writer, e)
		}
		return
	}

	if semaErrs := sema.Analyze(prog); len(semaErrs) > 0 {
		for _, e := range semaErrs {
			redColor.Fprintln(writer, e)
		}
		return
	}

	before := r.session.Output()
	r.session.Run(prog)
	after := r.session.Output()

	newOutput := strings.TrimPrefix(after, before)
	newOutput = strings.TrimPrefix(newOutput, "\n")
	if newOutput != "" {
		yellowColor.Fprintln(writer, newOutput)
	}
}
