// Command miniparc is the MiniPar compiler/interpreter driver: it lexes,
// parses, type-checks, lowers to three-address code, generates ARMv7
// assembly, and/or interprets a MiniPar source file depending on which
// mode flags are given.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"github.com/minipar-lang/miniparc/compiler"
	"github.com/minipar-lang/miniparc/config"
	"github.com/minipar-lang/miniparc/repl"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.BoolP("help", "h", false, "Show help information")
		showTokens  = flag.Bool("tokens", false, "Print the token stream and exit")
		showAST     = flag.Bool("ast", false, "Print the parsed AST and exit")
		showTAC     = flag.Bool("tac", false, "Print the three-address code listing and exit")
		showAsm     = flag.Bool("asm", false, "Print generated ARMv7 assembly and exit")
		runProgram  = flag.Bool("run", false, "Interpret the program and print its output")
		replMode    = flag.Bool("repl", false, "Start the interactive REPL")
		tuiMode     = flag.Bool("tui", false, "Start the REPL in split-pane TUI mode (used with --repl)")
		inputFile   = flag.StringP("input", "i", "", "File supplying newline-separated LEIA answers (used with --run)")
		noColor     = flag.Bool("no-color", false, "Disable colored diagnostics")
	)
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}

	if *showVersion {
		fmt.Printf("miniparc %s (%s)\n", Version, Commit)
		return
	}
	if *showHelp {
		printHelp()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		color.Red("failed to load configuration: %v", err)
		os.Exit(1)
	}

	if *replMode {
		if err := repl.Run(cfg, *tuiMode); err != nil {
			color.Red("repl error: %v", err)
			os.Exit(1)
		}
		return
	}

	args := flag.Args()
	if len(args) != 1 {
		printHelp()
		os.Exit(1)
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		color.Red("failed to read %s: %v", args[0], err)
		os.Exit(1)
	}

	runCompiler(string(source), cfg, *showTokens, *showAST, *showTAC, *showAsm, *runProgram, *inputFile)
}

func runCompiler(source string, cfg *config.Config, showTokens, showAST, showTAC, showAsm, runProgram bool, inputFile string) {
	result := compiler.Compile(source, cfg)

	if showTokens {
		for _, tok := range result.Tokens {
			fmt.Println(tok.String())
		}
	}
	if showAST && result.AST != nil {
		fmt.Print(result.AST.String())
	}
	if showTAC && result.TAC != nil {
		fmt.Print(result.TAC.Listing())
	}
	if showAsm && result.Assembly != "" {
		fmt.Print(result.Assembly)
	}

	if !result.OK() {
		for _, d := range result.Diagnostics {
			color.Red("%s", d)
		}
		os.Exit(1)
	}

	if runProgram {
		input := ""
		if inputFile != "" {
			data, err := os.ReadFile(inputFile)
			if err != nil {
				color.Red("failed to read input file %s: %v", inputFile, err)
				os.Exit(1)
			}
			input = string(data)
		}
		execResult := compiler.Execute(source, input, cfg)
		if !execResult.OK() {
			for _, d := range execResult.Diagnostics {
				color.Red("%s", d)
			}
			os.Exit(1)
		}
		fmt.Println(execResult.Output)
	}
}

func printHelp() {
	fmt.Printf(`miniparc %s

Usage: miniparc [options] <source-file>
       miniparc --repl [--tui]

Options:
  --help, -h      Show this help message
  --version       Show version information
  --tokens        Print the token stream and exit
  --ast           Print the parsed AST and exit
  --tac           Print the three-address code listing and exit
  --asm           Print generated ARMv7 assembly and exit
  --run           Interpret the program and print its output
  --input, -i F   File supplying newline-separated LEIA answers (used with --run)
  --repl          Start the interactive REPL
  --tui           Start the REPL in split-pane TUI mode (used with --repl)
  --no-color      Disable colored diagnostics
`, Version)
}
