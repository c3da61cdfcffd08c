package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/xplshn/polc/pkg/ast"
	"github.com/xplshn/polc/pkg/cli"
	"github.com/xplshn/polc/pkg/codegen"
	"github.com/xplshn/polc/pkg/compiler"
	"github.com/xplshn/polc/pkg/config"
	"github.com/xplshn/polc/pkg/lexer"
	"github.com/xplshn/polc/pkg/util"
)

func main() {
	diag := util.NewDiag("polc")
	app := newApp(diag, os.Stdout)
	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func newApp(diag *util.Diag, stdout io.Writer) *cli.App {
	app := cli.NewApp("polc")
	app.Synopsis = "[options] <input.pol> [output]"
	app.Description = "A compiler for a tiny prefix-notation language with functions and raw system calls. Emits NASM for x86-64, or any QBE target through libqbe."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/polc>"
	app.Stdout = stdout
	app.Stderr = diag.Out

	var (
		outFile    string
		target     string
		dumpAST    bool
		dumpTokens bool
		dumpIR     bool
		verbose    bool
	)

	cfg := config.NewConfig()
	envTarget := cfg.LoadEnv()

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "a.asm", "Place the output into <file>; '-' writes to stdout.", "file")
	fs.String(&target, "target", "t", envTarget, "Set the backend and, for qbe, the QBE target.", "backend[/target]")
	fs.Bool(&dumpAST, "dump-ast", "", false, "Print the parsed program and exit.")
	fs.Bool(&dumpTokens, "dump-tokens", "", false, "Print the token stream and exit.")
	fs.Bool(&dumpIR, "dump-ir", "d", false, "Print the QBE IR and exit (qbe backend only).")
	fs.Bool(&verbose, "verbose", "v", cfg.Verbose, "Report each compilation stage on stderr.")
	featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(args []string) error {
		if err := run(diag, stdout, cfg, featureFlags, args, options{
			outFile: outFile, target: target, verbose: verbose,
			dumpAST: dumpAST, dumpTokens: dumpTokens, dumpIR: dumpIR,
		}); err != nil {
			diag.Report(err)
			return err
		}
		return nil
	}
	return app
}

type options struct {
	outFile, target             string
	verbose                     bool
	dumpAST, dumpTokens, dumpIR bool
}

func run(diag *util.Diag, stdout io.Writer, cfg *config.Config, ff config.FeatureFlags, args []string, opts options) error {
	diag.Verbose = opts.verbose
	ff.Apply(cfg)

	switch len(args) {
	case 1:
	case 2:
		opts.outFile = args[1]
	case 0:
		return fmt.Errorf("no input file specified")
	default:
		return fmt.Errorf("expected one input file and at most one output file, got %d arguments", len(args))
	}
	inFile := args[0]

	if err := cfg.SetTarget(runtime.GOOS, runtime.GOARCH, opts.target); err != nil {
		return err
	}
	if cfg.BackendName == config.BackendQBE {
		diag.Info("using QBE target '%s'", cfg.QbeTarget)
	}

	source, err := os.ReadFile(inFile)
	if err != nil {
		return fmt.Errorf("could not read file '%s': %w", inFile, err)
	}

	if opts.dumpTokens {
		for ft := config.Feature(0); ft < config.FeatCount; ft++ {
			if cfg.IsFeatureEnabled(ft) {
				diag.Warn("-F%s has no effect with --dump-tokens", cfg.Features[ft].Name)
			}
		}
		tokens, err := lexer.Tokenize(string(source))
		if err != nil {
			return err
		}
		for _, tok := range tokens {
			fmt.Fprintln(stdout, tok)
		}
		return nil
	}

	diag.Info("tokenizing and parsing %s...", inFile)
	st, err := compiler.Front(string(source), cfg)
	if err != nil {
		return err
	}

	switch {
	case opts.dumpAST:
		return ast.Fprint(stdout, st.Program)
	case opts.dumpIR:
		if cfg.BackendName != config.BackendQBE {
			return fmt.Errorf("--dump-ir needs the qbe backend")
		}
		ir, err := codegen.GenerateIR(st.Program, cfg)
		if err != nil {
			return err
		}
		_, err = io.WriteString(stdout, ir)
		return err
	}

	diag.Info("generating code with '%s' backend...", cfg.BackendName)
	backend, err := codegen.SelectBackend(cfg.BackendName)
	if err != nil {
		return err
	}
	out, err := backend.Generate(st.Program, cfg)
	if err != nil {
		return err
	}

	if opts.outFile == "-" {
		_, err = out.WriteTo(stdout)
		return err
	}
	if err := os.WriteFile(opts.outFile, out.Bytes(), 0644); err != nil {
		return fmt.Errorf("could not write '%s': %w", opts.outFile, err)
	}
	diag.Info("wrote %s", opts.outFile)
	return nil
}
