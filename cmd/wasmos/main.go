package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/r00ster91/wasmos"
	"github.com/r00ster91/wasmos/internal/config"
	"github.com/r00ster91/wasmos/internal/version"
	"github.com/r00ster91/wasmos/sys"
)

func main() {
	doMain(os.Stdout, os.Stderr, os.Exit)
}

// doMain is separated out for the purpose of unit testing.
func doMain(stdOut io.Writer, stdErr io.Writer, exit func(code int)) {
	flag.CommandLine.SetOutput(stdErr)

	var help bool
	flag.BoolVar(&help, "h", false, "print usage")

	flag.Parse()

	if help || flag.NArg() == 0 {
		printUsage(stdErr)
		exit(0)
	}

	subCmd := flag.Arg(0)
	switch subCmd {
	case "run":
		doRun(flag.Args()[1:], stdOut, stdErr, exit)
	case "inspect":
		doInspect(flag.Args()[1:], stdOut, stdErr, exit)
	case "version":
		fmt.Fprintln(stdOut, version.GetWasmosVersion())
		exit(0)
	default:
		fmt.Fprintln(stdErr, "invalid command")
		printUsage(stdErr)
		exit(1)
	}
}

func doRun(args []string, stdOut io.Writer, stdErr io.Writer, exit func(code int)) {
	flags := flag.NewFlagSet("run", flag.ContinueOnError)
	flags.SetOutput(stdErr)

	var help bool
	flags.BoolVar(&help, "h", false, "print usage")

	var configPath string
	flags.StringVar(&configPath, "config", "",
		"path to a "+config.FileName+" file. When unset, the nearest one in the current directory or a parent is used.")

	var tui string
	flags.StringVar(&tui, "tui", "",
		"whether to show output in the console UI: auto, always or never. Overrides console.tui of the config.")

	var logLevel string
	flags.StringVar(&logLevel, "loglevel", "",
		"level of logs written to stderr, such as debug to trace each instruction. Overrides log.level of the config.")

	if err := flags.Parse(args); err != nil {
		exit(1)
	}

	if help {
		printRunUsage(stdErr, flags)
		exit(0)
	}

	if flags.NArg() < 1 {
		fmt.Fprintln(stdErr, "missing path to wasm file")
		printRunUsage(stdErr, flags)
		exit(1)
	}
	wasmPath := flags.Arg(0)

	cfg := loadConfig(configPath, stdErr, exit)
	if tui != "" {
		cfg.Console.TUI = tui
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stdErr, "invalid flags: %v\n", err)
		exit(1)
	}

	logger, err := cfg.Log.Build()
	if err != nil {
		fmt.Fprintf(stdErr, "error building logger: %v\n", err)
		exit(1)
	}

	console := useConsole(cfg.Console.TUI, stdOut)

	rConfig := wasmos.NewRuntimeConfig().
		WithDescriptors(cfg.Runtime.Descriptors).
		WithOutputLimit(cfg.Runtime.MaxOutput).
		// Quitting the console cancels the run, so it must stop at the next branch.
		WithCloseOnContextDone(cfg.Runtime.CloseOnContextDone || console).
		WithLogger(logger)
	rt := wasmos.NewRuntimeWithConfig(rConfig)

	compiled := compile(rt, wasmPath, stdErr, exit)

	ctx := context.Background()
	var status sys.ExitStatus
	if console {
		status, err = runConsole(ctx, rt, compiled, wasmPath, cfg.Console.Refresh.Duration, stdOut)
	} else {
		status, err = rt.Run(ctx, compiled)
		_, _ = stdOut.Write(rt.FileTable().Bytes(1))
		_, _ = stdErr.Write(rt.FileTable().Bytes(2))
	}
	_ = logger.Sync()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(stdErr, "interrupted")
			exit(130)
		}
		fmt.Fprintf(stdErr, "error running wasm binary: %v\n", err)
		exit(1)
	}
	if status.Reason == sys.ExitProcExit {
		exit(int(status.Code))
	}
	exit(0)
}

func doInspect(args []string, stdOut io.Writer, stdErr io.Writer, exit func(code int)) {
	flags := flag.NewFlagSet("inspect", flag.ContinueOnError)
	flags.SetOutput(stdErr)

	var help bool
	flags.BoolVar(&help, "h", false, "print usage")

	if err := flags.Parse(args); err != nil {
		exit(1)
	}

	if help {
		printInspectUsage(stdErr, flags)
		exit(0)
	}

	if flags.NArg() < 1 {
		fmt.Fprintln(stdErr, "missing path to wasm file")
		printInspectUsage(stdErr, flags)
		exit(1)
	}
	wasmPath := flags.Arg(0)

	compiled := compile(wasmos.NewRuntime(), wasmPath, stdErr, exit)

	fmt.Fprintf(stdOut, "functions:\t%d\n", compiled.FunctionCount())
	fmt.Fprintf(stdOut, "globals:\t%d\n", compiled.GlobalCount())
	if pages, ok := compiled.MemoryPages(); ok {
		fmt.Fprintf(stdOut, "memory:\t\t%d page(s)\n", pages)
	} else {
		fmt.Fprintln(stdOut, "memory:\t\tnone")
	}
	fmt.Fprintf(stdOut, "data:\t\t%d segment(s)\n", compiled.DataSegmentCount())
	fmt.Fprintf(stdOut, "start:\t\t%t\n", compiled.HasStartFunction())
	printList(stdOut, "imports:", compiled.ImportedFunctions())
	printList(stdOut, "exports:", compiled.ExportedNames())

	if unknown := compiled.UnknownImports(); len(unknown) > 0 {
		printList(stdErr, "unknown imports:", unknown)
		exit(1)
	}
	exit(0)
}

func loadConfig(path string, stdErr io.Writer, exit func(code int)) *config.Config {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.FindAndLoad(".")
	}
	if err != nil {
		fmt.Fprintf(stdErr, "error loading config: %v\n", err)
		exit(1)
	}
	return cfg
}

func compile(rt wasmos.Runtime, wasmPath string, stdErr io.Writer, exit func(code int)) *wasmos.CompiledModule {
	wasm, err := os.ReadFile(wasmPath)
	if err != nil {
		fmt.Fprintf(stdErr, "error reading wasm binary: %v\n", err)
		exit(1)
	}

	compiled, err := rt.Compile(wasm)
	if err != nil {
		fmt.Fprintf(stdErr, "error compiling wasm binary: %v\n", err)
		exit(1)
	}
	return compiled
}

func printList(w io.Writer, title string, items []string) {
	fmt.Fprintln(w, title)
	for _, item := range items {
		fmt.Fprintf(w, "  %s\n", item)
	}
}

func printUsage(stdErr io.Writer) {
	fmt.Fprintln(stdErr, "wasmos CLI")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Usage:\n  wasmos <command>")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Commands:")
	fmt.Fprintln(stdErr, "  run\t\tRuns the _start function of a WebAssembly binary")
	fmt.Fprintln(stdErr, "  inspect\tDescribes a WebAssembly binary without running it")
	fmt.Fprintln(stdErr, "  version\tDisplays the version of wasmos CLI")
}

func printRunUsage(stdErr io.Writer, flags *flag.FlagSet) {
	fmt.Fprintln(stdErr, "wasmos CLI")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Usage:\n  wasmos run <options> <path to wasm file>")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Options:")
	flags.PrintDefaults()
}

func printInspectUsage(stdErr io.Writer, flags *flag.FlagSet) {
	fmt.Fprintln(stdErr, "wasmos CLI")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Usage:\n  wasmos inspect <path to wasm file>")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Options:")
	flags.PrintDefaults()
}
