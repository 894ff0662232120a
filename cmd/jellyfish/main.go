// Command jellyfish runs the Jellyfish compiler and VM: run a source file,
// print its print(...) outputs, and exit non-zero with rendered
// diagnostics on a compile failure or an error message on a runtime
// failure. Standard-library flag
// parsing, a --disassembly dump of the emitted chunk, a REPL when no file
// is given, a top-level panic recovery that prints a stack trace rather
// than letting an internal invariant violation crash silently, and a
// --renderer-plugin flag that swaps diagnostic rendering for an external
// JSON-RPC process.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"jellyfish/internal/ast"
	"jellyfish/internal/chunk"
	"jellyfish/internal/compiler"
	"jellyfish/internal/diagnostic"
	"jellyfish/internal/diagnosticrenderer"
	"jellyfish/internal/lexer"
	"jellyfish/internal/parser"
	"jellyfish/internal/resolver"
	"jellyfish/internal/sessionstore"
	"jellyfish/internal/source"
	"jellyfish/internal/vm"
)

const version = "v0.1.0"

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintln(os.Stderr, "jellyfish: internal error:", r)
			debug.PrintStack()
			os.Exit(2)
		}
	}()

	showDisasm := flag.Bool("disassembly", false, "print the emitted bytecode before running it")
	verbose := flag.Bool("verbose", false, "print pipeline stage timings to stderr")
	showVersion := flag.Bool("version", false, "print version information")
	showHelp := flag.Bool("help", false, "print this help message")
	rendererPlugin := flag.String("renderer-plugin", "", "path to an external diagnostic-renderer plugin executable")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: jellyfish [options] [file]\n\nOptions:\n")
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(os.Stderr, "  --%s\n\t%s\n", f.Name, f.Usage)
		})
	}
	flag.Parse()

	if *showHelp {
		flag.Usage()
		return
	}
	if *showVersion {
		fmt.Printf("jellyfish %s\n", version)
		return
	}

	store := openSessionStore()
	defer store.Close()

	renderer, closeRenderer := buildRenderer(*rendererPlugin)
	defer closeRenderer()

	args := flag.Args()
	if len(args) < 1 {
		runREPL(*showDisasm, *verbose, renderer)
		return
	}

	filename := args[0]
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jellyfish: %s\n", err)
		os.Exit(1)
	}

	ok := runFile(filename, string(content), *showDisasm, *verbose, store, renderer)
	if !ok {
		os.Exit(1)
	}
}

// buildRenderer constructs the diagnostic renderer to use for this run: the
// external plugin named by --renderer-plugin when set, falling back to the
// in-process ANSIRenderer (with a warning, not a hard failure) if the
// plugin can't be launched, matching openSessionStore's degrade-don't-block
// style. The returned closer terminates the plugin process, if any; it is a
// no-op for the ANSI renderer.
func buildRenderer(pluginPath string) (diagnosticrenderer.Renderer, func()) {
	if pluginPath == "" {
		return diagnosticrenderer.NewANSIRenderer(os.Stdout.Fd()), func() {}
	}
	plugin, err := diagnosticrenderer.StartPlugin(pluginPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jellyfish: renderer plugin disabled: %s\n", err)
		return diagnosticrenderer.NewANSIRenderer(os.Stdout.Fd()), func() {}
	}
	return plugin, func() {
		if err := plugin.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "jellyfish: renderer plugin: %s\n", err)
		}
	}
}

// openSessionStore opens the local sqlite run-history cache, and layers in
// a DynamoDB sink when JELLYFISH_DYNAMODB_TABLE is set. A store that fails
// to open degrades to a no-op rather than blocking a run: session history
// is ambient telemetry, not a language feature.
func openSessionStore() sessionstore.Store {
	var stores []sessionstore.Store

	if local, err := sessionstore.OpenSQLiteStore("jellyfish_runs.db"); err == nil {
		stores = append(stores, local)
	} else {
		fmt.Fprintf(os.Stderr, "jellyfish: session history disabled: %s\n", err)
	}

	if table := os.Getenv("JELLYFISH_DYNAMODB_TABLE"); table != "" {
		region := os.Getenv("AWS_REGION")
		if region == "" {
			region = "us-east-1"
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if remote, err := sessionstore.OpenDynamoDBStore(ctx, region, table); err == nil {
			if err := remote.EnsureTableExists(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "jellyfish: dynamodb table setup failed: %s\n", err)
			} else {
				stores = append(stores, remote)
			}
		} else {
			fmt.Fprintf(os.Stderr, "jellyfish: dynamodb session history disabled: %s\n", err)
		}
	}

	return sessionstore.MultiStore{Stores: stores}
}

// runFile drives the full pipeline against one source file and reports the
// outcome. It returns false when the run should exit non-zero (any
// reported diagnostic or runtime error).
func runFile(filename, content string, showDisasm, verbose bool, store sessionstore.Store, renderer diagnosticrenderer.Renderer) bool {
	started := time.Now()

	src := source.New(filename, content)

	stage := func(name string, fn func()) {
		t0 := time.Now()
		fn()
		if verbose {
			fmt.Fprintf(os.Stderr, "jellyfish: %-10s %s\n", name, time.Since(t0))
		}
	}

	coll := &diagnostic.Collector{}
	var mod *ast.Module
	stage("lex+parse", func() {
		cursor := lexer.NewCursor(lexer.New(src))
		mod = parser.New(cursor, coll).ParseModule()
	})

	var outBuf strings.Builder
	var runErr error
	ok := !coll.HasErrors()

	if ok {
		stage("resolve", func() {
			resolver.New(coll).Resolve(mod)
		})
		ok = !coll.HasErrors()
	}

	if ok {
		var emitted *chunk.Chunk
		stage("emit", func() {
			emitted = compiler.New().Compile(mod)
		})
		if showDisasm {
			fmt.Fprint(os.Stdout, emitted.Disassemble(filename))
		}
		stage("run", func() {
			// Stream print(...) output as it happens, so it precedes any
			// runtime error; the buffer copy feeds the session store.
			machine := vm.New(io.MultiWriter(os.Stdout, &outBuf))
			runErr = machine.Run(emitted)
		})
	}

	if coll.HasErrors() {
		fmt.Print(renderer.Render(coll.Diagnostics(), src))
		ok = false
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "jellyfish: %s\n", runErr)
		ok = false
	}

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	} else if coll.HasErrors() {
		errMsg = fmt.Sprintf("%d compile diagnostic(s)", len(coll.Diagnostics()))
	}
	run := sessionstore.NewRun(filename, started, time.Since(started), outBuf.String(), errMsg)
	if err := store.RecordRun(context.Background(), run); err != nil && verbose {
		fmt.Fprintf(os.Stderr, "jellyfish: session history: %s\n", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "jellyfish: %s\n", run.Summary())
	}
	return ok
}

// runREPL reads statements from stdin, keeping one Resolver and one VM
// alive across lines so a variable declared on one line is visible (and
// keeps its stack slot) on the next.
func runREPL(showDisasm, verbose bool, renderer diagnosticrenderer.Renderer) {
	fmt.Printf("jellyfish %s\n", version)
	fmt.Println("Type 'exit' to quit.")

	res := resolver.New(&diagnostic.Collector{})
	machine := vm.New(os.Stdout)

	scanner := bufio.NewScanner(os.Stdin)
	var buffer string

	for {
		if buffer == "" {
			fmt.Print(">>> ")
		} else {
			fmt.Print("... ")
		}

		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "exit" {
			break
		}
		if strings.TrimSpace(line) == "" && buffer == "" {
			continue
		}

		if buffer == "" {
			buffer = line
		} else {
			buffer += "\n" + line
		}

		coll := &diagnostic.Collector{}
		src := source.New("<repl>", buffer)
		cursor := lexer.NewCursor(lexer.New(src))
		mod := parser.New(cursor, coll).ParseModule()

		if coll.HasErrors() && incompleteInput(coll) {
			continue // wait for the closing brace/paren on the next line
		}

		buffer = ""

		if coll.HasErrors() {
			fmt.Print(renderer.Render(coll.Diagnostics(), src))
			continue
		}

		res.Reset(coll)
		res.Resolve(mod)
		if coll.HasErrors() {
			fmt.Print(renderer.Render(coll.Diagnostics(), src))
			continue
		}

		c := compiler.New().Compile(mod)
		if showDisasm {
			fmt.Print(c.Disassemble("<repl>"))
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "jellyfish: chunk is %d bytes\n", len(c.Code))
		}
		if err := machine.Run(c); err != nil {
			fmt.Fprintf(os.Stderr, "jellyfish: %s\n", err)
		}
	}
}

// incompleteInput reports whether every diagnostic collected so far looks
// like it was caused by hitting end-of-input mid-construct (an unclosed
// block or grouping), in which case the REPL should keep reading lines
// instead of reporting an error.
func incompleteInput(coll *diagnostic.Collector) bool {
	for _, d := range coll.Diagnostics() {
		found := strings.Contains(d.Title, "end of input")
		for _, l := range d.Labels {
			if strings.Contains(l.Message, "end of input") {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return len(coll.Diagnostics()) > 0
}
