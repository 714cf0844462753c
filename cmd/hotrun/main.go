package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/hmr-runtime/chunk"
	"github.com/wippyai/hmr-runtime/future"
	"github.com/wippyai/hmr-runtime/interop"
	"github.com/wippyai/hmr-runtime/runtime"
)

func main() {
	var (
		manifestFile = flag.String("manifest", "", "Path to module manifest JSON")
		entryName    = flag.String("entry", "", "Entry module id (overrides manifest)")
		updateFiles  = flag.String("update", "", "Update manifests to apply in order (comma-separated)")
		list         = flag.Bool("list", false, "List module records after the entry ran")
		verbose      = flag.Bool("v", false, "Verbose runtime logging")
		interactive  = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *manifestFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: hotrun -manifest <file.json> [-entry id] [-update a.json,b.json]")
		fmt.Fprintln(os.Stderr, "       hotrun -manifest <file.json> -list")
		fmt.Fprintln(os.Stderr, "       hotrun -manifest <file.json> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		runtime.SetLogger(logger)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*manifestFile, *entryName); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var updates []string
	if *updateFiles != "" {
		updates = strings.Split(*updateFiles, ",")
	}

	if err := run(*manifestFile, *entryName, updates, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(manifestFile, entryName string, updateFiles []string, list bool) error {
	rt, entry, err := loadManifest(manifestFile, entryName)
	if err != nil {
		return err
	}

	fmt.Printf("Manifest: %s\n", manifestFile)
	fmt.Printf("Entry: %s\n", entry)

	v, err := rt.RunEntry(entry)
	if err != nil {
		return fmt.Errorf("run entry: %w", err)
	}
	fmt.Printf("Exports: %s\n", formatExports(v))

	for _, file := range updateFiles {
		fmt.Printf("\nApplying update %s\n", file)
		if err := applyUpdateFile(rt, file); err != nil {
			return fmt.Errorf("apply %s: %w", file, err)
		}
		if m, ok := rt.Module(runtime.ID(entry)); ok {
			fmt.Printf("Entry exports now: %s\n", formatExports(m.Exports))
		}
	}

	if list {
		fmt.Printf("\nModule records:\n")
		for _, id := range rt.ModuleIDs() {
			m, _ := rt.Module(id)
			fmt.Printf("  %s\n", describeModule(m))
		}
	}

	return nil
}

// loadManifest builds a runtime from a manifest file: version gate, chunk
// install, source compilation through the demo factory language.
func loadManifest(manifestFile, entryName string) (*runtime.Runtime, runtime.ID, error) {
	data, err := os.ReadFile(manifestFile)
	if err != nil {
		return nil, "", fmt.Errorf("read manifest: %w", err)
	}

	var m chunk.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", fmt.Errorf("decode manifest: %w", err)
	}
	if err := chunk.CheckVersion(m.ABIVersion); err != nil {
		return nil, "", err
	}

	opts := runtime.DefaultOptions()
	opts.CompileFactory = compileFactory
	rt := runtime.New(opts)

	paths := make([]string, 0, len(m.Chunks))
	for path := range m.Chunks {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		var items []any
		for _, group := range m.Chunks[path] {
			factory, err := compileFactory(group.Source)
			if err != nil {
				return nil, "", fmt.Errorf("chunk %s: %w", path, err)
			}
			for _, id := range group.IDs {
				items = append(items, id)
			}
			items = append(items, factory)
		}
		if err := rt.InstallChunk(path, items); err != nil {
			return nil, "", err
		}
	}

	entry := runtime.ID(m.Entry)
	if entryName != "" {
		entry = runtime.ID(entryName)
	}
	if entry == "" {
		return nil, "", fmt.Errorf("manifest has no entry and -entry not given")
	}
	return rt, entry, nil
}

// applyUpdateFile applies an update manifest: same JSON shape as the boot
// manifest, with instructions classifying the change and chunk sources
// carrying the replacement code.
func applyUpdateFile(rt *runtime.Runtime, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read update: %w", err)
	}

	var m chunk.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decode update: %w", err)
	}
	if m.ABIVersion != "" {
		if err := chunk.CheckVersion(m.ABIVersion); err != nil {
			return err
		}
	}

	sources := make(map[runtime.ID]string)
	for _, groups := range m.Chunks {
		for _, group := range groups {
			for _, id := range group.IDs {
				sources[runtime.ID(id)] = group.Source
			}
		}
	}

	return rt.ApplyUpdate(runtime.Update{
		Instructions: m.Instructions,
		Sources:      sources,
	})
}

// compileFactory compiles the demo factory language: one command per line
// (or semicolon-separated), executed in order when the module instantiates.
//
//	value <literal>       replace exports with a literal
//	set <key> <literal>   set an export property
//	ns <k>=<v>,...        declare sealed namespace exports
//	require <id>          import a dependency value-style
//	reexport <id>         re-export everything from a dependency
//	accept                self-accept hot updates
//	decline               declare hot updates fatal
//	invalidate            queue self-invalidation
//	keep <key> <literal>  write a value into the dispose data bag
//	fail <message>        fail instantiation
func compileFactory(src string) (runtime.Factory, error) {
	type op struct {
		verb string
		args []string
	}

	var ops []op
	for _, line := range strings.FieldsFunc(src, func(r rune) bool { return r == '\n' || r == ';' }) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, " ", 3)
		verb := fields[0]
		args := fields[1:]

		switch verb {
		case "accept", "decline", "invalidate":
			if len(args) != 0 {
				return nil, fmt.Errorf("%s takes no arguments", verb)
			}
		case "value", "require", "reexport", "ns", "fail":
			if len(args) != 1 {
				return nil, fmt.Errorf("%s takes one argument", verb)
			}
		case "set", "keep":
			if len(args) != 2 {
				return nil, fmt.Errorf("%s takes two arguments", verb)
			}
		default:
			return nil, fmt.Errorf("unknown command %q", verb)
		}
		ops = append(ops, op{verb: verb, args: args})
	}

	return func(ctx *runtime.Context, m *runtime.Module, exports *interop.Object) error {
		for _, o := range ops {
			switch o.verb {
			case "value":
				ctx.SetExports(parseLiteral(o.args[0]))
			case "set":
				if err := exports.Set(o.args[0], parseLiteral(o.args[1])); err != nil {
					return err
				}
			case "ns":
				bindings := make(map[string]interop.Binding)
				for _, pair := range strings.Split(o.args[0], ",") {
					k, v, ok := strings.Cut(pair, "=")
					if !ok {
						return fmt.Errorf("bad binding %q", pair)
					}
					bindings[k] = interop.Binding{Value: parseLiteral(v)}
				}
				if err := ctx.DeclareNamespace(bindings); err != nil {
					return err
				}
			case "require":
				if _, err := ctx.Require(runtime.ID(o.args[0])); err != nil {
					return err
				}
			case "reexport":
				if err := ctx.DynamicReexport(exports, runtime.ID(o.args[0])); err != nil {
					return err
				}
			case "accept":
				ctx.Hot().Accept()
			case "decline":
				ctx.Hot().Decline()
			case "invalidate":
				ctx.Hot().Invalidate()
			case "keep":
				key, val := o.args[0], parseLiteral(o.args[1])
				ctx.Hot().Dispose(func(data map[string]any) { data[key] = val })
			case "fail":
				return fmt.Errorf("%s", o.args[0])
			}
		}
		return nil
	}, nil
}

func parseLiteral(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func formatExports(v any) string {
	switch x := v.(type) {
	case *interop.Object:
		var parts []string
		for _, k := range x.Keys() {
			val, _ := x.Get(k)
			parts = append(parts, fmt.Sprintf("%s=%v", k, val))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *future.ModuleExports:
		if !x.Settled() {
			return "<async, pending>"
		}
		val, err := x.Result()
		if err != nil {
			return fmt.Sprintf("<async, failed: %v>", err)
		}
		return formatExports(val)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func describeModule(m *runtime.Module) string {
	var flags []string
	if m.Loaded() {
		flags = append(flags, "loaded")
	}
	if m.Err != nil {
		flags = append(flags, "poisoned")
	}
	if m.Hot.Declined() {
		flags = append(flags, "declined")
	}
	if m.Hot.Invalidated() {
		flags = append(flags, "invalidated")
	}
	return fmt.Sprintf("%s [%s] exports=%s", m.ID, strings.Join(flags, " "), formatExports(m.Exports))
}
