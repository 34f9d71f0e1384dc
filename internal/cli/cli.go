// Package cli implements lumen's command-line driver: REPL vs single-file
// execution, exit-code contract, and the --trace/--disassemble/--config
// flags layered on top of a mainer.Cmd dispatch.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/caarlos0/env/v6"
	"github.com/mna/mainer"
	"gopkg.in/yaml.v3"

	langdebug "github.com/mna/lumen/lang/debug"
	"github.com/mna/lumen/lang/vm"
)

const binName = "lumen"

// sysexits.h-style exit codes lumen's CLI contract pins exactly.
const (
	exitUsage    mainer.ExitCode = 64
	exitDataErr  mainer.ExitCode = 65
	exitSoftware mainer.ExitCode = 70
	exitIOErr    mainer.ExitCode = 74
)

const maxReplLine = 1023

var (
	shortUsage = fmt.Sprintf("Usage: %s [path]\n", binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

Compiles and runs %[1]s scripts. With no <path>, starts an interactive
REPL reading lines from standard input; with one <path>, compiles and
runs that file.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --trace                   Print the stack and each instruction
                                 before it executes.
       --disassemble             Print the compiled bytecode instead of
                                 running it.
       --dump-globals            After running, print every global
                                 variable name still defined.
       --config <path>           Load runtime configuration from a YAML
                                 file before LUMEN_* environment
                                 variables and flags override it.

More information on the %[1]s programming language:
       https://github.com/mna/lumen
`, binName)
)

// RuntimeConfig holds settings overridable by LUMEN_* environment
// variables via github.com/caarlos0/env/v6, seeded from an optional
// --config YAML file before those overrides apply.
type RuntimeConfig struct {
	MaxCallDepth int  `yaml:"max_call_depth" env:"MAX_CALL_DEPTH" envDefault:"64"`
	GCStress     bool `yaml:"gc_stress" env:"GC_STRESS"`
	Trace        bool `yaml:"trace" env:"TRACE"`
}

func loadConfig(path string) (RuntimeConfig, error) {
	cfg := RuntimeConfig{}
	if path != "" {
		f, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("could not open config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(f, &cfg); err != nil {
			return cfg, fmt.Errorf("invalid config %q: %w", path, err)
		}
	}
	if err := env.Parse(&cfg, env.Options{Prefix: "LUMEN_"}); err != nil {
		return cfg, fmt.Errorf("invalid environment configuration: %w", err)
	}
	return cfg, nil
}

// Cmd is lumen's top-level command: struct-tagged flags parsed by
// mainer.Parser, a Validate/Main pair dispatched from cmd/lumen/main.go.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help        bool   `flag:"h,help"`
	Version     bool   `flag:"v,version"`
	Trace       bool   `flag:"trace"`
	Disassemble bool   `flag:"disassemble"`
	DumpGlobals bool   `flag:"dump-globals"`
	ConfigPath  string `flag:"config"`

	args []string
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) {}

// Validate enforces the positional-argument contract: zero args means
// REPL, one means a script path, more than one is a usage error.
func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return errors.New("at most one script path may be given")
	}
	return nil
}

// Main parses flags, loads RuntimeConfig, and dispatches to the REPL or
// file runner, returning the process exit code.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return exitUsage
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	if len(c.args) > 1 {
		fmt.Fprint(stdio.Stderr, shortUsage)
		return exitUsage
	}

	cfg, err := loadConfig(c.ConfigPath)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return exitIOErr
	}
	if cfg.GCStress {
		// mirrors clox's DEBUG_STRESS_GC: force a collection on nearly every
		// allocation, to surface bugs a lazy collector would hide.
		debug.SetGCPercent(1)
	}

	m := vm.NewWithMaxFrames(stdio.Stdin, stdio.Stdout, stdio.Stderr, cfg.MaxCallDepth)
	defer m.Close()
	if c.Trace || cfg.Trace {
		m.SetTrace(stdio.Stderr)
	}

	var code mainer.ExitCode
	if len(c.args) == 0 {
		runREPL(m, stdio)
		code = mainer.Success
	} else {
		code = runFile(m, c.args[0], c.Disassemble, stdio)
	}

	if c.DumpGlobals {
		for _, name := range m.GlobalNames() {
			fmt.Fprintln(stdio.Stdout, name)
		}
	}
	return code
}

// runFile reads path and either disassembles or interprets it, mapping
// the outcome to the CLI's exit codes.
func runFile(m *vm.VM, path string, disassemble bool, stdio mainer.Stdio) mainer.ExitCode {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "Could not open file %q.\n", path)
		return exitIOErr
	}

	if disassemble {
		fn, cerr := m.CompileOnly(source)
		if cerr != nil {
			fmt.Fprintln(stdio.Stderr, cerr)
			return exitDataErr
		}
		langdebug.DisassembleChunk(stdio.Stdout, &fn.Chunk, "script")
		return mainer.Success
	}

	switch m.Interpret(source) {
	case vm.OK:
		return mainer.Success
	case vm.CompileError:
		return exitDataErr
	default:
		return exitSoftware
	}
}

// runREPL reads lines (capped at 1023 characters, matching clox's fixed
// input buffer) and interprets each independently against m, so `var`
// and `fun` declarations from earlier lines remain visible to later ones.
func runREPL(m *vm.VM, stdio mainer.Stdio) {
	r := bufio.NewReader(stdio.Stdin)
	fmt.Fprint(stdio.Stdout, "> ")
	for {
		line, err := r.ReadString('\n')
		if line == "" && err != nil {
			return
		}
		if n := len(line); n > 0 && line[n-1] == '\n' {
			line = line[:n-1]
		}
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		if len(line) > maxReplLine {
			line = line[:maxReplLine]
		}
		m.Interpret([]byte(line))
		fmt.Fprint(stdio.Stdout, "> ")
	}
}
