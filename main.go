package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/glycerine/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazu/calcgraph/pkg/config"
	"github.com/chazu/calcgraph/pkg/console"
)

// Exit codes.
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitScript = 2 // the script ran but reported errors
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

func main() {
	cmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		code := ExitFailed
		var ee *ExitError
		if errors.As(err, &ee) {
			code = ee.Code
		}
		os.Exit(code)
	}
}

// cli holds the flags and state shared by all subcommands.
type cli struct {
	stdin      io.Reader
	stdout     io.Writer
	configPath string
	envFile    string
	worldPath  string

	cfg config.Config
	log *zap.Logger
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdin: stdin, stdout: stdout}

	root := &cobra.Command{
		Use:           "calcgraph",
		Short:         "Evaluate camera and entity expression graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", "", "YAML config file")
	pf.StringVar(&c.envFile, "env-file", ".env", "dotenv file with CALCGRAPH_* overrides")
	pf.StringVarP(&c.worldPath, "world", "w", "", "HCL world fixture (default: empty world)")

	root.AddCommand(c.runCmd(), c.consoleCmd(), c.describeCmd())
	return root
}

func (c *cli) setup() error {
	if err := config.LoadDotEnv(c.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	log, err := cfg.Log.NewLogger()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	c.cfg, c.log = cfg, log
	return nil
}

func (c *cli) newApp() (*App, error) {
	return NewApp(c.cfg, c.log, c.worldPath, c.stdout)
}

// runScript evaluates path and turns script errors into an ExitError.
func runScript(app *App, path string) error {
	res, err := app.RunScript(path)
	if err != nil {
		return err
	}
	if len(res.Errors) > 0 {
		msgs := make([]string, len(res.Errors))
		for i, e := range res.Errors {
			msgs[i] = e.Error()
		}
		return &ExitError{Code: ExitScript, Err: fmt.Errorf("%s: %s", path, strings.Join(msgs, "; "))}
	}
	return nil
}

func (c *cli) runCmd() *cobra.Command {
	var (
		frames  int
		queries []string
		metrics bool
	)
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run a calc script, then evaluate queries over a number of frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qs := make([]Query, 0, len(queries))
			for _, s := range queries {
				q, err := ParseQuery(s)
				if err != nil {
					return err
				}
				qs = append(qs, q)
			}
			app, err := c.newApp()
			if err != nil {
				return err
			}
			if err := runScript(app, args[0]); err != nil {
				return err
			}
			if err := app.Frames(frames, qs); err != nil {
				return err
			}
			if metrics {
				return app.MetricsSummary()
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVarP(&frames, "frames", "n", 1, "frames to simulate")
	f.StringArrayVarP(&queries, "query", "q", nil, "calc to evaluate each frame, as family:name (repeatable)")
	f.BoolVar(&metrics, "metrics", false, "print evaluation metrics at the end")
	return cmd
}

func (c *cli) describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <script>",
		Short: "Run a calc script and describe every named calc",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.newApp()
			if err != nil {
				return err
			}
			if err := runScript(app, args[0]); err != nil {
				return err
			}
			app.Describe()
			return nil
		},
	}
}

func (c *cli) consoleCmd() *cobra.Command {
	var script string
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Interactive calc console",
		Long: `Reads calc commands, one per line:

  <family> add <kind> <name> <args...>
  <family> remove|print|test|edit ...
  tick [seconds]    advance the world clock (default one frame)
  quit

Families are handle, vecAng, cam, fov and bool.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.newApp()
			if err != nil {
				return err
			}
			if script != "" {
				if err := runScript(app, script); err != nil {
					return err
				}
			}
			if f, ok := c.stdin.(*os.File); ok && f == os.Stdin {
				return interactive(app)
			}
			return repl(app, c.stdin)
		},
	}
	cmd.Flags().StringVarP(&script, "script", "s", "", "script to run before the first prompt")
	return cmd
}

// interactive runs the console with line editing and history.
func interactive(app *App) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt("calcs> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line.AppendHistory(input)
		if !execLine(app, input) {
			return nil
		}
	}
}

// repl runs the console over non-interactive input.
func repl(app *App, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if !execLine(app, sc.Text()) {
			return nil
		}
	}
	return sc.Err()
}

// execLine runs one console line and reports whether to keep going.
func execLine(app *App, input string) bool {
	fields := strings.Fields(input)
	if len(fields) > 0 {
		switch strings.ToLower(fields[0]) {
		case "quit", "exit":
			return false
		case "tick":
			dt := 0.0
			if len(fields) > 1 {
				v, err := strconv.ParseFloat(fields[1], 64)
				if err != nil {
					fmt.Fprintln(app.out, "Error: tick: bad duration", strconv.Quote(fields[1]))
					return true
				}
				dt = v
			}
			app.Tick(dt)
			fmt.Fprintf(app.out, "time=%f\n", app.world.CurTime())
			return true
		}
	}
	if err := app.Exec(input); err != nil {
		var ue *console.UsageError
		if errors.As(err, &ue) {
			fmt.Fprint(app.out, ue.Usage)
		} else {
			fmt.Fprintln(app.out, "Error:", err)
		}
	}
	return true
}
