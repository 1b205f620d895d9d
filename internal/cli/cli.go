// Package cli implements the passgen command line tool.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/atotto/clipboard"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sundayezeilo/passgen/composer"
	"github.com/sundayezeilo/passgen/internal/config"
)

// clipboardWriteAll is a package-level variable to allow mocking in tests.
var clipboardWriteAll = clipboard.WriteAll

const maxCount = 1000

// Options configures the root command.
type Options struct {
	Generator composer.Generator
	Password  config.PasswordConfig
	Logger    *slog.Logger
}

type flags struct {
	length  int
	digits  bool
	upper   bool
	lower   bool
	symbols bool
	count   int
	copy    bool
	json    bool
	verbose bool
}

// passwordJSON is the --json output for one password.
type passwordJSON struct {
	Password string         `json:"password"`
	Length   int            `json:"length"`
	Classes  []string       `json:"classes"`
	Counts   map[string]int `json:"counts"`
}

// NewRootCommand builds the passgen command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Generator == nil {
		opts.Generator = composer.New(nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Password.DefaultLength <= 0 {
		opts.Password.DefaultLength = 12
	}

	var f flags
	root := &cobra.Command{
		Use:   "passgen",
		Short: "Generate random passwords",
		Long: `Generate random passwords that contain at least one character from
every selected class.

With no class flags all four classes are used.`,
		Example: `  passgen
  passgen -l 20 -d -u -w
  passgen --length 32 --symbols --count 5 --json
  passgen -l 16 --copy`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts, f)
		},
	}

	fl := root.Flags()
	fl.IntVarP(&f.length, "length", "l", opts.Password.DefaultLength, "password length")
	fl.BoolVarP(&f.digits, "digits", "d", false, "include digits")
	fl.BoolVarP(&f.upper, "upper", "u", false, "include uppercase letters")
	fl.BoolVarP(&f.lower, "lower", "w", false, "include lowercase letters")
	fl.BoolVarP(&f.symbols, "symbols", "s", false, "include special symbols")
	fl.IntVarP(&f.count, "count", "c", 1, "number of passwords to generate")
	fl.BoolVar(&f.copy, "copy", false, "copy the last generated password to the clipboard")
	fl.BoolVar(&f.json, "json", false, "print JSON lines instead of text")
	root.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "log debug details to stderr")

	root.AddCommand(newClassesCommand())
	return root
}

func newClassesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "List character classes and their alphabets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tFLAG\tSIZE\tALPHABET")
			for _, c := range composer.AllClasses() {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", c, classFlag(c), len(c.Alphabet()), c.Alphabet())
			}
			return tw.Flush()
		},
	}
}

func classFlag(c composer.Class) string {
	switch c {
	case composer.Digit:
		return "-d, --digits"
	case composer.Upper:
		return "-u, --upper"
	case composer.Lower:
		return "-w, --lower"
	case composer.Symbol:
		return "-s, --symbols"
	default:
		return ""
	}
}

// selectedClasses returns the classes chosen by flags, or every class when
// none was chosen.
func (f flags) selectedClasses() []composer.Class {
	var out []composer.Class
	if f.digits {
		out = append(out, composer.Digit)
	}
	if f.upper {
		out = append(out, composer.Upper)
	}
	if f.lower {
		out = append(out, composer.Lower)
	}
	if f.symbols {
		out = append(out, composer.Symbol)
	}
	if len(out) == 0 {
		return composer.AllClasses()
	}
	return out
}

func runGenerate(cmd *cobra.Command, opts Options, f flags) error {
	logger := opts.Logger
	if f.verbose {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	if f.count < 1 || f.count > maxCount {
		return fmt.Errorf("count must be between 1 and %d", maxCount)
	}
	if opts.Password.MaxLength > 0 && f.length > opts.Password.MaxLength {
		return fmt.Errorf("length %d exceeds maximum %d", f.length, opts.Password.MaxLength)
	}

	req := composer.Request{Length: f.length, Classes: f.selectedClasses()}
	if _, err := composer.Validate(req); err != nil {
		return errors.New(describeInvalid(req, err))
	}

	logger.Debug("generating passwords",
		"length", req.Length,
		"classes", len(req.Classes),
		"count", f.count,
	)

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	var last string
	for i := range f.count {
		res, err := opts.Generator.Compose(req)
		if err != nil {
			return fmt.Errorf("generate password: %w", err)
		}
		last = res.Password

		if f.json {
			if err := enc.Encode(toJSON(res)); err != nil {
				return err
			}
			continue
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		writeText(out, res)
	}

	if f.copy {
		if err := clipboardWriteAll(last); err != nil {
			logger.Warn("could not copy password to clipboard", "error", err)
			return nil
		}
		if !f.json {
			fmt.Fprintln(cmd.ErrOrStderr(), "Password copied to clipboard!")
		}
	}
	return nil
}

// describeInvalid turns a rejected request into the message shown to users.
func describeInvalid(req composer.Request, err error) string {
	switch {
	case req.Length <= 0:
		return "Please enter a valid positive integer for password length"
	case len(req.Classes) == 0:
		return "Please select at least one option"
	case req.Length < len(req.Classes):
		return "Length is too short to include at least one of each selected type"
	default:
		return composer.Reason(err)
	}
}

func writeText(w io.Writer, res composer.Result) {
	fmt.Fprintln(w, "Generated Password:")
	fmt.Fprintln(w, res.Password)
	fmt.Fprintln(w)
	for _, c := range composer.AllClasses() {
		n, ok := res.Counts[c]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s - %d\n", c.Label(), n)
	}
}

func toJSON(res composer.Result) passwordJSON {
	out := passwordJSON{
		Password: res.Password,
		Length:   len(res.Password),
		Counts:   make(map[string]int, len(res.Counts)),
	}
	for _, c := range composer.AllClasses() {
		if n, ok := res.Counts[c]; ok {
			out.Classes = append(out.Classes, c.String())
			out.Counts[c.String()] = n
		}
	}
	return out
}

// Execute loads configuration from the environment (and a .env file when
// present) and runs the root command with args.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	_ = godotenv.Load()

	pw, err := config.LoadPassword()
	if err != nil {
		return err
	}

	root := NewRootCommand(Options{
		Generator: composer.New(composer.NewCryptoSource()),
		Password:  pw,
		Logger:    slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}
