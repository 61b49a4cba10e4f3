package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/keyweave/internal/config"
	"github.com/dshills/keyweave/internal/config/watcher"
)

// errInvalidKeyboard is returned after the problems have been printed.
var errInvalidKeyboard = errors.New("keyboard file has errors")

func newCheckCmd(opts *globalOptions) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "check <keyboard-file>",
		Short: "Validate a keyboard file",
		Long: `Load and compile a keyboard file, reporting every problem found.

With --watch the file and everything it includes are checked again each
time one of them changes, until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			l := opts.loader()

			kb, err := l.Load(args[0])
			report(out, kb, err)
			if !watch {
				if err != nil {
					return errInvalidKeyboard
				}
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, err := l.Watch(args[0], func(kb *config.Keyboard, err error) {
				fmt.Fprintln(out)
				report(out, kb, err)
			}, watcher.WithLogger(opts.log))
			if err != nil {
				return err
			}
			defer w.Close()

			fmt.Fprintln(out, faintStyle.Render("Watching "+args[0]+" (ctrl-c to stop)"))
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Check again whenever the file changes")
	return cmd
}

// report prints a summary of kb, or the problems in err.
func report(w io.Writer, kb *config.Keyboard, err error) {
	if err != nil {
		var verrs config.ValidationErrors
		if !errors.As(err, &verrs) {
			fmt.Fprintln(w, errorStyle.Render("✗ "+err.Error()))
			return
		}
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("✗ %d problem(s)", len(verrs))))
		for _, v := range verrs {
			fmt.Fprintf(w, "  %s %v\n", warningStyle.Render(v.Field), v.Err)
		}
		return
	}

	cfg := kb.Engine
	title := kb.Name
	if title == "" {
		title = kb.Path
	}
	fmt.Fprintf(w, "%s %s %s\n",
		successStyle.Render("✓"),
		headerStyle.Render(title),
		faintStyle.Render("schema "+kb.Version.String()))

	names := make([]string, cfg.Keymap.Len())
	for i := range names {
		names[i] = cfg.Keymap.Name(i)
	}

	line := func(label, value string) {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(label), value)
	}
	line("matrix", fmt.Sprintf("%dx%d", cfg.Keymap.Rows, cfg.Keymap.Cols))
	line("layers", strconv.Itoa(len(names))+"  "+faintStyle.Render(strings.Join(names, ", ")))
	line("default", cfg.Keymap.Name(cfg.Default))
	line("combos", strconv.Itoa(len(cfg.Combos)))
	line("dances", strconv.Itoa(len(cfg.Dances)))
	line("leader", strconv.Itoa(len(cfg.Patterns)))
	line("customs", strconv.Itoa(len(cfg.Customs)))
	line("encoders", strconv.Itoa(len(cfg.Encoders)))
	if kb.Script != "" {
		line("script", kb.Script)
	}
}
