package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dshills/keyweave/internal/config"
	"github.com/dshills/keyweave/internal/engine"
	"github.com/dshills/keyweave/internal/feature/macro"
	"github.com/dshills/keyweave/internal/hid"
	"github.com/dshills/keyweave/internal/logging"
	"github.com/dshills/keyweave/internal/plugin/lua"
	"github.com/dshills/keyweave/internal/replay"
)

type replayOptions struct {
	heartbeat time.Duration
	settle    time.Duration
	pace      bool
	statePath string
	macroPath string
	noScript  bool
	reports   bool
}

func newReplayCmd(opts *globalOptions) *cobra.Command {
	ro := &replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay <keyboard-file> <event-script>",
		Short: "Run an event script through a keyboard",
		Long: `Replay a script of key, encoder and dip switch events through the
engine and print every HID operation it produces.

Script lines look like:

  0    down 0,3
  120  up 0,3
  300  encoder 0 cw
  400  dip 1 on

Time is simulated unless --pace is given. The engine is ticked on a
fixed heartbeat and keeps ticking for --settle after the last event.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, opts, ro, args[0], args[1])
		},
	}

	cmd.Flags().DurationVar(&ro.heartbeat, "heartbeat", replay.DefaultHeartbeat, "Scan interval between engine ticks")
	cmd.Flags().DurationVar(&ro.settle, "settle", replay.DefaultSettle, "How long to keep ticking after the last event")
	cmd.Flags().BoolVar(&ro.pace, "pace", false, "Run in real time instead of simulated time")
	cmd.Flags().StringVar(&ro.statePath, "state", "", "File persisting the default layer")
	cmd.Flags().StringVar(&ro.macroPath, "macros", "", "File loading and saving dynamic macros")
	cmd.Flags().BoolVar(&ro.noScript, "no-script", false, "Do not load the keyboard's Lua script")
	cmd.Flags().BoolVar(&ro.reports, "reports", false, "Also print the NKRO report after every operation")
	return cmd
}

func runReplay(cmd *cobra.Command, opts *globalOptions, ro *replayOptions, kbPath, scriptPath string) error {
	kb, err := opts.loader().Load(kbPath)
	if err != nil {
		report(cmd.ErrOrStderr(), nil, err)
		return errInvalidKeyboard
	}
	script, err := replay.ParseFile(scriptPath)
	if err != nil {
		return err
	}

	runID := uuid.New()
	log := opts.log.WithFields(logrus.Fields{
		"run":      runID.String(),
		"keyboard": kb.Name,
	})

	var e *engine.Engine
	out := cmd.OutOrStdout()
	sinks := []hid.Sink{
		hid.NewLogSink(logging.WithComponent(log, "hid")),
		hid.SinkFunc(func(op hid.Op) {
			fmt.Fprintf(out, "%6d  %s\n", e.Now().Milliseconds(), op)
		}),
	}
	if ro.reports {
		sinks = append(sinks, hid.NewReportSink(func(r hid.Report) {
			fmt.Fprintf(out, "%6d  report %x\n", e.Now().Milliseconds(), r.Bytes())
		}))
	}
	sink := hid.Multi(sinks...)

	eopts := []engine.Option{engine.WithLogger(log)}
	if ro.statePath != "" {
		eopts = append(eopts, engine.WithDefaultStore(config.NewFileStore(ro.statePath, kb.Name)))
	}
	var recorder *macro.Recorder
	if ro.macroPath != "" {
		recorder = macro.NewRecorder(kb.Engine.Features.MacroSlots, kb.Engine.Features.MacroSize)
		if err := macro.Load(recorder, ro.macroPath); err != nil {
			return err
		}
		eopts = append(eopts, engine.WithMacroRecorder(recorder))
	}

	e, err = engine.New(kb.Engine, sink, eopts...)
	if err != nil {
		return err
	}

	if kb.Script != "" && !ro.noScript {
		rt := lua.NewRuntime(e, lua.WithLogger(log))
		defer rt.Close()
		if err := rt.LoadFile(kb.Script); err != nil {
			return err
		}
		e.SetScripter(rt)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := replay.NewDriver(
		replay.WithHeartbeat(ro.heartbeat),
		replay.WithSettle(ro.settle),
		replay.WithPacing(ro.pace),
		replay.WithLogger(log),
	)
	res, err := driver.Run(ctx, e, script)
	if err != nil {
		return err
	}

	if recorder != nil {
		if err := macro.Save(recorder, ro.macroPath); err != nil {
			return err
		}
	}

	ind := e.Indicators()
	log.WithFields(logrus.Fields{
		"steps":   res.Steps,
		"ticks":   res.Ticks,
		"end":     res.End,
		"highest": kb.Engine.Keymap.Name(ind.Highest),
	}).Info("replay complete")

	fmt.Fprintln(cmd.ErrOrStderr(), faintStyle.Render(fmt.Sprintf(
		"run %s: %d steps, %d ticks, ended at %s on layer %s",
		runID, res.Steps, res.Ticks, res.End, kb.Engine.Keymap.Name(ind.Highest))))
	return nil
}
