package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/reusee/dscope"
	"github.com/reusee/hanalyzer/cmds"
	"github.com/reusee/hanalyzer/debugs"
	"github.com/reusee/hanalyzer/hconfigs"
	"github.com/reusee/hanalyzer/logs"
	"github.com/reusee/hanalyzer/modes"
	"github.com/reusee/hanalyzer/orchestrators"
	"golang.org/x/term"
)

var (
	tapFlag      = cmds.Switch("-tap")
	scriptFlag   = cmds.Var[string]("-script")
	headlessFlag = cmds.Switch("-headless")
)

func main() {
	cmds.Execute(os.Args[1:])
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	interactive := term.IsTerminal(int(os.Stdout.Fd())) &&
		!*headlessFlag && !*tapFlag && *scriptFlag == ""

	scope := dscope.New(
		new(Module),
		modes.ForProduction(),
	)
	if interactive {
		// the terminal belongs to the TUI
		logFile, err := logs.OpenFile("hanalyzer")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer logFile.Close()
		scope = scope.Fork(func() logs.Writer {
			return logFile
		})
	}

	scope.Call(func(
		logger logs.Logger,
		newOrchestrator orchestrators.NewOrchestrator,
		frameRate hconfigs.FrameRate,
		serverAddr hconfigs.ServerAddr,
		tap debugs.Tap,
		runScript debugs.RunScript,
	) {
		o := newOrchestrator(ctx)
		defer o.Close()
		if err := o.LoadState(); err != nil {
			logger.WarnContext(ctx, "load state", "error", err)
		}
		defer func() {
			if err := o.SaveState(); err != nil {
				logger.WarnContext(ctx, "save state", "error", err)
			}
		}()

		interval := time.Second / time.Duration(max(1, int(frameRate)))
		logger.InfoContext(ctx, "start",
			"server", serverAddr,
			"frame rate", int(frameRate),
		)

		switch {

		case *scriptFlag != "":
			src, err := os.ReadFile(*scriptFlag)
			if err != nil {
				logger.ErrorContext(ctx, "read script", "error", err)
				return
			}
			go drive(ctx, o, interval, nil)
			if _, err := runScript(ctx, *scriptFlag, src, globals(ctx, o)); err != nil {
				logger.ErrorContext(ctx, "script", "error", err)
			}

		case *tapFlag:
			go drive(ctx, o, interval, nil)
			tap(ctx, "hanalyzer", globals(ctx, o))

		case interactive:
			program := tea.NewProgram(
				newModel(o, interval),
				tea.WithAltScreen(),
				tea.WithContext(ctx),
			)
			if _, err := program.Run(); err != nil && ctx.Err() == nil {
				logger.ErrorContext(ctx, "tui", "error", err)
			}

		default:
			drive(ctx, o, interval, func(snapshot orchestrators.Snapshot) {
				logSnapshot(ctx, logger, snapshot)
			})

		}
	})
}
