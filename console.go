package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jroimartin/gocui"

	"vmrepl/console"
	"vmrepl/interrupts"
	"vmrepl/logger"
	"vmrepl/system"
	"vmrepl/teletype"
)

/*
gui front end:
	- terminal view on top: the console session, rendered through a VT100
	  screen model
	- status view below: host messages (session started / ended)
	- Ctrl-Q quits, Ctrl-R restarts the session
*/

const (
	terminalView = "terminal"
	statusView   = "status"
	statusHeight = 4
)

// runGui runs the console inside a gocui window.
func runGui(ctx context.Context, newEngine system.EngineFactory, opts system.Options, log *slog.Logger) error {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return err
	}
	defer g.Close()

	g.Cursor = true
	g.SetManagerFunc(layout)

	if err := g.SetKeybinding("", gocui.KeyCtrlQ, gocui.ModNone, quit); err != nil {
		return err
	}

	hostErr := make(chan error, 1)
	var sys *system.System

	// views exist once the first layout ran, which happens before updates
	g.Update(func(g *gocui.Gui) error {
		out, err := console.NewGui(g, terminalView, console.DefaultScrollback)
		if err != nil {
			return err
		}
		status, err := console.New(g, statusView)
		if err != nil {
			return err
		}
		sys = system.New(out, status, newEngine, opts, logger.Component(log, "system"))

		v, err := g.SetCurrentView(terminalView)
		if err != nil {
			return err
		}
		teletype.NewFull(sys).Attach(v)

		if err := g.SetKeybinding("", gocui.KeyCtrlR, gocui.ModNone, restart(sys)); err != nil {
			return err
		}

		go func() {
			err := sys.Run(ctx)
			status.Close()
			hostErr <- err
			g.Update(func(*gocui.Gui) error { return gocui.ErrQuit })
		}()
		sys.Post(interrupts.SysCreate)
		sys.Post(interrupts.SysActive)
		return nil
	})

	go func() {
		<-ctx.Done()
		g.Update(func(*gocui.Gui) error { return gocui.ErrQuit })
	}()

	if err := g.MainLoop(); err != nil && !errors.Is(err, gocui.ErrQuit) {
		return err
	}
	if sys == nil {
		return nil
	}
	// the window is gone: stop the host if it is still running
	sys.Stop()
	return <-hostErr
}

// gocui layout
func layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	// up -> terminal
	if v, err := g.SetView(terminalView, 0, 0, maxX-1, maxY-statusHeight-2); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Console"
	}
	// down -> status
	if v, err := g.SetView(statusView, 0, maxY-statusHeight-1, maxX-1, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Status"
		v.Autoscroll = true
	}
	return nil
}

// restart ends the running session and starts a fresh one.
func restart(sys *system.System) func(*gocui.Gui, *gocui.View) error {
	return func(g *gocui.Gui, v *gocui.View) error {
		sys.Post(interrupts.SysInactive)
		sys.Post(interrupts.SysActive)
		return nil
	}
}

func quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}
