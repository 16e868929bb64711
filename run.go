package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"SLClient/commands"
	"SLClient/internal/client"
	"SLClient/internal/config"
	"SLClient/internal/mapping"
	"SLClient/internal/mapstore"
	"SLClient/internal/script"
	"SLClient/internal/transport"
	"SLClient/internal/ui"
)

func (a *app) metrics() mapping.Metrics {
	return mapping.Metrics{CellSize: a.cfg.Map.CellSize, CellSpacing: a.cfg.Map.CellSpacing}
}

func (a *app) catalog() (*mapstore.Catalog, error) {
	return mapstore.NewCatalog(a.cfg.Maps.Dir)
}

// watchMaps starts watching the maps directory. A failure does not stop the
// client; it comes back as a notice for the output pane.
func (a *app) watchMaps(catalog *mapstore.Catalog, onChange func([]mapstore.Entry)) (*mapstore.Watcher, []string) {
	watcher, err := mapstore.NewWatcher(catalog, onChange, a.logger)
	if err != nil {
		a.logger.Warn("maps directory will not be watched", zap.Error(err))
		return nil, []string{"Maps directory unavailable: " + err.Error() + "."}
	}
	return watcher, nil
}

// runClient starts the interactive client. The map controller, the session
// loop, the maps directory watcher and the terminal program run side by
// side; the first to fail or the program exiting stops the rest.
func (a *app) runClient(cmd *cobra.Command, args []string) error {
	host, port := a.cfg.Connection.Host, a.cfg.Connection.Port
	if len(args) > 0 {
		host = args[0]
	}
	if len(args) > 1 {
		p, err := config.ParsePort(args[1])
		if err != nil {
			return err
		}
		port = p
	}

	catalog, err := a.catalog()
	if err != nil {
		return err
	}
	tr, err := transport.New(transport.Options{
		Kind:               a.cfg.Connection.Transport,
		URL:                a.cfg.Connection.URL,
		Charset:            a.cfg.Connection.Charset,
		InsecureSkipVerify: a.cfg.Connection.Insecure,
	}, a.logger)
	if err != nil {
		return err
	}
	scripts, err := script.Load(a.cfg.Scripts.Triggers, a.logger)
	if err != nil {
		return err
	}

	metrics := a.metrics()
	bridge := ui.NewBridge()
	graph := mapping.New(mapping.WithMetrics(metrics), mapping.WithRenderer(bridge))
	ctrl := client.NewController(graph, catalog, a.logger)
	session := client.NewSession(client.Options{
		Transport:  tr,
		Controller: ctrl,
		Scripts:    scripts,
		Sink:       bridge,
		Local:      commands.Dispatch,
		Logger:     a.logger,
		Host:       host,
		Port:       port,
		MapOpen:    a.cfg.Map.Open,
		OnQuit:     bridge.Quit,
		OnMapOpen:  bridge.MapOpen,
	})
	watcher, notices := a.watchMaps(catalog, bridge.Catalog)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	model := ui.NewModel(ui.Options{
		Session:    session,
		Controller: ctrl,
		Metrics:    metrics,
		MapOpen:    a.cfg.Map.Open,
		Notices:    notices,
		Logger:     a.logger,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(gctx))
	bridge.Attach(program)

	g.Go(func() error { return ctrl.Run(gctx) })
	g.Go(func() error { return session.Run(gctx) })
	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}
	g.Go(func() error {
		defer cancel()
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) && gctx.Err() != nil {
			return nil
		}
		return err
	})

	a.logger.Info("client started", zap.String("host", host), zap.Int("port", port), zap.String("maps", catalog.Dir()))
	if host != "" {
		session.Submit("#connect")
	}
	err = g.Wait()
	a.logger.Info("client stopped", zap.Error(err))
	return err
}
