// Package client wires the map engine, the transport and the user's input
// together. The Controller owns the map and applies every change on its own
// goroutine; the Session turns typed commands and received lines into
// controller requests and transport sends.
package client

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"SLClient/internal/mapping"
	"SLClient/internal/mapstore"
)

var (
	// ErrStopped is returned once the controller loop has exited.
	ErrStopped = errors.New("map controller stopped")
	// ErrUnsavedChanges guards operations that would discard a dirty map.
	ErrUnsavedChanges = errors.New("map has unsaved changes")
	// ErrNoFile is returned when saving a map that was never saved before
	// without naming it.
	ErrNoFile = errors.New("map has no file yet")
)

// Controller serialises all map mutations onto the goroutine running Run.
type Controller struct {
	graph   *mapping.Graph
	catalog *mapstore.Catalog
	logger  *zap.Logger
	ops     chan func()
	stopped chan struct{}
}

// NewController takes ownership of g. Nothing may touch g directly once Run
// has started.
func NewController(g *mapping.Graph, catalog *mapstore.Catalog, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		graph:   g,
		catalog: catalog,
		logger:  logger.Named("map"),
		ops:     make(chan func()),
		stopped: make(chan struct{}),
	}
}

// Run applies queued operations until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.stopped)
	c.graph.Redraw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case op := <-c.ops:
			op()
		}
	}
}

// Do runs fn on the controller goroutine and waits for it to finish.
func (c *Controller) Do(fn func(g *mapping.Graph)) error {
	done := make(chan struct{})
	op := func() {
		defer close(done)
		fn(c.graph)
	}
	select {
	case c.ops <- op:
	case <-c.stopped:
		return ErrStopped
	}
	<-done
	return nil
}

// Catalog returns the maps directory the controller saves into.
func (c *Controller) Catalog() *mapstore.Catalog {
	return c.catalog
}

// Move forwards a typed token to the map.
func (c *Controller) Move(token string) (mapping.MoveResult, error) {
	var res mapping.MoveResult
	err := c.Do(func(g *mapping.Graph) {
		res = g.Move(token)
	})
	if err == nil && res.Rejected {
		c.logger.Debug("move rejected in read-only mode", zap.Stringer("from", res.From), zap.Stringer("to", res.To))
	}
	return res, err
}

// PanBy shifts the view by whole cells.
func (c *Controller) PanBy(dx, dy int) error {
	return c.Do(func(g *mapping.Graph) { g.PanBy(dx, dy) })
}

// StepLayer moves the view up or down by delta layers.
func (c *Controller) StepLayer(delta int) error {
	return c.Do(func(g *mapping.Graph) { g.StepLayer(delta) })
}

// Center recenters the view on the current position.
func (c *Controller) Center() error {
	return c.Do(func(g *mapping.Graph) { g.RecenterOn(g.Position()) })
}

// TeleportAt recenters the view on the cell under a surface position.
func (c *Controller) TeleportAt(px, py int) (mapping.Coordinate, error) {
	var target mapping.Coordinate
	err := c.Do(func(g *mapping.Graph) { target = g.TeleportAt(px, py) })
	return target, err
}

// Resize adapts the window to a render surface of the given size.
func (c *Controller) Resize(width, height int) error {
	return c.Do(func(g *mapping.Graph) { g.Resize(width, height) })
}

// SetReadOnly switches between navigation and edit mode.
func (c *Controller) SetReadOnly(on bool) error {
	return c.Do(func(g *mapping.Graph) { g.SetReadOnly(on) })
}

// Frame returns the current visible state.
func (c *Controller) Frame() (mapping.Frame, error) {
	var frame mapping.Frame
	err := c.Do(func(g *mapping.Graph) { frame = g.Frame() })
	return frame, err
}

// NewMap discards the map. Without force a dirty map is kept and
// ErrUnsavedChanges returned.
func (c *Controller) NewMap(force bool) error {
	var err error
	if doErr := c.Do(func(g *mapping.Graph) {
		if g.Dirty() && !force {
			err = ErrUnsavedChanges
			return
		}
		g.NewMap()
	}); doErr != nil {
		return doErr
	}
	return err
}

// Save writes the map under name, or back to its own file when name is
// empty, and returns the path written.
func (c *Controller) Save(name string) (string, error) {
	var (
		path string
		err  error
	)
	if doErr := c.Do(func(g *mapping.Graph) {
		if strings.TrimSpace(name) == "" {
			path = g.File()
			if path == "" {
				err = ErrNoFile
				return
			}
			err = mapstore.SaveFile(g, path)
			return
		}
		path, err = c.catalog.Save(g, name)
	}); doErr != nil {
		return "", doErr
	}
	if err != nil {
		c.logger.Warn("save map", zap.String("name", name), zap.Error(err))
		return path, err
	}
	c.logger.Info("map saved", zap.String("path", path))
	return path, nil
}

// Load replaces the map with the one called name. Without force a dirty map
// is kept and ErrUnsavedChanges returned.
func (c *Controller) Load(name string, force bool) (string, error) {
	var (
		path string
		err  error
	)
	if doErr := c.Do(func(g *mapping.Graph) {
		if g.Dirty() && !force {
			err = ErrUnsavedChanges
			return
		}
		path, err = c.catalog.Load(g, name)
	}); doErr != nil {
		return "", doErr
	}
	if err != nil {
		c.logger.Warn("load map", zap.String("name", name), zap.Error(err))
		return path, err
	}
	c.logger.Info("map loaded", zap.String("path", path))
	return path, nil
}
