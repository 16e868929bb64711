package client

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"SLClient/internal/mapping"
	"SLClient/internal/mapstore"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestControllerMoveAndFrame(t *testing.T) {
	ctrl := startController(t)
	res, err := ctrl.Move("norden")
	require.NoError(t, err)
	require.True(t, res.Moved)

	frame, err := ctrl.Frame()
	require.NoError(t, err)
	require.Equal(t, mapping.Coordinate{Y: -1}, frame.Position)
	require.True(t, frame.Dirty)
	require.Equal(t, 2, frame.NodeCount)
	require.Equal(t, "Map: <unsaved map> - Z: 0 *", frame.Title())
}

func TestControllerSaveLoadGuard(t *testing.T) {
	ctrl := startController(t)
	_, err := ctrl.Move("o")
	require.NoError(t, err)

	_, err = ctrl.Save("")
	require.ErrorIs(t, err, ErrNoFile)

	path, err := ctrl.Save("keller")
	require.NoError(t, err)
	require.Equal(t, "keller"+mapping.FileExtension, filepath.Base(path))

	_, err = ctrl.Move("o")
	require.NoError(t, err)
	require.ErrorIs(t, ctrl.NewMap(false), ErrUnsavedChanges)
	_, err = ctrl.Load("keller", false)
	require.ErrorIs(t, err, ErrUnsavedChanges)

	again, err := ctrl.Save("")
	require.NoError(t, err)
	require.Equal(t, path, again)

	require.NoError(t, ctrl.NewMap(false))
	frame, err := ctrl.Frame()
	require.NoError(t, err)
	require.Zero(t, frame.NodeCount)
	require.Empty(t, frame.File)

	loaded, err := ctrl.Load("keller", false)
	require.NoError(t, err)
	require.Equal(t, path, loaded)
	frame, err = ctrl.Frame()
	require.NoError(t, err)
	require.Equal(t, mapping.Coordinate{X: 2}, frame.Position)
	require.False(t, frame.Dirty)
}

func TestControllerLoadFailureKeepsMap(t *testing.T) {
	ctrl := startController(t)
	_, err := ctrl.Move("s")
	require.NoError(t, err)

	_, err = ctrl.Load("nowhere", true)
	var ioErr *mapstore.IOError
	require.True(t, errors.As(err, &ioErr), "error = %v", err)

	frame, err := ctrl.Frame()
	require.NoError(t, err)
	require.Equal(t, 2, frame.NodeCount)
	require.True(t, frame.Dirty)
}

func TestControllerViewOperations(t *testing.T) {
	ctrl := startController(t)
	_, err := ctrl.Move("e")
	require.NoError(t, err)
	require.NoError(t, ctrl.SetReadOnly(true))
	res, err := ctrl.Move("n")
	require.NoError(t, err)
	require.True(t, res.Rejected)

	require.NoError(t, ctrl.PanBy(3, 0))
	require.NoError(t, ctrl.StepLayer(1))
	frame, err := ctrl.Frame()
	require.NoError(t, err)
	require.Equal(t, 1, frame.Viewport.Layer)
	require.Equal(t, mapping.Coordinate{X: 4, Z: 1}, frame.Position)
	require.True(t, frame.PositionVisible())

	require.NoError(t, ctrl.Center())
	frame, err = ctrl.Frame()
	require.NoError(t, err)
	require.Equal(t, 1, frame.Viewport.Layer)
	require.Equal(t, frame.Viewport.Center(), frame.Local)

	target, err := ctrl.TeleportAt(0, 0)
	require.NoError(t, err)
	require.NotEqual(t, frame.Position, target)
	frame, err = ctrl.Frame()
	require.NoError(t, err)
	require.Equal(t, target, frame.Position)
	require.NoError(t, ctrl.Resize(20, 10))
}

func TestControllerStopped(t *testing.T) {
	catalog, err := mapstore.NewCatalog(t.TempDir())
	require.NoError(t, err)
	ctrl := NewController(mapping.New(), catalog, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, ctrl.Run(ctx))

	_, err = ctrl.Move("n")
	require.ErrorIs(t, err, ErrStopped)
}
