package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"SLClient/internal/client"
	"SLClient/internal/mapping"
	"SLClient/internal/mapstore"
)

// mapSubcommands is listed by '#map help'.
var mapSubcommands = []Definition{
	{Name: "status", Usage: "#map [status]", Description: "show the map name, layer, position and size"},
	{Name: "new", Usage: "#map new[!]", Description: "start an empty map"},
	{Name: "save", Usage: "#map save [name]", Description: "save to the map's file or under a new name"},
	{Name: "load", Usage: "#map load[!] <name>", Description: "load a saved map"},
	{Name: "list", Usage: "#map list", Description: "list saved maps"},
	{Name: "readonly", Usage: "#map readonly", Description: "navigate only along recorded links"},
	{Name: "edit", Usage: "#map edit", Description: "record new cells and links while walking"},
	{Name: "pan", Usage: "#map pan <dir|dx dy>", Description: "shift the view without moving"},
	{Name: "layer", Usage: "#map layer <up|down|+n|-n>", Description: "look at another layer"},
	{Name: "center", Usage: "#map center", Description: "center the view on your position"},
	{Name: "show", Usage: "#map show|hide", Description: "turn map tracking on or off"},
}

var Map = Define(Definition{
	Name:        "map",
	Aliases:     []string{"m"},
	Usage:       "#map <subcommand>",
	Description: "auto-mapper commands, '#map help' lists them",
}, func(ctx *Context) bool {
	fields := strings.Fields(ctx.Arg)
	sub := "status"
	if len(fields) > 0 {
		sub = strings.ToLower(fields[0])
		fields = fields[1:]
	}
	force := strings.HasSuffix(sub, "!")
	sub = strings.TrimSuffix(sub, "!")
	if len(fields) > 0 && fields[len(fields)-1] == "!" {
		force = true
		fields = fields[:len(fields)-1]
	}

	s := ctx.Session
	ctrl := s.Controller()
	switch sub {
	case "status", "info":
		printStatus(s, ctrl)
	case "new":
		if err := ctrl.NewMap(force); err != nil {
			reportMapError(s, err, "#map new!")
			return false
		}
		s.Print("Started a new map.")
	case "save":
		path, err := ctrl.Save(strings.Join(fields, " "))
		if err != nil {
			reportMapError(s, err, "")
			return false
		}
		s.Printf("Map saved to %s.", path)
	case "load", "open":
		if len(fields) == 0 {
			s.Print("Usage: #map load[!] <name>")
			return false
		}
		path, err := ctrl.Load(strings.Join(fields, " "), force)
		if err != nil {
			reportMapError(s, err, "#map load! "+strings.Join(fields, " "))
			return false
		}
		s.Printf("Map loaded from %s.", path)
	case "list", "ls":
		listMaps(s, ctrl.Catalog())
	case "readonly", "ro", "navigate":
		if err := ctrl.SetReadOnly(true); err != nil {
			reportMapError(s, err, "")
			return false
		}
		s.Print("Map is read-only: moves follow recorded links only.")
	case "edit", "rw":
		if err := ctrl.SetReadOnly(false); err != nil {
			reportMapError(s, err, "")
			return false
		}
		s.Print("Map is in edit mode: new cells and links are recorded.")
	case "pan":
		dx, dy, err := parsePan(fields)
		if err != nil {
			s.Printf("%v. Usage: #map pan <dir|dx dy>", err)
			return false
		}
		if err := ctrl.PanBy(dx, dy); err != nil {
			reportMapError(s, err, "")
		}
	case "layer", "z":
		delta, err := parseLayer(fields)
		if err != nil {
			s.Printf("%v. Usage: #map layer <up|down|+n|-n>", err)
			return false
		}
		if err := ctrl.StepLayer(delta); err != nil {
			reportMapError(s, err, "")
		}
	case "center", "centre":
		if err := ctrl.Center(); err != nil {
			reportMapError(s, err, "")
		}
	case "show", "on":
		s.SetMapOpen(true)
		s.Print("Map tracking on.")
	case "hide", "off":
		s.SetMapOpen(false)
		s.Print("Map tracking off.")
	case "help":
		s.Print(helpMessage("Map commands:", subcommandList()))
	default:
		s.Printf("Unknown map command %q. Type '#map help'.", sub)
	}
	return false
})

func subcommandList() []*Command {
	out := make([]*Command, 0, len(mapSubcommands))
	for _, def := range mapSubcommands {
		out = append(out, &Command{Definition: def})
	}
	return out
}

func printStatus(s *client.Session, ctrl *client.Controller) {
	frame, err := ctrl.Frame()
	if err != nil {
		reportMapError(s, err, "")
		return
	}
	mode := "edit"
	if frame.ReadOnly {
		mode = "read-only"
	}
	tracking := "on"
	if !s.MapOpen() {
		tracking = "off"
	}
	s.Print(frame.Title())
	s.Printf("  position %s, viewing layer %d", frame.Position, frame.Viewport.Layer)
	s.Printf("  %s cells, %s links, %s mode, tracking %s",
		humanize.Comma(int64(frame.NodeCount)), humanize.Comma(int64(frame.EdgeCount)), mode, tracking)
	if frame.Dirty {
		s.Print("  unsaved changes")
	}
}

func listMaps(s *client.Session, catalog *mapstore.Catalog) {
	entries, err := catalog.List()
	if err != nil {
		reportMapError(s, err, "")
		return
	}
	if len(entries) == 0 {
		s.Printf("No saved maps in %s.", catalog.Dir())
		return
	}
	s.Printf("Saved maps in %s:", catalog.Dir())
	for _, entry := range entries {
		s.Printf("  %-24s %8s  %s", entry.Name, humanize.Bytes(uint64(entry.Size)), humanize.Time(entry.ModTime))
	}
}

func reportMapError(s *client.Session, err error, forceHint string) {
	var ioErr *mapstore.IOError
	var formatErr *mapping.FormatError
	switch {
	case errors.Is(err, client.ErrUnsavedChanges):
		if forceHint != "" {
			s.Printf("The map has unsaved changes. Save it first or use '%s' to discard them.", forceHint)
			return
		}
		s.Print("The map has unsaved changes.")
	case errors.Is(err, client.ErrNoFile):
		s.Print("This map has not been saved yet. Use '#map save <name>'.")
	case errors.Is(err, mapstore.ErrEmptyName):
		s.Print("A map name is required.")
	case errors.As(err, &formatErr):
		s.Printf("Not a valid map file: %v", formatErr.Err)
	case errors.As(err, &ioErr):
		s.Printf("Could not %s: %v", ioErr.Op, ioErr.Err)
	default:
		s.Printf("Map error: %v", err)
	}
}

func parsePan(fields []string) (int, int, error) {
	switch len(fields) {
	case 1:
		delta, ok := mapping.ParseDirection(fields[0])
		if !ok || (delta.X == 0 && delta.Y == 0) {
			return 0, 0, fmt.Errorf("%q is not a compass direction", fields[0])
		}
		return delta.X, delta.Y, nil
	case 2:
		if delta, ok := mapping.ParseDirection(fields[0]); ok && (delta.X != 0 || delta.Y != 0) {
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return 0, 0, fmt.Errorf("invalid count %q", fields[1])
			}
			return delta.X * n, delta.Y * n, nil
		}
		dx, errX := strconv.Atoi(fields[0])
		dy, errY := strconv.Atoi(fields[1])
		if errX != nil || errY != nil {
			return 0, 0, fmt.Errorf("invalid offset %q %q", fields[0], fields[1])
		}
		return dx, dy, nil
	default:
		return 0, 0, errors.New("missing direction")
	}
}

func parseLayer(fields []string) (int, error) {
	if len(fields) != 1 {
		return 0, errors.New("missing layer step")
	}
	if delta, ok := mapping.ParseDirection(fields[0]); ok && delta.X == 0 && delta.Y == 0 {
		return delta.Z, nil
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid layer step %q", fields[0])
	}
	return n, nil
}
