package mapping

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// FileExtension is the extension of saved maps.
const FileExtension = ".slmap"

// ErrMissingPosition reports a map file without a currentPosition object.
var ErrMissingPosition = errors.New("missing currentPosition")

// FormatError reports map data that could not be decoded. The in-memory map
// is never modified when decoding fails.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return "invalid map data: " + e.Err.Error()
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Snapshot is the persisted part of a map: where the avatar stands, every
// visited cell and every recorded link.
type Snapshot struct {
	Position Coordinate
	Nodes    []Coordinate
	Edges    []Edge
}

type cellRecord struct {
	X int `json:"X"`
	Y int `json:"Y"`
	Z int `json:"Z"`
}

type lineRecord struct {
	X1 int `json:"X1"`
	Y1 int `json:"Y1"`
	Z1 int `json:"Z1"`
	X2 int `json:"X2"`
	Y2 int `json:"Y2"`
	Z2 int `json:"Z2"`
}

type mapRecord struct {
	CurrentPosition cellRecord   `json:"currentPosition"`
	VisitedCells    []cellRecord `json:"visitedCells"`
	Lines           []lineRecord `json:"lines"`
}

const mapSchemaURL = "slmap.schema.json"

const mapSchemaSource = `{
  "type": "object",
  "required": ["currentPosition"],
  "properties": {
    "currentPosition": {"$ref": "#/$defs/cell"},
    "visitedCells": {"type": ["array", "null"], "items": {"$ref": "#/$defs/cell"}},
    "lines": {"type": ["array", "null"], "items": {"$ref": "#/$defs/line"}}
  },
  "$defs": {
    "cell": {
      "type": "object",
      "required": ["X", "Y", "Z"],
      "properties": {
        "X": {"type": "integer"},
        "Y": {"type": "integer"},
        "Z": {"type": "integer"}
      }
    },
    "line": {
      "type": "object",
      "required": ["X1", "Y1", "Z1", "X2", "Y2", "Z2"],
      "properties": {
        "X1": {"type": "integer"},
        "Y1": {"type": "integer"},
        "Z1": {"type": "integer"},
        "X2": {"type": "integer"},
        "Y2": {"type": "integer"},
        "Z2": {"type": "integer"}
      }
    }
  }
}`

var mapSchema = jsonschema.MustCompileString(mapSchemaURL, mapSchemaSource)

// Marshal encodes s in the .slmap format as indented UTF-8 JSON.
func Marshal(s Snapshot) ([]byte, error) {
	record := mapRecord{
		CurrentPosition: toCell(s.Position),
		VisitedCells:    make([]cellRecord, 0, len(s.Nodes)),
		Lines:           make([]lineRecord, 0, len(s.Edges)),
	}
	for _, c := range s.Nodes {
		record.VisitedCells = append(record.VisitedCells, toCell(c))
	}
	for _, e := range s.Edges {
		record.Lines = append(record.Lines, lineRecord{
			X1: e.From.X, Y1: e.From.Y, Z1: e.From.Z,
			X2: e.To.X, Y2: e.To.Y, Z2: e.To.Z,
		})
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode map: %w", err)
	}
	return append(data, '\n'), nil
}

// Unmarshal decodes .slmap data. Unknown fields are ignored; a missing
// currentPosition object, wrong field types or malformed JSON produce a
// *FormatError.
func Unmarshal(data []byte) (Snapshot, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return Snapshot{}, &FormatError{Err: fmt.Errorf("decode json: %w", err)}
	}
	raw, ok := top["currentPosition"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return Snapshot{}, &FormatError{Err: ErrMissingPosition}
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Snapshot{}, &FormatError{Err: fmt.Errorf("decode json: %w", err)}
	}
	if err := mapSchema.Validate(doc); err != nil {
		return Snapshot{}, &FormatError{Err: err}
	}

	var record mapRecord
	if err := json.Unmarshal(raw, &record.CurrentPosition); err != nil {
		return Snapshot{}, &FormatError{Err: fmt.Errorf("decode currentPosition: %w", err)}
	}
	if cells, ok := top["visitedCells"]; ok {
		if err := json.Unmarshal(cells, &record.VisitedCells); err != nil {
			return Snapshot{}, &FormatError{Err: fmt.Errorf("decode visitedCells: %w", err)}
		}
	}
	if lines, ok := top["lines"]; ok {
		if err := json.Unmarshal(lines, &record.Lines); err != nil {
			return Snapshot{}, &FormatError{Err: fmt.Errorf("decode lines: %w", err)}
		}
	}

	snapshot := Snapshot{
		Position: fromCell(record.CurrentPosition),
		Nodes:    make([]Coordinate, 0, len(record.VisitedCells)),
		Edges:    make([]Edge, 0, len(record.Lines)),
	}
	for _, c := range record.VisitedCells {
		snapshot.Nodes = append(snapshot.Nodes, fromCell(c))
	}
	for _, l := range record.Lines {
		snapshot.Edges = append(snapshot.Edges, Edge{
			From: Coordinate{X: l.X1, Y: l.Y1, Z: l.Z1},
			To:   Coordinate{X: l.X2, Y: l.Y2, Z: l.Z2},
		})
	}
	return snapshot, nil
}

// Load decodes data and, only on success, replaces g's state with it.
func (g *Graph) Load(data []byte, path string) error {
	snapshot, err := Unmarshal(data)
	if err != nil {
		return err
	}
	g.Restore(snapshot, path)
	return nil
}

// Serialize encodes g's current state.
func (g *Graph) Serialize() ([]byte, error) {
	return Marshal(g.Snapshot())
}

func toCell(c Coordinate) cellRecord {
	return cellRecord{X: c.X, Y: c.Y, Z: c.Z}
}

func fromCell(c cellRecord) Coordinate {
	return Coordinate{X: c.X, Y: c.Y, Z: c.Z}
}
