package mapping

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// diagonalDirections holds the compound directions that move on all three
// axes at once. They are consulted before the planar table.
var diagonalDirections = map[string]Coordinate{
	// northeast
	"noob":          {X: 1, Y: -1, Z: 1},
	"neu":           {X: 1, Y: -1, Z: 1},
	"nordostoben":   {X: 1, Y: -1, Z: 1},
	"northeastup":   {X: 1, Y: -1, Z: 1},
	"nou":           {X: 1, Y: -1, Z: -1},
	"ned":           {X: 1, Y: -1, Z: -1},
	"nordostunten":  {X: 1, Y: -1, Z: -1},
	"northeastdown": {X: 1, Y: -1, Z: -1},

	// northwest
	"nwup":          {X: -1, Y: -1, Z: 1},
	"nwob":          {X: -1, Y: -1, Z: 1},
	"nordwestoben":  {X: -1, Y: -1, Z: 1},
	"northwestup":   {X: -1, Y: -1, Z: 1},
	"nwdown":        {X: -1, Y: -1, Z: -1},
	"nordwestunten": {X: -1, Y: -1, Z: -1},
	"northwestdown": {X: -1, Y: -1, Z: -1},

	// southeast
	"soob":          {X: 1, Y: 1, Z: 1},
	"seup":          {X: 1, Y: 1, Z: 1},
	"südostoben":    {X: 1, Y: 1, Z: 1},
	"southeastup":   {X: 1, Y: 1, Z: 1},
	"sou":           {X: 1, Y: 1, Z: -1},
	"sedown":        {X: 1, Y: 1, Z: -1},
	"südostunten":   {X: 1, Y: 1, Z: -1},
	"southeastdown": {X: 1, Y: 1, Z: -1},

	// southwest
	"swob":          {X: -1, Y: 1, Z: 1},
	"swup":          {X: -1, Y: 1, Z: 1},
	"südwestoben":   {X: -1, Y: 1, Z: 1},
	"southwestup":   {X: -1, Y: 1, Z: 1},
	"swu":           {X: -1, Y: 1, Z: -1},
	"swdown":        {X: -1, Y: 1, Z: -1},
	"südwestunten":  {X: -1, Y: 1, Z: -1},
	"southwestdown": {X: -1, Y: 1, Z: -1},
}

// planarDirections holds the cardinal and ordinal directions, short forms
// included. Every delta has Z == 0.
var planarDirections = map[string]Coordinate{
	"n":      {Y: -1},
	"north":  {Y: -1},
	"norden": {Y: -1},
	"s":      {Y: 1},
	"south":  {Y: 1},
	"süden":  {Y: 1},
	"sued":   {Y: 1},
	"sueden": {Y: 1},
	"e":      {X: 1},
	"east":   {X: 1},
	"osten":  {X: 1},
	"o":      {X: 1},
	"w":      {X: -1},
	"west":   {X: -1},
	"westen": {X: -1},

	"ne":         {X: 1, Y: -1},
	"no":         {X: 1, Y: -1},
	"nordost":    {X: 1, Y: -1},
	"nordosten":  {X: 1, Y: -1},
	"northeast":  {X: 1, Y: -1},
	"nw":         {X: -1, Y: -1},
	"nordwest":   {X: -1, Y: -1},
	"nordwesten": {X: -1, Y: -1},
	"northwest":  {X: -1, Y: -1},
	"se":         {X: 1, Y: 1},
	"so":         {X: 1, Y: 1},
	"südost":     {X: 1, Y: 1},
	"südosten":   {X: 1, Y: 1},
	"southeast":  {X: 1, Y: 1},
	"sw":         {X: -1, Y: 1},
	"südwest":    {X: -1, Y: 1},
	"südwesten":  {X: -1, Y: 1},
	"southwest":  {X: -1, Y: 1},
}

// verticalDirections only change the layer.
var verticalDirections = map[string]Coordinate{
	"up":    {Z: 1},
	"ob":    {Z: 1},
	"oben":  {Z: 1},
	"down":  {Z: -1},
	"u":     {Z: -1},
	"unten": {Z: -1},
}

// directionTables lists the synonym tables in lookup precedence order.
var directionTables = []map[string]Coordinate{
	buildIndex("diagonal", diagonalDirections),
	buildIndex("planar", planarDirections),
	buildIndex("vertical", verticalDirections),
}

var umlautReplacer = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue")

// NormalizeToken folds a command token into the form the direction index is
// keyed by: NFC composed, case folded (ß becomes ss) and with ä, ö and ü
// spelled ae, oe and ue. "Südost", "SUEDOST" and "südost" all normalize
// to "suedost".
func NormalizeToken(token string) string {
	s := strings.TrimSpace(token)
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)
	s = cases.Fold().String(s)
	return umlautReplacer.Replace(s)
}

// ParseDirection maps a free-text token to a movement delta. The second
// return value is false, with a zero delta, when the token is not a movement
// command; that is a normal outcome, not an error.
func ParseDirection(token string) (Coordinate, bool) {
	key := NormalizeToken(token)
	if key == "" {
		return Coordinate{}, false
	}
	for _, table := range directionTables {
		if delta, ok := table[key]; ok {
			return delta, true
		}
	}
	return Coordinate{}, false
}

// IsDirection reports whether token parses as a movement command.
func IsDirection(token string) bool {
	_, ok := ParseDirection(token)
	return ok
}

// Synonyms returns every literal token of the built-in tables mapped to its
// delta. The result is a fresh map.
func Synonyms() map[string]Coordinate {
	out := make(map[string]Coordinate, len(diagonalDirections)+len(planarDirections)+len(verticalDirections))
	for _, table := range []map[string]Coordinate{verticalDirections, planarDirections, diagonalDirections} {
		for token, delta := range table {
			out[token] = delta
		}
	}
	return out
}

func buildIndex(name string, table map[string]Coordinate) map[string]Coordinate {
	index := make(map[string]Coordinate, len(table))
	for token, delta := range table {
		key := NormalizeToken(token)
		if existing, ok := index[key]; ok && existing != delta {
			panic(fmt.Sprintf("mapping: %s direction %q folds onto %q with a different delta", name, token, key))
		}
		index[key] = delta
	}
	return index
}
