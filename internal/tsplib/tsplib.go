// Package tsplib reads TSPLIB-format problem files with 2-D node
// coordinates (TYPE: TSP, EDGE_WEIGHT_TYPE: EUC_2D).
package tsplib

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"tspevo/internal/tsp"
)

var (
	ErrUnsupportedType       = errors.New("unsupported or missing TYPE")
	ErrUnsupportedEdgeWeight = errors.New("unsupported or missing EDGE_WEIGHT_TYPE")
	ErrMissingDimension      = errors.New("missing DIMENSION")
	ErrCoordCount            = errors.New("coordinate count does not match DIMENSION")
)

// Instance is a parsed TSPLIB file.
type Instance struct {
	Name           string
	Type           string
	Dimension      int
	EdgeWeightType string
	Coords         []tsp.Coord
}

// Problem converts the instance into a distance oracle.
func (inst Instance) Problem() (*tsp.Problem, error) {
	return tsp.NewProblem(inst.Coords)
}

// Load reads and parses a TSPLIB file from disk. A missing file is
// reported distinctly from malformed content.
func Load(path string) (Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return Instance{}, fmt.Errorf("open tsplib file: %w", err)
	}
	defer f.Close()

	inst, err := Parse(f)
	if err != nil {
		return Instance{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return inst, nil
}

// Parse reads a TSPLIB instance from a stream. The header is a set of
// "KEY: value" lines; NODE_COORD_SECTION is followed by
// "<index> <x> <y>" lines and ends at EOF, an EOF marker, or once
// DIMENSION coordinates have been read.
func Parse(r io.Reader) (Instance, error) {
	var inst Instance
	haveDimension := false
	inCoords := false

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		upper := strings.ToUpper(line)

		switch {
		case strings.HasPrefix(upper, "NAME"):
			inst.Name = headerValue(line)
		case strings.HasPrefix(upper, "TYPE"):
			inst.Type = strings.ToUpper(headerValue(line))
		case strings.HasPrefix(upper, "DIMENSION"):
			value := headerValue(line)
			dim, err := strconv.Atoi(value)
			if err != nil {
				return Instance{}, fmt.Errorf("invalid DIMENSION %q: %w", value, err)
			}
			inst.Dimension = dim
			haveDimension = true
		case strings.HasPrefix(upper, "EDGE_WEIGHT_TYPE"):
			inst.EdgeWeightType = strings.ToUpper(headerValue(line))
		case strings.HasPrefix(upper, "NODE_COORD_SECTION"):
			inCoords = true
		case strings.HasPrefix(upper, "EOF"):
			inCoords = false
		case inCoords:
			fields := strings.Fields(line)
			if len(fields) < 3 {
				continue
			}
			x, errX := strconv.ParseFloat(fields[1], 64)
			y, errY := strconv.ParseFloat(fields[2], 64)
			if errX != nil || errY != nil {
				continue
			}
			inst.Coords = append(inst.Coords, tsp.Coord{X: x, Y: y})
			if haveDimension && len(inst.Coords) >= inst.Dimension {
				inCoords = false
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Instance{}, fmt.Errorf("read tsplib stream: %w", err)
	}

	if inst.Type != "TSP" {
		return Instance{}, fmt.Errorf("%w: %q", ErrUnsupportedType, inst.Type)
	}
	if inst.EdgeWeightType != "EUC_2D" {
		return Instance{}, fmt.Errorf("%w: %q", ErrUnsupportedEdgeWeight, inst.EdgeWeightType)
	}
	if !haveDimension {
		return Instance{}, ErrMissingDimension
	}
	if len(inst.Coords) != inst.Dimension {
		return Instance{}, fmt.Errorf("%w: want %d, got %d", ErrCoordCount, inst.Dimension, len(inst.Coords))
	}
	if inst.Name == "" {
		inst.Name = "unknown"
	}
	return inst, nil
}

func headerValue(line string) string {
	if idx := strings.Index(line, ":"); idx >= 0 {
		return strings.TrimSpace(line[idx+1:])
	}
	fields := strings.Fields(line)
	if len(fields) >= 2 {
		return fields[1]
	}
	return ""
}

// KnownOptimum returns the published optimal tour length for a few
// well-known instances.
func KnownOptimum(name string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "berlin52", "berlin_52", "berlin-52":
		return 7542, true
	default:
		return 0, false
	}
}
