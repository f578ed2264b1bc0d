package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"unrealforge.ai/internal/actors"
	"unrealforge.ai/internal/editor"
	"unrealforge.ai/internal/forge"
	"unrealforge.ai/internal/names"
)

func main() {
	var (
		build = flag.String("build", "", "what to build: wall|pyramid|staircase|arch|tower|maze|house|castle|town|bridge|aqueduct")
		host  = flag.String("editor-host", editor.DefaultHost, "editor host")
		port  = flag.Int("editor-port", editor.DefaultPort, "editor port")

		prefix      = flag.String("prefix", "", "actor name prefix (builder default if empty)")
		mesh        = flag.String("mesh", "", "static mesh asset path (builder default if empty)")
		style       = flag.String("style", "", "architectural style (tower, house, castle, town)")
		size        = flag.String("size", "", "named size for castle and town (small|medium|large|...)")
		location    = flag.String("location", "", "origin as x,y,z")
		orientation = flag.String("orientation", "", "span axis: x or y")
		stepSize    = flag.String("step-size", "", "staircase step as w,d,h")
		dryRun      = flag.Bool("dry-run", false, "plan span builds (bridge, aqueduct) without spawning")

		length   = flag.Int("length", 0, "wall length in blocks")
		height   = flag.Float64("height", 0, "height: blocks (wall, tower, maze walls) or units (house)")
		baseSize = flag.Int("base-size", 0, "base size in blocks (pyramid, tower)")
		steps    = flag.Int("steps", 0, "staircase step count")
		segments = flag.Int("segments", 0, "arch segment count")
		rows     = flag.Int("rows", 0, "maze rows")
		cols     = flag.Int("cols", 0, "maze columns")
		arches   = flag.Int("arches", 0, "aqueduct arch count")
		tiers    = flag.Int("tiers", 0, "aqueduct tier count")

		width       = flag.Float64("width", 0, "width in units (house, bridge deck, aqueduct deck)")
		depth       = flag.Float64("depth", 0, "house depth in units")
		blockSize   = flag.Float64("block-size", 0, "block edge length in units")
		cellSize    = flag.Float64("cell-size", 0, "maze cell size in units")
		radius      = flag.Float64("radius", 0, "radius in units (arch, aqueduct arches)")
		density     = flag.Float64("density", 0, "town building density 0..1")
		span        = flag.Float64("span", 0, "bridge span length in units")
		towerHeight = flag.Float64("tower-height", 0, "bridge tower height in units")
		moduleSize  = flag.Float64("module-size", 0, "span segment resolution in units")
		sag         = flag.Float64("sag", 0, "bridge cable sag ratio")
		pierWidth   = flag.Float64("pier-width", 0, "aqueduct pier width in units")
		seed        = flag.Int64("seed", 0, "layout seed (maze, town); 0 picks one")

		noSiege = flag.Bool("no-siege-weapons", false, "castle: skip siege weapons")
		noVill  = flag.Bool("no-village", false, "castle: skip the village")
		noMoat  = flag.Bool("no-moat", false, "castle: skip the moat")
		noInfra = flag.Bool("no-infrastructure", false, "town: skip roads and infrastructure")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[forge] ", log.LstdFlags|log.Lmicroseconds)

	if *build == "" {
		fmt.Fprintln(os.Stderr, "missing -build")
		flag.Usage()
		os.Exit(2)
	}

	loc, err := parseVec(*location)
	if err != nil {
		logger.Fatalf("location: %v", err)
	}
	stepVec, err := parseVec(*stepSize)
	if err != nil {
		logger.Fatalf("step-size: %v", err)
	}

	client := editor.NewClient(editor.Config{Host: *host, Port: *port}, logger, nil)
	reg := names.NewRegistry(logger)
	level := actors.NewService(client, reg, logger)
	fg := forge.New(level, nil, logger)

	ctx, cancel := signalContext()
	defer cancel()

	var res *forge.BuildResult
	switch *build {
	case "wall":
		res, err = fg.Wall(ctx, forge.WallRequest{
			Length:      *length,
			Height:      int(*height),
			BlockSize:   *blockSize,
			Location:    loc,
			Orientation: *orientation,
			Prefix:      *prefix,
			Mesh:        *mesh,
		})
	case "pyramid":
		res, err = fg.Pyramid(ctx, forge.PyramidRequest{
			BaseSize:  *baseSize,
			BlockSize: *blockSize,
			Location:  loc,
			Prefix:    *prefix,
			Mesh:      *mesh,
		})
	case "staircase":
		res, err = fg.Staircase(ctx, forge.StaircaseRequest{
			Steps:    *steps,
			StepSize: stepVec,
			Location: loc,
			Prefix:   *prefix,
			Mesh:     *mesh,
		})
	case "arch":
		res, err = fg.Arch(ctx, forge.ArchRequest{
			Radius:   *radius,
			Segments: *segments,
			Location: loc,
			Prefix:   *prefix,
			Mesh:     *mesh,
		})
	case "tower":
		res, err = fg.Tower(ctx, forge.TowerRequest{
			Height:    int(*height),
			BaseSize:  *baseSize,
			BlockSize: *blockSize,
			Location:  loc,
			Prefix:    *prefix,
			Mesh:      *mesh,
			Style:     *style,
		})
	case "maze":
		res, err = fg.Maze(ctx, forge.MazeRequest{
			Rows:       *rows,
			Cols:       *cols,
			CellSize:   *cellSize,
			WallHeight: int(*height),
			Location:   loc,
			Prefix:     *prefix,
			Seed:       *seed,
		})
	case "house":
		res, err = fg.House(ctx, forge.HouseRequest{
			Width:    *width,
			Depth:    *depth,
			Height:   *height,
			Location: loc,
			Prefix:   *prefix,
			Mesh:     *mesh,
			Style:    *style,
		})
	case "castle":
		res, err = fg.Castle(ctx, forge.CastleRequest{
			Size:           *size,
			Location:       loc,
			Prefix:         *prefix,
			Style:          *style,
			NoSiegeWeapons: *noSiege,
			NoVillage:      *noVill,
			NoMoat:         *noMoat,
		})
	case "town":
		res, err = fg.Town(ctx, forge.TownRequest{
			Size:             *size,
			Density:          *density,
			Location:         loc,
			Prefix:           *prefix,
			Style:            *style,
			NoInfrastructure: *noInfra,
			Seed:             *seed,
		})
	case "bridge":
		res, err = fg.SuspensionBridge(ctx, forge.BridgeRequest{
			SpanLength:    *span,
			DeckWidth:     *width,
			TowerHeight:   *towerHeight,
			CableSagRatio: *sag,
			ModuleSize:    *moduleSize,
			Location:      loc,
			Orientation:   *orientation,
			Prefix:        *prefix,
			DryRun:        *dryRun,
		})
	case "aqueduct":
		res, err = fg.Aqueduct(ctx, forge.AqueductRequest{
			Arches:      *arches,
			ArchRadius:  *radius,
			PierWidth:   *pierWidth,
			Tiers:       *tiers,
			DeckWidth:   *width,
			ModuleSize:  *moduleSize,
			Location:    loc,
			Orientation: *orientation,
			Prefix:      *prefix,
			DryRun:      *dryRun,
		})
	default:
		fmt.Fprintf(os.Stderr, "unknown build %q\n", *build)
		os.Exit(2)
	}
	if err != nil {
		logger.Fatalf("%s: %v", *build, err)
	}

	out, err := json.MarshalIndent(res.Map(), "", "  ")
	if err != nil {
		logger.Fatalf("encode: %v", err)
	}
	fmt.Println(string(out))
}

func parseVec(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("want x,y,z, got %q", s)
	}
	v := make([]float64, 3)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("component %d of %q: %w", i, s, err)
		}
		v[i] = f
	}
	return v, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
