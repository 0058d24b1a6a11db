/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"agentcanvas/internal/board"
	"agentcanvas/internal/config"
	"agentcanvas/internal/crash"
	"agentcanvas/internal/export"
	"agentcanvas/internal/geom"
	"agentcanvas/internal/interact"
	applog "agentcanvas/internal/log"
	"agentcanvas/internal/session"
	"agentcanvas/internal/storage"
	"agentcanvas/internal/telemetry"
	"agentcanvas/internal/ui"
	"agentcanvas/internal/version"
)

// errUsage marks bad arguments; main prints the usage and exits with 2.
var errUsage = errors.New("usage")

func usage() {
	fmt.Println("agentcanvas: freeform board editor")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  agentcanvas version|-v|--version                Show version")
	fmt.Println("  agentcanvas init <file> <name>                   Create a new board file")
	fmt.Println("  agentcanvas show <file>                          Print the board's view and elements")
	fmt.Println("  agentcanvas add <file> [label]                   Add a node at the default position")
	fmt.Println("  agentcanvas move <file> <id> <dx> <dy>           Drag an element by a canvas offset")
	fmt.Println("  agentcanvas select <file> [id...]                Replace the selection (none clears it)")
	fmt.Println("  agentcanvas remove <file> <id...>                Remove elements")
	fmt.Println("  agentcanvas zoom <file> <x> <y> <deltaY>         Apply a wheel step at screen point x,y")
	fmt.Println("  agentcanvas pan <file> <dx> <dy>                 Pan the view by a canvas offset")
	fmt.Println("  agentcanvas reset <file>                         Reset pan and zoom")
	fmt.Println("  agentcanvas export <file> <png|svg|pdf> <out>    Export the current view")
	fmt.Println("  agentcanvas export <file> <web|print> <outDir>   Export framed content with a preset")
	fmt.Println("  agentcanvas history <file> [limit]               List saved revisions")
	fmt.Println("  agentcanvas revert <file> <revision>             Restore a saved revision")
	fmt.Println("  agentcanvas config [path|init]                   Show, locate or write the user config")
	fmt.Println("  agentcanvas ui [<file>]                          Launch desktop UI (build with -tags fyne)")
}

// cli carries what every command needs.
type cli struct {
	cfg   config.AppConfig
	guard *crash.Guard
	log   *slog.Logger
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", cfgErr))
	}
	tcfg := telemetry.FromEnv()
	tcfg.OptIn = cfg.General.TelemetryOptIn
	tel := telemetry.SetDefault(tcfg)
	defer func() {
		tel.Flush(context.Background())
		tel.Close()
	}()

	c := &cli{cfg: cfg, guard: &crash.Guard{}, log: l}
	defer c.guard.Recover()

	l.Debug("start", slog.Int("args", len(args)))
	if len(args) == 0 {
		usage()
		return 0
	}
	name := args[0]
	start := time.Now()
	err := c.dispatch(context.Background(), name, args[1:])
	if name != "version" && name != "help" {
		tel.Command(name, time.Since(start), err)
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Println(err)
		usage()
		return 2
	default:
		l.Error("command failed", slog.String("command", name), slog.Any("err", err))
		fmt.Println("Error:", err)
		return 1
	}
}

func (c *cli) dispatch(ctx context.Context, name string, args []string) error {
	switch name {
	case "version", "--version", "-v":
		fmt.Println("agentcanvas")
		fmt.Println(version.String())
		return nil
	case "help", "-h", "--help":
		usage()
		return nil
	case "init":
		if len(args) < 2 {
			return fmt.Errorf("%w: init requires <file> and <name>", errUsage)
		}
		return c.initBoard(args[0], strings.Join(args[1:], " "))
	case "show":
		if len(args) < 1 {
			return fmt.Errorf("%w: show requires <file>", errUsage)
		}
		return c.withBoard(args[0], func(s *session.Session) error { return show(s) })
	case "add":
		if len(args) < 1 {
			return fmt.Errorf("%w: add requires <file>", errUsage)
		}
		return c.edit(ctx, args[0], "add", func(s *session.Session) error {
			e := s.Board.AddNode(strings.Join(args[1:], " "))
			fmt.Printf("Added %s %q at (%g, %g)\n", e.ID, e.Label(), e.Position.X, e.Position.Y)
			return nil
		})
	case "move":
		if len(args) < 4 {
			return fmt.Errorf("%w: move requires <file> <id> <dx> <dy>", errUsage)
		}
		d, err := parsePoint(args[2], args[3])
		if err != nil {
			return err
		}
		return c.edit(ctx, args[0], "drag", func(s *session.Session) error { return move(s.Board, args[1], d) })
	case "select":
		if len(args) < 1 {
			return fmt.Errorf("%w: select requires <file>", errUsage)
		}
		return c.edit(ctx, args[0], "select", func(s *session.Session) error {
			s.Board.Select(args[1:]...)
			fmt.Printf("Selected: %s\n", strings.Join(s.Board.Selection(), ", "))
			return nil
		})
	case "remove":
		if len(args) < 2 {
			return fmt.Errorf("%w: remove requires <file> and at least one <id>", errUsage)
		}
		return c.edit(ctx, args[0], "remove", func(s *session.Session) error {
			s.Board.Select(args[1:]...)
			n := s.Board.RemoveSelected()
			if n == 0 {
				return fmt.Errorf("no such element: %s", strings.Join(args[1:], ", "))
			}
			fmt.Printf("Removed %d element(s)\n", n)
			return nil
		})
	case "zoom":
		if len(args) < 4 {
			return fmt.Errorf("%w: zoom requires <file> <x> <y> <deltaY>", errUsage)
		}
		p, err := parsePoint(args[1], args[2])
		if err != nil {
			return err
		}
		dy, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return fmt.Errorf("%w: bad deltaY %q", errUsage, args[3])
		}
		return c.edit(ctx, args[0], "zoom", func(s *session.Session) error {
			s.Board.Wheel(interact.WheelEvent{Pos: p, DeltaY: dy})
			printView(s)
			return nil
		})
	case "pan":
		if len(args) < 3 {
			return fmt.Errorf("%w: pan requires <file> <dx> <dy>", errUsage)
		}
		d, err := parsePoint(args[1], args[2])
		if err != nil {
			return err
		}
		return c.edit(ctx, args[0], "pan", func(s *session.Session) error {
			s.Store.UpdatePan(d.X, d.Y)
			printView(s)
			return nil
		})
	case "reset":
		if len(args) < 1 {
			return fmt.Errorf("%w: reset requires <file>", errUsage)
		}
		return c.edit(ctx, args[0], "reset", func(s *session.Session) error {
			s.Board.ResetView()
			printView(s)
			return nil
		})
	case "export":
		if len(args) < 3 {
			return fmt.Errorf("%w: export requires <file> <format> <out>", errUsage)
		}
		return c.withBoard(args[0], func(s *session.Session) error { return c.export(s, args[1], args[2]) })
	case "history":
		if len(args) < 1 {
			return fmt.Errorf("%w: history requires <file>", errUsage)
		}
		limit := 20
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return fmt.Errorf("%w: bad limit %q", errUsage, args[1])
			}
			limit = n
		}
		return c.withBoard(args[0], func(s *session.Session) error { return history(ctx, s, limit) })
	case "revert":
		if len(args) < 2 {
			return fmt.Errorf("%w: revert requires <file> <revision>", errUsage)
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("%w: bad revision %q", errUsage, args[1])
		}
		return c.edit(ctx, args[0], "revert", func(s *session.Session) error { return revert(ctx, s, id) })
	case "config":
		sub := ""
		if len(args) > 0 {
			sub = args[0]
		}
		return c.config(sub)
	case "ui":
		var path string
		if len(args) > 0 {
			path = args[0]
		}
		return ui.Run(path)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, name)
}

func (c *cli) options() session.Options {
	return session.Options{Settings: c.cfg.Settings(), History: true, KeepHistory: 200}
}

func (c *cli) initBoard(path, name string) error {
	abs, _ := filepath.Abs(path)
	c.log.Info("init board", slog.String("path", abs), slog.String("name", name))
	s, err := session.Create(abs, name, c.options())
	if err != nil {
		return err
	}
	defer s.Close()
	fmt.Println("Created board at", abs)
	return nil
}

// withBoard opens path and runs fn with crash autosave armed for the board.
func (c *cli) withBoard(path string, fn func(*session.Session) error) error {
	abs, _ := filepath.Abs(path)
	s, err := session.Open(abs, c.options())
	if err != nil {
		return err
	}
	defer s.Close()
	c.guard.Track(s.Handle, s.Document)
	if s.Handle.Recovered {
		fmt.Println("Warning: board file was unreadable; loaded the latest backup.")
	}
	return fn(s)
}

// edit is withBoard plus a save when fn changed anything.
func (c *cli) edit(ctx context.Context, path, op string, fn func(*session.Session) error) error {
	return c.withBoard(path, func(s *session.Session) error {
		if err := fn(s); err != nil {
			return err
		}
		if !s.Dirty() {
			fmt.Println("No changes.")
			return nil
		}
		return s.Save(ctx, op)
	})
}

func parsePoint(xs, ys string) (geom.Pt, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return geom.Pt{}, fmt.Errorf("%w: bad number %q", errUsage, xs)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return geom.Pt{}, fmt.Errorf("%w: bad number %q", errUsage, ys)
	}
	return geom.P(x, y), nil
}

func show(s *session.Session) error {
	doc := s.Handle.Doc
	fmt.Printf("Board: %s\n", doc.Name)
	fmt.Printf("File: %s\n", s.Handle.Path)
	printView(s)
	fmt.Printf("Elements: %d\n", len(s.Board.Elements()))
	s.Board.Render(board.TextRenderer(os.Stdout))
	return nil
}

func printView(s *session.Session) {
	st := s.Store.Get()
	fmt.Printf("View: pan=(%g, %g) zoom=%g tool=%s\n", st.Pan.X, st.Pan.Y, st.Zoom, st.Tool)
}

// move replays a drag gesture so snapping and the click threshold apply as
// they would under a pointer. The press lands just inside the element's origin.
func move(b *board.Board, id string, d geom.Pt) error {
	el, ok := b.Find(id)
	if !ok {
		return fmt.Errorf("no such element: %s", id)
	}
	st := b.Store().Get()
	start := geom.CanvasToScreen(el.Position.Add(geom.P(1, 1)), st.Pan, st.Zoom)
	if top, ok := b.HitTest(start); !ok || top.ID != id {
		return fmt.Errorf("element %s is covered by another element at its origin", id)
	}
	end := start.Add(d.Scale(st.Zoom))
	b.PointerDown(interact.PointerEvent{Pos: start, Button: interact.ButtonPrimary})
	b.GlobalMove(interact.PointerEvent{Pos: end, Button: interact.ButtonPrimary})
	b.GlobalUp(interact.PointerEvent{Pos: end, Button: interact.ButtonPrimary})
	after, _ := b.Find(id)
	if after.Position == el.Position {
		fmt.Printf("%s stays at (%g, %g)\n", id, el.Position.X, el.Position.Y)
		return nil
	}
	fmt.Printf("Moved %s to (%g, %g)\n", id, after.Position.X, after.Position.Y)
	return nil
}

func (c *cli) export(s *session.Session, format, out string) error {
	settings := c.cfg.Settings()
	doc := s.Document()
	switch format {
	case export.FormatPNG, export.FormatSVG, export.FormatPDF:
		opt := export.Options{Background: settings.Background, GridSize: settings.Board.GridSize}
		if err := export.File(doc, format, out, opt); err != nil {
			return err
		}
		fmt.Println("Wrote", out)
		return nil
	case string(export.PresetWeb), string(export.PresetPrint):
		base := strings.TrimSuffix(s.Handle.Key(), ".json")
		base = strings.TrimSuffix(base, filepath.Ext(base))
		paths, err := export.Batch(doc, export.BatchOptions{Preset: export.PresetName(format), OutDir: out, Base: base})
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println("Wrote", p)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown export format %q", errUsage, format)
}

func history(ctx context.Context, s *session.Session, limit int) error {
	entries, err := storage.ListHistory(ctx, s.Handle, limit)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No saved revisions.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%6d  %s  %-8s %d bytes\n", e.ID, e.TS.Local().Format(time.DateTime), e.Op, len(e.Blob))
	}
	return nil
}

func revert(ctx context.Context, s *session.Session, id int64) error {
	entries, err := storage.ListHistory(ctx, s.Handle, 1000)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}
	for _, e := range entries {
		if e.ID == id {
			if err := s.Revert(e); err != nil {
				return err
			}
			fmt.Printf("Reverted to revision %d (%s)\n", id, e.Op)
			return nil
		}
	}
	return fmt.Errorf("no such revision: %d", id)
}

func (c *cli) config(sub string) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	switch sub {
	case "path":
		fmt.Println(path)
		return nil
	case "init":
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
		if err := config.Save(config.Defaults()); err != nil {
			return err
		}
		fmt.Println("Wrote", path)
		return nil
	case "":
	default:
		return fmt.Errorf("%w: unknown config command %q", errUsage, sub)
	}
	cv := c.cfg.Canvas
	fmt.Printf("# %s\n", path)
	row := func(key string, v any) {
		if env, ok := config.EnvOverrideFor(key); ok {
			fmt.Printf("%-26s %v  (from %s)\n", key, v, env)
			return
		}
		fmt.Printf("%-26s %v\n", key, v)
	}
	row("general.telemetry_opt_in", c.cfg.General.TelemetryOptIn)
	row("logging.level", c.cfg.Logging.Level)
	row("logging.format", c.cfg.Logging.Format)
	row("canvas.min_zoom", cv.MinZoom)
	row("canvas.max_zoom", cv.MaxZoom)
	row("canvas.grid_size", cv.GridSize)
	row("canvas.snap_to_grid", cv.SnapToGrid)
	row("canvas.zoom_sensitivity", cv.ZoomSensitivity)
	row("canvas.prevent_scroll", cv.Preventing())
	row("canvas.click_threshold", cv.ClickThreshold)
	row("canvas.background_pattern", cv.BackgroundPattern)
	return nil
}
