//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"agentcanvas/internal/config"
	"agentcanvas/internal/crash"
	"agentcanvas/internal/export"
	applog "agentcanvas/internal/log"
	"agentcanvas/internal/session"
	"agentcanvas/internal/telemetry"
	"agentcanvas/internal/undo"
	"agentcanvas/internal/viewstate"
)

const appTitle = "agentcanvas"

// editor is the window state around the open board.
type editor struct {
	w      fyne.Window
	cfg    config.AppConfig
	undo   *undo.Manager
	guard  *crash.Guard
	status *widget.Label
	host   *fyne.Container
	sess   *session.Session
	view   *BoardWidget
	log    *slog.Logger
}

// Run starts the Fyne desktop UI and opens boardPath when given.
func Run(boardPath string) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	guard := &crash.Guard{}
	defer guard.Recover()

	cfg, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
	}

	fyneApp := app.NewWithID("agentcanvas")
	w := fyneApp.NewWindow(appTitle)
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 640 {
		winW = 640
	}
	if winH < 480 {
		winH = 480
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	ed := &editor{
		w:      w,
		cfg:    cfg,
		undo:   undo.NewManager(undo.Config{}),
		guard:  guard,
		status: widget.NewLabel("Open or create a board."),
		host:   container.NewStack(widget.NewLabel("No board open. Use File > Open (Ctrl+O).")),
		log:    l,
	}

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentAddIcon(), func() { ed.addNode() }),
		widget.NewToolbarAction(theme.DeleteIcon(), func() { ed.removeSelected() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), func() { ed.undoRedo(true) }),
		widget.NewToolbarAction(theme.ContentRedoIcon(), func() { ed.undoRedo(false) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ViewRestoreIcon(), func() { ed.resetView() }),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() { ed.save("save") }),
	)
	w.SetContent(container.NewBorder(toolbar, ed.status, nil, nil, ed.host))
	w.SetMainMenu(ed.menu())
	ed.shortcuts()

	w.SetCloseIntercept(func() {
		prefs.SetInt("window.width", int(w.Canvas().Size().Width))
		prefs.SetInt("window.height", int(w.Canvas().Size().Height))
		if ed.sess == nil || !ed.sess.Dirty() {
			w.Close()
			return
		}
		dialog.ShowConfirm("Unsaved changes", "Save the board before closing?", func(ok bool) {
			if ok {
				ed.save("close")
			}
			w.Close()
		}, w)
	})

	if strings.TrimSpace(boardPath) != "" {
		if err := ed.open(boardPath); err != nil {
			l.Error("open board failed", slog.Any("err", err), slog.String("path", boardPath))
			ed.status.SetText("Error: " + err.Error())
		}
	}
	w.ShowAndRun()
	telemetry.Default().Flush(context.Background())
	return nil
}

func (ed *editor) options() session.Options {
	return session.Options{
		Settings:    ed.cfg.Settings(),
		Undo:        ed.undo,
		History:     true,
		KeepHistory: 200,
	}
}

func (ed *editor) attach(s *session.Session) {
	if ed.sess != nil {
		ed.view.Detach()
		ed.sess.Close()
	}
	settings := ed.cfg.Settings()
	ed.sess = s
	ed.view = NewBoardWidget(s.Board, settings.Background, settings.Board.GridSize)
	ed.view.OnChange = ed.updateStatus
	ed.host.Objects = []fyne.CanvasObject{ed.view}
	ed.host.Refresh()
	ed.guard.Track(s.Handle, s.Document)
	ed.w.SetTitle(fmt.Sprintf("%s - %s", appTitle, s.Handle.Doc.Name))
	ed.updateStatus()
}

func (ed *editor) open(path string) error {
	abs, _ := filepath.Abs(path)
	s, err := session.Open(abs, ed.options())
	if err != nil {
		return err
	}
	ed.attach(s)
	if s.Handle.Recovered {
		dialog.ShowInformation("Board recovered", "The board file was unreadable; its latest backup was loaded.", ed.w)
	}
	telemetry.Event("board_open", map[string]any{"elements": len(s.Board.Elements())})
	return nil
}

func (ed *editor) create(path string) error {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s, err := session.Create(path, name, ed.options())
	if err != nil {
		return err
	}
	ed.attach(s)
	return nil
}

func (ed *editor) save(op string) {
	if ed.sess == nil {
		return
	}
	if err := ed.sess.Save(context.Background(), op); err != nil {
		ed.log.Error("save failed", slog.Any("err", err))
		dialog.ShowError(err, ed.w)
		return
	}
	ed.status.SetText("Saved " + ed.sess.Handle.Path)
}

func (ed *editor) updateStatus() {
	if ed.sess == nil {
		return
	}
	st := ed.sess.Store.Get()
	dirty := ""
	if ed.sess.Dirty() {
		dirty = " *"
	}
	ed.status.SetText(fmt.Sprintf("%d elements, %d selected | zoom %.0f%% | pan (%.0f, %.0f) | %s%s",
		len(ed.sess.Board.Elements()), len(ed.sess.Board.Selection()), st.Zoom*100, st.Pan.X, st.Pan.Y, st.Tool, dirty))
}

func (ed *editor) addNode() {
	if ed.sess == nil {
		return
	}
	e := ed.sess.Board.AddNode("")
	ed.sess.Board.Select(e.ID)
	ed.refresh()
}

func (ed *editor) removeSelected() {
	if ed.sess == nil {
		return
	}
	if n := ed.sess.Board.RemoveSelected(); n > 0 {
		ed.refresh()
	}
}

func (ed *editor) undoRedo(back bool) {
	if ed.sess == nil {
		return
	}
	ok := ed.sess.Board.Redo
	if back {
		ok = ed.sess.Board.Undo
	}
	if ok() {
		ed.refresh()
	}
}

func (ed *editor) resetView() {
	if ed.sess != nil {
		ed.sess.Board.ResetView()
		ed.updateStatus()
	}
}

func (ed *editor) toggleTool() {
	if ed.sess == nil {
		return
	}
	t := viewstate.ToolEraser
	if ed.sess.Store.Get().Tool == viewstate.ToolEraser {
		t = viewstate.ToolPen
	}
	ed.sess.Board.SetTool(t)
	ed.updateStatus()
}

func (ed *editor) refresh() {
	ed.view.Refresh()
	ed.updateStatus()
}

func (ed *editor) exportAs(format string) {
	if ed.sess == nil {
		return
	}
	d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		path := wc.URI().Path()
		_ = wc.Close()
		doc := ed.sess.Document()
		opt := export.Options{Background: ed.cfg.Settings().Background, GridSize: ed.cfg.Canvas.GridSize}
		if err := export.File(doc, format, path, opt); err != nil {
			dialog.ShowError(err, ed.w)
			return
		}
		ed.status.SetText("Exported " + path)
	}, ed.w)
	d.SetFileName(ed.sess.Handle.Key() + "." + format)
	d.Show()
}

// removeEmpty deletes the placeholder file a save dialog leaves behind.
func removeEmpty(path string) error {
	fi, err := os.Stat(path)
	if err != nil || fi.Size() > 0 {
		return nil
	}
	return os.Remove(path)
}

func (ed *editor) menu() *fyne.MainMenu {
	newItem := fyne.NewMenuItem("New Board…", func() {
		dialog.ShowFileSave(func(wc fyne.URIWriteCloser, err error) {
			if err != nil || wc == nil {
				return
			}
			path := wc.URI().Path()
			_ = wc.Close()
			// the dialog already created an empty file
			if err := removeEmpty(path); err != nil {
				dialog.ShowError(err, ed.w)
				return
			}
			if err := ed.create(path); err != nil {
				dialog.ShowError(err, ed.w)
			}
		}, ed.w)
	})
	openItem := fyne.NewMenuItem("Open…", func() {
		dialog.ShowFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil || rc == nil {
				return
			}
			path := rc.URI().Path()
			_ = rc.Close()
			if err := ed.open(path); err != nil {
				dialog.ShowError(err, ed.w)
			}
		}, ed.w)
	})
	saveItem := fyne.NewMenuItem("Save", func() { ed.save("save") })
	newItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyN, Modifier: fyne.KeyModifierControl}
	openItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierControl}
	saveItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl}

	exportMenu := fyne.NewMenu("Export",
		fyne.NewMenuItem("PNG…", func() { ed.exportAs(export.FormatPNG) }),
		fyne.NewMenuItem("SVG…", func() { ed.exportAs(export.FormatSVG) }),
		fyne.NewMenuItem("PDF…", func() { ed.exportAs(export.FormatPDF) }),
	)
	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Add Node", func() { ed.addNode() }),
		fyne.NewMenuItem("Delete Selected", func() { ed.removeSelected() }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Undo", func() { ed.undoRedo(true) }),
		fyne.NewMenuItem("Redo", func() { ed.undoRedo(false) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Reset View", func() { ed.resetView() }),
		fyne.NewMenuItem("Toggle Pen/Eraser", func() { ed.toggleTool() }),
	)
	return fyne.NewMainMenu(fyne.NewMenu("File", newItem, openItem, saveItem), editMenu, exportMenu)
}

func (ed *editor) shortcuts() {
	c := ed.w.Canvas()
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { ed.save("save") })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { ed.undoRedo(true) })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { ed.undoRedo(false) })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyN, Modifier: fyne.KeyModifierControl | fyne.KeyModifierShift}, func(fyne.Shortcut) { ed.addNode() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.Key0, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { ed.resetView() })
	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyDelete, fyne.KeyBackspace:
			ed.removeSelected()
		case fyne.KeyEscape:
			if ed.sess != nil {
				ed.sess.Board.Select()
				ed.refresh()
			}
		}
	})
}
