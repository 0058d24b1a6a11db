/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"agentcanvas/internal/domain"
)

// Output formats accepted by File.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
	FormatPDF = "pdf"
)

// PresetName represents a named export preset.
type PresetName string

const (
	// PresetWeb frames the content and writes png+svg without a background pattern.
	PresetWeb PresetName = "web"
	// PresetPrint frames the content and writes pdf+png with the dot grid.
	PresetPrint PresetName = "print"
)

// BatchOptions controls export of one board to several formats.
//
// Files are named <base>.<format> inside OutDir, which is created if missing.
// Formats empty means the preset defaults.
type BatchOptions struct {
	Preset  PresetName
	Formats []string // allowed: pdf, png, svg
	OutDir  string
	Base    string // file stem; defaults to "board"
	// Background overrides the preset's pattern when non-empty.
	Background string
}

// Batch exports doc according to the given preset and returns the written paths.
func Batch(doc domain.Document, opt BatchOptions) ([]string, error) {
	if opt.OutDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(opt.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	base := opt.Base
	if base == "" {
		base = "board"
	}
	eo := Options{Fit: true, Background: presetBackground(opt.Preset)}
	if opt.Background != "" {
		eo.Background = opt.Background
	}

	var written []string
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		out := filepath.Join(opt.OutDir, base+"."+f)
		if err := File(doc, f, out, eo); err != nil {
			return written, fmt.Errorf("%s: %w", f, err)
		}
		written = append(written, out)
	}
	return written, nil
}

// File writes doc in format ("png", "svg" or "pdf") to path.
func File(doc domain.Document, format, path string, opt Options) (err error) {
	switch format {
	case FormatPDF:
		return PDF(doc, path, opt)
	case FormatPNG, FormatSVG:
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure out dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", format, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", format, cerr)
		}
	}()
	if format == FormatPNG {
		return PNG(doc, f, opt)
	}
	return SVG(doc, f, opt)
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{FormatPNG, FormatSVG}
	case PresetPrint:
		return []string{FormatPDF, FormatPNG}
	default:
		return []string{FormatPNG}
	}
}

func presetBackground(p PresetName) string {
	switch p {
	case PresetWeb:
		return "none"
	default:
		return "dots"
	}
}
