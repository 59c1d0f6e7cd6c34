package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/src-d/enry/v2"
)

// rustLanguage is the linguist name of Rust.
const rustLanguage = "Rust"

// cargoTargetDir holds build output, never sources worth rewriting.
const cargoTargetDir = "target"

// Sentinel errors for input discovery.
var (
	ErrNotRust = errors.New("not a Rust source file")
	ErrNoInput = errors.New("no Rust source files found")
)

// discover expands paths into Rust source files. Files named explicitly
// must be Rust. Directories are walked, skipping vendored code, dot
// directories and cargo target directories.
func discover(paths []string) ([]string, error) {
	var files []string

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}

		if !info.IsDir() {
			if !isRust(root) {
				return nil, fmt.Errorf("%w: %s", ErrNotRust, root)
			}

			files = append(files, root)

			continue
		}

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if path == root {
				return nil
			}

			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return relErr
			}

			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if skipDir(d.Name(), rel) {
					return filepath.SkipDir
				}

				return nil
			}

			if isRust(path) && !enry.IsVendor(rel) {
				files = append(files, path)
			}

			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("walk %s: %w", root, walkErr)
		}
	}

	if len(files) == 0 {
		return nil, ErrNoInput
	}

	return files, nil
}

func skipDir(name, rel string) bool {
	return name == cargoTargetDir || enry.IsDotFile(name) || enry.IsVendor(rel+"/")
}

// isRust reports whether Rust is among the languages for path's extension.
// ".rs" is shared with RenderScript, so the single-language lookup is unsafe.
func isRust(path string) bool {
	return slices.Contains(enry.GetLanguagesByExtension(path, nil, nil), rustLanguage)
}
