package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/refactor/internal/config"
)

// diffContext is the number of unchanged lines kept around each change.
const diffContext = 3

// emit writes successful results according to the output mode.
func (a *app) emit(results []fileResult) error {
	var errs []error

	multi := len(results) > 1

	for i := range results {
		res := &results[i]
		if res.Err != nil {
			continue
		}

		io.WriteString(a.stdout, res.Output) //nolint:errcheck // best-effort terminal output.

		switch a.cfg.Output.Mode {
		case config.OutputDiff:
			if res.Changed() {
				writeDiff(a.stdout, res.Path, res.Before, res.After)
			}
		case config.OutputInPlace:
			errs = append(errs, writeInPlace(res))
		default:
			if multi {
				color.New(color.Bold).Fprintf(a.stdout, "// %s\n", res.Path)
			}

			io.WriteString(a.stdout, res.After) //nolint:errcheck // best-effort terminal output.
		}
	}

	return errors.Join(errs...)
}

func writeInPlace(res *fileResult) error {
	if !res.Changed() {
		return nil
	}

	info, err := os.Stat(res.Path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", res.Path, err)
	}

	if err := os.WriteFile(res.Path, []byte(res.After), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", res.Path, err)
	}

	return nil
}

// writeDiff prints a line diff of before and after with diffContext lines
// of context around each change.
func writeDiff(w io.Writer, path, before, after string) {
	dmp := diffmatchpatch.New()
	src, dst, lines := dmp.DiffLinesToRunes(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(src, dst, false), lines)

	bold := color.New(color.Bold)
	bold.Fprintf(w, "--- a/%s\n", path)
	bold.Fprintf(w, "+++ b/%s\n", path)

	removed := color.New(color.FgRed)
	added := color.New(color.FgGreen)
	hunk := color.New(color.FgCyan)

	oldLine, newLine := 1, 1

	for i, d := range diffs {
		text := splitLines(d.Text)

		switch d.Type {
		case diffmatchpatch.DiffDelete:
			for _, l := range text {
				removed.Fprintf(w, "-%s\n", l)
			}

			oldLine += len(text)
		case diffmatchpatch.DiffInsert:
			for _, l := range text {
				added.Fprintf(w, "+%s\n", l)
			}

			newLine += len(text)
		case diffmatchpatch.DiffEqual:
			head, tail := contextLines(text, i > 0, i < len(diffs)-1)

			for _, l := range text[:head] {
				fmt.Fprintf(w, " %s\n", l)
			}

			if i < len(diffs)-1 && tail > head {
				hunk.Fprintf(w, "@@ -%d +%d @@\n", oldLine+tail, newLine+tail)
			}

			for _, l := range text[max(head, tail):] {
				fmt.Fprintf(w, " %s\n", l)
			}

			oldLine += len(text)
			newLine += len(text)
		}
	}
}

// contextLines returns how many leading lines of an unchanged run follow a
// change and the index from which trailing lines precede the next one.
func contextLines(text []string, afterChange, beforeChange bool) (head, tail int) {
	if afterChange {
		head = min(diffContext, len(text))
	}

	tail = len(text)
	if beforeChange {
		tail = max(head, len(text)-diffContext)
	}

	return head, tail
}

func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}
