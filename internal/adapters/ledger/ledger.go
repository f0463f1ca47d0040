// Package ledger reads and edits the drinks ledger kept in an xlsx workbook.
//
// The sheet has two columns, name and drinks_done, with an optional header
// row. Names are stored as typed by whoever edits the workbook; resolving
// them to person identifiers is up to the caller.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/okian/waffles/internal/domain/model"
)

// DefaultSheet is used when no sheet name is configured.
const DefaultSheet = "drinks"

// Option applies a configuration option to the Ledger.
type Option func(*Ledger)

// WithSheet selects the worksheet holding the ledger.
func WithSheet(name string) Option {
	return func(l *Ledger) {
		if name = strings.TrimSpace(name); name != "" {
			l.sheet = name
		}
	}
}

// Ledger is the workbook-backed drinks ledger.
type Ledger struct {
	mu    sync.Mutex
	path  string
	sheet string
}

// New creates a ledger stored at path.
func New(path string, opts ...Option) (*Ledger, error) {
	if path == "" {
		return nil, ErrNoPath
	}
	l := &Ledger{path: path, sheet: DefaultSheet}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

type row struct {
	index  int // 1-based sheet row
	name   string
	drinks int
}

// Read returns drinks done per name. A missing workbook or sheet is an empty
// ledger; rows with a blank name or a non-numeric count are ignored. Repeated
// names are summed.
func (l *Ledger) Read(ctx context.Context) (model.DrinksLedger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	out := model.DrinksLedger{}
	f, err := l.open()
	if err != nil {
		return nil, err
	}
	if f == nil {
		return out, nil
	}
	defer func() { _ = f.Close() }()

	rows, err := l.rows(f)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.name] += r.drinks
	}
	return out, nil
}

// AddDrinks adds n drinks to name, creating the workbook, sheet or row as
// needed, and returns the new total. Negative n corrects earlier entries but
// the total never drops below zero.
func (l *Ledger) AddDrinks(ctx context.Context, name string, n int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrInvalidName
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDrinks, n)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.open()
	if err != nil {
		return 0, err
	}
	if f == nil {
		f = excelize.NewFile()
	}
	defer func() { _ = f.Close() }()

	if err := l.ensureSheet(f); err != nil {
		return 0, err
	}
	rows, err := l.rows(f)
	if err != nil {
		return 0, err
	}

	target := -1
	for i, r := range rows {
		if strings.EqualFold(r.name, name) {
			target = i
			break
		}
	}

	var total, rowIdx int
	if target >= 0 {
		total = rows[target].drinks + n
		rowIdx = rows[target].index
	} else {
		total = n
		rowIdx = l.lastRow(f) + 1
	}
	if total < 0 {
		return 0, fmt.Errorf("%w: %s would drop to %d", ErrInvalidDrinks, name, total)
	}

	if target < 0 {
		if err := l.setCell(f, 1, rowIdx, name); err != nil {
			return 0, err
		}
	}
	if err := l.setCell(f, 2, rowIdx, total); err != nil {
		return 0, err
	}
	if err := l.save(f); err != nil {
		return 0, err
	}
	return total, nil
}

// open returns nil, nil when the workbook does not exist.
func (l *Ledger) open() (*excelize.File, error) {
	if _, err := os.Stat(l.path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("ledger: stat: %w", err)
	}
	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, l.path, err)
	}
	return f, nil
}

func (l *Ledger) ensureSheet(f *excelize.File) error {
	idx, err := f.GetSheetIndex(l.sheet)
	if err != nil {
		return fmt.Errorf("ledger: sheet index: %w", err)
	}
	if idx >= 0 {
		return nil
	}
	idx, err = f.NewSheet(l.sheet)
	if err != nil {
		return fmt.Errorf("ledger: new sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := l.setCell(f, 1, 1, "name"); err != nil {
		return err
	}
	if err := l.setCell(f, 2, 1, "drinks_done"); err != nil {
		return err
	}
	// Drop the default sheet a brand new workbook starts with.
	if l.sheet != "Sheet1" && len(f.GetSheetList()) == 2 {
		if rows, _ := f.GetRows("Sheet1"); len(rows) == 0 {
			_ = f.DeleteSheet("Sheet1")
		}
	}
	return nil
}

func (l *Ledger) rows(f *excelize.File) ([]row, error) {
	idx, err := f.GetSheetIndex(l.sheet)
	if err != nil {
		return nil, fmt.Errorf("ledger: sheet index: %w", err)
	}
	if idx < 0 {
		return nil, nil
	}
	raw, err := f.GetRows(l.sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: rows: %v", ErrCorrupt, err)
	}
	out := make([]row, 0, len(raw))
	for i, cells := range raw {
		if len(cells) < 2 {
			continue
		}
		name := strings.TrimSpace(cells[0])
		if name == "" || (i == 0 && strings.EqualFold(name, "name")) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(cells[1]))
		if err != nil {
			continue
		}
		out = append(out, row{index: i + 1, name: name, drinks: n})
	}
	return out, nil
}

func (l *Ledger) lastRow(f *excelize.File) int {
	raw, err := f.GetRows(l.sheet)
	if err != nil {
		return 1
	}
	return len(raw)
}

func (l *Ledger) setCell(f *excelize.File, col, rowIdx int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, rowIdx)
	if err != nil {
		return fmt.Errorf("ledger: cell name: %w", err)
	}
	if err := f.SetCellValue(l.sheet, cell, v); err != nil {
		return fmt.Errorf("ledger: set %s: %w", cell, err)
	}
	return nil
}

// save writes to a sibling temp file and renames it over the workbook.
func (l *Ledger) save(f *excelize.File) error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ledger: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ledger-*.xlsx")
	if err != nil {
		return fmt.Errorf("ledger: temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := f.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("ledger: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ledger: close: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		return fmt.Errorf("ledger: rename: %w", err)
	}
	return nil
}
