// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package runonce executes named upgrade and migration routines at most
// once per threshold epoch for an installation.
//
// The last-run Unix timestamp of each operation is stored in the datalist
// under the operation's name. An operation runs when its last run is at or
// before the caller's threshold, so raising the threshold forces a re-run
// and lowering it never undoes one. Renaming an operation resets its
// history.
package runonce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/cardinalhq/siteconf/internal/datalist"
	"github.com/cardinalhq/siteconf/internal/logctx"
)

// ErrLedgerUnavailable is returned when the last-run record cannot be read
// reliably. The guard refuses to execute in that case.
var ErrLedgerUnavailable = errors.New("runonce: ledger unavailable")

// Ledger reads and records last-run timestamps. datalist.Resolver satisfies
// it.
type Ledger interface {
	Resolve(ctx context.Context, name string) (any, error)
	Persist(ctx context.Context, name string, value any) error
}

// Operation is a named one-time routine.
type Operation func(ctx context.Context) error

// Guard runs registered operations against a ledger.
type Guard struct {
	ledger Ledger
	clock  clockwork.Clock

	mu    sync.Mutex
	ops   map[string]Operation
	order []string
}

// New creates a guard. A nil clock uses the real clock.
func New(ledger Ledger, clock clockwork.Clock) *Guard {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Guard{
		ledger: ledger,
		clock:  clock,
		ops:    make(map[string]Operation),
	}
}

// Register makes op invocable under name. Registering the same name again
// replaces the operation but keeps its original position for RunAll.
func (g *Guard) Register(name string, op Operation) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.ops[name]; !exists {
		g.order = append(g.order, name)
	}
	g.ops[name] = op
}

// Names returns the registered operation names in registration order.
func (g *Guard) Names() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.order...)
}

func (g *Guard) lookup(name string) (Operation, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	op, ok := g.ops[name]
	return op, ok && op != nil
}

// Run executes the operation registered as name if its last recorded run
// is at or before threshold, then records the current time.
//
// It reports whether the operation executed. The guard fails closed: an
// unreadable ledger returns false with an error wrapping
// ErrLedgerUnavailable and nothing runs. An operation that fails is not
// recorded and its error is returned with executed=false. If the
// operation succeeded but the ledger could not be written, Run returns
// true together with the write error.
func (g *Guard) Run(ctx context.Context, name string, threshold int64) (bool, error) {
	logger := logctx.FromContext(ctx).With(slog.String("operation", name))

	lastRun, err := g.lastRun(ctx, name)
	if err != nil {
		logger.Warn("Refusing to run operation, ledger state unknown", slog.Any("error", err))
		recordExecution(ctx, name, "refused")
		return false, err
	}

	op, ok := g.lookup(name)
	if !ok || lastRun > threshold {
		recordExecution(ctx, name, "skipped")
		return false, nil
	}

	logger.Info("Running one-time operation",
		slog.Int64("last_run", lastRun),
		slog.Int64("threshold", threshold))

	if err := op(ctx); err != nil {
		recordExecution(ctx, name, "failed")
		return false, fmt.Errorf("runonce: operation %q: %w", name, err)
	}

	now := g.clock.Now().Unix()
	if err := g.ledger.Persist(ctx, name, now); err != nil {
		logger.Error("Operation ran but its last-run time was not recorded", slog.Any("error", err))
		recordExecution(ctx, name, "unrecorded")
		return true, fmt.Errorf("runonce: record %q: %w", name, err)
	}

	recordExecution(ctx, name, "executed")
	return true, nil
}

// RunAll offers every registered operation to Run, in registration order,
// and returns the names that executed. It stops at the first error.
func (g *Guard) RunAll(ctx context.Context, threshold int64) ([]string, error) {
	var executed []string
	for _, name := range g.Names() {
		ran, err := g.Run(ctx, name, threshold)
		if ran {
			executed = append(executed, name)
		}
		if err != nil {
			return executed, err
		}
	}
	return executed, nil
}

// LastRun returns the recorded last-run time for name, or 0 if it has
// never run.
func (g *Guard) LastRun(ctx context.Context, name string) (int64, error) {
	return g.lastRun(ctx, name)
}

func (g *Guard) lastRun(ctx context.Context, name string) (int64, error) {
	v, err := g.ledger.Resolve(ctx, name)
	if errors.Is(err, datalist.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
	}
	ts, ok := toUnix(v)
	if !ok {
		return 0, fmt.Errorf("%w: last run for %q is not a timestamp: %v", ErrLedgerUnavailable, name, v)
	}
	return ts, nil
}

// toUnix interprets a ledger value. Values read back from JSON storage
// arrive as json.Number or float64; values from the memo cache keep their
// original integer type.
func toUnix(v any) (int64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint32:
		return int64(t), true
	case uint64:
		if t > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int64(t), true
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, true
		}
		if f, err := t.Float64(); err == nil {
			return int64(f), true
		}
		return 0, false
	case string:
		i, err := strconv.ParseInt(t, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}
