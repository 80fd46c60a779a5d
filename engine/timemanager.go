package engine

import (
	"context"
	"time"

	. "github.com/kheron-chess/corengine/common"
)

// defaultMovesToGo, moveOverhead and minTimeLimit mirror CounterGo's
// simple_time_manager.go constants.
const (
	defaultMovesToGo = 40
	moveOverhead     = 300 * time.Millisecond
	minTimeLimit     = time.Millisecond
)

// simpleTimeManager turns LimitsType into a context
// deadline plus the soft-limit bookkeeping the iterative-deepening
// driver consults between iterations.
type simpleTimeManager struct {
	ctx       context.Context
	cancel    context.CancelFunc
	start     time.Time
	limits    LimitsType
	softLimit time.Duration
	hardLimit time.Duration
}

func newTimeManager(ctx context.Context, start time.Time, limits LimitsType, p *Position) *simpleTimeManager {
	var tm = &simpleTimeManager{start: start, limits: limits}

	switch {
	case limits.MoveTime > 0:
		tm.hardLimit = time.Duration(limits.MoveTime) * time.Millisecond
	case limits.WhiteTime > 0 || limits.BlackTime > 0:
		var main, inc time.Duration
		if p.WhiteMove {
			main = time.Duration(limits.WhiteTime) * time.Millisecond
			inc = time.Duration(limits.WhiteIncrement) * time.Millisecond
		} else {
			main = time.Duration(limits.BlackTime) * time.Millisecond
			inc = time.Duration(limits.BlackIncrement) * time.Millisecond
		}
		tm.softLimit, tm.hardLimit = calcLimits(main, inc, limits.MovesToGo)
	}

	if tm.hardLimit != 0 && !limits.Infinite && !limits.Ponder {
		tm.ctx, tm.cancel = context.WithDeadline(ctx, start.Add(tm.hardLimit))
	} else {
		tm.ctx, tm.cancel = context.WithCancel(ctx)
	}
	return tm
}

func calcLimits(main, inc time.Duration, movesToGo int) (soft, hard time.Duration) {
	if movesToGo == 0 {
		movesToGo = defaultMovesToGo
	}
	var t = main + inc*time.Duration(movesToGo-1)
	soft = limitDuration(t/time.Duration(movesToGo) + inc/2)
	hard = limitDuration(Min64Duration(main/2, soft*3))
	return
}

func limitDuration(d time.Duration) time.Duration {
	d -= moveOverhead
	if d < minTimeLimit {
		d = minTimeLimit
	}
	return d
}

func Min64Duration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

func (tm *simpleTimeManager) Context() context.Context { return tm.ctx }

func (tm *simpleTimeManager) IsDone() bool { return tm.ctx.Err() != nil }

// Stop forces the controlled context to cancel, used by the
// iterative-deepening driver's early-stop heuristics. The UCI "stop"
// command instead cancels the parent context the time manager was built on.
func (tm *simpleTimeManager) Stop() { tm.cancel() }

func (tm *simpleTimeManager) OnNodesChanged(nodes int64) {
	if tm.limits.Nodes > 0 && nodes >= int64(tm.limits.Nodes) {
		tm.cancel()
	}
}

// OnIterationComplete applies unconditional stop
// conditions only: depth limit reached, or a forced mate found deep
// enough to trust. The soft-time budget is deliberately not enforced
// here: whether it has really run out depends on the best-move
// stability the iterative-deepening driver tracks and this function
// does not, so that driver makes the soft-limit call itself (see
// Engine.shouldStopEarly) by calling Stop directly.
func (tm *simpleTimeManager) OnIterationComplete(ml mainLine) {
	if tm.limits.Infinite || tm.limits.Ponder {
		return
	}
	if tm.limits.Depth != 0 && ml.depth >= tm.limits.Depth {
		tm.cancel()
		return
	}
	if ml.score >= winIn(ml.depth+5) || ml.score <= lossIn(ml.depth+5) {
		tm.cancel()
	}
}

func (tm *simpleTimeManager) Close() {
	if tm.cancel != nil {
		tm.cancel()
	}
}
