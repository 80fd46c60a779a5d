package engine

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	. "github.com/kheron-chess/corengine/common"
)

// SplitPoint is the shared state published when a node's remaining
// move-loop work is handed to idle pool threads
// under the Young-Brothers-Wait protocol: the master keeps searching
// its own share of moves while slaves drain the same moveIterator.
type SplitPoint struct {
	mu sync.Mutex

	parent *SplitPoint
	master int

	position Position
	height   int
	depth    int
	pvNode   bool

	alpha     int
	beta      int
	bestValue int
	bestMove  Move
	moveCount int

	quietsSearched []Move

	mi     *moveIterator
	cutoff bool

	remaining int32 // participants (master + slaves) still inside this split point
	done      chan struct{}
}

// cutoffOccurred walks up the split-point chain: a beta cutoff at any
// enclosing split point makes every move still in flight beneath it
// moot.
func (sp *SplitPoint) cutoffOccurred() bool {
	for s := sp; s != nil; s = s.parent {
		s.mu.Lock()
		var cut = s.cutoff
		s.mu.Unlock()
		if cut {
			return true
		}
	}
	return false
}

func (sp *SplitPoint) finishParticipant() {
	if atomic.AddInt32(&sp.remaining, -1) == 0 {
		close(sp.done)
	}
}

// nextMove draws the next not-yet-tried move from the split point's
// shared iterator, along with a consistent snapshot of the window and
// move count a participant needs to decide how (or whether) to search
// it. It does not count the move: legality is unknown until the caller
// attempts MakeMove (see noteLegalMove).
func (sp *SplitPoint) nextMove() (m Move, alpha, beta, bestValue, moveCount int, ok bool) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.cutoff {
		return MoveEmpty, 0, 0, 0, 0, false
	}
	m = sp.mi.next()
	if m == MoveEmpty {
		return MoveEmpty, 0, 0, 0, 0, false
	}
	return m, sp.alpha, sp.beta, sp.bestValue, sp.moveCount, true
}

// noteLegalMove records that move passed MakeMove's legality check,
// returning its 1-based index among legal moves tried at this split
// point so far.
func (sp *SplitPoint) noteLegalMove() int {
	sp.mu.Lock()
	sp.moveCount++
	var n = sp.moveCount
	sp.mu.Unlock()
	return n
}

// commitResult folds one participant's completed move search back into
// the split point's shared best score/move/PV, possibly raising alpha
// or declaring a cutoff.
func (sp *SplitPoint) commitResult(t *thread, m Move, score int, childPV *pvLine, height int) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.cutoff {
		return
	}
	if score > sp.bestValue {
		sp.bestValue = score
		sp.bestMove = m
		if sp.pvNode {
			t.stack[height].pv.assign(m, childPV)
		}
		if score > sp.alpha {
			sp.alpha = score
			if score >= sp.beta {
				sp.cutoff = true
			}
		}
	}
	if !isCaptureOrPromotion(m) {
		sp.quietsSearched = append(sp.quietsSearched, m)
	}
}

// threadPool is the fixed-size set of worker goroutines one Search
// call splits work across: thread 0 is always the master
// and runs the root search inline on the calling goroutine; threads
// 1..N-1 idle on a sync.Cond until a master publishes a split point.
type threadPool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	threads []*thread
	job     map[int]*splitAssignment
	stopped bool
}

type splitAssignment struct {
	sp     *SplitPoint
	height int
}

func newThreadPool(e *Engine, n int) *threadPool {
	if n < 1 {
		n = 1
	}
	var pool = &threadPool{job: make(map[int]*splitAssignment)}
	pool.cond = sync.NewCond(&pool.mu)
	pool.threads = make([]*thread, n)
	for i := range pool.threads {
		pool.threads[i] = &thread{id: i, engine: e}
	}
	return pool
}

// lazySMPHelpers starts the pool's slave goroutines for the duration of
// one root search; the returned stop function must be called once the
// master's root search has returned, and blocks until every slave has
// drained its idle loop and exited.
func (pool *threadPool) lazySMPHelpers() (stop func()) {
	var g errgroup.Group
	for i := 1; i < len(pool.threads); i++ {
		var slave = pool.threads[i]
		g.Go(func() error {
			pool.idleLoop(slave)
			return nil
		})
	}
	return func() {
		pool.mu.Lock()
		pool.stopped = true
		pool.cond.Broadcast()
		pool.mu.Unlock()
		_ = g.Wait()
		pool.mu.Lock()
		pool.stopped = false
		pool.mu.Unlock()
	}
}

// idleLoop is a slave's whole life for the duration of one search: park
// on the pool's condition variable, pick up an assignment, search it,
// go back to idle — until the pool is torn down.
func (pool *threadPool) idleLoop(t *thread) {
	for {
		pool.mu.Lock()
		for pool.job[t.id] == nil && !pool.stopped {
			pool.cond.Wait()
		}
		if pool.stopped && pool.job[t.id] == nil {
			pool.mu.Unlock()
			return
		}
		var a = pool.job[t.id]
		delete(pool.job, t.id)
		pool.mu.Unlock()

		atomic.StoreInt32(&t.busy, 1)
		t.stack[a.height].position = a.sp.position
		t.stack[a.height].sp = a.sp
		t.stack[a.height].skipNullMove = false
		runGuarded(func() {
			t.alphaBeta(a.sp.alpha, a.sp.beta, a.sp.depth, a.height, MoveEmpty)
		})
		t.stack[a.height].sp = nil
		a.sp.finishParticipant()
		atomic.StoreInt32(&t.busy, 0)
	}
}

// runGuarded absorbs the panic/recover-based search-timeout signal
// (errSearchTimeout, search.go) so one slave's cancellation does not
// propagate past the idle loop and kill the whole pool.
func runGuarded(f func()) {
	defer func() {
		if r := recover(); r != nil && r != errSearchTimeout {
			panic(r)
		}
	}()
	f()
}

// split publishes a SplitPoint for the moves remaining in mi and hands
// them to every currently-idle slave, then has the calling thread join
// in as a participant too. It returns once
// every participant — master included — has finished.
func (t *thread) split(height, depth int, alpha, beta, bestValue int, bestMove Move,
	quietsSearched []Move, mi *moveIterator, pvNode bool) *SplitPoint {

	var pool = t.engine.pool
	var sp = &SplitPoint{
		parent:         t.stack[height].sp,
		master:         t.id,
		position:       t.stack[height].position,
		height:         height,
		depth:          depth,
		pvNode:         pvNode,
		alpha:          alpha,
		beta:           beta,
		bestValue:      bestValue,
		bestMove:       bestMove,
		quietsSearched: quietsSearched,
		mi:             mi,
		remaining:      1, // the master counts itself
		done:           make(chan struct{}),
	}

	pool.mu.Lock()
	for i, slave := range pool.threads {
		// thread 0 never runs idleLoop, so it can never pick up an assignment
		if i == 0 || i == t.id || pool.job[i] != nil || atomic.LoadInt32(&slave.busy) != 0 {
			continue
		}
		atomic.AddInt32(&sp.remaining, 1)
		pool.job[i] = &splitAssignment{sp: sp, height: height}
	}
	pool.cond.Broadcast()
	pool.mu.Unlock()

	t.stack[height].sp = sp
	runGuarded(func() {
		t.alphaBeta(alpha, beta, depth, height, MoveEmpty)
	})
	t.stack[height].sp = nil
	sp.finishParticipant()

	<-sp.done
	return sp
}
