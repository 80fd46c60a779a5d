package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	. "github.com/kheron-chess/corengine/common"
)

// Evaluator is the static-evaluation collaborator: evaluate(pos) ->
// (score, margin). corengine never asks it to maintain incremental
// state; eval/basic recomputes from scratch.
type Evaluator interface {
	Evaluate(p *Position) (value, margin int)
}

// pvLine is one SearchStack frame's PV buffer: assigned by
// a child height and read by its parent, never shared across siblings.
type pvLine struct {
	items [stackSize]Move
	size  int
}

func (pv *pvLine) clear() { pv.size = 0 }

func (pv *pvLine) assign(m Move, child *pvLine) {
	pv.items[0] = m
	pv.size = 1
	if child.size > 0 {
		copy(pv.items[1:], child.items[:child.size])
		pv.size += child.size
	}
}

func (pv *pvLine) toSlice() []Move {
	var result = make([]Move, pv.size)
	copy(result, pv.items[:pv.size])
	return result
}

// stackFrame is one SearchStack frame. Frames are scoped
// to a single recursive call; sp is non-nil only while this height is
// being searched as part of a split point.
type stackFrame struct {
	position       Position
	moveBuffer     [MaxMoves]OrderedMove
	quietsSearched [MaxMoves]Move
	pv             pvLine
	staticEval     int
	killer1        Move
	killer2        Move
	skipNullMove   bool
	brokenThreat   bool // set when this node's null-move verification re-search failed; relaxes LMP/futility
	sp             *SplitPoint
}

// thread is one worker of the pool: thread 0 is always the master that
// owns the root move list and the engine's mainLine.
type thread struct {
	id                  int
	engine              *Engine
	evaluator           Evaluator
	stack               [stackSize]stackFrame
	mainHistory         [1 << 13]int16
	continuationHistory [1 << 10][1 << 10]int16
	nodes               int64
	rootDepth           int
	busy                int32 // atomic; set while idleLoop is running a split-point assignment
}

// mainLine is the engine's best-known line, published after each
// completed iteration, never from a stopped one.
type mainLine struct {
	moves []Move
	score int
	depth int
	nodes int64
}

// RootMove is a PV terminated by the end of the
// slice, its score, and the node count spent on its first move so far
// in this search.
type RootMove struct {
	PV    []Move
	Score int
	Nodes int64
}

// Engine holds all process-wide search state: TT, history, thread
// pool, options and time manager passed explicitly rather than hidden
// behind package-level singletons.
type Engine struct {
	Hash               int
	Threads            int
	MultiPV            int
	SkillLevel         int
	ExperimentSettings bool
	ProgressMinNodes   int
	UseSearchLog       bool
	SearchLogFilename  string
	OwnBook            bool
	BookFile           string
	BestBookMove       bool

	evalBuilder func() Evaluator
	logger      zerolog.Logger

	transTable  *TranspositionTable
	pool        *threadPool
	timeManager *simpleTimeManager
	historyKeys map[uint64]int

	progress      func(SearchInfo)
	mainLine      mainLine
	rootMoves     []RootMove
	rootExcluded  map[Move]bool  // moves already claimed by an earlier MultiPV slot
	rootMoveNodes map[Move]int64 // cumulative nodes spent per root move, whole search (feeds easyMove)

	start     time.Time
	nodes     int64
	liveNodes int64 // atomic; cheap cross-thread total for poll/node-limit checks
	mu        sync.Mutex
}

// NewEngine wires an Evaluator factory and logger into a fresh Engine
// with CounterGo-style defaults (16 MB hash, single thread).
func NewEngine(evalBuilder func() Evaluator, logger zerolog.Logger) *Engine {
	return &Engine{
		Hash:             16,
		Threads:          1,
		MultiPV:          1,
		SkillLevel:       20,
		ProgressMinNodes: 1_000_000,
		evalBuilder:      evalBuilder,
		logger:           logger,
	}
}

// SetLogger swaps the engine's diagnostic sink, used by the UCI "Use
// Search Log"/"Search Log Filename" options to redirect the engine's
// Debug-level events (TT resize, search start and stop) to a file
// without restarting the process.
func (e *Engine) SetLogger(logger zerolog.Logger) {
	e.logger = logger
}

// Prepare allocates the TT and thread pool lazily, matching CounterGo's
// Engine.Prepare: called once per `go`, cheap when sizes are unchanged.
func (e *Engine) Prepare() {
	if e.transTable == nil || e.transTable.Megabytes() != e.Hash {
		e.transTable = NewTranspositionTable(e.Hash)
		e.logger.Debug().Int("mb", e.Hash).Msg("transposition table resized")
	}
	if e.Threads < 1 {
		e.Threads = 1
	}
	if e.pool == nil || len(e.pool.threads) != e.Threads {
		e.pool = newThreadPool(e, e.Threads)
	}
	for _, t := range e.pool.threads {
		if t.evaluator == nil {
			t.evaluator = e.evalBuilder()
		}
	}
}

// NewGame resets all engine-owned state between games: TT generation,
// history tables, mainLine. It does not resize anything Prepare owns.
func (e *Engine) NewGame() {
	if e.transTable != nil {
		e.transTable.Clear()
	}
	if e.pool != nil {
		for _, t := range e.pool.threads {
			t.clearHistory()
		}
	}
	e.mainLine = mainLine{}
}

// Search runs the iterative-deepening driver to completion or
// until ctx is done, and reports the best line found by the last fully
// completed iteration.
func (e *Engine) Search(ctx context.Context, params SearchParams) SearchInfo {
	e.start = time.Now()
	e.Prepare()

	var p = &params.Positions[len(params.Positions)-1]
	e.timeManager = newTimeManager(ctx, e.start, params.Limits, p)
	defer e.timeManager.Close()

	e.transTable.NewSearch()
	e.historyKeys = historyKeysOf(params.Positions)
	e.nodes = 0
	atomic.StoreInt64(&e.liveNodes, 0)
	e.mainLine = mainLine{}
	e.rootMoves = nil
	e.rootMoveNodes = make(map[Move]int64)
	e.progress = params.Progress

	for _, t := range e.pool.threads {
		t.nodes = 0
		t.stack[0].position = *p
		for h := range t.stack {
			t.stack[h].killer1 = MoveEmpty
			t.stack[h].killer2 = MoveEmpty
			t.stack[h].skipNullMove = false
			t.stack[h].brokenThreat = false
			t.stack[h].sp = nil
		}
	}

	e.logger.Debug().Int("threads", e.Threads).Msg("search started")
	e.iterativeDeepening(e.timeManager.Context())
	for _, t := range e.pool.threads {
		e.nodes += t.nodes
	}
	e.logger.Debug().Int64("nodes", e.nodes).Dur("elapsed", time.Since(e.start)).Msg("search stopped")

	return e.currentSearchResult()
}

func historyKeysOf(positions []Position) map[uint64]int {
	var result = make(map[uint64]int)
	for i := len(positions) - 1; i >= 0; i-- {
		var p = &positions[i]
		result[p.Key]++
		if p.Rule50 == 0 {
			break
		}
	}
	return result
}

func (e *Engine) currentSearchResult() SearchInfo {
	return SearchInfo{
		Depth:    e.mainLine.depth,
		MainLine: e.mainLine.moves,
		Score:    newUciScore(e.mainLine.score),
		Nodes:    e.nodes,
		Time:     int64(time.Since(e.start) / time.Millisecond),
	}
}

// commitIteration is called by the master only, after a depth has
// searched to completion without the time manager observing a stop;
// it is the sole writer of e.mainLine. pv is the best (first) MultiPV
// slot's line, not whatever the master's own stack PV happens to hold
// once every slot has searched.
func (e *Engine) commitIteration(pv []Move, depth, score int) {
	e.mu.Lock()
	for _, t := range e.pool.threads {
		e.nodes += t.nodes
		t.nodes = 0
	}
	e.mainLine = mainLine{
		depth: depth,
		score: score,
		moves: pv,
		nodes: e.nodes,
	}
	e.mu.Unlock()

	e.timeManager.OnIterationComplete(e.mainLine)
	if e.progress != nil && e.nodes >= int64(e.ProgressMinNodes) {
		e.progress(e.currentSearchResult())
	}
}
