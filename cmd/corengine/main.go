// Command corengine is the UCI process entry point: wires an Engine, a
// material+PST Evaluator and the UCI option registry together and runs
// the protocol loop against stdin/stdout, matching CounterGo's
// cmd/counter/main.go (stderr for diagnostics, stdout reserved for the
// protocol).
package main

import (
	"flag"
	"log"
	"os"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kheron-chess/corengine/engine"
	"github.com/kheron-chess/corengine/eval/basic"
	"github.com/kheron-chess/corengine/uci"
)

/*
corengine
This program is free software: you can redistribute it and/or modify it under the terms of the GNU General Public License as published by the Free Software Foundation, either version 3 of the License, or (at your option) any later version.
This program is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU General Public License for more details.
*/

const (
	name   = "corengine"
	author = "kheron-chess"
)

var (
	versionName = "dev"
	gitRevision = "(null)"
)

func main() {
	flag.Parse()

	var baseLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).
		With().Timestamp().Logger()
	var stdLogger = log.New(os.Stderr, "", log.LstdFlags)

	stdLogger.Println(name, "version", versionName, "revision", gitRevision,
		"go", runtime.Version(), "ncpu", runtime.NumCPU())

	var eng = engine.NewEngine(func() engine.Evaluator {
		return basic.NewEvaluationService()
	}, baseLogger)

	var sink = newSearchLogSink(eng, baseLogger)

	var protocol = uci.New(name, author, versionName, eng, []uci.Option{
		&uci.IntOption{Name: "Hash", Min: 1, Max: 1 << 16, Value: &eng.Hash},
		&uci.IntOption{Name: "Threads", Min: 1, Max: runtime.NumCPU(), Value: &eng.Threads},
		&uci.IntOption{Name: "MultiPV", Min: 1, Max: 32, Value: &eng.MultiPV},
		&uci.IntOption{Name: "Skill Level", Min: 0, Max: 20, Value: &eng.SkillLevel},
		&uci.ButtonOption{Name: "Clear Hash", Action: eng.NewGame},
		&uci.BoolOption{Name: "OwnBook", Value: &eng.OwnBook},
		&uci.StringOption{Name: "Book File", Value: &eng.BookFile},
		&uci.BoolOption{Name: "Best Book Move", Value: &eng.BestBookMove},
		&uci.NotifyOption{
			Option: &uci.BoolOption{Name: "Use Search Log", Value: &eng.UseSearchLog},
			OnSet:  sink.reopen,
		},
		&uci.NotifyOption{
			Option: &uci.StringOption{Name: "Search Log Filename", Value: &eng.SearchLogFilename},
			OnSet:  sink.reopen,
		},
		&uci.BoolOption{Name: "ExperimentSettings", Value: &eng.ExperimentSettings},
	})
	protocol.Run(stdLogger)
}

// searchLogSink owns the file the "Use Search Log"/"Search Log
// Filename" options point at, swapping the engine's zerolog output
// between stderr and that file as the options change.
type searchLogSink struct {
	mu      sync.Mutex
	engine  *engine.Engine
	base    zerolog.Logger
	file    *os.File
	enabled bool
}

func newSearchLogSink(eng *engine.Engine, base zerolog.Logger) *searchLogSink {
	return &searchLogSink{engine: eng, base: base}
}

func (s *searchLogSink) reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		s.file.Close()
		s.file = nil
	}

	if !s.engine.UseSearchLog || s.engine.SearchLogFilename == "" {
		s.engine.SetLogger(s.base.Level(zerolog.InfoLevel))
		return
	}

	var f, err = os.OpenFile(s.engine.SearchLogFilename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		s.engine.SetLogger(s.base.Level(zerolog.InfoLevel))
		return
	}
	s.file = f
	s.engine.SetLogger(zerolog.New(f).With().Timestamp().Logger().Level(zerolog.DebugLevel))
}
