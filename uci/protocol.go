// Package uci implements the Universal Chess Interface loop: reading
// commands from stdin, driving an Engine, and writing info/bestmove
// lines to stdout. Grounded on CounterGo's pkg/uci (protocol.go,
// cli.go, option.go), extended with ponder/ponderhit deferral and a
// search-log change hook.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/kheron-chess/corengine/common"
)

// Engine is the collaborator Protocol drives. Named after our own
// Engine's actual method set (NewGame, not CounterGo's Clear).
type Engine interface {
	Prepare()
	NewGame()
	Search(ctx context.Context, params common.SearchParams) common.SearchInfo
}

type Protocol struct {
	name    string
	author  string
	version string
	options []Option
	engine  Engine

	positions []common.Position
	thinking  bool
	pondering bool

	engineOutput   chan common.SearchInfo
	cancel         context.CancelFunc
	deferredResult *common.SearchInfo
}

func New(name, author, version string, engine Engine, options []Option) *Protocol {
	var initPosition, err = common.NewPositionFromFEN(common.InitialPositionFen)
	if err != nil {
		panic(err)
	}
	return &Protocol{
		name:      name,
		author:    author,
		version:   version,
		engine:    engine,
		options:   options,
		positions: []common.Position{initPosition},
	}
}

func (uci *Protocol) Run(logger *log.Logger) {
	var commands = make(chan string)

	go func() {
		defer close(commands)
		readCommands(commands)
	}()

	var searchResult common.SearchInfo
	for {
		select {
		case si, ok := <-uci.engineOutput:
			if ok {
				fmt.Println(searchInfoToUci(si))
				searchResult = si
				continue
			}
			uci.thinking = false
			uci.cancel = nil
			uci.engineOutput = nil
			if uci.pondering {
				// still pondering: hold the bestmove until ponderhit
				// or stop reports the real outcome.
				uci.deferredResult = &searchResult
			} else {
				emitBestMove(searchResult)
			}
			searchResult = common.SearchInfo{}
		case commandLine, ok := <-commands:
			if !ok {
				return
			}
			var err = uci.handle(commandLine)
			if err != nil {
				logger.Println(err)
			}
		}
	}
}

// emitBestMove always answers with a bestmove line, even when the root
// had no legal move (checkmate/stalemate): GUIs block on it indefinitely
// otherwise. common.MoveEmpty.String() is the wire "0000" null move.
func emitBestMove(si common.SearchInfo) {
	var move common.Move
	if len(si.MainLine) != 0 {
		move = si.MainLine[0]
	}
	fmt.Printf("bestmove %v\n", move)
}

func readCommands(commands chan<- string) {
	var scanner = bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		var commandLine = scanner.Text()
		if commandLine == "quit" {
			return
		}
		if commandLine != "" {
			commands <- commandLine
		}
	}
}

func (uci *Protocol) handle(commandLine string) error {
	var fields = strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil
	}
	var commandName = fields[0]
	fields = fields[1:]

	if uci.thinking {
		switch commandName {
		case "stop":
			uci.pondering = false
			uci.cancel()
			return nil
		case "ponderhit":
			return uci.ponderhitCommand(fields)
		}
		return errors.New("search still running")
	}

	var h func(fields []string) error
	switch commandName {
	case "uci":
		h = uci.uciCommand
	case "setoption":
		h = uci.setOptionCommand
	case "isready":
		h = uci.isReadyCommand
	case "position":
		h = uci.positionCommand
	case "go":
		h = uci.goCommand
	case "ucinewgame":
		h = uci.uciNewGameCommand
	case "stop", "ponderhit":
		h = uci.ponderhitCommand // releases a bestmove held back from a finished ponder search
	}

	if h == nil {
		return errors.New("command not found")
	}
	return h(fields)
}

func (uci *Protocol) uciCommand(fields []string) error {
	fmt.Printf("id name %s %s\n", uci.name, uci.version)
	fmt.Printf("id author %s\n", uci.author)
	for _, option := range uci.options {
		fmt.Println(option.UciString())
	}
	fmt.Println("uciok")
	return nil
}

func (uci *Protocol) setOptionCommand(fields []string) error {
	if len(fields) < 2 {
		return errors.New("invalid setoption arguments")
	}
	var name, value = parseNameValue(fields)
	for _, option := range uci.options {
		if strings.EqualFold(option.UciName(), name) {
			return option.Set(value)
		}
	}
	return errors.New("unhandled option")
}

// parseNameValue extracts "setoption name <name> value <value>",
// tolerating multi-word names the way CounterGo's fixed-index parse
// doesn't: everything between "name" and "value" is the option name.
func parseNameValue(fields []string) (name, value string) {
	var valueIndex = findIndexString(fields, "value")
	var nameEnd = len(fields)
	if valueIndex >= 0 {
		nameEnd = valueIndex
	}
	if len(fields) > 0 && strings.EqualFold(fields[0], "name") {
		name = strings.Join(fields[1:nameEnd], " ")
	}
	if valueIndex >= 0 && valueIndex+1 < len(fields) {
		value = strings.Join(fields[valueIndex+1:], " ")
	}
	return name, value
}

func (uci *Protocol) isReadyCommand(fields []string) error {
	uci.engine.Prepare()
	fmt.Println("readyok")
	return nil
}

func (uci *Protocol) positionCommand(fields []string) error {
	var args = fields
	if len(args) == 0 {
		return errors.New("unknown position command")
	}
	var token = args[0]
	var fen string
	var movesIndex = findIndexString(args, "moves")
	switch token {
	case "startpos":
		fen = common.InitialPositionFen
	case "fen":
		if movesIndex == -1 {
			fen = strings.Join(args[1:], " ")
		} else {
			fen = strings.Join(args[1:movesIndex], " ")
		}
	default:
		return errors.New("unknown position command")
	}
	var p, err = common.NewPositionFromFEN(fen)
	if err != nil {
		return err
	}
	var positions = []common.Position{p}
	if movesIndex >= 0 && movesIndex+1 < len(args) {
		for _, smove := range args[movesIndex+1:] {
			var newPos, ok = positions[len(positions)-1].MakeMoveLAN(smove)
			if !ok {
				return errors.New("parse move failed")
			}
			positions = append(positions, newPos)
		}
	}
	uci.positions = positions
	return nil
}

func (uci *Protocol) goCommand(fields []string) error {
	var limits = parseLimits(fields)
	var ctx, cancel = context.WithCancel(context.Background())
	uci.cancel = cancel
	uci.thinking = true
	uci.pondering = limits.Ponder
	uci.deferredResult = nil
	uci.engineOutput = make(chan common.SearchInfo, 3)
	go func() {
		var searchResult = uci.engine.Search(ctx, common.SearchParams{
			Positions: uci.positions,
			Limits:    limits,
			Progress: func(si common.SearchInfo) {
				select {
				case uci.engineOutput <- si:
				default:
				}
			},
		})
		uci.engineOutput <- searchResult
		close(uci.engineOutput)
	}()
	return nil
}

func (uci *Protocol) uciNewGameCommand(fields []string) error {
	uci.engine.NewGame()
	return nil
}

// ponderhitCommand converts a pondered search into a real one: the
// opponent played the expected move. We don't re-derive time limits
// from this moment; we just stop withholding bestmove once the search that was
// already running finishes or is stopped.
func (uci *Protocol) ponderhitCommand(fields []string) error {
	uci.pondering = false
	if uci.deferredResult != nil {
		emitBestMove(*uci.deferredResult)
		uci.deferredResult = nil
	}
	return nil
}

func searchInfoToUci(si common.SearchInfo) string {
	var sb = &strings.Builder{}
	fmt.Fprintf(sb, "info depth %v", si.Depth)
	if si.Score.Mate != 0 {
		fmt.Fprintf(sb, " score mate %v", si.Score.Mate)
	} else {
		fmt.Fprintf(sb, " score cp %v", si.Score.Centipawns)
	}
	var nps = si.Nodes * 1000 / (si.Time + 1)
	fmt.Fprintf(sb, " nodes %v time %v nps %v", si.Nodes, si.Time, nps)
	if len(si.MainLine) != 0 {
		fmt.Fprint(sb, " pv")
		for _, move := range si.MainLine {
			sb.WriteString(" ")
			sb.WriteString(move.String())
		}
	}
	return sb.String()
}

func parseLimits(args []string) (result common.LimitsType) {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "ponder":
			result.Ponder = true
		case "wtime":
			result.WhiteTime, _ = strconv.Atoi(args[i+1])
			i++
		case "btime":
			result.BlackTime, _ = strconv.Atoi(args[i+1])
			i++
		case "winc":
			result.WhiteIncrement, _ = strconv.Atoi(args[i+1])
			i++
		case "binc":
			result.BlackIncrement, _ = strconv.Atoi(args[i+1])
			i++
		case "movestogo":
			result.MovesToGo, _ = strconv.Atoi(args[i+1])
			i++
		case "depth":
			result.Depth, _ = strconv.Atoi(args[i+1])
			i++
		case "nodes":
			result.Nodes, _ = strconv.Atoi(args[i+1])
			i++
		case "mate":
			result.Mate, _ = strconv.Atoi(args[i+1])
			i++
		case "movetime":
			result.MoveTime, _ = strconv.Atoi(args[i+1])
			i++
		case "infinite":
			result.Infinite = true
		}
	}
	return
}

func findIndexString(slice []string, value string) int {
	for p, v := range slice {
		if v == value {
			return p
		}
	}
	return -1
}
