package uci

import (
	"testing"

	"github.com/matryer/is"

	"github.com/kheron-chess/corengine/common"
)

func TestParseNameValueSingleWordName(t *testing.T) {
	var check = is.New(t)
	var name, value = parseNameValue([]string{"name", "Hash", "value", "128"})
	check.Equal(name, "Hash")
	check.Equal(value, "128")
}

func TestParseNameValueMultiWordName(t *testing.T) {
	var check = is.New(t)
	var name, value = parseNameValue([]string{"name", "Search", "Log", "Filename", "value", "log.txt"})
	check.Equal(name, "Search Log Filename")
	check.Equal(value, "log.txt")
}

func TestParseNameValueNoValueToken(t *testing.T) {
	var check = is.New(t)
	var name, value = parseNameValue([]string{"name", "Clear", "Hash"})
	check.Equal(name, "Clear Hash")
	check.Equal(value, "")
}

func TestFindIndexString(t *testing.T) {
	var check = is.New(t)
	check.Equal(findIndexString([]string{"a", "b", "c"}, "b"), 1)
	check.Equal(findIndexString([]string{"a", "b", "c"}, "z"), -1)
}

func TestParseLimitsTimeControl(t *testing.T) {
	var check = is.New(t)
	var limits = parseLimits([]string{"wtime", "60000", "btime", "59000", "winc", "1000", "movestogo", "20"})
	check.Equal(limits.WhiteTime, 60000)
	check.Equal(limits.BlackTime, 59000)
	check.Equal(limits.WhiteIncrement, 1000)
	check.Equal(limits.MovesToGo, 20)
}

func TestParseLimitsInfiniteAndPonder(t *testing.T) {
	var check = is.New(t)
	var limits = parseLimits([]string{"infinite"})
	check.True(limits.Infinite)

	limits = parseLimits([]string{"ponder", "wtime", "1000"})
	check.True(limits.Ponder)
	check.Equal(limits.WhiteTime, 1000)
}

func TestSearchInfoToUciFormatsMateScore(t *testing.T) {
	var check = is.New(t)
	var si = common.SearchInfo{Depth: 10, Score: common.UciScore{Mate: 3}, Nodes: 1000, Time: 500}
	var s = searchInfoToUci(si)
	check.True(s == "info depth 10 score mate 3 nodes 1000 time 500 nps 1996")
}

func TestSearchInfoToUciFormatsCentipawnScore(t *testing.T) {
	var check = is.New(t)
	var si = common.SearchInfo{Depth: 5, Score: common.UciScore{Centipawns: 42}, Nodes: 500, Time: 0}
	var s = searchInfoToUci(si)
	check.True(s == "info depth 5 score cp 42 nodes 500 time 0 nps 500000")
}
