package uci

import (
	"testing"

	"github.com/matryer/is"
)

func TestBoolOptionSetAndString(t *testing.T) {
	var check = is.New(t)
	var v = false
	var opt = BoolOption{Name: "OwnBook", Value: &v}

	check.True(opt.UciString() == "option name OwnBook type check default false")
	check.NoErr(opt.Set("true"))
	check.True(v)
	check.True(opt.Set("notabool") != nil)
}

func TestIntOptionRejectsOutOfRange(t *testing.T) {
	var check = is.New(t)
	var v = 16
	var opt = IntOption{Name: "Hash", Min: 1, Max: 1024, Value: &v}

	check.NoErr(opt.Set("512"))
	check.Equal(v, 512)
	check.True(opt.Set("2048") != nil)
	check.Equal(v, 512) // rejected Set must not mutate Value
}

func TestStringOptionEmptyConvention(t *testing.T) {
	var check = is.New(t)
	var v = "book.bin"
	var opt = StringOption{Name: "Book File", Value: &v}

	check.NoErr(opt.Set("<empty>"))
	check.Equal(v, "")
}

func TestButtonOptionDispatchesAction(t *testing.T) {
	var check = is.New(t)
	var fired = false
	var opt = ButtonOption{Name: "Clear Hash", Action: func() { fired = true }}

	check.NoErr(opt.Set(""))
	check.True(fired)
}

func TestNotifyOptionFiresOnSetOnlyOnSuccess(t *testing.T) {
	var check = is.New(t)
	var v = 1
	var notified = 0
	var opt = NotifyOption{
		Option: &IntOption{Name: "MultiPV", Min: 1, Max: 32, Value: &v},
		OnSet:  func() { notified++ },
	}

	check.NoErr(opt.Set("3"))
	check.Equal(notified, 1)

	check.True(opt.Set("100") != nil)
	check.Equal(notified, 1) // failed Set must not notify
}
