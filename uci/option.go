package uci

import (
	"errors"
	"fmt"
	"strconv"
)

// Option is the UCI option protocol:
// advertised by UciString, applied by Set. CounterGo's uci.Option has
// the same three methods; we add String/Button kinds it never needed.
type Option interface {
	UciName() string
	UciString() string
	Set(s string) error
}

type BoolOption struct {
	Name  string
	Value *bool
}

func (opt *BoolOption) UciName() string { return opt.Name }

func (opt *BoolOption) UciString() string {
	return fmt.Sprintf("option name %v type %v default %v", opt.Name, "check", *opt.Value)
}

func (opt *BoolOption) Set(s string) error {
	var v, err = strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*opt.Value = v
	return nil
}

type IntOption struct {
	Name  string
	Min   int
	Max   int
	Value *int
}

func (opt *IntOption) UciName() string { return opt.Name }

func (opt *IntOption) UciString() string {
	return fmt.Sprintf("option name %v type %v default %v min %v max %v",
		opt.Name, "spin", *opt.Value, opt.Min, opt.Max)
}

func (opt *IntOption) Set(s string) error {
	var v, err = strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v < opt.Min || v > opt.Max {
		return errors.New("argument out of range")
	}
	*opt.Value = v
	return nil
}

// StringOption covers "Book File" / "Search Log Filename": a free-form
// path. "<empty>", UCI's convention for an unset string option, is
// accepted and stored as "".
type StringOption struct {
	Name  string
	Value *string
}

func (opt *StringOption) UciName() string { return opt.Name }

func (opt *StringOption) UciString() string {
	return fmt.Sprintf("option name %v type %v default %v", opt.Name, "string", *opt.Value)
}

func (opt *StringOption) Set(s string) error {
	if s == "<empty>" {
		s = ""
	}
	*opt.Value = s
	return nil
}

// ButtonOption covers "Clear Hash": a zero-argument command with no
// stored value, dispatched through Action on setoption.
type ButtonOption struct {
	Name   string
	Action func()
}

func (opt *ButtonOption) UciName() string { return opt.Name }

func (opt *ButtonOption) UciString() string {
	return fmt.Sprintf("option name %v type %v", opt.Name, "button")
}

func (opt *ButtonOption) Set(s string) error {
	if opt.Action != nil {
		opt.Action()
	}
	return nil
}

// NotifyOption wraps another Option with a callback fired after a
// successful Set, used by "Use Search Log"/"Search Log Filename" to
// re-open the log sink without uci itself doing file I/O.
type NotifyOption struct {
	Option
	OnSet func()
}

func (opt *NotifyOption) Set(s string) error {
	if err := opt.Option.Set(s); err != nil {
		return err
	}
	if opt.OnSet != nil {
		opt.OnSet()
	}
	return nil
}
