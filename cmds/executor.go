package cmds

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/reusee/hanalyzer/vars"
)

type Executor struct {
	commands map[string]*Command
}

func NewExecutor() *Executor {
	ret := &Executor{
		commands: make(map[string]*Command),
	}
	ret.Define("-h", Func(func() {
		ret.PrintUsage(os.Stdout)
		os.Exit(0)
	}).Desc("print this usage").Alias("help", "-help", "--help"))
	return ret
}

func (e *Executor) Define(name string, command *Command) {
	for _, n := range append([]string{name}, command.Aliases...) {
		if _, ok := e.commands[n]; ok {
			panic(fmt.Errorf("duplicated command %s", n))
		}
		e.commands[n] = command
	}
}

var errorType = reflect.TypeFor[error]()

// Execute runs commands in order. "name=value" is accepted as a shorthand for
// "name value".
func (e *Executor) Execute(args []string) error {
	for len(args) > 0 {
		name := strings.TrimSpace(args[0])
		args = args[1:]
		if n, value, ok := strings.Cut(name, "="); ok {
			if _, defined := e.commands[n]; defined {
				name = n
				args = append([]string{value}, args...)
			}
		}

		command, ok := e.commands[name]
		if !ok {
			return fmt.Errorf("unknown command: %s", name)
		}

		fnType := command.Func.Type()
		callArgs := make([]reflect.Value, 0, fnType.NumIn())
		for i := range fnType.NumIn() {
			value, consumed, err := parseArg(fnType.In(i), args)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			args = args[consumed:]
			callArgs = append(callArgs, value)
		}
		rets := command.Func.Call(callArgs)
		if len(rets) > 0 && !rets[0].IsNil() {
			return rets[0].Interface().(error)
		}
	}
	return nil
}

func (e *Executor) PrintUsage(w io.Writer) {
	seen := make(map[*Command]bool)
	var lines []string
	for name, command := range e.commands {
		if seen[command] || slices.Contains(command.Aliases, name) {
			continue
		}
		seen[command] = true
		line := name
		if len(command.Aliases) > 0 {
			line += " (" + strings.Join(command.Aliases, ", ") + ")"
		}
		if command.Description != "" {
			line += "\t" + command.Description
		}
		lines = append(lines, line)
	}
	slices.Sort(lines)
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

var durationType = reflect.TypeFor[time.Duration]()

func parseArg(t reflect.Type, args []string) (ret reflect.Value, consumed int, err error) {
	if t.Kind() == reflect.Pointer {
		if len(args) == 0 {
			// optional
			return reflect.Zero(t), 0, nil
		}
		elem, n, err := parseArg(t.Elem(), args)
		if err != nil {
			return ret, 0, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(elem)
		return ptr, n, nil
	}

	if len(args) == 0 {
		return ret, 0, fmt.Errorf("expecting argument of type %v", t)
	}
	str := args[0]
	ret = reflect.New(t).Elem()

	if t == durationType {
		d, err := time.ParseDuration(str)
		if err != nil {
			return ret, 0, fmt.Errorf("convert %s to duration: %w", str, err)
		}
		ret.SetInt(int64(d))
		return ret, 1, nil
	}

	switch t.Kind() {
	case reflect.Bool:
		ret.SetBool(vars.StrToBool(str))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return ret, 0, fmt.Errorf("convert %s to int: %w", str, err)
		}
		ret.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(str, 10, 64)
		if err != nil {
			return ret, 0, fmt.Errorf("convert %s to unsigned int: %w", str, err)
		}
		ret.SetUint(v)
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return ret, 0, fmt.Errorf("convert %s to float: %w", str, err)
		}
		ret.SetFloat(v)
	case reflect.String:
		ret.SetString(str)
	default:
		return ret, 0, fmt.Errorf("unsupported type: %v", t)
	}
	return ret, 1, nil
}
