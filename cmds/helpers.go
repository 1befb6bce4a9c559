package cmds

var global = NewExecutor()

func Define(name string, command *Command) {
	global.Define(name, command)
}

// Execute runs the process-wide commands defined at init time.
func Execute(args []string) {
	if err := global.Execute(args); err != nil {
		panic(err)
	}
}

// Var defines "name <value>" to set and "name." to reset a value.
func Var[T any](name string) *T {
	var value T
	Define(name, Func(func(v T) {
		value = v
	}))
	Define(name+".", Func(func() {
		var zero T
		value = zero
	}))
	return &value
}

// Switch defines "name" to turn on and "!name" to turn off.
func Switch(name string) *bool {
	var value bool
	Define(name, Func(func() {
		value = true
	}))
	Define("!"+name, Func(func() {
		value = false
	}))
	return &value
}

func Collect[T any](name string) *[]T {
	var values []T
	Define(name, Func(func(v T) {
		values = append(values, v)
	}))
	return &values
}
