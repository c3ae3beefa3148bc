// Command stackvm runs the reference programs the vm package ships with and
// reports their results or traps.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"stackvm/vm"
)

type demo struct {
	usage  string
	build  func(c *cli.Context) vm.Function
	params func(c *cli.Context) []vm.Register
}

var demos = map[string]demo{
	"add-mul": {
		usage: "[i32_add, dup, i32_mul, ret] over --a and --b",
		build: func(c *cli.Context) vm.Function { return vm.AddMul() },
		params: func(c *cli.Context) []vm.Register {
			return []vm.Register{
				vm.RegisterFromI32(int32(c.Int("a"))),
				vm.RegisterFromI32(int32(c.Int("b"))),
			}
		},
	},
	"counter-loop": {
		usage: "decrements --n to zero, returns no results",
		build: func(c *cli.Context) vm.Function { return vm.CounterLoop() },
		params: func(c *cli.Context) []vm.Register {
			return []vm.Register{vm.RegisterFromI32(int32(c.Int("n")))}
		},
	},
	"unreachable": {
		usage: "always traps with Trap.Unreachable",
		build: func(c *cli.Context) vm.Function { return vm.UnreachableFn() },
		params: func(c *cli.Context) []vm.Register {
			return nil
		},
	},
}

// orderedDemoNames keeps `list`'s output stable across runs.
var orderedDemoNames = []string{"add-mul", "counter-loop", "unreachable"}

func main() {
	app := cli.NewApp()
	app.Name = "stackvm"
	app.Usage = "run reference programs against the register-threaded stack VM"
	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "execute a named reference program",
			ArgsUsage: "<name>",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "a", Value: 2, Usage: "first operand for add-mul"},
				cli.IntFlag{Name: "b", Value: 3, Usage: "second operand for add-mul"},
				cli.IntFlag{Name: "n", Value: 10000, Usage: "iteration count for counter-loop"},
			},
			Action: runDemo,
		},
		{
			Name:   "list",
			Usage:  "list the available reference programs",
			Action: listDemos,
		},
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("stackvm: %v", err)
		os.Exit(1)
	}
}

func listDemos(c *cli.Context) error {
	for _, name := range orderedDemoNames {
		fmt.Printf("%-14s %s\n", name, demos[name].usage)
	}
	return nil
}

func runDemo(c *cli.Context) error {
	name := c.Args().First()
	d, ok := demos[name]
	if !ok {
		return errors.Errorf("unknown program %q (see `stackvm list`)", name)
	}

	fn := d.build(c)
	engine := vm.NewEngine()
	handle := engine.PushFunction(fn)
	params := d.params(c)
	results := make([]vm.Register, fn.LenResults)

	if err := engine.Execute(handle, params, results); err != nil {
		return errors.Wrapf(err, "program %q trapped", name)
	}

	color.Green("%s -> %v", name, results)
	return nil
}
