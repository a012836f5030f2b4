/*
Copyright © 2022 Jeff Berkowitz (pdxjjb@gmail.com)

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/monistode/cli/pkg/obj"
	"github.com/monistode/cli/pkg/sim"
)

var runSteps uint64

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run executable",
	Short: "Run a stack dialect executable in the simulator",
	Long: `Run loads an executable into the simulator and runs it from its
entry point until it halts. The program's output goes to standard output
and its input comes from standard input. --steps bounds the number of
instructions executed; 0 means no bound.
`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := readInput(args[0])
		if err != nil {
			return err
		}

		var exe obj.Executable
		if err = exe.UnmarshalBinary(b); err != nil {
			return errors.Wrap(err, "decode %v", args[0])
		}

		e, err := sim.New(&exe, sim.WithInput(os.Stdin), sim.WithOutput(cmd.OutOrStdout()))
		if err != nil {
			return err
		}

		err = e.Run(commandContext(), runSteps)
		tlog.V("sim").Printw("stopped", "pc", e.PC(), "steps", e.Steps(), "stack", e.Stack())

		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Uint64Var(&runSteps, "steps", 1000000, "maximum number of instructions to execute")
}
