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
	"github.com/spf13/cobra"
	"tlog.app/go/errors"

	"github.com/monistode/cli/pkg/target/stack"
	"github.com/monistode/cli/pkg/toolchain"
)

var (
	asOutput string
	asTarget string
)

// asCmd represents the as command
var asCmd = &cobra.Command{
	Use:   "as sourceFile",
	Short: "Assemble one source file into an object file",
	Long: `As translates one assembly source file into a relocatable object
file for the selected target dialect. Symbols that are not defined in the
file are left for the linker. The output defaults to the input name with
its extension replaced by .o; "-" writes to standard output.
`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := readInput(args[0])
		if err != nil {
			return err
		}

		b, err := toolchain.Assemble(commandContext(), args[0], src, asTarget)
		if err != nil {
			return errors.Wrap(err, "assemble %v", args[0])
		}

		out := asOutput
		if out == "" {
			out = replaceExt(args[0], ".o")
		}

		return writeOutput(out, b)
	},
}

func init() {
	rootCmd.AddCommand(asCmd)

	asCmd.Flags().StringVarP(&asOutput, "output", "o", "", "object file to write")
	asCmd.Flags().StringVarP(&asTarget, "target", "t", stack.Name, "target dialect")
}
