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

	"github.com/monistode/cli/pkg/toolchain"
)

var linkOutput string

// linkCmd represents the link command
var linkCmd = &cobra.Command{
	Use:   "link objectFile...",
	Short: "Link object files into an executable",
	Long: `Link merges the object files in the order given, lays out their
sections at the target's base address, resolves every symbol reference
and writes a loadable executable. The output defaults to the first input
name with its extension replaced by .x.
`,

	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		objects := make([][]byte, len(args))
		for i, name := range args {
			b, err := readInput(name)
			if err != nil {
				return errors.Wrap(err, "%v", name)
			}

			objects[i] = b
		}

		b, err := toolchain.Link(commandContext(), objects)
		if err != nil {
			return errors.Wrap(err, "link")
		}

		out := linkOutput
		if out == "" {
			out = replaceExt(args[0], ".x")
		}

		return writeOutput(out, b)
	},
}

func init() {
	rootCmd.AddCommand(linkCmd)

	linkCmd.Flags().StringVarP(&linkOutput, "output", "o", "", "executable to write")
}
