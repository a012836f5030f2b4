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
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"tlog.app/go/errors"

	"github.com/monistode/cli/pkg/asm"
	"github.com/monistode/cli/pkg/obj"
)

var dumpRaw bool

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump file",
	Short: "Print an object file or executable",
	Long: `Dump decodes an object file or an executable, telling them apart by
their magic number, and prints the symbol table, relocations and a hex
dump of the contents. With --raw the decoded structure is pretty printed
as it is held in memory.
`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := readInput(args[0])
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()

		switch obj.Sniff(b) {
		case obj.FileObject:
			var o obj.ObjectFile
			if err = o.UnmarshalBinary(b); err != nil {
				return errors.Wrap(err, "decode %v", args[0])
			}

			if dumpRaw {
				_, err = pp.Fprintln(w, o.Sections(), o.Symbols(), o.Relocations())
				return err
			}

			return asm.WriteListing(w, &o)
		case obj.FileExecutable:
			var e obj.Executable
			if err = e.UnmarshalBinary(b); err != nil {
				return errors.Wrap(err, "decode %v", args[0])
			}

			if dumpRaw {
				_, err = pp.Fprintln(w, e)
				return err
			}

			return asm.WriteImage(w, &e)
		default:
			return errors.New("%v: not an object file or executable", args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().BoolVar(&dumpRaw, "raw", false, "pretty print the decoded structure")
}
