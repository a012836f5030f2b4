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

	"github.com/monistode/cli/pkg/loader"
	"github.com/monistode/cli/pkg/obj"
)

var (
	loadPort string
	loadBaud int
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load executable",
	Short: "Download an executable to a board over a serial line",
	Long: `Load opens the serial port, waits for the board to come out of
reset, synchronizes with its monitor and checks the protocol version.
It then writes the executable image page by page starting at the image
base and tells the monitor to start at the entry point.
`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		b, err := readInput(args[0])
		if err != nil {
			return err
		}

		var exe obj.Executable
		if err = exe.UnmarshalBinary(b); err != nil {
			return errors.Wrap(err, "decode %v", args[0])
		}

		d, err := loader.Open(loadPort, loadBaud)
		if err != nil {
			return err
		}
		defer func() {
			e := d.Close()
			if err == nil {
				err = e
			}
		}()

		return loader.Download(commandContext(), d, &exe)
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringVarP(&loadPort, "port", "p", "", "serial device")
	loadCmd.Flags().IntVarP(&loadBaud, "baud", "b", loader.DefaultBaud, "baud rate")
	_ = loadCmd.MarkFlagRequired("port")
}
