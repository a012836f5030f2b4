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
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
	"tlog.app/go/errors"
)

// replaceExt returns name with its extension swapped for ext.
func replaceExt(name, ext string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}

// readInput reads a whole file. The name "-" is standard input.
func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}

	b, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read input")
	}

	return b, nil
}

// writeOutput writes binary output. The name "-" is standard output,
// which is refused when it is a terminal.
func writeOutput(name string, b []byte) error {
	if name == "-" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("refusing to write binary output to a terminal")
		}

		_, err := os.Stdout.Write(b)
		return err
	}

	err := os.WriteFile(name, b, 0o644)
	if err != nil {
		return errors.Wrap(err, "write output")
	}

	return nil
}
