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
	"context"
	"os"

	"github.com/spf13/cobra"
	"tlog.app/go/tlog"
)

var verbose string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "monistode",
	Short: "Assembler, linker and tools for the monistode machines",
	Long: `Monistode assembles source files for one of the monistode target
dialects into relocatable object files, links object files into a
loadable executable, and runs or downloads the result.

A typical session:

	monistode as hello.s
	monistode link hello.o
	monistode run hello.x
`,

	SilenceUsage: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose != "" {
			tlog.SetVerbosity(verbose)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&verbose, "verbose", "v", "", "comma separated log topics (asm, link, sim, loader)")
}

// commandContext returns the context subcommands run under. The root span is
// installed only when some log topic is on.
func commandContext() context.Context {
	ctx := context.Background()
	if verbose != "" {
		ctx = tlog.ContextWithSpan(ctx, tlog.Root())
	}

	return ctx
}
