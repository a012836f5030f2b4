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

// Package toolchain is the byte-level entry point to the assembler and
// linker: source in, encoded object files and executables out.
package toolchain

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/monistode/cli/pkg/asm"
	"github.com/monistode/cli/pkg/link"
	"github.com/monistode/cli/pkg/obj"
	"github.com/monistode/cli/pkg/target"
	_ "github.com/monistode/cli/pkg/target/stack"
)

var ErrNoInput = errors.New("no object files to link")

// Assemble returns the encoded object file for one source file.
func Assemble(ctx context.Context, name string, src []byte, targetName string) (b []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "toolchain: assemble", "name", name, "size", len(src), "target", targetName)
	defer tr.Finish("err", &err)

	o, err := asm.AssembleSource(ctx, name, src, targetName)
	if err != nil {
		return nil, err
	}
	return o.Serialize(), nil
}

// Link decodes the object files, merges them in order and returns the
// encoded executable.
func Link(ctx context.Context, objects [][]byte) (b []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "toolchain: link", "inputs", len(objects))
	defer tr.Finish("err", &err)

	if len(objects) == 0 {
		return nil, ErrNoInput
	}

	files := make([]*obj.ObjectFile, len(objects))
	for i, data := range objects {
		files[i] = new(obj.ObjectFile)
		if err = files[i].UnmarshalBinary(data); err != nil {
			return nil, errors.Wrap(err, "object file %d", i)
		}
	}

	exe, err := link.Link(ctx, files)
	if err != nil {
		return nil, err
	}
	return exe.Serialize(), nil
}

// Targets lists the dialect names Assemble accepts.
func Targets() []string {
	return target.Names()
}
