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

package loader

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/monistode/cli/pkg/obj"
)

// Download writes exe into the board's memory at its base address and
// starts it at the entry point. ctx is checked between pages.
func Download(ctx context.Context, d *Device, exe *obj.Executable) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "download", "target", exe.Target, "base", exe.Base, "size", len(exe.Image))
	defer tr.Finish("err", &err)

	if end := uint64(exe.Base) + uint64(len(exe.Image)); end > 1<<16 {
		return errors.New("image ends at 0x%X, past the 16-bit address space", end)
	}

	if err = d.Sync(); err != nil {
		return err
	}
	if err = d.CheckVersion(); err != nil {
		return err
	}

	if len(exe.Image) != 0 {
		if err = d.SetAddress(uint16(exe.Base)); err != nil {
			return errors.Wrap(err, "set address")
		}
	}

	for off := 0; off < len(exe.Image); off += MaxPage {
		if err = ctx.Err(); err != nil {
			return err
		}

		end := off + MaxPage
		if end > len(exe.Image) {
			end = len(exe.Image)
		}

		if err = d.WritePage(exe.Image[off:end]); err != nil {
			return errors.Wrap(err, "page at 0x%04X", exe.Base+uint32(off))
		}

		if tr.If("loader") {
			tr.Printw("page", "addr", exe.Base+uint32(off), "len", end-off)
		}
	}

	if err = d.Start(uint16(exe.Entry)); err != nil {
		return errors.Wrap(err, "start")
	}

	return nil
}
