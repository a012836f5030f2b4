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
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"
)

// Protocol commands. Values are above the printable range so a monitor
// that has lost sync can tell them from text.
const (
	CmdSync       = 0xE0
	CmdGetVersion = 0xE1
	CmdSetAddress = 0xE2 // lo hi
	CmdWritePage  = 0xE3 // count, then count bytes
	CmdStart      = 0xE4 // lo hi
)

const ProtocolVersion = 1

// MaxPage is the largest counted transfer the monitor accepts.
const MaxPage = 255

func Ack(cmd byte) byte {
	return ^cmd
}

type UnexpectedResponseError struct {
	Command  byte
	Response byte
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("command 0x%02X: unexpected response 0x%02X", e.Command, e.Response)
}

type VersionMismatchError struct {
	Host  byte
	Board byte
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("protocol version mismatch: host 0x%02X, board 0x%02X", e.Host, e.Board)
}

// command sends the fixed part of a command, waits for the ack and reads
// expected bytes of fixed response.
func (d *Device) command(fixed []byte, expected int) ([]byte, error) {
	if len(fixed) < 1 || len(fixed) > 8 {
		return nil, errors.New("invalid fixed command length %d", len(fixed))
	}

	if tlog.If("loader") {
		tlog.Printw("command", "cmd", fixed[0], "args", fixed[1:], "from", loc.Caller(1))
	}

	if err := d.write(fixed); err != nil {
		return nil, errors.Wrap(err, "command 0x%02X", fixed[0])
	}

	b, err := d.readByte()
	if err != nil {
		return nil, errors.Wrap(err, "command 0x%02X: ack", fixed[0])
	}
	if b != Ack(fixed[0]) {
		return nil, &UnexpectedResponseError{Command: fixed[0], Response: b}
	}

	res := make([]byte, expected)
	for i := range res {
		res[i], err = d.readByte()
		if err != nil {
			return nil, errors.Wrap(err, "command 0x%02X: response", fixed[0])
		}
	}

	return res, nil
}

// Sync sends sync commands until one is acknowledged, then swallows the
// acks of the earlier ones that may still be in flight.
func (d *Device) Sync() (err error) {
	const tries = 3
	sent := 0

	for i := 0; i < tries; i++ {
		_, err = d.command([]byte{CmdSync}, 0)
		sent++
		if err == nil {
			for sent--; sent > 0; sent-- {
				_, _ = d.readByte()
			}

			return nil
		}

		tlog.V("loader").Printw("sync failed", "try", i, "err", err)
	}

	return errors.Wrap(err, "failed to synchronize")
}

func (d *Device) Version() (byte, error) {
	res, err := d.command([]byte{CmdGetVersion}, 1)
	if err != nil {
		return 0, err
	}

	return res[0], nil
}

// CheckVersion fails with VersionMismatchError unless the board speaks
// ProtocolVersion.
func (d *Device) CheckVersion() error {
	v, err := d.Version()
	if err != nil {
		return err
	}
	if v != ProtocolVersion {
		return &VersionMismatchError{Host: ProtocolVersion, Board: v}
	}

	return nil
}

func (d *Device) SetAddress(addr uint16) error {
	_, err := d.command([]byte{CmdSetAddress, byte(addr), byte(addr >> 8)}, 0)
	return err
}

// WritePage stores p at the current address; the board advances the
// address past it.
func (d *Device) WritePage(p []byte) error {
	if len(p) == 0 || len(p) > MaxPage {
		return errors.New("page length %d out of range 1..%d", len(p), MaxPage)
	}

	if _, err := d.command([]byte{CmdWritePage, byte(len(p))}, 0); err != nil {
		return err
	}

	return d.write(p)
}

func (d *Device) Start(addr uint16) error {
	_, err := d.command([]byte{CmdStart, byte(addr), byte(addr >> 8)}, 0)
	return err
}
