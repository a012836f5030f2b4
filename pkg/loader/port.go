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

// Package loader sends linked executables to a board over a serial line.
//
// The board side runs a small monitor that speaks a command/ack protocol:
// the host writes a command byte and its fixed arguments, the monitor
// answers with the complement of the command byte, optionally followed by
// a fixed response. Counted data follows the ack of the command that
// announced it and is not acknowledged itself.
//
// Every read and write happens on the calling goroutine. The serial port
// object is not safe for concurrent use and a read timeout is enough to
// keep the protocol from hanging.
package loader

import (
	"fmt"
	"syscall"
	"time"

	"go.bug.st/serial"
	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"
)

const (
	DefaultBaud = 115200

	// the board resets when the port opens and swallows the first bytes
	// it sees while its bootloader waits for new firmware
	resetDelay = 3 * time.Second

	responseDelay = 100 * time.Millisecond
)

// Port is the subset of serial.Port the loader uses.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetReadTimeout(t time.Duration) error
	Close() error
}

type NoResponseError time.Duration

func (e NoResponseError) Error() string {
	return fmt.Sprintf("read from board: no response after %v", time.Duration(e))
}

// Device is a board on the other end of a Port.
type Device struct {
	port    Port
	timeout time.Duration
}

// Open opens a serial device and waits out the board reset.
func Open(device string, baud int) (*Device, error) {
	mode := &serial.Mode{BaudRate: baud, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}
	p, err := serial.Open(device, mode)
	if err != nil {
		return nil, errors.Wrap(err, "open %v", device)
	}

	tlog.Printw("serial port is open, waiting for board reset", "device", device, "baud", baud)
	time.Sleep(resetDelay)

	return NewDevice(p), nil
}

func NewDevice(p Port) *Device {
	return &Device{port: p, timeout: responseDelay}
}

// SetTimeout changes how long a read waits for the board.
func (d *Device) SetTimeout(t time.Duration) {
	d.timeout = t
}

func (d *Device) Close() error {
	if d.port == nil {
		return errors.New("close: port not open")
	}

	err := d.port.Close()
	d.port = nil
	if err != nil {
		return errors.Wrap(err, "close serial port")
	}

	return nil
}

// readByte reads one byte or fails with NoResponseError after the timeout.
func (d *Device) readByte() (byte, error) {
	b := make([]byte, 1)

	if err := d.port.SetReadTimeout(d.timeout); err != nil {
		return 0, errors.Wrap(err, "set read timeout")
	}

	var n int
	var err error

	// EINTR shows up routinely because of goroutine preemption signals
	for {
		n, err = d.port.Read(b)
		if !retryable(err) {
			break
		}
	}
	if err != nil {
		return 0, errors.Wrap(err, "read")
	}
	if n == 0 {
		return 0, NoResponseError(d.timeout)
	}

	if tlog.If("loader") {
		tlog.Printw("read", "b", b[0], "from", loc.Caller(1))
	}

	return b[0], nil
}

// write sends all of p.
func (d *Device) write(p []byte) error {
	if tlog.If("loader") {
		tlog.Printw("write", "len", len(p), "first", p[0], "from", loc.Caller(1))
	}

	for len(p) != 0 {
		n, err := d.port.Write(p)
		if retryable(err) {
			p = p[n:]
			continue
		}
		if err != nil {
			return errors.Wrap(err, "write")
		}
		if n == 0 {
			return errors.New("write consumed 0 bytes")
		}

		p = p[n:]
	}

	return nil
}

func retryable(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EINTR
	}

	return false
}
