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

package obj

// Executable is the fully resolved output of the linker. Image is loaded
// at Base and execution starts at Entry.
type Executable struct {
	Target string
	Base   uint32
	Entry  uint32
	Image  []byte
}

// End is the first address past the image.
func (e *Executable) End() uint32 {
	return e.Base + uint32(len(e.Image))
}
