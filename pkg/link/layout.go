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

package link

import (
	"sort"

	"github.com/monistode/cli/pkg/obj"
	"github.com/monistode/cli/pkg/target"
)

// Placement is a section and its final address.
type Placement struct {
	Section *obj.Section
	Address uint32
}

// Layout places every section of an object file in the target's
// address space.
type Layout struct {
	Base     uint32
	End      uint32 // first address past the last section
	Sections []Placement

	addr map[string]uint32
}

// Address returns where the named section starts.
func (l *Layout) Address(section string) (uint32, bool) {
	a, ok := l.addr[section]
	return a, ok
}

// Size is the image length, including alignment padding.
func (l *Layout) Size() uint32 {
	return l.End - l.Base
}

// Plan orders the sections by the target's layout rank, keeping object
// order within a rank, and assigns addresses from the base address up.
// Each section starts at a multiple of its alignment.
func Plan(o *obj.ObjectFile, t target.Target) (*Layout, error) {
	secs := append([]*obj.Section(nil), o.Sections()...)
	sort.SliceStable(secs, func(i, j int) bool {
		return t.LayoutRank(secs[i].Kind) < t.LayoutRank(secs[j].Kind)
	})

	limit := uint64(1) << t.AddressBits()
	l := &Layout{
		Base: t.BaseAddress(),
		addr: make(map[string]uint32, len(secs)),
	}

	next := uint64(l.Base)
	for _, s := range secs {
		next = alignUp(next, uint64(s.Align))
		if next+uint64(s.Len()) > limit {
			return nil, &ImageTooLargeError{End: next + uint64(s.Len()), Limit: limit}
		}
		l.Sections = append(l.Sections, Placement{Section: s, Address: uint32(next)})
		l.addr[s.Name] = uint32(next)
		next += uint64(s.Len())
	}
	l.End = uint32(next)

	return l, nil
}

func alignUp(n, align uint64) uint64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}
