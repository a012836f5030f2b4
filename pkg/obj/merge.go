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

import (
	"tlog.app/go/errors"
)

// Merge folds other into o. Sections with the same name are concatenated,
// other's defined symbols and relocations are shifted by the length the
// section had in o before the append, and references are unified with
// whatever entry o already has. Every check runs before o is modified, so
// a failed merge leaves o as it was. After a successful merge other is
// reset to the zero value and must not be used.
func (o *ObjectFile) Merge(other *ObjectFile) error {
	if other == nil {
		return errors.New("merge: nil object file")
	}
	if o == other {
		return errors.New("merge: object file merged with itself")
	}
	if err := o.checkMerge(other); err != nil {
		return err
	}

	o.init()
	delta := make(map[string]uint32, len(other.sections))
	for _, s := range other.sections {
		mine := o.Section(s.Name)
		if mine == nil {
			o.sectionIndex[s.Name] = len(o.sections)
			o.sections = append(o.sections, s)
			delta[s.Name] = 0
			continue
		}
		delta[s.Name] = mine.Len()
		mine.Data = append(mine.Data, s.Data...)
		mine.Align = max(mine.Align, s.Align)
	}

	for _, sym := range other.symbols {
		e := o.entry(sym.Name)
		if sym.Defined {
			e.Defined = true
			e.Section = sym.Section
			e.Offset = sym.Offset + delta[sym.Section]
		}
		if sym.Visibility == Global {
			e.Visibility = Global
		}
	}

	for _, r := range other.relocations {
		r.Offset += delta[r.Section]
		o.relocations = append(o.relocations, r)
	}

	*other = ObjectFile{}
	return nil
}

func (o *ObjectFile) checkMerge(other *ObjectFile) error {
	if o.Target != other.Target {
		return &TargetMismatchError{Have: o.Target, Other: other.Target}
	}
	for _, s := range other.sections {
		if mine := o.Section(s.Name); mine != nil && mine.Kind != s.Kind {
			return &SectionKindMismatchError{Section: s.Name, Have: mine.Kind, Other: s.Kind}
		}
	}
	for _, sym := range other.symbols {
		if !sym.Defined {
			continue
		}
		if mine := o.Symbol(sym.Name); mine != nil && mine.Defined {
			return &DuplicateDefinitionError{Name: sym.Name}
		}
	}
	return nil
}

// MergeAll folds files left to right into the first one. The inputs are
// consumed.
func MergeAll(files []*ObjectFile) (*ObjectFile, error) {
	if len(files) == 0 {
		return nil, errors.New("merge: no object files")
	}
	res := files[0]
	for i, f := range files[1:] {
		if err := res.Merge(f); err != nil {
			return nil, errors.Wrap(err, "merge file %d", i+1)
		}
	}
	return res, nil
}
