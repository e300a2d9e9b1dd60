// SPDX-FileCopyrightText: 2023 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package gpiocdev

import (
	"strconv"

	"github.com/sirupsen/logrus"
)

// ResolveOptions controls the scope and policy of line resolution.
type ResolveOptions struct {
	// Chip restricts the search to a single chip, identified by name, number
	// or path. If empty then all chips are searched.
	Chip string

	// ByName prevents identifiers being interpreted as offsets.
	//
	// Identifiers are only interpreted as offsets when Chip is set.
	ByName bool

	// Strict searches every line on every chip in scope and records every
	// match, rather than stopping at the first match for each identifier.
	Strict bool

	// ABI is the uAPI version used to open chips, or 0 to probe.
	ABI int

	// Log receives diagnostics, such as chips skipped as inaccessible.
	// May be nil.
	Log logrus.FieldLogger
}

// ChipOffset identifies a line within a Resolution.
type ChipOffset struct {
	// Chip is the index of the chip in Resolution.Chips.
	Chip int

	// Offset is the offset of the line on the chip.
	Offset int
}

// LineMatch is a line that matched an identifier.
type LineMatch struct {
	ChipOffset

	// Info is the info of the line at the time it was matched.
	Info LineInfo
}

// Resolution is the result of resolving a set of line identifiers.
type Resolution struct {
	// IDs are the identifiers that were resolved, in the order provided.
	IDs []string

	// Chips contains the chips with matching lines, in discovery order.
	Chips []ChipInfo

	// Matches contains the matches for each identifier.
	//
	// Outside strict mode there is at most one match per identifier.
	Matches map[string][]LineMatch

	// Counts contains the number of matches for each of the IDs.
	Counts []int
}

// Line returns the first match for an identifier.
func (r *Resolution) Line(id string) (LineMatch, bool) {
	mm := r.Matches[id]
	if len(mm) == 0 {
		return LineMatch{}, false
	}
	return mm[0], true
}

// Validate checks that every identifier matched exactly one line, and that no
// two identifiers matched the same line.
//
// Returns a *ResolutionError describing all the identifiers that fail.
func (r *Resolution) Validate() error {
	re := ResolutionError{Ambiguous: map[string]int{}}
	owners := map[ChipOffset]int{}
	for i, id := range r.IDs {
		switch r.Counts[i] {
		case 0:
			re.NotFound = append(re.NotFound, id)
			continue
		case 1:
		default:
			re.Ambiguous[id] = r.Counts[i]
			continue
		}
		co := r.Matches[id][0].ChipOffset
		if owner, ok := owners[co]; ok {
			re.Duplicates = append(re.Duplicates, [2]string{r.IDs[owner], id})
			continue
		}
		owners[co] = i
	}
	if re.empty() {
		return nil
	}
	return &re
}

// Resolve finds the lines matching the identifiers.
//
// An identifier matches a line if it equals the line name, or, if a chip is
// specified and ByName is not set, if it is the decimal offset of the line.
//
// Failing to match an identifier is not an error for Resolve, the match
// counts are returned in the Resolution and Validate reports identifiers that
// are not found or are ambiguous.
//
// If opts.Chip is specified then failure to open it is an error, otherwise
// chips that cannot be opened are skipped.
func Resolve(ids []string, opts ResolveOptions) (*Resolution, error) {
	r := resolver{
		chips: Chips,
		open: func(name string) (lineSource, error) {
			return NewChip(name, WithABIVersion(opts.ABI))
		},
	}
	return r.resolve(ids, opts)
}

// lineSource is the subset of Chip used for resolution.
type lineSource interface {
	Info() (ChipInfo, error)
	LineInfo(offset int) (LineInfo, error)
	Close() error
}

type resolver struct {
	chips func() []string
	open  func(name string) (lineSource, error)
}

func (r resolver) resolve(ids []string, opts ResolveOptions) (*Resolution, error) {
	res := &Resolution{
		IDs:     append([]string(nil), ids...),
		Matches: map[string][]LineMatch{},
		Counts:  make([]int, len(ids)),
	}
	names := []string{opts.Chip}
	if opts.Chip == "" {
		names = r.chips()
	}
	// offsets parsed from ids, -1 if not an offset
	offsets := make([]int, len(ids))
	for i, id := range ids {
		offsets[i] = -1
		if opts.Chip != "" && !opts.ByName {
			if o, err := strconv.Atoi(id); err == nil && o >= 0 && strconv.Itoa(o) == id {
				offsets[i] = o
			}
		}
	}
	found := 0
	for _, name := range names {
		if !opts.Strict && found == len(ids) {
			break
		}
		c, err := r.open(name)
		if err != nil {
			if opts.Chip != "" {
				return nil, err
			}
			if opts.Log != nil {
				opts.Log.WithError(err).WithField("chip", name).Debug("skipping chip")
			}
			continue
		}
		err = r.resolveChip(c, res, ids, offsets, opts.Strict, &found)
		c.Close()
		if err != nil {
			if opts.Chip != "" {
				return nil, err
			}
			if opts.Log != nil {
				opts.Log.WithError(err).WithField("chip", name).Debug("skipping chip")
			}
		}
	}
	return res, nil
}

// resolveChip searches the lines of a single chip, adding any matches to the
// resolution.
//
// Matches are only added if the whole search succeeds, so a chip that fails
// partway through leaves the resolution unchanged.
func (r resolver) resolveChip(c lineSource, res *Resolution, ids []string, offsets []int, strict bool, found *int) error {
	ci, err := c.Info()
	if err != nil {
		return err
	}
	type idMatch struct {
		idx int
		m   LineMatch
	}
	chipIdx := len(res.Chips)
	counts := make([]int, len(ids))
	var matches []idMatch
	chipFound := 0
	for offset := 0; offset < ci.Lines; offset++ {
		if !strict && *found+chipFound == len(ids) {
			break
		}
		li, err := c.LineInfo(offset)
		if err != nil {
			return err
		}
		for i, id := range ids {
			if !strict && res.Counts[i]+counts[i] > 0 {
				continue
			}
			if (li.Name == "" || id != li.Name) && offsets[i] != offset {
				continue
			}
			if res.Counts[i]+counts[i] == 0 {
				chipFound++
			}
			counts[i]++
			matches = append(matches, idMatch{i, LineMatch{
				ChipOffset: ChipOffset{Chip: chipIdx, Offset: offset},
				Info:       li,
			}})
		}
	}
	if len(matches) == 0 {
		return nil
	}
	res.Chips = append(res.Chips, ci)
	for i, n := range counts {
		res.Counts[i] += n
	}
	for _, im := range matches {
		id := ids[im.idx]
		res.Matches[id] = append(res.Matches[id], im.m)
	}
	*found += chipFound
	return nil
}
