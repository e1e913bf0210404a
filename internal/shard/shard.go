// Package shard decides which user ids a sessionizer instance is
// responsible for. Instances carve the hash space of uids into disjoint
// slots; a logline whose uid hashes outside the local slot is dropped
// silently upstream.
package shard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Shard is a pure predicate over user ids.
type Shard interface {
	Accept(uid string) bool
	fmt.Stringer
}

var ErrBadSpec = errors.New("shard: invalid spec")

// Range accepts uids whose hash falls into [begin, end) of a hash space
// partitioned into total slots.
type Range struct {
	begin, end, total uint64
}

// New returns the shard owning slot index out of total.
func New(index, total uint64) Range {
	if total == 0 || index >= total {
		panic(fmt.Sprintf("shard: index %d out of range for %d slots", index, total))
	}
	return Range{begin: index, end: index + 1, total: total}
}

// All accepts every uid; the single-instance deployment.
func All() Range {
	return Range{begin: 0, end: 1, total: 1}
}

// Parse reads an "index/total" spec. The empty spec means All.
func Parse(spec string) (Range, error) {
	if spec == "" {
		return All(), nil
	}
	i, t, ok := strings.Cut(spec, "/")
	if !ok {
		return Range{}, fmt.Errorf("%w: %q", ErrBadSpec, spec)
	}
	index, err := strconv.ParseUint(i, 10, 64)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrBadSpec, spec)
	}
	total, err := strconv.ParseUint(t, 10, 64)
	if err != nil || total == 0 || index >= total {
		return Range{}, fmt.Errorf("%w: %q", ErrBadSpec, spec)
	}
	return Range{begin: index, end: index + 1, total: total}, nil
}

func (r Range) Accept(uid string) bool {
	slot := xxhash.Sum64String(uid) % r.total
	return slot >= r.begin && slot < r.end
}

func (r Range) String() string {
	if r.total == 1 {
		return "all"
	}
	return fmt.Sprintf("%d/%d", r.begin, r.total)
}
