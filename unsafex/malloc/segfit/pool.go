package segfit

import "github.com/bytedance/gopkg/lang/mcache"

// NewPooled sources its backing arena from bytedance/gopkg's size-class
// byte pool (mcache) instead of a caller-supplied slice, for callers
// that want segfit's in-band bookkeeping over a region they don't need
// to own long-term. The returned release func hands the arena back to
// mcache; callers must not touch the allocator or any payload slice it
// issued after calling release.
func NewPooled(size int) (a *Allocator, release func(), err error) {
	arena := mcache.Malloc(size)
	a, err = New(arena)
	if err != nil {
		mcache.Free(arena)
		return nil, nil, err
	}
	return a, func() { mcache.Free(arena) }, nil
}
