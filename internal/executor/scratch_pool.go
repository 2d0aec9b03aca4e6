package executor

import (
	"sync"

	"github.com/quantatomai/streamgrid/internal/plan"
)

// ScratchPool recycles row-local slot buffers across requests, the
// same way the teacher's projection.gridResultPool recycles GridResult
// buffers: Get resets length to the plan's slot count (reusing
// capacity when possible), Put returns the buffer and drops
// pathologically large ones instead of pinning memory forever.
type ScratchPool struct {
	pool sync.Pool
}

// NewScratchPool returns a pool whose zero value is ready to use; the
// constructor exists to document intent and leave room for
// configuration (e.g. a pre-seeded capacity) without an API break.
func NewScratchPool() *ScratchPool {
	return &ScratchPool{}
}

// Get returns a scratch buffer with at least slotCount capacity.
func (p *ScratchPool) Get(slotCount int) []plan.Slot {
	if v := p.pool.Get(); v != nil {
		buf := v.([]plan.Slot)
		if cap(buf) >= slotCount {
			return buf[:slotCount]
		}
	}
	return make([]plan.Slot, slotCount)
}

// Put returns buf to the pool for reuse by a future request.
func (p *ScratchPool) Put(buf []plan.Slot) {
	if cap(buf) == 0 || cap(buf) > 4096 {
		return
	}
	p.pool.Put(buf[:0])
}
