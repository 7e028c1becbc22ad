package videoframe

import (
	"sync"

	"gocv.io/x/gocv"
)

// FragmentAssemblerConsumer is a BatchConsumer[Fragment, []gocv.Mat]: it
// collects N fragment streams (one per batch slot), and whenever every slot
// has produced at least one fragment for the current layer, pops one from
// each and pastes their inner rects into a composite image for that layer.
// Completed composites accumulate in arrival order and are returned wholesale
// by Finalize.
type FragmentAssemblerConsumer struct {
	batchSize int
	width     int
	height    int
	matType   gocv.MatType

	mu      sync.Mutex
	pending [][]Fragment
	results []gocv.Mat
}

// NewFragmentAssemblerConsumer constructs a consumer for a batch size of N
// (fragments per layer), assembling composites of the given dimensions and
// pixel type.
func NewFragmentAssemblerConsumer(batchSize, width, height int, matType gocv.MatType) *FragmentAssemblerConsumer {
	return &FragmentAssemblerConsumer{
		batchSize: batchSize,
		width:     width,
		height:    height,
		matType:   matType,
		pending:   make([][]Fragment, batchSize),
	}
}

// BatchSize reports N.
func (c *FragmentAssemblerConsumer) BatchSize() int { return c.batchSize }

// Consume appends fragment to its slot's queue, and if every slot now holds
// at least one fragment, pops one from each and assembles the composite.
func (c *FragmentAssemblerConsumer) Consume(fragment Fragment, batchIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending[batchIndex] = append(c.pending[batchIndex], fragment)

	for {
		ready := true
		for _, slot := range c.pending {
			if len(slot) == 0 {
				ready = false
				break
			}
		}
		if !ready {
			return
		}

		layer := make([]Fragment, c.batchSize)
		for i, slot := range c.pending {
			layer[i] = slot[0]
			c.pending[i] = slot[1:]
		}
		c.assemble(layer)
	}
}

func (c *FragmentAssemblerConsumer) assemble(layer []Fragment) {
	composite := Untile(layer, c.width, c.height, c.matType)
	c.results = append(c.results, composite)
	for _, f := range layer {
		f.Mat.Close()
	}
}

// Finalize returns every assembled composite in completion order, leaving
// the consumer ready for a subsequent run.
func (c *FragmentAssemblerConsumer) Finalize() []gocv.Mat {
	c.mu.Lock()
	defer c.mu.Unlock()

	results := c.results
	c.results = nil
	c.pending = make([][]Fragment, c.batchSize)
	return results
}
