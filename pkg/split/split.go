// Package split cuts grid cells out of a composed master raster and
// encodes each one.
package split

import (
	"image"
	"sync"

	"github.com/PhantomInTheWire/grid-slicer/pkg/geometry"
	"github.com/PhantomInTheWire/grid-slicer/pkg/grid"
	"github.com/PhantomInTheWire/grid-slicer/pkg/raster"
)

// Tile is one encoded cell. Err is set when encoding failed; Data is nil then.
type Tile struct {
	Cell geometry.Cell
	Data []byte
	Err  error
}

// Slicer resamples and encodes cells. With Workers > 1 cells are rendered
// concurrently, each worker with its own cell raster; tiles are still
// delivered in input order.
type Slicer struct {
	Encoder raster.Encoder
	Workers int
}

// EmitFunc receives tiles in input order. Returning an error stops slicing.
type EmitFunc func(Tile) error

// Cells slices cells from master and hands each tile to emit in order.
// master must not be modified until Cells returns.
func (s Slicer) Cells(master image.Image, cells []geometry.Cell, format grid.Format, emit EmitFunc) error {
	if s.Workers <= 1 || len(cells) <= 1 {
		var buf raster.CellBuffer
		for _, c := range cells {
			if err := emit(s.render(master, &buf, c, format)); err != nil {
				return err
			}
		}
		return nil
	}
	return s.parallel(master, cells, format, emit)
}

func (s Slicer) render(master image.Image, buf *raster.CellBuffer, c geometry.Cell, format grid.Format) Tile {
	dst := buf.Get(c.OutWidth, c.OutHeight)
	raster.Resample(dst, master, c.SrcX, c.SrcY, c.SrcWidth, c.SrcHeight)
	enc := s.Encoder
	if enc == nil {
		enc = raster.DefaultEncoder
	}
	data, err := enc.Encode(dst, format)
	return Tile{Cell: c, Data: data, Err: err}
}

func (s Slicer) parallel(master image.Image, cells []geometry.Cell, format grid.Format, emit EmitFunc) error {
	type result struct {
		pos  int
		tile Tile
	}

	workers := min(s.Workers, len(cells))
	tasks := make(chan int)
	results := make(chan result, workers)
	stop := make(chan struct{})

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var buf raster.CellBuffer
			for i := range tasks {
				results <- result{pos: i, tile: s.render(master, &buf, cells[i], format)}
			}
		}()
	}

	// dispatch
	go func() {
		defer close(tasks)
		for i := range cells {
			select {
			case tasks <- i:
			case <-stop:
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// collect, reordering by input position
	pending := make(map[int]Tile)
	next := 0
	var err error
	for r := range results {
		if err != nil {
			continue
		}
		pending[r.pos] = r.tile
		for {
			t, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if err = emit(t); err != nil {
				close(stop)
				break
			}
		}
	}
	return err
}
