// Package export turns a grid over one image into a zip of tile images.
//
// A Run walks a fixed sequence of states:
//
//	Idle → Loading → ComposingMaster → SlicingCells → Archiving → Saving → Done
//
// and stops in Failed at the first error. Nothing reaches the sink unless
// every earlier state succeeded.
package export

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/PhantomInTheWire/grid-slicer/pkg/archive"
	"github.com/PhantomInTheWire/grid-slicer/pkg/geometry"
	"github.com/PhantomInTheWire/grid-slicer/pkg/grid"
	"github.com/PhantomInTheWire/grid-slicer/pkg/raster"
	"github.com/PhantomInTheWire/grid-slicer/pkg/split"
	"github.com/PhantomInTheWire/grid-slicer/pkg/storage"
)

// State is a step of the export state machine.
type State int

const (
	Idle State = iota
	Loading
	ComposingMaster
	SlicingCells
	Archiving
	Saving
	Done
	Failed
)

var stateNames = [...]string{"idle", "loading", "composing master", "slicing cells", "archiving", "saving", "done", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Progress milestones, in percent.
const (
	sliceProgress   = 50
	archiveProgress = 60
)

// ProgressFunc receives integer progress 0..100, non-decreasing within a job.
type ProgressFunc func(percent int)

// Options tunes a Pipeline.
type Options struct {
	// ResolutionScale is the master raster size relative to the viewport.
	ResolutionScale float64
	// MaxScale caps ResolutionScale.
	MaxScale float64
	// MaxPixels rejects master rasters above this many pixels; zero disables.
	MaxPixels int
	// Strict aborts the job when a cell fails to encode instead of skipping it.
	Strict bool
	// Workers > 1 renders and encodes cells concurrently.
	Workers int
	// Encoder overrides raster.DefaultEncoder.
	Encoder raster.Encoder
	// OnState is called on every state change.
	OnState func(State)
	Logger  *log.Logger
}

// DefaultOptions renders at 2x, lenient about encode failures, one worker.
func DefaultOptions() Options {
	return Options{
		ResolutionScale: 2,
		MaxScale:        2,
		MaxPixels:       16384 * 16384,
		Workers:         1,
	}
}

// Scale is the effective resolution scale.
func (o Options) Scale() float64 {
	res := o.ResolutionScale
	if res <= 0 {
		res = 2
	}
	if o.MaxScale > 0 {
		res = min(res, o.MaxScale)
	}
	return res
}

// Request is the input of one export.
type Request struct {
	// Asset is used as is when set; otherwise Source is decoded.
	Asset    *raster.Asset
	Source   io.Reader
	Filename string

	Settings  grid.Settings
	Selection grid.Selection
}

// Result describes a successful export.
type Result struct {
	ArchiveName string
	// Files are tile names in archive order.
	Files []string
	// Skipped lists cells dropped because they failed to encode.
	Skipped  []int
	Archive  []byte
	Viewport geometry.Size
	Scale    float64
}

// Pipeline exports tiles to a sink. A Pipeline holds no per-job state and
// may be reused; callers must not run two jobs for the same session at once.
type Pipeline struct {
	sink storage.Sink
	opts Options
	log  *log.Logger
}

// New returns a pipeline saving archives to sink.
func New(sink storage.Sink, opts Options) *Pipeline {
	l := opts.Logger
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	return &Pipeline{sink: sink, opts: opts, log: l}
}

// newArchive is replaced in tests.
var newArchive = archive.New

type blob struct {
	name string
	data []byte
}

// job is the transient state of one Run.
type job struct {
	state    State
	progress int
	report   ProgressFunc
	onState  func(State)
	blobs    []blob
}

func (j *job) enter(s State) {
	j.state = s
	if j.onState != nil {
		j.onState(s)
	}
}

func (j *job) setProgress(p int) {
	p = min(100, max(0, p))
	if p <= j.progress {
		return
	}
	j.progress = p
	if j.report != nil {
		j.report(p)
	}
}

// Run executes one export. ctx is only consulted by the sink.
func (p *Pipeline) Run(ctx context.Context, req Request, progress ProgressFunc) (*Result, error) {
	j := &job{state: Idle, report: progress, onState: p.opts.OnState}
	if progress != nil {
		progress(0)
	}
	res, err := p.run(ctx, j, req)
	if err != nil {
		p.log.Printf("export failed in %s: %v", j.state, err)
		j.enter(Failed)
		return nil, err
	}
	j.enter(Done)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, j *job, req Request) (*Result, error) {
	s := req.Settings
	if err := s.Validate(); err != nil {
		return nil, stageErr(Idle, -1, ErrInvalidSettings, err)
	}
	if p.sink == nil {
		return nil, stageErr(Idle, -1, ErrSave, errors.New("no sink configured"))
	}

	j.enter(Loading)
	asset := req.Asset
	if asset == nil {
		if req.Source == nil {
			return nil, stageErr(Loading, -1, ErrDecode, errors.New("no source image"))
		}
		var err error
		asset, err = raster.Decode(req.Source, req.Filename)
		if err != nil {
			return nil, stageErr(Loading, -1, ErrDecode, err)
		}
	}
	base := BaseName(s.FilePrefix, asset.Filename)

	indices, err := req.Selection.Resolve(s.Cells())
	if err != nil {
		return nil, stageErr(Loading, -1, ErrInvalidSettings, err)
	}

	j.enter(ComposingMaster)
	res := p.opts.Scale()
	viewport := geometry.Viewport(asset.Width, asset.Height, s.Crop)
	master, err := raster.Master(asset, s, res, p.opts.MaxPixels)
	if err != nil {
		return nil, stageErr(ComposingMaster, -1, ErrRaster, err)
	}
	p.log.Printf("master %dx%d (viewport %dx%d at %gx), %d cells",
		master.Rect.Dx(), master.Rect.Dy(), viewport.Width, viewport.Height, res, len(indices))

	j.enter(SlicingCells)
	cells := make([]geometry.Cell, len(indices))
	for i, idx := range indices {
		cells[i] = geometry.CellRect(idx, s.Cols, s.Rows, viewport, s.Padding, res)
	}
	var skipped []int
	done := 0
	slicer := split.Slicer{Encoder: p.opts.Encoder, Workers: p.opts.Workers}
	err = slicer.Cells(master, cells, s.Format, func(t split.Tile) error {
		done++
		defer j.setProgress(done * sliceProgress / len(cells))
		if t.Err != nil {
			if p.opts.Strict {
				return stageErr(SlicingCells, t.Cell.Index, ErrEncode, t.Err)
			}
			p.log.Printf("skipping cell %d: %v", t.Cell.Index, t.Err)
			skipped = append(skipped, t.Cell.Index)
			return nil
		}
		j.blobs = append(j.blobs, blob{
			name: TileName(base, t.Cell.Row, t.Cell.Col, s.Format),
			data: t.Data,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	j.enter(Archiving)
	j.setProgress(archiveProgress)
	z := newArchive()
	files := make([]string, 0, len(j.blobs))
	for _, b := range j.blobs {
		if err := z.Insert(b.name, b.data); err != nil {
			return nil, stageErr(Archiving, -1, ErrArchive, err)
		}
		files = append(files, b.name)
	}
	data, err := z.Finalize(func(f float64) {
		j.setProgress(archiveProgress + int(f*float64(100-archiveProgress)))
	})
	if err != nil {
		return nil, stageErr(Archiving, -1, ErrArchive, err)
	}
	j.blobs = nil

	j.enter(Saving)
	name := ArchiveName(base)
	if err := p.sink.Save(ctx, data, name); err != nil {
		return nil, stageErr(Saving, -1, ErrSave, err)
	}
	p.log.Printf("saved %s: %d tiles, %d skipped, %d bytes", name, len(files), len(skipped), len(data))

	return &Result{
		ArchiveName: name,
		Files:       files,
		Skipped:     skipped,
		Archive:     data,
		Viewport:    viewport,
		Scale:       res,
	}, nil
}
