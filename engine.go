package inksep

import (
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

type EngineOptions struct {
	Logger *zap.Logger
	// Seed for palette sampling and centroid initialisation.
	// 0 seeds from the clock, so palettes differ run to run.
	Seed uint64
	// Goroutines used inside a stage. 0 means GOMAXPROCS.
	Workers int
	// Pixels classified per chunk. 50k-100k keeps temporaries small.
	ChunkSize int
	// Upper bound for one chunk's distance scratch space. Chunks shrink to fit,
	// so very large palettes degrade to smaller chunks instead of failing.
	MaxChunkBytes int
	// Resampling filter used by Resize.
	Resample ResampleKernel
}

func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		Logger:        zap.NewNop(),
		Workers:       runtime.GOMAXPROCS(0),
		ChunkSize:     65536,
		MaxChunkBytes: 256 << 20,
		Resample:      KernelLanczos3,
	}
}

// Engine runs every pipeline stage. It holds no image state; all inputs and outputs
// are passed explicitly.
type Engine struct {
	log  *zap.Logger
	opts EngineOptions

	mu  sync.Mutex
	rng *rand.Rand
}

func NewEngine(opt EngineOptions) *Engine {
	def := DefaultEngineOptions()
	if opt.Logger == nil {
		opt.Logger = def.Logger
	}
	if opt.Workers <= 0 {
		opt.Workers = def.Workers
	}
	if opt.ChunkSize <= 0 {
		opt.ChunkSize = def.ChunkSize
	}
	if opt.MaxChunkBytes <= 0 {
		opt.MaxChunkBytes = def.MaxChunkBytes
	}
	seed := opt.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Engine{
		log:  opt.Logger,
		opts: opt,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (e *Engine) Logger() *zap.Logger {
	return e.log
}

// withRand serialises access to the engine RNG.
func (e *Engine) withRand(fn func(r *rand.Rand)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.rng)
}

// chunkSizeFor shrinks the configured chunk until its scratch space fits the budget.
func (e *Engine) chunkSizeFor(paletteLen int) int {
	perPixel := (paletteLen+1)*8 + 64
	chunk := e.opts.ChunkSize
	for chunk > 1024 && chunk*perPixel > e.opts.MaxChunkBytes {
		chunk /= 2
	}
	return chunk
}
