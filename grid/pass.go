package grid

import (
	"context"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// TexelFunc computes the destination texel at (x, y) from the source texel.
type TexelFunc func(x, y int, v mgl32.Vec4) mgl32.Vec4

// defaultChunk is the column width handed to each goroutine when the
// caller does not ask for a worker count.
const defaultChunk = 50

// Run maps fn over every texel of src into dst. Columns are split into
// chunks processed concurrently; Run returns once every chunk is written,
// which is the barrier between passes.
//
// workers <= 0 uses fixed chunks of 50 columns.
func Run(ctx context.Context, workers int, src, dst *Buffer, fn TexelFunc) error {
	if src.aliases(dst) {
		return ErrAliasedBuffers
	}
	if !src.sameSize(dst) {
		return ErrSizeMismatch
	}

	chunkSize := defaultChunk
	if workers > 0 {
		chunkSize = (src.Width + workers - 1) / workers
	}

	var wg sync.WaitGroup
	for chunkMin := 0; chunkMin < src.Width; chunkMin += chunkSize {
		chunkMin := chunkMin
		chunkMax := min(chunkMin+chunkSize, src.Width)

		wg.Add(1)
		go func() {
			defer wg.Done()
			for x := chunkMin; x < chunkMax; x++ {
				if ctx.Err() != nil {
					return
				}

				for y := 0; y < src.Height; y++ {
					i := src.Index(x, y)
					dst.Texels[i] = fn(x, y, src.Texels[i])
				}
			}
		}()
	}

	wg.Wait()

	return ctx.Err()
}
