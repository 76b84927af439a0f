// Package parallel spreads row-wise image work over the available CPUs.
package parallel

import (
	"runtime"
	"sync"
)

// Rows calls fn once for every row in [0, rows). Rows are split into
// contiguous chunks, one goroutine per CPU; fn must only write to its own row.
func Rows(rows int, fn func(r int)) {
	workers := min(runtime.NumCPU(), rows)
	if workers <= 1 {
		for r := 0; r < rows; r++ {
			fn(r)
		}
		return
	}

	var wg sync.WaitGroup
	chunk := (rows + workers - 1) / workers
	for start := 0; start < rows; start += chunk {
		end := min(start+chunk, rows)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for r := start; r < end; r++ {
				fn(r)
			}
		}(start, end)
	}
	wg.Wait()
}
