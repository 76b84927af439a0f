package parallel

import (
	"sync/atomic"
	"testing"
)

func TestRowsVisitsEveryRowOnce(t *testing.T) {
	for _, rows := range []int{0, 1, 7, 1001} {
		seen := make([]int32, rows)
		Rows(rows, func(r int) { atomic.AddInt32(&seen[r], 1) })
		for r, n := range seen {
			if n != 1 {
				t.Fatalf("rows=%d: row %d visited %d times", rows, r, n)
			}
		}
	}
}
