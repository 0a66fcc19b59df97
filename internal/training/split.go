package training

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Split shuffles row indices with a seeded PCG source and holds out
// ceil(testSize*n) rows for evaluation.
func Split(ds Dataset, testSize float64, seed uint64) (train, test Dataset, err error) {
	n := ds.Len()
	if testSize <= 0 || testSize >= 1 {
		return Dataset{}, Dataset{}, fmt.Errorf("test size must be in (0, 1), got %v", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest < 1 || nTest >= n {
		return Dataset{}, Dataset{}, fmt.Errorf("cannot split %d rows with test size %v", n, testSize)
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	r := rand.New(rand.NewPCG(seed, seed))
	r.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	test = subset(ds, idx[:nTest])
	train = subset(ds, idx[nTest:])
	return train, test, nil
}

func subset(ds Dataset, idx []int) Dataset {
	out := Dataset{
		X: make([][]float64, len(idx)),
		Y: make([]float64, len(idx)),
	}
	for k, i := range idx {
		out.X[k] = ds.X[i]
		out.Y[k] = ds.Y[i]
	}
	return out
}
