package pit

import (
	"math"
	"math/rand"
	"time"

	"github.com/MrShoenel/batch-pit-normalization/common"
	"gonum.org/v1/gonum/mat"
)

// SampleBuffer is a fixed-capacity store of historical observations, one
// column per feature. Rows are admitted batch-wise: size is shared across
// all features even though density estimation later reads the columns
// independently. Unset rows hold NaN and are never exposed.
//
// A buffer belongs to exactly one transform and is mutated only through
// Fill. It is not safe for concurrent use; callers that share it across
// goroutines must synchronize externally.
type SampleBuffer struct {
	capacity     int
	numFeatures  int
	takeWhenFull int

	size   int
	values *mat.Dense

	rng *rand.Rand
}

// NewSampleBuffer creates an empty buffer for capacity observations of
// numFeatures features. takeWhenFull is the number of incoming rows
// considered for random replacement once the buffer is full; zero freezes
// the buffer at saturation.
func NewSampleBuffer(capacity, numFeatures, takeWhenFull int) (*SampleBuffer, error) {
	if capacity <= 0 || numFeatures <= 0 || takeWhenFull < 0 {
		return nil, common.ErrorInvalidValue
	}

	values := mat.NewDense(capacity, numFeatures, nil)
	for i := 0; i < capacity; i++ {
		for j := 0; j < numFeatures; j++ {
			values.Set(i, j, math.NaN())
		}
	}

	return &SampleBuffer{
		capacity:     capacity,
		numFeatures:  numFeatures,
		takeWhenFull: takeWhenFull,
		values:       values,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// SetRand replaces the randomness source used for replacement sampling.
// Useful for reproducible tests.
func (b *SampleBuffer) SetRand(rng *rand.Rand) {
	if rng != nil {
		b.rng = rng
	}
}

func (b *SampleBuffer) Capacity() int     { return b.capacity }
func (b *SampleBuffer) NumFeatures() int  { return b.numFeatures }
func (b *SampleBuffer) Size() int         { return b.size }
func (b *SampleBuffer) TakeWhenFull() int { return b.takeWhenFull }

func (b *SampleBuffer) IsFull() bool { return b.size == b.capacity }

func (b *SampleBuffer) CapacityLeft() int { return b.capacity - b.size }

// Fill offers a batch of rows to the buffer. While capacity remains, rows
// are appended in arrival order. A batch that overflows the remaining room
// stores its leading rows and hands the leftover to the replacement policy,
// so every incoming row is either stored or considered for replacement.
// Against a full buffer, min(n, takeWhenFull) distinct random rows of the
// batch overwrite as many distinct random buffer slots; takeWhenFull == 0
// leaves a full buffer untouched.
func (b *SampleBuffer) Fill(batch mat.Matrix) error {
	n, c := batch.Dims()
	if c != b.numFeatures {
		return common.ErrorShapeMismatch
	}

	offset := 0
	if capLeft := b.CapacityLeft(); capLeft > 0 {
		take := min(capLeft, n)
		row := make([]float64, c)
		for i := 0; i < take; i++ {
			mat.Row(row, i, batch)
			b.values.SetRow(b.size+i, row)
		}
		b.size += take
		offset = take
	}

	rest := n - offset
	if rest <= 0 || b.takeWhenFull == 0 {
		return nil
	}

	k := min(rest, b.takeWhenFull)
	rowIdx := b.rng.Perm(rest)[:k]
	slotIdx := b.rng.Perm(b.capacity)[:k]

	row := make([]float64, c)
	for i := 0; i < k; i++ {
		mat.Row(row, offset+rowIdx[i], batch)
		b.values.SetRow(slotIdx[i], row)
	}
	return nil
}

// Column returns a copy of feature j's stored history, the first Size()
// entries of column j.
func (b *SampleBuffer) Column(j int) []float64 {
	col := make([]float64, b.size)
	for i := 0; i < b.size; i++ {
		col[i] = b.values.At(i, j)
	}
	return col
}

// Values returns a copy of the defined rows, Size() x NumFeatures(), or nil
// while the buffer is empty.
func (b *SampleBuffer) Values() *mat.Dense {
	if b.size == 0 {
		return nil
	}
	out := mat.NewDense(b.size, b.numFeatures, nil)
	b.copyInto(out)
	return out
}

// copyInto copies the defined rows into the head of dst, which must have at
// least Size() rows and exactly NumFeatures() columns.
func (b *SampleBuffer) copyInto(dst *mat.Dense) {
	src := b.values.RawMatrix()
	raw := dst.RawMatrix()
	for i := 0; i < b.size; i++ {
		copy(raw.Data[i*raw.Stride:i*raw.Stride+b.numFeatures],
			src.Data[i*src.Stride:i*src.Stride+b.numFeatures])
	}
}

// reset restores the buffer to the given contents: the first size rows of
// values (row-major) become the defined region, everything else returns to
// the NaN sentinel. Used when restoring persisted state.
func (b *SampleBuffer) reset(size int, values []float64) {
	for i := 0; i < b.capacity; i++ {
		for j := 0; j < b.numFeatures; j++ {
			b.values.Set(i, j, math.NaN())
		}
	}
	for i := 0; i < size; i++ {
		b.values.SetRow(i, values[i*b.numFeatures:(i+1)*b.numFeatures])
	}
	b.size = size
}
