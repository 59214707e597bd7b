package pit

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/MrShoenel/batch-pit-normalization/common"
)

func TestInverseRecoversEvalInputs(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(43))

	for _, normal := range []bool{false, true} {
		n, err := NewBatchPitNorm(2, 128, 0, normal, false)
		require.NoError(t, err)

		train := mat.NewDense(128, 2, nil)
		for i := 0; i < 128; i++ {
			train.Set(i, 0, rng.NormFloat64()*2+1)
			train.Set(i, 1, rng.ExpFloat64())
		}
		require.NoError(t, n.Fill(ctx, train))
		n.Eval()

		query := mat.NewDense(16, 2, nil)
		for i := 0; i < 16; i++ {
			query.Set(i, 0, rng.NormFloat64()*2+1)
			query.Set(i, 1, rng.ExpFloat64())
		}

		fwd, err := n.Forward(ctx, query)
		require.NoError(t, err)
		back, err := n.Inverse(ctx, fwd)
		require.NoError(t, err)

		for i := 0; i < 16; i++ {
			for f := 0; f < 2; f++ {
				assert.InDelta(t, query.At(i, f), back.At(i, f), 1e-6,
					"normal=%v row %d feature %d", normal, i, f)
			}
		}
	}
}

func TestInverseDoesNotMutateBuffer(t *testing.T) {
	ctx := context.Background()
	n, err := NewBatchPitNorm(1, 8, 1, false, false)
	require.NoError(t, err)
	require.NoError(t, n.Fill(ctx, mat.NewDense(3, 1, []float64{1, 2, 3})))

	before := n.State()
	_, err = n.Inverse(ctx, mat.NewDense(2, 1, []float64{-0.2, 0.3}))
	require.NoError(t, err)

	assert.Equal(t, before.Size, n.Size())
	assert.Equal(t, before.Values, n.State().Values)
}

func TestInverseBoundaryValuesStayFinite(t *testing.T) {
	ctx := context.Background()
	n, err := NewBatchPitNorm(1, 8, 0, false, false)
	require.NoError(t, err)
	require.NoError(t, n.Fill(ctx, mat.NewDense(4, 1, []float64{1, 2, 3, 4})))

	// The centered-uniform endpoints map to clipped probabilities, not to
	// infinite quantiles.
	out, err := n.Inverse(ctx, mat.NewDense(2, 1, []float64{-0.5, 0.5}))
	require.NoError(t, err)
	require.False(t, math.IsInf(out.At(0, 0), 0))
	require.False(t, math.IsInf(out.At(1, 0), 0))
	assert.Less(t, out.At(0, 0), out.At(1, 0))
}

func TestInverseValidation(t *testing.T) {
	ctx := context.Background()
	n, err := NewBatchPitNorm(2, 8, 0, false, false)
	require.NoError(t, err)

	_, err = n.Inverse(ctx, mat.NewDense(1, 2, []float64{0, 0}))
	assert.ErrorIs(t, err, common.ErrorEmptyBuffer)

	require.NoError(t, n.Fill(ctx, mat.NewDense(2, 2, []float64{1, 2, 3, 4})))

	_, err = n.Inverse(ctx, mat.NewDense(1, 3, []float64{0, 0, 0}))
	assert.ErrorIs(t, err, common.ErrorShapeMismatch)

	_, err = n.Inverse(ctx, mat.NewDense(1, 2, []float64{0, math.NaN()}))
	assert.ErrorIs(t, err, common.ErrorInvalidValue)
}
