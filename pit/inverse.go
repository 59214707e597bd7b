package pit

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/MrShoenel/batch-pit-normalization/common"
	"github.com/MrShoenel/batch-pit-normalization/kde"
	"github.com/MrShoenel/batch-pit-normalization/utils"
)

// Inverse maps transformed values back onto each feature's original scale.
// It undoes the distribution mapping to recover CDF probabilities, then
// inverts the kernel CDF numerically. The buffer must hold at least one
// sample and is never modified, regardless of the training mode.
//
// Inversion uses the current buffer contents. Values transformed before
// later fills changed the buffer will only map back approximately.
func (n *BatchPitNorm) Inverse(ctx context.Context, y mat.Matrix) (out *mat.Dense, err error) {
	logger := utils.GetLogger(ctx)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("inverse pass recovered from panic", zap.Any("err", r),
				zap.String("panic info", utils.GetPanicInfo()))
			out, err = nil, common.ErrorInvalidValue
		}
	}()

	batchSize, numFeatures := y.Dims()
	if numFeatures != n.numFeatures {
		logger.Error("batch has the wrong number of features",
			zap.Int("want", n.numFeatures), zap.Int("got", numFeatures))
		return nil, common.ErrorShapeMismatch
	}
	if batchSize == 0 {
		return nil, common.ErrorInvalidValue
	}
	if !utils.MatrixAllFinite(y) {
		logger.Error("batch contains non-finite values")
		return nil, common.ErrorInvalidValue
	}
	if n.buf.Size() == 0 {
		logger.Error("inverse pass with an empty sample buffer")
		return nil, common.ErrorEmptyBuffer
	}

	out = mat.NewDense(batchSize, numFeatures, nil)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for f := 0; f < numFeatures; f++ {
		f := f
		g.Go(func() error {
			reference := n.buf.Column(f)
			bw := n.bandWidthFor(f).BandWidth(reference)
			cdf, err := kde.NewKernelCDF(reference, bw)
			if err != nil {
				return err
			}
			col := mat.Col(nil, f, y)
			for i, v := range col {
				q, err := cdf.Quantile(n.toProbability(v))
				if err != nil {
					return err
				}
				col[i] = q.Value
			}
			out.SetCol(f, col)
			return nil
		})
	}
	if werr := g.Wait(); werr != nil {
		logger.Error("inverting the batch failed", zap.Error(werr))
		return nil, werr
	}
	return out, nil
}

// toProbability undoes the distribution mapping for a single value: normal
// outputs pass back through the standard normal CDF, centered-uniform
// outputs shift back by 0.5. The result is clipped like the forward mapping
// so boundary values remain invertible.
func (n *BatchPitNorm) toProbability(v float64) float64 {
	if n.normalBacktransform {
		return clipProb(distuv.UnitNormal.CDF(v))
	}
	return clipProb(v + 0.5)
}
