// Package pit implements an online, per-feature probability integral
// transform. Each feature keeps a bounded buffer of previously seen samples,
// estimates that feature's CDF with a Gaussian kernel density over the
// buffer, and maps incoming values through the estimated CDF. The outputs
// follow a centered uniform distribution on (-0.5, 0.5), or the standard
// normal distribution when the backtransform is enabled.
package pit

import (
	"context"
	"math/rand"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/MrShoenel/batch-pit-normalization/common"
	"github.com/MrShoenel/batch-pit-normalization/kde"
	"github.com/MrShoenel/batch-pit-normalization/utils"
)

// BatchPitNorm normalizes batches of row-vector samples feature by feature.
// It owns a SampleBuffer that is only ever written through Fill, and builds
// a fresh kernel CDF per feature on every forward pass, so transformed
// outputs always reflect the current buffer contents.
//
// The zero value is not usable; construct instances with NewBatchPitNorm.
// Forward and Inverse may be called concurrently with each other but not
// with Fill, Train, Eval, SetRawBandwidths or LoadState.
type BatchPitNorm struct {
	numFeatures         int
	normalBacktransform bool
	trainableBandwidths bool

	training bool

	buf       *SampleBuffer
	silverman *kde.SilvermanBandWidth
	rawBw     []float64
}

// NewBatchPitNorm creates a normalizer for numFeatures features whose buffer
// holds up to numPitSamples samples per feature. Once the buffer is full,
// each further training batch replaces up to takeNumSamplesWhenFull buffered
// samples with randomly chosen rows of the batch; zero freezes the buffer at
// its first numPitSamples samples.
//
// With normalBacktransform the outputs are standard-normal distributed
// instead of centered-uniform. With trainableBandwidths each feature gets
// its own adjustable raw bandwidth (squashed through a sigmoid) in place of
// the Silverman rule; the raws start at random values in [0, 1) and can be
// set explicitly via SetRawBandwidths.
//
// A new normalizer starts in training mode.
func NewBatchPitNorm(numFeatures, numPitSamples, takeNumSamplesWhenFull int,
	normalBacktransform, trainableBandwidths bool) (*BatchPitNorm, error) {

	if numFeatures <= 0 {
		return nil, common.ErrorInvalidValue
	}
	buf, err := NewSampleBuffer(numPitSamples, numFeatures, takeNumSamplesWhenFull)
	if err != nil {
		return nil, err
	}

	n := &BatchPitNorm{
		numFeatures:         numFeatures,
		normalBacktransform: normalBacktransform,
		trainableBandwidths: trainableBandwidths,
		training:            true,
		buf:                 buf,
		silverman:           kde.NewSilvermanBandWidth(),
	}
	if trainableBandwidths {
		n.rawBw = make([]float64, numFeatures)
		for i := range n.rawBw {
			n.rawBw[i] = rand.Float64()
		}
	}
	return n, nil
}

// Train puts the normalizer into training mode: forward passes fill the
// sample buffer with their batches before transforming them.
func (n *BatchPitNorm) Train() {
	n.training = true
}

// Eval puts the normalizer into evaluation mode: the buffer is frozen and
// forward passes only read it.
func (n *BatchPitNorm) Eval() {
	n.training = false
}

// IsTraining reports whether the normalizer is in training mode.
func (n *BatchPitNorm) IsTraining() bool {
	return n.training
}

// NumFeatures returns the number of features per sample.
func (n *BatchPitNorm) NumFeatures() int {
	return n.numFeatures
}

// Size returns the number of samples currently buffered per feature.
func (n *BatchPitNorm) Size() int {
	return n.buf.Size()
}

// IsFull reports whether the sample buffer is at capacity.
func (n *BatchPitNorm) IsFull() bool {
	return n.buf.IsFull()
}

// CapacityLeft returns how many more samples the buffer accepts before it
// switches to replacement.
func (n *BatchPitNorm) CapacityLeft() int {
	return n.buf.CapacityLeft()
}

// SetRand replaces the random source used for buffer replacement, e.g. with
// a seeded one for reproducible runs.
func (n *BatchPitNorm) SetRand(rng *rand.Rand) {
	n.buf.SetRand(rng)
}

// RawBandwidths returns a copy of the per-feature raw bandwidths, or nil if
// the normalizer uses the Silverman rule.
func (n *BatchPitNorm) RawBandwidths() []float64 {
	if !n.trainableBandwidths {
		return nil
	}
	raw := make([]float64, len(n.rawBw))
	copy(raw, n.rawBw)
	return raw
}

// SetRawBandwidths replaces the per-feature raw bandwidths. The raws live on
// the whole real line; each feature's kernel bandwidth is sigmoid(raw).
func (n *BatchPitNorm) SetRawBandwidths(raw []float64) error {
	if !n.trainableBandwidths {
		return common.ErrorInvalidValue
	}
	if len(raw) != n.numFeatures {
		return common.ErrorShapeMismatch
	}
	if !utils.AllFinite(raw) {
		return common.ErrorInvalidValue
	}
	copy(n.rawBw, raw)
	return nil
}

// Fill adds the rows of batch to the sample buffer. It is only allowed in
// training mode and rejects batches with non-finite values, since buffered
// samples back every later CDF.
func (n *BatchPitNorm) Fill(ctx context.Context, batch mat.Matrix) error {
	logger := utils.GetLogger(ctx)
	if !n.training {
		return common.ErrorNotTraining
	}
	if !utils.MatrixAllFinite(batch) {
		logger.Error("refusing to buffer non-finite samples")
		return common.ErrorInvalidValue
	}

	wasFull := n.buf.IsFull()
	if err := n.buf.Fill(batch); err != nil {
		logger.Error("filling the sample buffer failed", zap.Error(err))
		return err
	}
	if !wasFull && n.buf.IsFull() {
		logger.Info("sample buffer saturated, switching to replacement",
			zap.Int("capacity", n.buf.Capacity()),
			zap.Int("takeWhenFull", n.buf.TakeWhenFull()))
	}
	return nil
}

// Forward transforms a batch of shape batchSize x numFeatures and returns a
// matrix of the same shape. In training mode the batch is first added to the
// sample buffer, so a batch is always part of its own reference sample; in
// evaluation mode the buffer must already hold at least one sample.
//
// Each feature is transformed independently: a kernel CDF is built over the
// buffered values of that feature and evaluated at the batch values, and the
// resulting probabilities are mapped onto the output distribution. Features
// are processed concurrently.
func (n *BatchPitNorm) Forward(ctx context.Context, x mat.Matrix) (out *mat.Dense, err error) {
	logger := utils.GetLogger(ctx)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("forward pass recovered from panic", zap.Any("err", r),
				zap.String("panic info", utils.GetPanicInfo()))
			out, err = nil, common.ErrorInvalidValue
		}
	}()

	batchSize, numFeatures := x.Dims()
	if numFeatures != n.numFeatures {
		logger.Error("batch has the wrong number of features",
			zap.Int("want", n.numFeatures), zap.Int("got", numFeatures))
		return nil, common.ErrorShapeMismatch
	}
	if batchSize == 0 {
		return nil, common.ErrorInvalidValue
	}
	if !utils.MatrixAllFinite(x) {
		logger.Error("batch contains non-finite values")
		return nil, common.ErrorInvalidValue
	}

	if n.training {
		if err := n.Fill(ctx, x); err != nil {
			return nil, err
		}
	} else if n.buf.Size() == 0 {
		logger.Error("forward pass in evaluation mode with an empty sample buffer")
		return nil, common.ErrorEmptyBuffer
	}

	size := n.buf.Size()
	merged := n.merged(x, batchSize)
	out = mat.NewDense(batchSize, numFeatures, nil)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for f := 0; f < numFeatures; f++ {
		f := f
		g.Go(func() error {
			col := mat.Col(nil, f, merged)
			vals, err := n.transformFeature(f, col, size)
			if err != nil {
				return err
			}
			out.SetCol(f, vals)
			return nil
		})
	}
	if werr := g.Wait(); werr != nil {
		logger.Error("transforming the batch failed", zap.Error(werr))
		return nil, werr
	}
	return out, nil
}

// merged stacks the defined buffer rows on top of the batch. The leading
// Size rows of the result are the reference sample for this pass, the
// remaining batchSize rows are the values to transform.
func (n *BatchPitNorm) merged(x mat.Matrix, batchSize int) *mat.Dense {
	size := n.buf.Size()
	all := mat.NewDense(size+batchSize, n.numFeatures, nil)
	n.buf.copyInto(all)
	row := make([]float64, n.numFeatures)
	for i := 0; i < batchSize; i++ {
		mat.Row(row, i, x)
		all.SetRow(size+i, row)
	}
	return all
}

// transformFeature runs one feature's pipeline over its merged column: the
// leading size values are the reference sample the CDF is estimated from,
// the rest are the query values. Returns the transformed query values.
func (n *BatchPitNorm) transformFeature(feature int, col []float64, size int) ([]float64, error) {
	reference, query := col[:size], col[size:]

	bw := n.bandWidthFor(feature).BandWidth(reference)
	cdf, err := kde.NewKernelCDF(reference, bw)
	if err != nil {
		return nil, err
	}

	vals := cdf.EvaluateEach(query)
	if n.normalBacktransform {
		if err := ToStandardNormal(vals); err != nil {
			return nil, err
		}
	} else {
		ToUniformCentered(vals)
	}
	return vals, nil
}

// bandWidthFor returns the bandwidth selector for one feature.
func (n *BatchPitNorm) bandWidthFor(feature int) kde.BandWidth {
	if n.trainableBandwidths {
		return kde.NewSigmoidBandWidth(n.rawBw[feature])
	}
	return n.silverman
}
