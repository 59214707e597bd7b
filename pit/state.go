package pit

import (
	"github.com/MrShoenel/batch-pit-normalization/common"
	"github.com/MrShoenel/batch-pit-normalization/model"
	"github.com/MrShoenel/batch-pit-normalization/utils"
)

// State snapshots everything a normalizer has learned: the defined buffer
// rows and, when bandwidths are trainable, the per-feature raws. The
// snapshot shares no memory with the normalizer and marshals cleanly to
// JSON, since undefined buffer slots are left out rather than serialized as
// NaN sentinels.
func (n *BatchPitNorm) State() *model.State {
	s := &model.State{
		NumFeatures: n.numFeatures,
		Capacity:    n.buf.Capacity(),
		Size:        n.buf.Size(),
	}
	if vals := n.buf.Values(); vals != nil {
		s.Values = vals.RawMatrix().Data
	}
	if n.trainableBandwidths {
		s.RawBandwidths = make([]float64, len(n.rawBw))
		copy(s.RawBandwidths, n.rawBw)
	}
	return s
}

// LoadState restores a snapshot taken by State. The snapshot must match the
// normalizer's shape exactly: same feature count, same buffer capacity, a
// consistent size and value count, and raw bandwidths present if and only if
// the normalizer was built with trainable bandwidths. Values must be finite.
// On success the buffer holds exactly the snapshot's rows; on error the
// normalizer is left unchanged.
func (n *BatchPitNorm) LoadState(s *model.State) error {
	if s == nil {
		return common.ErrorInvalidValue
	}
	if s.NumFeatures != n.numFeatures || s.Capacity != n.buf.Capacity() {
		return common.ErrorShapeMismatch
	}
	if s.Size < 0 || s.Size > s.Capacity {
		return common.ErrorInvalidValue
	}
	if len(s.Values) != s.Size*s.NumFeatures {
		return common.ErrorShapeMismatch
	}
	if !utils.AllFinite(s.Values) {
		return common.ErrorInvalidValue
	}
	if n.trainableBandwidths {
		if len(s.RawBandwidths) != n.numFeatures {
			return common.ErrorShapeMismatch
		}
		if !utils.AllFinite(s.RawBandwidths) {
			return common.ErrorInvalidValue
		}
	} else if len(s.RawBandwidths) != 0 {
		return common.ErrorShapeMismatch
	}

	n.buf.reset(s.Size, s.Values)
	if n.trainableBandwidths {
		copy(n.rawBw, s.RawBandwidths)
	}
	return nil
}
