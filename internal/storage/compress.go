package storage

import "math"

const (
	int16Max  = 32767
	uint16Max = 65535
)

// EncodeSigned rescales src (a node's regret row) into dst as 16-bit
// signed integers, returning the scale factor such that
// src[i] ≈ float32(dst[i]) * scale. Per spec §4.4.
func EncodeSigned(src []float32, dst []int16) float32 {
	maxAbs := float32(0)
	for _, v := range src {
		a := v
		if a < 0 {
			a = -a
		}
		if a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs == 0 {
		for i := range dst {
			dst[i] = 0
		}
		return 1
	}
	scale := maxAbs / int16Max
	for i, v := range src {
		q := int32(math.Round(float64(v / scale)))
		dst[i] = saturateInt16(q)
	}
	return scale
}

// DecodeSigned reverses EncodeSigned.
func DecodeSigned(src []int16, scale float32, dst []float32) {
	for i, v := range src {
		dst[i] = float32(v) * scale
	}
}

// EncodeUnsigned rescales src (a node's cumulative-strategy row, always
// non-negative) into dst as 16-bit unsigned integers.
func EncodeUnsigned(src []float32, dst []uint16) float32 {
	max := float32(0)
	for _, v := range src {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		for i := range dst {
			dst[i] = 0
		}
		return 1
	}
	scale := max / uint16Max
	for i, v := range src {
		q := int32(math.Round(float64(v / scale)))
		dst[i] = saturateUint16(q)
	}
	return scale
}

// DecodeUnsigned reverses EncodeUnsigned.
func DecodeUnsigned(src []uint16, scale float32, dst []float32) {
	for i, v := range src {
		dst[i] = float32(v) * scale
	}
}

func saturateInt16(q int32) int16 {
	if q > int16Max {
		return int16Max
	}
	if q < -int16Max {
		return -int16Max
	}
	return int16(q)
}

func saturateUint16(q int32) uint16 {
	if q > uint16Max {
		return uint16Max
	}
	if q < 0 {
		return 0
	}
	return uint16(q)
}

// RegretRow reads a node's regret row out of the arena as float32,
// decoding from compressed representation when necessary.
func (a *Arena) RegretRow(l *NodeLayout) []float32 {
	n := l.Len()
	out := make([]float32, n)
	switch a.Mode {
	case Compressed:
		DecodeSigned(a.RegretsI16[l.RegretOffset:l.RegretOffset+n], a.RegretScale[l.ScaleIndex], out)
	default:
		copy(out, a.RegretsF[l.RegretOffset:l.RegretOffset+n])
	}
	return out
}

// StrategyRow reads a node's cumulative-strategy row as float32.
func (a *Arena) StrategyRow(l *NodeLayout) []float32 {
	n := l.Len()
	out := make([]float32, n)
	switch a.Mode {
	case Compressed:
		DecodeUnsigned(a.StrategyI16[l.StrategyOffset:l.StrategyOffset+n], a.StrategyScale[l.ScaleIndex], out)
	default:
		copy(out, a.StrategyF[l.StrategyOffset:l.StrategyOffset+n])
	}
	return out
}

// SetRegretRow writes a node's regret row back into the arena, rescaling
// and re-encoding when the arena is in Compressed mode.
func (a *Arena) SetRegretRow(l *NodeLayout, row []float32) {
	n := l.Len()
	switch a.Mode {
	case Compressed:
		scale := EncodeSigned(row, a.RegretsI16[l.RegretOffset:l.RegretOffset+n])
		a.RegretScale[l.ScaleIndex] = scale
	default:
		copy(a.RegretsF[l.RegretOffset:l.RegretOffset+n], row)
	}
}

// SetStrategyRow writes a node's cumulative-strategy row back into the
// arena.
func (a *Arena) SetStrategyRow(l *NodeLayout, row []float32) {
	n := l.Len()
	switch a.Mode {
	case Compressed:
		scale := EncodeUnsigned(row, a.StrategyI16[l.StrategyOffset:l.StrategyOffset+n])
		a.StrategyScale[l.ScaleIndex] = scale
	default:
		copy(a.StrategyF[l.StrategyOffset:l.StrategyOffset+n], row)
	}
}
