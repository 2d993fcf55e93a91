package model

import (
	"encoding/binary"
	"fmt"
	"math"
)

// VectorElementSize is the byte width of one vector element in the binary encoding
const VectorElementSize = 4

// Vector is a fixed-dimension embedding vector.
// It can only be built through NewVector or VectorFromBinary, so every
// Vector in circulation is non-empty and contains only finite values.
type Vector struct {
	values []float32
}

// NewVector creates a vector from a sequence of finite float32 values.
// It returns ErrInvalidVector if the sequence is empty or contains NaN or Inf.
func NewVector(values []float32) (Vector, error) {
	if len(values) == 0 {
		return Vector{}, fmt.Errorf("%w: empty value sequence", ErrInvalidVector)
	}
	for i, v := range values {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return Vector{}, fmt.Errorf("%w: non-finite value at index %d", ErrInvalidVector, i)
		}
	}

	copied := make([]float32, len(values))
	copy(copied, values)

	return Vector{values: copied}, nil
}

// VectorFromBinary decodes a vector from its little-endian float32 encoding.
// It returns ErrInvalidVector if the byte length is not a multiple of the
// element width or the decoded values fail NewVector validation.
func VectorFromBinary(data []byte) (Vector, error) {
	if len(data) == 0 {
		return Vector{}, fmt.Errorf("%w: empty binary encoding", ErrInvalidVector)
	}
	if len(data)%VectorElementSize != 0 {
		return Vector{}, fmt.Errorf("%w: binary length %d is not a multiple of %d", ErrInvalidVector, len(data), VectorElementSize)
	}

	values := make([]float32, len(data)/VectorElementSize)
	for i := range values {
		bits := binary.LittleEndian.Uint32(data[i*VectorElementSize:])
		values[i] = math.Float32frombits(bits)
	}

	return NewVector(values)
}

// Dimension returns the number of elements in the vector
func (v Vector) Dimension() int {
	return len(v.values)
}

// Values returns a copy of the vector elements
func (v Vector) Values() []float32 {
	copied := make([]float32, len(v.values))
	copy(copied, v.values)
	return copied
}

// ToBinary encodes the vector as little-endian float32 bytes.
// The encoding round-trips bit-exact through VectorFromBinary.
func (v Vector) ToBinary() []byte {
	buf := make([]byte, len(v.values)*VectorElementSize)
	for i, value := range v.values {
		binary.LittleEndian.PutUint32(buf[i*VectorElementSize:], math.Float32bits(value))
	}
	return buf
}

// CosineSimilarity computes dot(v,w)/(‖v‖·‖w‖) in [-1,1].
// It returns ErrDimensionMismatch if the dimensions differ.
// If either norm is zero the similarity is 0, so degenerate embeddings
// rank last instead of failing a whole search.
func (v Vector) CosineSimilarity(other Vector) (float64, error) {
	if len(v.values) != len(other.values) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(v.values), len(other.values))
	}

	var dot, normV, normW float64
	for i := range v.values {
		a := float64(v.values[i])
		b := float64(other.values[i])
		dot += a * b
		normV += a * a
		normW += b * b
	}

	if normV == 0 || normW == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normV) * math.Sqrt(normW)), nil
}
