package simulator

import (
	"fmt"
	"math"
	"math/cmplx"
)

// stateVector holds the full amplitude vector of a qubit register. Wire 0 is
// the most significant bit of the basis-state index, so the basis state
// |10> of a two-wire register is index 2.
type stateVector struct {
	amps  []complex128
	wires int
}

func newStateVector(wires int) *stateVector {
	amps := make([]complex128, 1<<wires)
	amps[0] = 1

	return &stateVector{amps: amps, wires: wires}
}

func (s *stateVector) reset() {
	for i := range s.amps {
		s.amps[i] = 0
	}
	s.amps[0] = 1
}

// bitOf maps a wire label to its bit mask within a basis-state index.
func (s *stateVector) bitOf(wire int) int {
	return 1 << (s.wires - 1 - wire)
}

// applySingle applies a 2x2 matrix to the given wire.
func (s *stateVector) applySingle(m [2][2]complex128, wire int) {
	bit := s.bitOf(wire)
	for i := range s.amps {
		if i&bit == 0 {
			j := i | bit
			a0, a1 := s.amps[i], s.amps[j]
			s.amps[i] = m[0][0]*a0 + m[0][1]*a1
			s.amps[j] = m[1][0]*a0 + m[1][1]*a1
		}
	}
}

// applyControlled applies a 2x2 matrix to the target wire on the subspace
// where the control wire is set.
func (s *stateVector) applyControlled(m [2][2]complex128, control, target int) {
	cBit, tBit := s.bitOf(control), s.bitOf(target)
	for i := range s.amps {
		if i&cBit != 0 && i&tBit == 0 {
			j := i | tBit
			a0, a1 := s.amps[i], s.amps[j]
			s.amps[i] = m[0][0]*a0 + m[0][1]*a1
			s.amps[j] = m[1][0]*a0 + m[1][1]*a1
		}
	}
}

func (s *stateVector) applySWAP(w1, w2 int) {
	b1, b2 := s.bitOf(w1), s.bitOf(w2)
	for i := range s.amps {
		if i&b1 != 0 && i&b2 == 0 {
			j := (i & ^b1) | b2
			s.amps[i], s.amps[j] = s.amps[j], s.amps[i]
		}
	}
}

func (s *stateVector) applyCZ(w1, w2 int) {
	b1, b2 := s.bitOf(w1), s.bitOf(w2)
	for i := range s.amps {
		if i&b1 != 0 && i&b2 != 0 {
			s.amps[i] *= -1
		}
	}
}

// setBasisState prepares the computational basis state described by one bit
// per wire.
func (s *stateVector) setBasisState(bits []float64, wires []int) error {
	if len(bits) != len(wires) {
		return fmt.Errorf("basis state needs one bit per wire, got %d bits for %d wires", len(bits), len(wires))
	}

	index := 0
	for k, b := range bits {
		switch b {
		case 0:
		case 1:
			index |= s.bitOf(wires[k])
		default:
			return fmt.Errorf("basis state entries must be 0 or 1, got %v", b)
		}
	}

	for i := range s.amps {
		s.amps[i] = 0
	}
	s.amps[index] = 1

	return nil
}

// setAmplitudes prepares an arbitrary state over the full register. A vector
// of length 2^wires is read as real amplitudes; a vector of twice that length
// as interleaved real and imaginary parts.
func (s *stateVector) setAmplitudes(params []float64) error {
	dim := len(s.amps)

	var amps []complex128
	switch len(params) {
	case dim:
		amps = make([]complex128, dim)
		for i, p := range params {
			amps[i] = complex(p, 0)
		}
	case 2 * dim:
		amps = make([]complex128, dim)
		for i := 0; i < dim; i++ {
			amps[i] = complex(params[2*i], params[2*i+1])
		}
	default:
		return fmt.Errorf("state vector for %d wires needs %d or %d parameters, got %d", s.wires, dim, 2*dim, len(params))
	}

	norm := 0.0
	for _, a := range amps {
		norm += real(a)*real(a) + imag(a)*imag(a)
	}
	if math.Abs(norm-1) > 1e-9 {
		return fmt.Errorf("state vector must be normalized, got squared norm %v", norm)
	}

	copy(s.amps, amps)

	return nil
}

// applyUnitary applies an arbitrary unitary over the given wires. The
// parameters hold the row-major matrix with interleaved real and imaginary
// parts.
func (s *stateVector) applyUnitary(params []float64, wires []int) error {
	dim := 1 << len(wires)
	if len(params) != 2*dim*dim {
		return fmt.Errorf("unitary on %d wires needs %d parameters, got %d", len(wires), 2*dim*dim, len(params))
	}

	m := make([][]complex128, dim)
	for r := 0; r < dim; r++ {
		m[r] = make([]complex128, dim)
		for c := 0; c < dim; c++ {
			k := 2 * (r*dim + c)
			m[r][c] = complex(params[k], params[k+1])
		}
	}

	// Gather each subspace spanned by the target wires and multiply it
	// through the matrix.
	masks := make([]int, len(wires))
	for k, w := range wires {
		masks[k] = s.bitOf(w)
	}
	allMask := 0
	for _, b := range masks {
		allMask |= b
	}

	old := make([]complex128, dim)
	idx := make([]int, dim)
	for base := range s.amps {
		if base&allMask != 0 {
			continue
		}
		for sub := 0; sub < dim; sub++ {
			i := base
			for k, b := range masks {
				if sub&(1<<(len(wires)-1-k)) != 0 {
					i |= b
				}
			}
			idx[sub] = i
			old[sub] = s.amps[i]
		}
		for r := 0; r < dim; r++ {
			var acc complex128
			for c := 0; c < dim; c++ {
				acc += m[r][c] * old[c]
			}
			s.amps[idx[r]] = acc
		}
	}

	return nil
}

// expectation computes <psi|A|psi> for a single-wire matrix observable.
func (s *stateVector) expectation(m [2][2]complex128, wire int) float64 {
	work := &stateVector{amps: make([]complex128, len(s.amps)), wires: s.wires}
	copy(work.amps, s.amps)
	work.applySingle(m, wire)

	var acc complex128
	for i := range s.amps {
		acc += cmplx.Conj(s.amps[i]) * work.amps[i]
	}

	return real(acc)
}

// Single-qubit gate matrices.

func matHadamard() [2][2]complex128 {
	h := complex(1/math.Sqrt2, 0)

	return [2][2]complex128{{h, h}, {h, -h}}
}

func matPauliX() [2][2]complex128 {
	return [2][2]complex128{{0, 1}, {1, 0}}
}

func matPauliY() [2][2]complex128 {
	return [2][2]complex128{{0, -1i}, {1i, 0}}
}

func matPauliZ() [2][2]complex128 {
	return [2][2]complex128{{1, 0}, {0, -1}}
}

func matIdentity() [2][2]complex128 {
	return [2][2]complex128{{1, 0}, {0, 1}}
}

func matS() [2][2]complex128 {
	return [2][2]complex128{{1, 0}, {0, 1i}}
}

func matT() [2][2]complex128 {
	return [2][2]complex128{{1, 0}, {0, cmplx.Exp(complex(0, math.Pi/4))}}
}

func matPhaseShift(phi float64) [2][2]complex128 {
	return [2][2]complex128{{1, 0}, {0, cmplx.Exp(complex(0, phi))}}
}

func matRX(theta float64) [2][2]complex128 {
	c := complex(math.Cos(theta/2), 0)
	js := complex(0, -math.Sin(theta/2))

	return [2][2]complex128{{c, js}, {js, c}}
}

func matRY(theta float64) [2][2]complex128 {
	c := complex(math.Cos(theta/2), 0)
	sn := complex(math.Sin(theta/2), 0)

	return [2][2]complex128{{c, -sn}, {sn, c}}
}

func matRZ(theta float64) [2][2]complex128 {
	p := cmplx.Exp(complex(0, theta/2))

	return [2][2]complex128{{cmplx.Conj(p), 0}, {0, p}}
}
