package gaussian

import "math"

// hbar fixes the convention relating quadrature operators to mode
// amplitudes. The vacuum state then has quadrature variance hbar/2 = 1.
const hbar = 2.0

// gaussianState is the means-and-covariance representation of a Gaussian
// state over n modes. Quadratures are ordered (x_0, p_0, x_1, p_1, ...).
type gaussianState struct {
	modes int
	means []float64
	cov   [][]float64
}

func newGaussianState(modes int) *gaussianState {
	s := &gaussianState{
		modes: modes,
		means: make([]float64, 2*modes),
		cov:   make([][]float64, 2*modes),
	}
	for i := range s.cov {
		s.cov[i] = make([]float64, 2*modes)
		s.cov[i][i] = hbar / 2
	}

	return s
}

func (s *gaussianState) reset() {
	for i := range s.means {
		s.means[i] = 0
		for j := range s.cov[i] {
			s.cov[i][j] = 0
		}
		s.cov[i][i] = hbar / 2
	}
}

// xIndex and pIndex locate a mode's quadratures in the state vectors.
func xIndex(mode int) int { return 2 * mode }
func pIndex(mode int) int { return 2*mode + 1 }

// applySymplectic updates means and covariance for a symplectic matrix S
// acting on the given modes: means -> S means, cov -> S cov S^T. S is given
// over the quadratures of the listed modes in state ordering.
func (s *gaussianState) applySymplectic(sm [][]float64, modes []int) {
	idx := make([]int, 0, 2*len(modes))
	for _, m := range modes {
		idx = append(idx, xIndex(m), pIndex(m))
	}
	k := len(idx)

	oldMeans := make([]float64, k)
	for a, i := range idx {
		oldMeans[a] = s.means[i]
	}
	for a, i := range idx {
		acc := 0.0
		for b := 0; b < k; b++ {
			acc += sm[a][b] * oldMeans[b]
		}
		s.means[i] = acc
	}

	n := len(s.means)

	// cov -> S cov: only the rows in idx change.
	oldRows := make([][]float64, k)
	for a, i := range idx {
		oldRows[a] = append([]float64(nil), s.cov[i]...)
	}
	for a, i := range idx {
		for c := 0; c < n; c++ {
			acc := 0.0
			for b := 0; b < k; b++ {
				acc += sm[a][b] * oldRows[b][c]
			}
			s.cov[i][c] = acc
		}
	}

	// cov -> cov S^T: only the columns in idx change.
	oldCols := make([][]float64, k)
	for a, j := range idx {
		col := make([]float64, n)
		for r := 0; r < n; r++ {
			col[r] = s.cov[r][j]
		}
		oldCols[a] = col
	}
	for a, j := range idx {
		for r := 0; r < n; r++ {
			acc := 0.0
			for b := 0; b < k; b++ {
				acc += oldCols[b][r] * sm[a][b]
			}
			s.cov[r][j] = acc
		}
	}
}

// displace shifts a mode's means by the displacement amplitude a*exp(i*phi).
func (s *gaussianState) displace(a, phi float64, mode int) {
	scale := math.Sqrt(2 * hbar)
	s.means[xIndex(mode)] += scale * a * math.Cos(phi)
	s.means[pIndex(mode)] += scale * a * math.Sin(phi)
}

// Symplectic matrices over (x, p) per mode.

func symRotation(phi float64) [][]float64 {
	c, sn := math.Cos(phi), math.Sin(phi)

	return [][]float64{
		{c, -sn},
		{sn, c},
	}
}

func symSqueezing(r, phi float64) [][]float64 {
	ch, sh := math.Cosh(r), math.Sinh(r)
	cp, sp := math.Cos(phi), math.Sin(phi)

	return [][]float64{
		{ch - sh*cp, -sh * sp},
		{-sh * sp, ch + sh*cp},
	}
}

func symBeamsplitter(theta, phi float64) [][]float64 {
	ct, st := math.Cos(theta), math.Sin(theta)
	cp, sp := math.Cos(phi), math.Sin(phi)

	// Ordering (x_1, p_1, x_2, p_2).
	return [][]float64{
		{ct, 0, -cp * st, -st * sp},
		{0, ct, st * sp, -cp * st},
		{cp * st, -st * sp, ct, 0},
		{st * sp, cp * st, 0, ct},
	}
}

func symTwoModeSqueezing(r, phi float64) [][]float64 {
	ch, sh := math.Cosh(r), math.Sinh(r)
	cp, sp := math.Cos(phi), math.Sin(phi)

	return [][]float64{
		{ch, 0, cp * sh, sp * sh},
		{0, ch, sp * sh, -cp * sh},
		{cp * sh, sp * sh, ch, 0},
		{sp * sh, -cp * sh, 0, ch},
	}
}

// meanX, meanP and the matching variances read a single mode's marginals.
func (s *gaussianState) meanX(mode int) float64 { return s.means[xIndex(mode)] }
func (s *gaussianState) meanP(mode int) float64 { return s.means[pIndex(mode)] }

func (s *gaussianState) varX(mode int) float64 {
	i := xIndex(mode)

	return s.cov[i][i]
}

func (s *gaussianState) varP(mode int) float64 {
	i := pIndex(mode)

	return s.cov[i][i]
}

// meanPhotons returns the mean photon number of a mode.
func (s *gaussianState) meanPhotons(mode int) float64 {
	x, p := s.meanX(mode), s.meanP(mode)

	return (s.varX(mode)+s.varP(mode)+x*x+p*p)/(2*hbar) - 0.5
}
