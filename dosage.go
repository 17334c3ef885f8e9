package bgen

import (
	"math"

	"github.com/statgen/bgen/probs"
)

// AltDosage computes the expected number of copies of the alt allele per
// sample from a decoded probability row: for ploidy 2 unphased biallelic
// genotypes, 2*p_BB + p_AB; for ploidy 1, p_B; for phased genotypes, the
// sum of the per-haplotype alt probabilities. A missing row yields NaN.
func AltDosage(m probs.Matrix, ploidy []uint8, phased bool) []float64 {
	out := make([]float64, m.NSamples)
	for i := range out {
		if m.RowIsMissing(i) {
			out[i] = math.NaN()
			continue
		}
		row := m.Row(i)
		p := int(ploidy[i])
		switch {
		case phased:
			sum := 0.0
			for hap := 0; hap < p; hap++ {
				sum += row[hap*2+1]
			}
			out[i] = sum
		case p == 2:
			out[i] = 2*row[2] + row[1]
		case p == 1:
			out[i] = row[1]
		default:
			// General unphased ploidy: expectation of alt-allele count
			// under the colex-ordered (AA,AB,BB,...) genotype encoding
			// is sum_g count_B(g) * p(g); for biallelic genotypes the
			// count of the B allele equals the genotype's position when
			// ordered by increasing B count, i.e. column index.
			sum := 0.0
			for col, v := range row {
				if !math.IsNaN(v) {
					sum += float64(col) * v
				}
			}
			out[i] = sum
		}
	}
	return out
}

// MinorAlleleDosage computes, for ploidy-2 biallelic genotypes, the dosage
// of whichever allele has the smaller total dosage across non-missing
// samples (the minor allele). a1 is the dosage of allele 1 (2*p_AA+p_AB),
// a2 is the dosage of allele 2 (2*p_BB+p_AB, i.e. AltDosage). Missing rows
// remain NaN in the returned slice.
func MinorAlleleDosage(m probs.Matrix) []float64 {
	a1 := make([]float64, m.NSamples)
	a2 := make([]float64, m.NSamples)
	var sum1, sum2 float64
	for i := 0; i < m.NSamples; i++ {
		if m.RowIsMissing(i) {
			a1[i] = math.NaN()
			a2[i] = math.NaN()
			continue
		}
		row := m.Row(i)
		a1[i] = 2*row[0] + row[1]
		a2[i] = 2*row[2] + row[1]
		sum1 += a1[i]
		sum2 += a2[i]
	}
	if sum1 <= sum2 {
		return a1
	}
	return a2
}
