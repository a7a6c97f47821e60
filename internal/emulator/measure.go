package emulator

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/SooluThomas/qiskit-ibm-runtime/quantum"
)

// maxMeasuredQubits caps the basis-state space of the fake measurement
// model; wider registers are truncated to their first qubits.
const maxMeasuredQubits = 6

// measure produces the emulator's fake shot counts for a circuit. The
// distribution is a deterministic function of the circuit source, bound
// parameter values, shot count and the global seed, so identical
// submissions return identical counts. noise mixes in a uniform readout
// error fraction; simulators pass 0.
func measure(seed int64, circ *quantum.Circuit, values []float64, shots int, noise float64) map[string]int {
	h := fnv.New64a()
	h.Write([]byte(circ.QASM))
	h.Write([]byte(circ.Name))
	var buf [8]byte
	for _, v := range values {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	binary.LittleEndian.PutUint64(buf[:], uint64(shots))
	h.Write(buf[:])

	rng := rand.New(rand.NewSource(int64(h.Sum64()) ^ seed))

	nBits := circ.NumQubits
	if nBits > maxMeasuredQubits {
		nBits = maxMeasuredQubits
	}
	states := 1 << nBits

	// Exponential weights give a peaked, circuit-dependent distribution.
	probs := make([]float64, states)
	var total float64
	for i := range probs {
		probs[i] = rng.ExpFloat64()
		total += probs[i]
	}
	uniform := 1.0 / float64(states)
	for i := range probs {
		probs[i] = (1-noise)*(probs[i]/total) + noise*uniform
	}

	// Largest-remainder rounding keeps the counts summing to shots.
	counts := make(map[string]int, states)
	assigned := 0
	maxState, maxCount := 0, -1
	for i, p := range probs {
		c := int(math.Floor(p * float64(shots)))
		if c > 0 {
			counts[bitstring(i, nBits)] = c
		}
		assigned += c
		if c > maxCount {
			maxState, maxCount = i, c
		}
	}
	if rem := shots - assigned; rem > 0 {
		counts[bitstring(maxState, nBits)] += rem
	}
	return counts
}

func bitstring(state, width int) string {
	bits := make([]byte, width)
	for i := 0; i < width; i++ {
		if state&(1<<(width-1-i)) != 0 {
			bits[i] = '1'
		} else {
			bits[i] = '0'
		}
	}
	return string(bits)
}

// confusionMatrix builds the symmetric readout confusion model the noisy
// backends apply, for use by the resilience-1 correction.
func confusionMatrix(n int, noise float64) [][]float64 {
	m := make([][]float64, n)
	off := 0.0
	if n > 1 {
		off = noise / float64(n-1)
	}
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			if i == j {
				m[i][j] = 1 - noise
			} else {
				m[i][j] = off
			}
		}
	}
	return m
}
