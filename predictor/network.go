package predictor

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// layerSizes fixes the network shape: 15 input features, two hidden dense
// layers, one sigmoid output. Stored snapshots embed the shape and are
// rejected if it no longer matches.
var layerSizes = []int{FeatureCount, 16, 8, 1}

// Network is a small fully-connected feed-forward net with sigmoid
// activations on every layer.
type Network struct {
	sizes   []int
	weights []*mat.Dense
	biases  []*mat.VecDense
}

// NewNetwork creates a network with normally distributed weights scaled by
// 1/sqrt(fan-in). The seed keeps startup training reproducible.
func NewNetwork(seed int64) *Network {
	rng := rand.New(rand.NewSource(seed))
	n := &Network{sizes: layerSizes}
	for l := 0; l < len(layerSizes)-1; l++ {
		in, out := layerSizes[l], layerSizes[l+1]
		w := mat.NewDense(out, in, nil)
		scale := 1.0 / math.Sqrt(float64(in))
		for i := 0; i < out; i++ {
			for j := 0; j < in; j++ {
				w.Set(i, j, rng.NormFloat64()*scale)
			}
		}
		n.weights = append(n.weights, w)
		n.biases = append(n.biases, mat.NewVecDense(out, nil))
	}
	return n
}

// Predict runs a forward pass and returns the sigmoid output in [0,1].
func (n *Network) Predict(features []float64) float64 {
	acts := n.forward(features)
	return acts[len(acts)-1].AtVec(0)
}

// forward returns the activations of every layer, input included. The full
// list is needed for backpropagation.
func (n *Network) forward(features []float64) []*mat.VecDense {
	a := mat.NewVecDense(len(features), nil)
	for i, v := range features {
		a.SetVec(i, v)
	}

	acts := []*mat.VecDense{a}
	for l := range n.weights {
		z := mat.NewVecDense(n.sizes[l+1], nil)
		z.MulVec(n.weights[l], a)
		z.AddVec(z, n.biases[l])
		for i := 0; i < z.Len(); i++ {
			z.SetVec(i, sigmoid(z.AtVec(i)))
		}
		acts = append(acts, z)
		a = z
	}
	return acts
}

// Train runs plain per-sample stochastic gradient descent with cross-entropy
// loss and returns the mean loss of the final epoch. Sample order is
// reshuffled every epoch from the given seed.
func (n *Network) Train(samples []Sample, epochs int, learningRate float64, seed int64) float64 {
	if len(samples) == 0 {
		return 0
	}

	rng := rand.New(rand.NewSource(seed))
	var loss float64
	for epoch := 0; epoch < epochs; epoch++ {
		loss = 0
		for _, idx := range rng.Perm(len(samples)) {
			loss += n.step(samples[idx], learningRate)
		}
		loss /= float64(len(samples))
	}
	return loss
}

// step backpropagates a single sample and returns its loss.
func (n *Network) step(s Sample, lr float64) float64 {
	acts := n.forward(s.Features)
	out := acts[len(acts)-1].AtVec(0)

	// With cross-entropy loss the output delta reduces to (out - label).
	delta := mat.NewVecDense(1, []float64{out - s.Label})
	for l := len(n.weights) - 1; l >= 0; l-- {
		var grad mat.Dense
		grad.Outer(lr, delta, acts[l])

		// The delta of the layer below must be computed before the
		// weights of this layer are updated.
		var next *mat.VecDense
		if l > 0 {
			next = mat.NewVecDense(n.sizes[l], nil)
			next.MulVec(n.weights[l].T(), delta)
			for i := 0; i < next.Len(); i++ {
				a := acts[l].AtVec(i)
				next.SetVec(i, next.AtVec(i)*a*(1-a))
			}
		}

		n.weights[l].Sub(n.weights[l], &grad)
		for i := 0; i < delta.Len(); i++ {
			n.biases[l].SetVec(i, n.biases[l].AtVec(i)-lr*delta.AtVec(i))
		}
		delta = next
	}

	return crossEntropy(out, s.Label)
}

// MeanLoss evaluates the cross-entropy loss over the samples without
// touching the weights.
func (n *Network) MeanLoss(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var loss float64
	for _, s := range samples {
		loss += crossEntropy(n.Predict(s.Features), s.Label)
	}
	return loss / float64(len(samples))
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func crossEntropy(p, y float64) float64 {
	const eps = 1e-9
	p = math.Min(math.Max(p, eps), 1-eps)
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}

// networkSnapshot is the wire form of the weights, one flat row-major slice
// per layer.
type networkSnapshot struct {
	Sizes   []int       `json:"sizes"`
	Weights [][]float64 `json:"weights"`
	Biases  [][]float64 `json:"biases"`
}

// MarshalWeights serializes the network into a single JSON blob.
func (n *Network) MarshalWeights() ([]byte, error) {
	snap := networkSnapshot{Sizes: n.sizes}
	for l := range n.weights {
		raw := n.weights[l].RawMatrix().Data
		snap.Weights = append(snap.Weights, append([]float64(nil), raw...))
		bias := n.biases[l].RawVector().Data
		snap.Biases = append(snap.Biases, append([]float64(nil), bias...))
	}
	return json.Marshal(snap)
}

// UnmarshalNetwork restores a network from a snapshot blob, rejecting blobs
// whose shape does not match the current architecture.
func UnmarshalNetwork(data []byte) (*Network, error) {
	var snap networkSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode model snapshot: %w", err)
	}

	if len(snap.Sizes) != len(layerSizes) {
		return nil, fmt.Errorf("snapshot has %d layers, expected %d", len(snap.Sizes), len(layerSizes))
	}
	for i, size := range snap.Sizes {
		if size != layerSizes[i] {
			return nil, fmt.Errorf("snapshot layer %d has size %d, expected %d", i, size, layerSizes[i])
		}
	}
	if len(snap.Weights) != len(layerSizes)-1 || len(snap.Biases) != len(layerSizes)-1 {
		return nil, fmt.Errorf("snapshot is missing layer data")
	}

	n := &Network{sizes: layerSizes}
	for l := 0; l < len(layerSizes)-1; l++ {
		in, out := layerSizes[l], layerSizes[l+1]
		if len(snap.Weights[l]) != in*out || len(snap.Biases[l]) != out {
			return nil, fmt.Errorf("snapshot layer %d has wrong dimensions", l)
		}
		n.weights = append(n.weights, mat.NewDense(out, in, append([]float64(nil), snap.Weights[l]...)))
		n.biases = append(n.biases, mat.NewVecDense(out, append([]float64(nil), snap.Biases[l]...)))
	}
	return n, nil
}
