package nlu

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// Training hyperparameters for the multinomial logistic regression. The
// corpus is small enough that full-batch gradient descent converges quickly.
const (
	trainEpochs       = 300
	trainLearningRate = 0.5
	trainL2           = 1e-4
)

// Snapshot is an immutable bundle of vectorizer state, trained model, and
// source corpus produced by one training pass. Requests read from the current
// snapshot; a retrain publishes a new one atomically.
type Snapshot struct {
	vec      *Vectorizer
	weights  [][]float64 // [class][feature]
	bias     []float64
	classes  []string
	rows     []TrainingExample
	byIntent map[string][]int // intent → row indices
}

// Prediction is the classifier's output for one message.
type Prediction struct {
	Intent     string
	Confidence float64
	Response   string
}

// Classifier is the statistical fallback classifier: a TF-IDF vectorizer
// feeding a multinomial logistic regression, trained from the labeled CSV
// corpus. Predict reads the current snapshot; Retrain builds and atomically
// swaps in a new one, so inference never blocks on training.
type Classifier struct {
	corpusPath  string
	maxFeatures int

	trainMu sync.Mutex // serializes retrains; readers never take it
	snap    atomic.Pointer[Snapshot]
}

// ClassifierOpts holds parameters for creating a Classifier.
type ClassifierOpts struct {
	CorpusPath  string
	MaxFeatures int // defaults to 18000
}

// NewClassifier creates a Classifier. It does not train; call Retrain to load
// the corpus and build the first snapshot.
func NewClassifier(opts ClassifierOpts) (*Classifier, error) {
	if opts.CorpusPath == "" {
		return nil, fmt.Errorf("nlu: classifier: corpus path is required")
	}
	maxFeatures := opts.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = 18000
	}
	return &Classifier{
		corpusPath:  opts.CorpusPath,
		maxFeatures: maxFeatures,
	}, nil
}

// Ready reports whether a trained snapshot is available.
func (c *Classifier) Ready() bool {
	return c.snap.Load() != nil
}

// Retrain reloads the corpus, fits a new snapshot, and publishes it with a
// single atomic pointer swap. In-flight predictions keep using the snapshot
// that was current when they started. Returns (false, reason) on failure, in
// which case the previous snapshot stays live.
func (c *Classifier) Retrain() (bool, string) {
	c.trainMu.Lock()
	defer c.trainMu.Unlock()

	rows, err := LoadCorpus(c.corpusPath)
	if err != nil {
		log.Printf("nlu: retrain: %v", err)
		return false, err.Error()
	}
	snap := Train(rows, c.maxFeatures)
	if snap == nil {
		return false, "corpus has fewer than two intents"
	}
	c.snap.Store(snap)
	return true, fmt.Sprintf("model trained on %d examples, %d intents, %d features",
		len(rows), len(snap.classes), snap.vec.Features())
}

// Train fits a snapshot from the given rows. Returns nil when the rows cover
// fewer than two intent classes.
func Train(rows []TrainingExample, maxFeatures int) *Snapshot {
	byIntent := map[string][]int{}
	for i, r := range rows {
		byIntent[r.Intent] = append(byIntent[r.Intent], i)
	}
	if len(byIntent) < 2 {
		return nil
	}

	classes := make([]string, 0, len(byIntent))
	for intent := range byIntent {
		classes = append(classes, intent)
	}
	sort.Strings(classes)
	classIndex := make(map[string]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	docs := make([]string, len(rows))
	for i, r := range rows {
		docs[i] = r.Text
	}
	vec := FitVectorizer(docs, maxFeatures)

	vectors := make([]map[int]float64, len(rows))
	labels := make([]int, len(rows))
	for i, r := range rows {
		vectors[i] = vec.Transform(r.Text)
		labels[i] = classIndex[r.Intent]
	}

	weights := make([][]float64, len(classes))
	for i := range weights {
		weights[i] = make([]float64, vec.Features())
	}
	bias := make([]float64, len(classes))

	// Full-batch softmax gradient descent.
	for epoch := 0; epoch < trainEpochs; epoch++ {
		for i, x := range vectors {
			probs := softmax(weights, bias, x)
			for cls := range classes {
				grad := probs[cls]
				if cls == labels[i] {
					grad -= 1
				}
				step := trainLearningRate * grad
				for f, v := range x {
					weights[cls][f] -= step * v
				}
				bias[cls] -= step
			}
		}
		if trainL2 > 0 {
			decay := 1 - trainLearningRate*trainL2
			for cls := range weights {
				for f := range weights[cls] {
					weights[cls][f] *= decay
				}
			}
		}
	}

	return &Snapshot{
		vec:      vec,
		weights:  weights,
		bias:     bias,
		classes:  classes,
		rows:     rows,
		byIntent: byIntent,
	}
}

// softmax computes class probabilities for a sparse input vector.
func softmax(weights [][]float64, bias []float64, x map[int]float64) []float64 {
	scores := make([]float64, len(bias))
	maxScore := math.Inf(-1)
	for cls := range bias {
		s := bias[cls]
		for f, v := range x {
			s += weights[cls][f] * v
		}
		scores[cls] = s
		if s > maxScore {
			maxScore = s
		}
	}
	var sum float64
	for cls, s := range scores {
		scores[cls] = math.Exp(s - maxScore)
		sum += scores[cls]
	}
	for cls := range scores {
		scores[cls] /= sum
	}
	return scores
}

// Predict classifies text against the current snapshot. It fails soft: with
// no trained snapshot, or no usable features in the text, it returns zero
// confidence so the caller can fall through to the next cascade stage.
func (c *Classifier) Predict(text string) Prediction {
	snap := c.snap.Load()
	if snap == nil {
		return Prediction{Confidence: 0}
	}
	return snap.predict(text)
}

func (s *Snapshot) predict(text string) Prediction {
	x := s.vec.Transform(text)
	if len(x) == 0 {
		return Prediction{Confidence: 0}
	}
	probs := softmax(s.weights, s.bias, x)
	best := 0
	for cls, p := range probs {
		if p > probs[best] {
			best = cls
		}
	}
	intent := s.classes[best]
	return Prediction{
		Intent:     intent,
		Confidence: probs[best],
		Response:   s.response(intent, text),
	}
}

// response picks the reply for a predicted intent: an exact corpus text match
// wins, otherwise one of the intent's responses uniformly at random.
func (s *Snapshot) response(intent, query string) string {
	indices := s.byIntent[intent]
	if len(indices) == 0 {
		return ""
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	for _, i := range indices {
		if strings.ToLower(strings.TrimSpace(s.rows[i].Text)) == needle {
			return s.rows[i].Response
		}
	}
	return s.rows[indices[rand.Intn(len(indices))]].Response
}
