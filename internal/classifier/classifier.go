// Package classifier assigns incident reports to a support category.
package classifier

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"
)

// Categories recognised by the classifier.
const (
	CategoryHardware = "Hardware"
	CategorySoftware = "Software"
	CategoryNetwork  = "Network"
	CategoryAccount  = "Account"
	CategoryOther    = "Other"
)

// Result is a predicted category with a confidence in [0,1].
type Result struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Classifier predicts the category of an incident from its text.
type Classifier interface {
	Classify(ctx context.Context, title, description string) (Result, error)
}

// Sample is a labelled training example.
type Sample struct {
	Text     string
	Category string
}

// NaiveBayes is a multinomial naive Bayes model over unigram and bigram tokens.
type NaiveBayes struct {
	alpha      float64
	classes    []string
	logPrior   map[string]float64
	tokenCount map[string]map[string]float64
	totalCount map[string]float64
	vocabulary map[string]struct{}
}

// NewNaiveBayes trains a model on samples with additive smoothing alpha.
func NewNaiveBayes(samples []Sample, alpha float64) *NaiveBayes {
	nb := &NaiveBayes{
		alpha:      alpha,
		logPrior:   make(map[string]float64),
		tokenCount: make(map[string]map[string]float64),
		totalCount: make(map[string]float64),
		vocabulary: make(map[string]struct{}),
	}

	docs := make(map[string]int)
	for _, sample := range samples {
		docs[sample.Category]++
		counts, ok := nb.tokenCount[sample.Category]
		if !ok {
			counts = make(map[string]float64)
			nb.tokenCount[sample.Category] = counts
		}
		for _, token := range features(sample.Text) {
			counts[token]++
			nb.totalCount[sample.Category]++
			nb.vocabulary[token] = struct{}{}
		}
	}

	for class, n := range docs {
		nb.classes = append(nb.classes, class)
		nb.logPrior[class] = math.Log(float64(n) / float64(len(samples)))
	}
	sort.Strings(nb.classes)
	return nb
}

// NewDefault returns a model trained on the built-in helpdesk corpus.
func NewDefault() *NaiveBayes {
	return NewNaiveBayes(trainingCorpus, 0.1)
}

// Classify returns the most likely category. Text with no known vocabulary is Other with zero confidence.
func (nb *NaiveBayes) Classify(_ context.Context, title, description string) (Result, error) {
	text := strings.TrimSpace(title + " " + description)
	if text == "" {
		return Result{Category: CategoryOther}, nil
	}

	var known []string
	for _, token := range features(text) {
		if _, ok := nb.vocabulary[token]; ok {
			known = append(known, token)
		}
	}
	if len(known) == 0 {
		return Result{Category: CategoryOther}, nil
	}

	vocab := float64(len(nb.vocabulary))
	scores := make([]float64, len(nb.classes))
	for i, class := range nb.classes {
		score := nb.logPrior[class]
		denom := nb.totalCount[class] + nb.alpha*vocab
		for _, token := range known {
			score += math.Log((nb.tokenCount[class][token] + nb.alpha) / denom)
		}
		scores[i] = score
	}

	best := 0
	for i := range scores {
		if scores[i] > scores[best] {
			best = i
		}
	}

	// normalise with log-sum-exp
	var sum float64
	for _, score := range scores {
		sum += math.Exp(score - scores[best])
	}
	return Result{Category: nb.classes[best], Confidence: 1 / sum}, nil
}

// features lowercases text, drops stop words and emits unigrams plus adjacent bigrams.
func features(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var tokens []string
	for _, word := range words {
		if len(word) < 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		tokens = append(tokens, word)
	}

	result := make([]string, 0, 2*len(tokens))
	result = append(result, tokens...)
	for i := 1; i < len(tokens); i++ {
		result = append(result, tokens[i-1]+" "+tokens[i])
	}
	return result
}
