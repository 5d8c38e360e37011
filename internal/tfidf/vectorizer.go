package tfidf

import (
	"fmt"
	"math"
)

// Vector holds TF-IDF weights aligned to the vocabulary of the batch it was built from.
// Vectors from different batches are not comparable.
type Vector []float64

// Norm returns the Euclidean length of the vector.
func (v Vector) Norm() float64 {
	var sum float64
	for _, w := range v {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// Vectorize builds one vector per document over a vocabulary made of every distinct
// term in the batch, ordered by first appearance.
//
// Weights are tf * idf with tf = count/len(doc tokens) and idf = ln(docCount/df).
// Terms present in every document get a zero weight.
func Vectorize(documents []string) []Vector {
	if len(documents) == 0 {
		return []Vector{}
	}

	tokenized := make([][]string, len(documents))
	vocabulary := make(map[string]int)
	var order []string
	for i, doc := range documents {
		tokenized[i] = Tokenize(doc)
		for _, term := range tokenized[i] {
			if _, seen := vocabulary[term]; !seen {
				vocabulary[term] = len(order)
				order = append(order, term)
			}
		}
	}

	documentFrequency := make([]int, len(order))
	counts := make([]map[int]int, len(documents))
	for i, terms := range tokenized {
		counts[i] = make(map[int]int, len(terms))
		for _, term := range terms {
			counts[i][vocabulary[term]]++
		}
		for idx := range counts[i] {
			documentFrequency[idx]++
		}
	}

	docCount := float64(len(documents))
	idf := make([]float64, len(order))
	for idx, df := range documentFrequency {
		idf[idx] = math.Log(docCount / float64(df))
	}

	vectors := make([]Vector, len(documents))
	for i, terms := range tokenized {
		vec := make(Vector, len(order))
		if len(terms) > 0 {
			length := float64(len(terms))
			for idx, count := range counts[i] {
				vec[idx] = float64(count) / length * idf[idx]
			}
		}
		vectors[i] = vec
	}

	return vectors
}

// Cosine returns dot(a,b) / (|a|*|b|), or 0 when either vector has zero norm.
// It panics when the vectors have different dimensions.
func Cosine(a, b Vector) float64 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("tfidf: vector dimension mismatch: %d != %d", len(a), len(b)))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Rounding can push identical directions slightly above 1.
	return math.Min(similarity, 1)
}
