package classifier

import (
	"context"
	"log/slog"

	"gamewatch/internal/model"
	"gamewatch/internal/version"
)

// Blend weights: a positive classifier verdict dominates the regex
// signal; a negative one suppresses the candidate.
const (
	classifierWeight = 0.6
	similarityWeight = 0.4
	suppressFactor   = 0.3
)

// Candidate is one matched listing to score.
type Candidate struct {
	Listing    model.CandidateListing
	Similarity float64
	Info       version.Info
}

// Score is the blended confidence for one candidate.
type Score struct {
	Confidence     float64
	FromClassifier bool
	IsUpdate       bool
	Reason         string
}

// Blender merges the regex signal with the optional classifier signal.
// A nil Blender, or one without a configured client, degrades to the
// regex-only heuristics.
type Blender struct {
	client *Client
	log    *slog.Logger
}

// NewBlender creates a Blender. client may be nil or disabled.
func NewBlender(client *Client, log *slog.Logger) *Blender {
	return &Blender{client: client, log: log}
}

// Blend scores every candidate for the given subject title. Classifier
// failure falls back to the regex heuristics and never propagates.
func (b *Blender) Blend(ctx context.Context, subject string, cands []Candidate) []Score {
	scores := make([]Score, len(cands))
	if b == nil || !b.client.Enabled() {
		for i, c := range cands {
			scores[i] = Score{Confidence: FallbackConfidence(c.Similarity, c.Info)}
		}
		return scores
	}

	req := Request{Subject: subject, Candidates: make([]RequestCandidate, len(cands))}
	for i, c := range cands {
		req.Candidates[i] = RequestCandidate{
			Title:      c.Listing.Title,
			Link:       c.Listing.Link,
			Similarity: c.Similarity,
			Date:       c.Listing.Published,
		}
	}

	verdicts, err := b.client.Classify(ctx, req)
	if err != nil {
		if b.log != nil {
			b.log.Warn("classifier unavailable, using regex heuristics", "subject", subject, "error", err)
		}
		for i, c := range cands {
			scores[i] = Score{Confidence: FallbackConfidence(c.Similarity, c.Info)}
		}
		return scores
	}

	for i, v := range verdicts {
		s := Score{FromClassifier: true, IsUpdate: v.IsUpdate, Reason: v.Reason}
		if v.IsUpdate {
			s.Confidence = similarityWeight*cands[i].Similarity + classifierWeight*v.Confidence
		} else {
			s.Confidence = cands[i].Similarity * suppressFactor
		}
		scores[i] = s
	}
	return scores
}

// FallbackConfidence derives a confidence from similarity and the
// extracted signal alone, with fixed increments per detected pattern.
func FallbackConfidence(similarity float64, info version.Info) float64 {
	conf := similarity
	if info.Version != "" {
		conf += 0.15
	}
	if info.Build != "" {
		conf += 0.1
	}
	if info.UpdateType != model.UpdateNone {
		conf += 0.1
	}
	if info.ReleaseType != model.ReleaseNone {
		conf += 0.05
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}
