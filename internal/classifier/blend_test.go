package classifier

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"testing"
	"time"

	"gamewatch/internal/model"
	"gamewatch/internal/version"
)

// mockTransport returns a canned HTTP response or error.
type mockTransport struct {
	status int
	body   string
	err    error
}

func (m *mockTransport) Do(req *http.Request) (*http.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.status,
		Body:       io.NopCloser(strings.NewReader(m.body)),
	}, nil
}

func TestClassify(t *testing.T) {
	client := NewClient("http://classifier.local/v1/classify", &mockTransport{
		status: http.StatusOK,
		body:   `[{"is_update":true,"confidence":0.9,"reason":"same game, newer version"}]`,
	}, time.Second)

	verdicts, err := client.Classify(context.Background(), Request{
		Subject:    "Hades",
		Candidates: []RequestCandidate{{Title: "Hades v1.38"}},
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(verdicts) != 1 || !verdicts[0].IsUpdate || verdicts[0].Confidence != 0.9 {
		t.Errorf("unexpected verdicts: %+v", verdicts)
	}
}

func TestClassifyErrors(t *testing.T) {
	tests := []struct {
		name      string
		transport *mockTransport
	}{
		{"transport error", &mockTransport{err: fmt.Errorf("connection refused")}},
		{"non-200 status", &mockTransport{status: http.StatusBadGateway, body: "oops"}},
		{"malformed body", &mockTransport{status: http.StatusOK, body: "not json"}},
		{"verdict count mismatch", &mockTransport{status: http.StatusOK, body: `[]`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient("http://classifier.local", tt.transport, time.Second)
			_, err := client.Classify(context.Background(), Request{
				Candidates: []RequestCandidate{{Title: "x"}},
			})
			if err == nil {
				t.Error("Classify returned nil error")
			}
		})
	}
}

func TestClassifyDisabled(t *testing.T) {
	client := NewClient("", &mockTransport{}, time.Second)
	if client.Enabled() {
		t.Error("Enabled = true for empty URL")
	}
	if _, err := client.Classify(context.Background(), Request{}); err == nil {
		t.Error("Classify on disabled client returned nil error")
	}
}

func TestBlendWithClassifier(t *testing.T) {
	client := NewClient("http://classifier.local", &mockTransport{
		status: http.StatusOK,
		body:   `[{"is_update":true,"confidence":0.9,"reason":"update"},{"is_update":false,"confidence":0.8,"reason":"different game"}]`,
	}, time.Second)
	b := NewBlender(client, nil)

	cands := []Candidate{
		{Listing: model.CandidateListing{Title: "Hades v1.38"}, Similarity: 1.0},
		{Listing: model.CandidateListing{Title: "Hades II"}, Similarity: 0.9},
	}
	scores := b.Blend(context.Background(), "Hades", cands)

	// Positive verdict: 0.4*sim + 0.6*conf.
	want := 0.4*1.0 + 0.6*0.9
	if math.Abs(scores[0].Confidence-want) > 1e-9 {
		t.Errorf("positive blend = %v, want %v", scores[0].Confidence, want)
	}
	if !scores[0].FromClassifier || !scores[0].IsUpdate {
		t.Errorf("positive score flags wrong: %+v", scores[0])
	}

	// Negative verdict suppresses to sim*0.3.
	if math.Abs(scores[1].Confidence-0.9*0.3) > 1e-9 {
		t.Errorf("suppressed blend = %v, want %v", scores[1].Confidence, 0.9*0.3)
	}
	if scores[1].IsUpdate {
		t.Error("negative verdict marked as update")
	}
	if scores[1].Reason != "different game" {
		t.Errorf("reason = %q", scores[1].Reason)
	}
}

func TestBlendFallsBackOnFailure(t *testing.T) {
	client := NewClient("http://classifier.local", &mockTransport{err: fmt.Errorf("timeout")}, time.Second)
	b := NewBlender(client, nil)

	info := version.Info{Version: "v1.38"}
	scores := b.Blend(context.Background(), "Hades", []Candidate{
		{Listing: model.CandidateListing{Title: "Hades v1.38"}, Similarity: 0.8, Info: info},
	})

	want := FallbackConfidence(0.8, info)
	if scores[0].Confidence != want {
		t.Errorf("fallback confidence = %v, want %v", scores[0].Confidence, want)
	}
	if scores[0].FromClassifier {
		t.Error("FromClassifier = true after classifier failure")
	}
}

func TestBlendNilBlender(t *testing.T) {
	var b *Blender
	scores := b.Blend(context.Background(), "Hades", []Candidate{
		{Similarity: 0.9},
	})
	if len(scores) != 1 || scores[0].Confidence != 0.9 {
		t.Errorf("nil blender scores = %+v", scores)
	}
}

func TestFallbackConfidence(t *testing.T) {
	tests := []struct {
		name string
		sim  float64
		info version.Info
		want float64
	}{
		{"similarity alone", 0.8, version.Info{}, 0.8},
		{"version bonus", 0.8, version.Info{Version: "1.0"}, 0.95},
		{"build bonus", 0.8, version.Info{Build: "100"}, 0.9},
		{"update keyword bonus", 0.8, version.Info{UpdateType: model.UpdatePatch}, 0.9},
		{"release type bonus", 0.8, version.Info{ReleaseType: model.ReleaseProper}, 0.85},
		{
			"clamped at one",
			1.0,
			version.Info{Version: "1.0", Build: "100", UpdateType: model.UpdateUpdate},
			1.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackConfidence(tt.sim, tt.info)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("FallbackConfidence = %v, want %v", got, tt.want)
			}
		})
	}
}
