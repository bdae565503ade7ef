// Package main provides the schedule assistant server entry point.
package main

import (
	"context"
	"time"

	"github.com/tmuhub/tmu-weekly-bot/internal/genai"
	"github.com/tmuhub/tmu-weekly-bot/internal/metrics"
	"github.com/tmuhub/tmu-weekly-bot/internal/qa"
	"github.com/tmuhub/tmu-weekly-bot/internal/rag"
)

// instrumentedGenerator records request counts and latency per provider.
type instrumentedGenerator struct {
	inner genai.TextGenerator
	m     *metrics.Metrics
}

func instrumentGenerator(inner genai.TextGenerator, m *metrics.Metrics) genai.TextGenerator {
	if inner == nil {
		return nil
	}
	return &instrumentedGenerator{inner: inner, m: m}
}

func (g *instrumentedGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	start := time.Now()
	out, err := g.inner.Generate(ctx, system, prompt)
	status := "success"
	if err != nil {
		status = "error"
	}
	g.m.RecordLLMRequest(string(g.inner.Provider()), status, time.Since(start).Seconds())
	return out, err
}

func (g *instrumentedGenerator) Provider() genai.Provider {
	return g.inner.Provider()
}

func (g *instrumentedGenerator) Close() error {
	return g.inner.Close()
}

// instrumentedSearcher records hit counts and failures of hybrid retrieval.
type instrumentedSearcher struct {
	inner qa.Searcher
	m     *metrics.Metrics
}

func instrumentSearcher(inner qa.Searcher, m *metrics.Metrics) qa.Searcher {
	return &instrumentedSearcher{inner: inner, m: m}
}

func (s *instrumentedSearcher) Search(ctx context.Context, query string, topK int) ([]rag.HybridResult, error) {
	hits, err := s.inner.Search(ctx, query, topK)
	if err != nil {
		s.m.RecordRetrievalError("hybrid")
		return nil, err
	}
	s.m.RecordRetrieval("hybrid", len(hits))
	return hits, nil
}
