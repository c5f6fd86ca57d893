// Package rag implements the retrieval-augmented ask operation: embed the
// question, retrieve zone- and window-scoped items, and summarize them into a
// short grounded answer with source attribution.
package rag

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/citypulse/pulse/plugin/ai"
	"github.com/citypulse/pulse/plugin/markdown"
	"github.com/citypulse/pulse/server/ranking"
	"github.com/citypulse/pulse/store"
)

// ErrInvalidQuery marks an ask query outside the accepted length bounds.
var ErrInvalidQuery = errors.New("invalid query")

const (
	minQueryLen = 2
	maxQueryLen = 1000

	// noRecentActivityAnswer is the explicit no-data outcome. It is a valid
	// answer, never an error, and never reaches the summarizer.
	noRecentActivityAnswer = "No recent activity found matching your question. Try widening the time window or asking about a different zone."

	// answerUnavailable is the degraded outcome when retrieval succeeded
	// but the summarizer did not.
	answerUnavailable = "A summary is unavailable right now. The sources below were the most relevant recent items."
)

// Config carries the ask tunables.
type Config struct {
	// TopK is how many items retrieval fetches per ask.
	TopK int
	// MaxSources caps the attributed source list.
	MaxSources int
	// DefaultWindow applies when the caller does not pick one.
	DefaultWindow time.Duration
	// TTL bounds every window; nothing expired is ever retrievable.
	TTL time.Duration
	// MaxConcurrentSummaries bounds in-flight summarize calls engine-wide.
	MaxConcurrentSummaries int64
}

// DefaultConfig returns the production ask configuration.
func DefaultConfig() Config {
	return Config{
		TopK:                   10,
		MaxSources:             5,
		DefaultWindow:          6 * time.Hour,
		TTL:                    store.DefaultTTL,
		MaxConcurrentSummaries: 4,
	}
}

// Engine orchestrates the ask flow.
type Engine struct {
	store    *store.Store
	embedder ai.EmbeddingService
	llm      ai.LLMService
	config   Config

	builder      *contextBuilder
	summarySem   *semaphore.Weighted
}

// NewEngine creates an ask engine. The embedder and llm may be nil when AI is
// disabled; every ask then degrades to recency retrieval without a summary.
func NewEngine(s *store.Store, embedder ai.EmbeddingService, llm ai.LLMService, md markdown.Service, config Config) *Engine {
	if config.TopK <= 0 {
		config.TopK = 10
	}
	if config.MaxSources <= 0 {
		config.MaxSources = 5
	}
	if config.DefaultWindow <= 0 {
		config.DefaultWindow = 6 * time.Hour
	}
	if config.TTL <= 0 {
		config.TTL = store.DefaultTTL
	}
	if config.MaxConcurrentSummaries <= 0 {
		config.MaxConcurrentSummaries = 4
	}
	return &Engine{
		store:      s,
		embedder:   embedder,
		llm:        llm,
		config:     config,
		builder:    &contextBuilder{markdown: md},
		summarySem: semaphore.NewWeighted(config.MaxConcurrentSummaries),
	}
}

// AskRequest is one natural-language question over recent items.
type AskRequest struct {
	Query string
	// Zone scopes retrieval to one zone. Empty fans out across all zones.
	Zone string
	// Window bounds item age; zero means the default, always clamped to TTL.
	Window time.Duration
}

// Source attributes one retrieved item.
type Source struct {
	ItemUID   string  `json:"item_uid"`
	Title     string  `json:"title"`
	CreatedTs int64   `json:"created_ts"`
	Relevance float64 `json:"relevance"`
}

// AskResult is the answer plus its attribution.
type AskResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
	// NoData reports the explicit empty-retrieval outcome.
	NoData bool `json:"no_data,omitempty"`
	// Degraded reports that a provider failed and the result is partial.
	Degraded bool `json:"degraded,omitempty"`
}

// Ask answers a question from recent zone activity.
func (e *Engine) Ask(ctx context.Context, req *AskRequest) (*AskResult, error) {
	query := strings.TrimSpace(req.Query)
	if len(query) < minQueryLen || len(query) > maxQueryLen {
		return nil, errors.Wrapf(ErrInvalidQuery, "query length must be in [%d, %d]", minQueryLen, maxQueryLen)
	}

	var zone store.Zone
	if req.Zone != "" {
		parsed, ok := store.ParseZone(req.Zone)
		if !ok {
			return nil, errors.Wrapf(store.ErrInvalidZone, "zone %q", req.Zone)
		}
		zone = parsed
	}

	window := req.Window
	if window <= 0 {
		window = e.config.DefaultWindow
	}
	if window > e.config.TTL {
		window = e.config.TTL
	}

	now := time.Now()
	matches, degraded, err := e.retrieve(ctx, query, zone, now, window)
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return &AskResult{Answer: noRecentActivityAnswer, Sources: []Source{}, NoData: true}, nil
	}

	sources := e.sources(matches)

	answer, err := e.summarize(ctx, query, matches, now)
	if err != nil {
		slog.Warn("summarize failed, returning sources without answer",
			slog.String("query", query),
			slog.String("error", err.Error()))
		return &AskResult{Answer: answerUnavailable, Sources: sources, Degraded: true}, nil
	}

	return &AskResult{Answer: answer, Sources: sources, Degraded: degraded}, nil
}

// retrieve embeds the query and runs similarity search. When embedding is
// unavailable or fails, recent items stand in as the retrieval set with a
// neutral relevance; quality degrades before availability does.
func (e *Engine) retrieve(ctx context.Context, query string, zone store.Zone, now time.Time, window time.Duration) ([]*store.ItemWithScore, bool, error) {
	sinceTs := now.Add(-window).Unix()
	nowTs := now.Unix()

	if e.embedder != nil {
		vector, err := e.embedder.Embed(ctx, query)
		if err == nil {
			matches, searchErr := e.vectorSearch(ctx, vector, zone, sinceTs, nowTs)
			if searchErr != nil {
				return nil, false, searchErr
			}
			return matches, false, nil
		}
		if errors.Is(err, context.Canceled) {
			return nil, false, err
		}
		slog.Warn("query embedding failed, falling back to recency retrieval",
			slog.String("error", err.Error()))
	}

	matches, err := e.recencyRetrieve(ctx, zone, sinceTs, nowTs)
	if err != nil {
		return nil, false, err
	}
	return matches, true, nil
}

func (e *Engine) vectorSearch(ctx context.Context, vector []float32, zone store.Zone, sinceTs, nowTs int64) ([]*store.ItemWithScore, error) {
	zones := []store.Zone{zone}
	if zone == "" {
		zones = store.Zones()
	}

	results := make([][]*store.ItemWithScore, len(zones))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, z := range zones {
		group.Go(func() error {
			matches, err := e.store.VectorSearchItems(groupCtx, &store.VectorSearchItemsOptions{
				Vector:  vector,
				Zone:    z,
				SinceTs: sinceTs,
				NowTs:   nowTs,
				Limit:   e.config.TopK,
			})
			if err != nil {
				return errors.Wrapf(err, "similarity search failed for zone %s", z)
			}
			results[i] = matches
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var merged []*store.ItemWithScore
	for _, matches := range results {
		merged = append(merged, matches...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].Item.CreatedTs > merged[j].Item.CreatedTs
	})
	if len(merged) > e.config.TopK {
		merged = merged[:e.config.TopK]
	}
	return merged, nil
}

// recencyRetrieve lists recent items with a neutral relevance of 0.5, so the
// rest of the ask flow works unchanged when no query vector exists.
func (e *Engine) recencyRetrieve(ctx context.Context, zone store.Zone, sinceTs, nowTs int64) ([]*store.ItemWithScore, error) {
	zones := []store.Zone{zone}
	if zone == "" {
		zones = store.Zones()
	}

	limit := e.config.TopK
	var merged []*store.ItemWithScore
	for _, z := range zones {
		items, err := e.store.ListItemCandidates(ctx, &store.FindItemCandidates{
			Zone:    z,
			SinceTs: sinceTs,
			NowTs:   nowTs,
			Limit:   &limit,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list recent items for zone %s", z)
		}
		for _, item := range items {
			merged = append(merged, &store.ItemWithScore{Item: item, Score: 0})
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Item.CreatedTs > merged[j].Item.CreatedTs
	})
	if len(merged) > e.config.TopK {
		merged = merged[:e.config.TopK]
	}
	return merged, nil
}

func (e *Engine) sources(matches []*store.ItemWithScore) []Source {
	count := len(matches)
	if count > e.config.MaxSources {
		count = e.config.MaxSources
	}
	sources := make([]Source, 0, count)
	for _, match := range matches[:count] {
		title := match.Item.Title
		if title == "" {
			title = "Untitled"
		}
		sources = append(sources, Source{
			ItemUID:   match.Item.UID,
			Title:     title,
			CreatedTs: match.Item.CreatedTs,
			Relevance: ranking.NormalizeSimilarity(match.Score),
		})
	}
	return sources
}

const summarySystemPrompt = `You are a concise live-events summarizer for New York City. Given multiple short clips from the last few hours, produce a neutral 2-3 sentence "what's happening" summary with concrete details.

Guidelines:
- Focus on factual information from the clips
- Avoid speculation beyond the provided content
- Mention specific locations when available
- Keep it concise but informative
- Return plain text (no markdown)`

func (e *Engine) summarize(ctx context.Context, query string, matches []*store.ItemWithScore, now time.Time) (string, error) {
	if e.llm == nil {
		return "", errors.New("no summarization provider configured")
	}

	if err := e.summarySem.Acquire(ctx, 1); err != nil {
		return "", errors.Wrap(err, "failed to acquire summary slot")
	}
	defer e.summarySem.Release(1)

	contextText := e.builder.Build(matches, now)
	userPrompt := "Query: \"" + query + "\"\n\nRecent clips:\n" + contextText + "\n\nProvide a 2-3 sentence summary of what's happening:"

	answer, err := e.llm.Chat(ctx, []ai.Message{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", errors.New("empty summary")
	}
	return answer, nil
}
