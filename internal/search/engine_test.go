package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/cvsearch/internal/config"
	"github.com/hyperjump/cvsearch/internal/match"
	"github.com/hyperjump/cvsearch/internal/models"
)

type sliceCorpus []*models.CorpusDocument

func (c sliceCorpus) ListCorpus(context.Context) ([]*models.CorpusDocument, error) {
	return c, nil
}

type failingCorpus struct{}

func (failingCorpus) ListCorpus(context.Context) ([]*models.CorpusDocument, error) {
	return nil, errors.New("database is locked")
}

// stubMatcher compiles every keyword to the same pattern, so tests can inject slow or broken matching.
type stubMatcher struct{ pattern match.Pattern }

func (m stubMatcher) Algorithm() match.Algorithm { return "stub" }

func (m stubMatcher) Compile(string) (match.Pattern, error) { return m.pattern, nil }

type panicPattern struct{}

func (panicPattern) Len() int { return 1 }

func (panicPattern) FindAll([]rune) []int {
	var table []int
	return []int{table[3]}
}

type slowPattern struct{ delay time.Duration }

func (p slowPattern) Len() int { return 1 }

func (p slowPattern) FindAll([]rune) []int {
	time.Sleep(p.delay)
	return nil
}

func doc(id, text string) *models.CorpusDocument {
	return &models.CorpusDocument{ID: id, ApplicantID: "a-" + id, Name: "Applicant " + id, Text: text}
}

func newTestEngine(corpus Corpus, mutate func(*config.SearchConfig)) *Engine {
	var c config.Config
	config.ApplyDefaults(&c)
	if mutate != nil {
		mutate(&c.Search)
	}
	return NewEngine(corpus, &c.Search)
}

func TestEvaluateDocument_exactThenFuzzy(t *testing.T) {
	e := newTestEngine(nil, nil)
	d := doc("1", "Experienced Python developer with Python and Djenga skills")

	for _, alg := range []match.Algorithm{match.AlgorithmKMP, match.AlgorithmBoyerMoore} {
		t.Run(string(alg), func(t *testing.T) {
			m, err := match.NewMatcher(alg)
			require.NoError(t, err)

			r, err := e.EvaluateDocument(context.Background(), d, []string{"python", "django", "rust"}, m)
			require.NoError(t, err)

			assert.Equal(t, 3, r.TotalMatches)
			assert.True(t, r.UsedFuzzy)
			assert.Equal(t, []models.KeywordMatch{
				{Keyword: "python", Count: 2, IsFuzzy: false},
				{Keyword: "django", Count: 1, IsFuzzy: true},
			}, r.KeywordMatches)
			assert.Equal(t, "a-1", r.ApplicantID)
		})
	}
}

func TestEvaluateDocument_totalIsSumOfCounts(t *testing.T) {
	e := newTestEngine(nil, nil)
	r, err := e.EvaluateDocument(context.Background(),
		doc("1", "go go golang docker kubernetes docker"),
		[]string{"go", "docker", "kubernetes"}, match.NewKMP())
	require.NoError(t, err)

	sum := 0
	for _, km := range r.KeywordMatches {
		assert.Positive(t, km.Count)
		assert.False(t, km.IsFuzzy)
		sum += km.Count
	}
	assert.Equal(t, sum, r.TotalMatches)
	assert.Equal(t, 3+2+1, r.TotalMatches)
	assert.False(t, r.UsedFuzzy)
}

func TestEvaluateDocument_panicBecomesComputationError(t *testing.T) {
	e := newTestEngine(nil, nil)
	_, err := e.EvaluateDocument(context.Background(), doc("7", "text"), []string{"boom"}, stubMatcher{panicPattern{}})
	require.Error(t, err)

	var ce *ComputationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "7", ce.DocumentID)
	assert.Equal(t, "boom", ce.Keyword)
	assert.True(t, IsComputationError(err))
}

func TestEngine_Search(t *testing.T) {
	corpus := sliceCorpus{
		doc("1", "Java developer. Java, Spring, Hibernate."),
		doc("2", "Python developer with Python and Djenga skills"),
		doc("3", "Gardener and florist"),
		doc("4", "Backend: python, golang, spring"),
	}
	e := newTestEngine(corpus, nil)

	resp, err := e.Search(context.Background(), &models.SearchQuery{Keywords: "Python, django, Spring"})
	require.NoError(t, err)

	require.Len(t, resp.Results, 3)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 4, resp.Scanned)
	assert.Equal(t, "kmp", resp.Algorithm)
	assert.Equal(t, []string{"python", "django", "spring"}, resp.Keywords)

	ids := make([]string, len(resp.Results))
	for i, r := range resp.Results {
		ids[i] = r.DocumentID
		assert.Equal(t, i+1, r.Rank)
	}
	// doc 2: python 2 + django fuzzy 1 = 3; doc 4: python 1 + spring 1 = 2; doc 1: spring 1.
	assert.Equal(t, []string{"2", "4", "1"}, ids)
	assert.Equal(t, 3, resp.Results[0].TotalMatches)
	assert.True(t, resp.Results[0].UsedFuzzy)
}

func TestEngine_Search_noMatchesIsEmptyNotError(t *testing.T) {
	e := newTestEngine(sliceCorpus{doc("1", "carpentry"), doc("2", "plumbing")}, nil)
	resp, err := e.Search(context.Background(), &models.SearchQuery{Keywords: "kubernetes", Algorithm: "bm"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.NotNil(t, resp.Results)
	assert.Equal(t, 0, resp.Total)
	assert.Equal(t, "bm", resp.Algorithm)
}

func TestEngine_Search_topN(t *testing.T) {
	var corpus sliceCorpus
	for i := 0; i < 8; i++ {
		corpus = append(corpus, doc(fmt.Sprint(i), "go developer"))
	}
	e := newTestEngine(corpus, nil)
	resp, err := e.Search(context.Background(), &models.SearchQuery{Keywords: "go", TopN: models.IntPtr(3)})
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, 8, resp.Total)
	// Equal totals keep corpus order.
	assert.Equal(t, "0", resp.Results[0].DocumentID)
	assert.Equal(t, "1", resp.Results[1].DocumentID)
	assert.Equal(t, "2", resp.Results[2].DocumentID)
}

func TestEngine_Search_zeroTopN(t *testing.T) {
	e := newTestEngine(sliceCorpus{doc("1", "go developer"), doc("2", "golang")}, nil)
	resp, err := e.Search(context.Background(), &models.SearchQuery{Keywords: "go", TopN: models.IntPtr(0)})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 2, resp.Total)
}

func TestEngine_Search_invalid(t *testing.T) {
	e := newTestEngine(sliceCorpus{doc("1", "go")}, nil)
	tests := []struct {
		name  string
		query *models.SearchQuery
	}{
		{"unknown algorithm", &models.SearchQuery{Keywords: "go", Algorithm: "regex"}},
		{"empty keywords", &models.SearchQuery{Keywords: ""}},
		{"only separators", &models.SearchQuery{Keywords: " , ;, "}},
		{"negative top_n", &models.SearchQuery{Keywords: "go", TopN: models.IntPtr(-2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Search(context.Background(), tt.query)
			assert.ErrorIs(t, err, match.ErrInvalidArgument)
		})
	}
}

func TestEngine_Search_corpusError(t *testing.T) {
	e := newTestEngine(failingCorpus{}, nil)
	_, err := e.Search(context.Background(), &models.SearchQuery{Keywords: "go"})
	assert.ErrorContains(t, err, "database is locked")
}

func TestEngine_Search_cancelled(t *testing.T) {
	e := newTestEngine(sliceCorpus{doc("1", "go"), doc("2", "go")}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Search(ctx, &models.SearchQuery{Keywords: "go"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_evaluateAll_documentTimeoutContributesZero(t *testing.T) {
	e := newTestEngine(nil, func(c *config.SearchConfig) {
		c.DocumentTimeout = time.Millisecond
		c.Workers = 2
	})
	docs := []*models.CorpusDocument{doc("1", "slow text"), doc("2", "slow text")}
	kws := e.compile(stubMatcher{slowPattern{delay: 30 * time.Millisecond}}, []string{"slow", "text"})

	var tm timings
	results, err := e.evaluateAll(context.Background(), docs, kws, &tm)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Nil(t, results[0])
	assert.Nil(t, results[1])
	assert.Empty(t, Rank(results, 10))
}

func TestEngine_Search_computationErrorAbortsBatch(t *testing.T) {
	e := newTestEngine(nil, nil)
	docs := []*models.CorpusDocument{doc("1", "a"), doc("2", "b")}
	var tm timings
	_, err := e.evaluateAll(context.Background(), docs, e.compile(stubMatcher{panicPattern{}}, []string{"x"}), &tm)
	assert.True(t, IsComputationError(err))
}
