package review

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/singular/internal/adapt"
	"github.com/abhisek/singular/internal/card"
	"github.com/abhisek/singular/internal/srs"
	"github.com/abhisek/singular/internal/store"
)

// fakeRepo is an in-memory store.Repo for service tests.
type fakeRepo struct {
	mu     sync.Mutex
	cards  map[string]card.Card
	states map[string]srs.ReviewState
	events []store.ReviewEvent

	commitErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		cards:  make(map[string]card.Card),
		states: make(map[string]srs.ReviewState),
	}
}

func (f *fakeRepo) InsertCards(_ context.Context, cards []card.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range cards {
		f.cards[c.ID] = c
		f.states[c.ID] = srs.NewReviewState(c.ID, c.CreatedAt)
	}
	return nil
}

func (f *fakeRepo) GetCard(_ context.Context, id string) (*card.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrCardNotFound, id)
	}
	return &c, nil
}

func (f *fakeRepo) GetState(_ context.Context, cardID string) (*srs.ReviewState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.states[cardID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrCardNotFound, cardID)
	}
	return &st, nil
}

func (f *fakeRepo) CommitReview(_ context.Context, state srs.ReviewState, ev store.ReviewEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitErr != nil {
		return f.commitErr
	}
	f.states[state.CardID] = state
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeRepo) Append(_ context.Context, ev store.ReviewEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeRepo) RecentByCategory(_ context.Context, cat card.Category, limit int) ([]store.ReviewEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.ReviewEvent
	for i := len(f.events) - 1; i >= 0 && len(out) < limit; i-- {
		if f.events[i].Category == cat {
			out = append(out, f.events[i])
		}
	}
	return out, nil
}

func (f *fakeRepo) RecentBySubType(_ context.Context, sub card.SubType, limit int) ([]store.ReviewEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.ReviewEvent
	for i := len(f.events) - 1; i >= 0 && len(out) < limit; i-- {
		if f.events[i].SubType == sub {
			out = append(out, f.events[i])
		}
	}
	return out, nil
}

func (f *fakeRepo) DueCards(_ context.Context, now time.Time, limit int) ([]store.CardWithState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.CardWithState
	for id, st := range f.states {
		if st.State != srs.StateNew && st.IsDue(now) {
			out = append(out, store.CardWithState{Card: f.cards[id], State: st})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].State.DueAt.Equal(out[j].State.DueAt) {
			return out[i].State.DueAt.Before(out[j].State.DueAt)
		}
		return out[i].Card.ID < out[j].Card.ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) NewCards(_ context.Context, limit int) ([]store.CardWithState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.CardWithState
	for id, st := range f.states {
		if st.State == srs.StateNew {
			out = append(out, store.CardWithState{Card: f.cards[id], State: st})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Card.ID < out[j].Card.ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) CountByState(_ context.Context) (map[srs.CardState]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[srs.CardState]int)
	for _, st := range f.states {
		counts[st.State]++
	}
	return counts, nil
}

func (f *fakeRepo) DueCount(_ context.Context, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, st := range f.states {
		if st.State != srs.StateNew && st.IsDue(now) {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) MasteredCount(_ context.Context, minIntervalDays int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, st := range f.states {
		if st.State == srs.StateReview && st.IntervalDays > minIntervalDays {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) AccuracySince(_ context.Context, since time.Time) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	correct, total := 0, 0
	for _, ev := range f.events {
		if !ev.Timestamp.Before(since) {
			total++
			if ev.WasCorrect {
				correct++
			}
		}
	}
	return correct, total, nil
}

var svcNow = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func newTestService(repo *fakeRepo) *Service {
	engine := adapt.NewEngine(repo, adapt.DefaultConfig())
	return NewService(repo, engine, 5000, nil)
}

func addCard(t *testing.T, repo *fakeRepo, id string, cat card.Category, sub card.SubType) {
	t.Helper()
	err := repo.InsertCards(context.Background(), []card.Card{{
		ID: id, Category: cat, SubType: sub,
		Front: "front-" + id, Back: "back-" + id,
		CreatedAt: svcNow.AddDate(0, 0, -2),
	}})
	if err != nil {
		t.Fatalf("insert card: %v", err)
	}
}

func TestRecordAttempt_UnknownCard(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.RecordAttempt(context.Background(), "ghost",
		srs.Signal{Kind: srs.SignalSelfRated, Rating: 4}, svcNow)
	if !errors.Is(err, store.ErrCardNotFound) {
		t.Errorf("error = %v, want ErrCardNotFound", err)
	}
}

func TestRecordAttempt_InvalidQualityLeavesStateUntouched(t *testing.T) {
	repo := newFakeRepo()
	addCard(t, repo, "a", card.CategoryVocabulary, card.SubTypeNone)
	svc := newTestService(repo)

	_, err := svc.RecordAttempt(context.Background(), "a",
		srs.Signal{Kind: srs.SignalSelfRated, Rating: 9}, svcNow)
	if !errors.Is(err, srs.ErrInvalidQuality) {
		t.Fatalf("error = %v, want ErrInvalidQuality", err)
	}

	st, _ := repo.GetState(context.Background(), "a")
	if st.State != srs.StateNew || len(repo.events) != 0 {
		t.Error("failed normalization must not mutate state or ledger")
	}
}

func TestRecordAttempt_UpdatesStateAndAppends(t *testing.T) {
	repo := newFakeRepo()
	addCard(t, repo, "a", card.CategoryVocabulary, card.SubTypeNone)
	svc := newTestService(repo)

	res, err := svc.RecordAttempt(context.Background(), "a",
		srs.Signal{Kind: srs.SignalSelfRated, Rating: 4}, svcNow)
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}

	if !res.WasCorrect {
		t.Error("WasCorrect = false, want true")
	}
	if res.NewState != srs.StateLearning {
		t.Errorf("NewState = %s, want learning", res.NewState)
	}
	if res.NewIntervalDays != 1 {
		t.Errorf("NewIntervalDays = %d, want 1", res.NewIntervalDays)
	}
	if !res.NextDue.Equal(svcNow.AddDate(0, 0, 1)) {
		t.Errorf("NextDue = %v, want now+1d", res.NextDue)
	}

	if len(repo.events) != 1 {
		t.Fatalf("events = %d, want 1", len(repo.events))
	}
	ev := repo.events[0]
	if ev.CardID != "a" || ev.Quality != 4 || !ev.WasCorrect {
		t.Errorf("event = %+v, want card a quality 4 correct", ev)
	}
	if ev.Category != card.CategoryVocabulary {
		t.Errorf("event category = %s, want vocabulary", ev.Category)
	}
}

func TestRecordAttempt_CommitFailureSurfaces(t *testing.T) {
	repo := newFakeRepo()
	addCard(t, repo, "a", card.CategoryVocabulary, card.SubTypeNone)
	repo.commitErr = errors.New("disk full")
	svc := newTestService(repo)

	_, err := svc.RecordAttempt(context.Background(), "a",
		srs.Signal{Kind: srs.SignalSelfRated, Rating: 4}, svcNow)
	if err == nil {
		t.Fatal("expected commit error to surface")
	}

	st, _ := repo.GetState(context.Background(), "a")
	if st.State != srs.StateNew {
		t.Error("state mutated despite failed commit")
	}
}

// Damping from an active weakness shortens the next review interval.
func TestRecordAttempt_AppliesDamping(t *testing.T) {
	repo := newFakeRepo()
	addCard(t, repo, "a", card.CategoryVocabulary, card.SubTypeNone)
	repo.states["a"] = srs.ReviewState{
		CardID: "a", State: srs.StateReview, EaseFactor: 2.5, IntervalDays: 10,
	}
	// Seed a strong vocabulary weakness: 20 events, all failed.
	for i := 0; i < 20; i++ {
		repo.events = append(repo.events, store.ReviewEvent{
			CardID: "a", Category: card.CategoryVocabulary,
			Quality: 1, WasCorrect: false,
			Timestamp: svcNow.Add(-time.Hour),
		})
	}
	svc := newTestService(repo)

	res, err := svc.RecordAttempt(context.Background(), "a",
		srs.Signal{Kind: srs.SignalSelfRated, Rating: 5}, svcNow)
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}

	// Severity 1.0 halves the computed interval: round(26 * 0.5) = 13.
	if res.NewIntervalDays != 13 {
		t.Errorf("NewIntervalDays = %d, want 13", res.NewIntervalDays)
	}
}

func TestRecordAttempt_ConcurrentSameCard(t *testing.T) {
	repo := newFakeRepo()
	addCard(t, repo, "a", card.CategoryVocabulary, card.SubTypeNone)
	svc := newTestService(repo)

	const attempts = 10
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.RecordAttempt(context.Background(), "a",
				srs.Signal{Kind: srs.SignalSelfRated, Rating: 4},
				svcNow.Add(time.Duration(i)*time.Second))
			if err != nil {
				t.Errorf("RecordAttempt: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if len(repo.events) != attempts {
		t.Errorf("events = %d, want %d", len(repo.events), attempts)
	}
	// Serialized updates: every success advanced from the previous state,
	// so the card has long since graduated to review.
	st, _ := repo.GetState(context.Background(), "a")
	if st.State != srs.StateReview {
		t.Errorf("State = %s, want review after %d successes", st.State, attempts)
	}
}

func TestDueCards_OrderAndLimit(t *testing.T) {
	repo := newFakeRepo()
	for _, id := range []string{"c", "a", "b"} {
		addCard(t, repo, id, card.CategoryVocabulary, card.SubTypeNone)
	}
	repo.states["a"] = srs.ReviewState{CardID: "a", State: srs.StateReview, DueAt: svcNow.AddDate(0, 0, -3)}
	repo.states["b"] = srs.ReviewState{CardID: "b", State: srs.StateLearning, DueAt: svcNow.AddDate(0, 0, -1)}
	repo.states["c"] = srs.ReviewState{CardID: "c", State: srs.StateReview, DueAt: svcNow.AddDate(0, 0, -3)}
	svc := newTestService(repo)

	queue, err := svc.DueCards(context.Background(), svcNow, 10, false)
	if err != nil {
		t.Fatalf("DueCards: %v", err)
	}

	got := make([]string, len(queue))
	for i, cs := range queue {
		got[i] = cs.Card.ID
	}
	// Oldest due first; a and c tie on due date and order by id.
	want := []string{"a", "c", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("queue = %v, want %v", got, want)
	}

	queue, err = svc.DueCards(context.Background(), svcNow, 2, false)
	if err != nil {
		t.Fatalf("DueCards: %v", err)
	}
	if len(queue) != 2 {
		t.Errorf("limited queue = %d cards, want 2", len(queue))
	}
}

func TestDueCards_NewCardsFillRemainingRoom(t *testing.T) {
	repo := newFakeRepo()
	addCard(t, repo, "due-1", card.CategoryVocabulary, card.SubTypeNone)
	repo.states["due-1"] = srs.ReviewState{CardID: "due-1", State: srs.StateReview, DueAt: svcNow.AddDate(0, 0, -1)}
	for _, id := range []string{"new-1", "new-2", "new-3"} {
		addCard(t, repo, id, card.CategoryVocabulary, card.SubTypeNone)
	}
	svc := newTestService(repo)

	queue, err := svc.DueCards(context.Background(), svcNow, 3, true)
	if err != nil {
		t.Fatalf("DueCards: %v", err)
	}
	if len(queue) != 3 {
		t.Fatalf("queue = %d cards, want 3 (1 due + 2 new)", len(queue))
	}
	if queue[0].Card.ID != "due-1" {
		t.Errorf("queue[0] = %s, want the due card first", queue[0].Card.ID)
	}
	for _, cs := range queue[1:] {
		if cs.State.State != srs.StateNew {
			t.Errorf("tail card %s in state %s, want new", cs.Card.ID, cs.State.State)
		}
	}
}

func TestDueCards_ExcludesNewWhenAsked(t *testing.T) {
	repo := newFakeRepo()
	addCard(t, repo, "new-1", card.CategoryVocabulary, card.SubTypeNone)
	svc := newTestService(repo)

	queue, err := svc.DueCards(context.Background(), svcNow, 10, false)
	if err != nil {
		t.Fatalf("DueCards: %v", err)
	}
	if len(queue) != 0 {
		t.Errorf("queue = %d cards, want 0 without new cards", len(queue))
	}
}

// Selecting twice with no attempts in between returns the same sequence.
func TestDueCards_StableWithoutWrites(t *testing.T) {
	repo := newFakeRepo()
	for _, id := range []string{"a", "b", "c", "d"} {
		addCard(t, repo, id, card.CategoryVocabulary, card.SubTypeNone)
		repo.states[id] = srs.ReviewState{CardID: id, State: srs.StateReview, DueAt: svcNow.AddDate(0, 0, -1)}
	}
	svc := newTestService(repo)

	first, err := svc.DueCards(context.Background(), svcNow, 10, true)
	if err != nil {
		t.Fatalf("DueCards: %v", err)
	}
	second, err := svc.DueCards(context.Background(), svcNow, 10, true)
	if err != nil {
		t.Fatalf("DueCards: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("due selection changed with no intervening writes")
	}
}

func TestIngest_MintsIDs(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	n, err := svc.Ingest(context.Background(), []card.Card{
		{Category: card.CategoryVocabulary, Front: "f", Back: "b"},
		{ID: "fixed", Category: card.CategoryGrammar, SubType: card.SubTypeFillBlank, Front: "f", Back: "b"},
	}, svcNow)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}
	if len(repo.cards) != 2 {
		t.Fatalf("cards = %d, want 2", len(repo.cards))
	}
	if _, ok := repo.cards["fixed"]; !ok {
		t.Error("explicit id not preserved")
	}
	for id, st := range repo.states {
		if st.State != srs.StateNew {
			t.Errorf("card %s ingested in state %s, want new", id, st.State)
		}
	}
}

func TestIngest_RejectsInvalidCards(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.Ingest(context.Background(), []card.Card{
		{Category: "folklore", Front: "f", Back: "b"},
	}, svcNow)
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestProgressStats(t *testing.T) {
	repo := newFakeRepo()
	addCard(t, repo, "a", card.CategoryVocabulary, card.SubTypeNone)
	addCard(t, repo, "b", card.CategoryVocabulary, card.SubTypeNone)
	addCard(t, repo, "c", card.CategoryGrammar, card.SubTypeFillBlank)
	repo.states["b"] = srs.ReviewState{CardID: "b", State: srs.StateReview, IntervalDays: 14, DueAt: svcNow.AddDate(0, 0, 7)}
	repo.states["c"] = srs.ReviewState{CardID: "c", State: srs.StateLearning, DueAt: svcNow.AddDate(0, 0, -1)}
	repo.events = append(repo.events,
		store.ReviewEvent{WasCorrect: true, Timestamp: svcNow.AddDate(0, 0, -1)},
		store.ReviewEvent{WasCorrect: true, Timestamp: svcNow.AddDate(0, 0, -2)},
		store.ReviewEvent{WasCorrect: false, Timestamp: svcNow.AddDate(0, 0, -3)},
		store.ReviewEvent{WasCorrect: true, Timestamp: svcNow.AddDate(0, 0, -30)}, // outside window
	)
	svc := newTestService(repo)

	stats, err := svc.ProgressStats(context.Background(), svcNow)
	if err != nil {
		t.Fatalf("ProgressStats: %v", err)
	}

	if stats.TotalCards != 3 {
		t.Errorf("TotalCards = %d, want 3", stats.TotalCards)
	}
	if stats.ByState[srs.StateNew] != 1 || stats.ByState[srs.StateReview] != 1 || stats.ByState[srs.StateLearning] != 1 {
		t.Errorf("ByState = %v", stats.ByState)
	}
	if stats.DueNow != 1 {
		t.Errorf("DueNow = %d, want 1", stats.DueNow)
	}
	if stats.Mastered != 1 {
		t.Errorf("Mastered = %d, want 1", stats.Mastered)
	}
	if stats.Reviews7d != 3 {
		t.Errorf("Reviews7d = %d, want 3", stats.Reviews7d)
	}
	want := 2.0 / 3.0 * 100
	if diff := stats.Accuracy7d - want; diff < -1e-9 || diff > 1e-9 {
		t.Errorf("Accuracy7d = %v, want %v", stats.Accuracy7d, want)
	}
}
