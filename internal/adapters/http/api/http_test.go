package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gpluscb/instant-glicko-2/internal/adapters/http/api"
	"github.com/gpluscb/instant-glicko-2/internal/domain/model"
	"github.com/gpluscb/instant-glicko-2/pkg/engine"
	"github.com/gpluscb/instant-glicko-2/pkg/glicko"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies satisfies api.Dependencies for handler tests.
type mockDependencies struct {
	seen map[string]bool

	enqueueSuccess bool
	enqueued       []model.MatchEvent

	nextID      uint64
	registerErr error

	ratings   map[engine.PlayerID]glicko.Rating
	ratingErr error

	topN    []api.Entry
	topNErr error
}

func newMockDependencies() *mockDependencies {
	return &mockDependencies{
		seen:           make(map[string]bool),
		enqueueSuccess: true,
		ratings:        make(map[engine.PlayerID]glicko.Rating),
	}
}

func (m *mockDependencies) SeenAndRecord(_ context.Context, id string) bool {
	if m.seen[id] {
		return true
	}
	m.seen[id] = true
	return false
}

func (m *mockDependencies) Unrecord(_ context.Context, id string) {
	delete(m.seen, id)
}

func (m *mockDependencies) Size() int64 {
	return int64(len(m.seen))
}

func (m *mockDependencies) Enqueue(_ context.Context, e model.MatchEvent) bool {
	if m.enqueueSuccess {
		m.enqueued = append(m.enqueued, e)
		return true
	}
	return false
}

func (m *mockDependencies) RegisterPlayer(_ context.Context, start glicko.Rating) (engine.PlayerID, error) {
	if m.registerErr != nil {
		return 0, m.registerErr
	}
	if !start.IsZero() {
		if err := start.Validate(); err != nil {
			return 0, err
		}
	}
	m.nextID++
	return engine.PlayerID(m.nextID), nil
}

func (m *mockDependencies) PlayerRating(_ context.Context, id engine.PlayerID) (glicko.Rating, error) {
	if m.ratingErr != nil {
		return glicko.Rating{}, m.ratingErr
	}
	rating, ok := m.ratings[id]
	if !ok {
		return glicko.Rating{}, fmt.Errorf("%w: id %d", engine.ErrUnknownPlayer, id)
	}
	return rating, nil
}

func (m *mockDependencies) TopN(_ context.Context, n int) ([]api.Entry, error) {
	if m.topNErr != nil {
		return nil, m.topNErr
	}
	if n > len(m.topN) {
		return m.topN, nil
	}
	return m.topN[:n], nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newTestMux(deps *mockDependencies) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"players": 0}}, 100)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := newMockDependencies()
		mux := newTestMux(deps)

		Convey("When hitting the health endpoint", func() {
			req := httptest.NewRequest("GET", "/healthz", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should respond with metrics", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When hitting the stats endpoint", func() {
			req := httptest.NewRequest("GET", "/stats", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should respond with JSON", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
			})
		})
	})
}

func TestPlayersEndpoint(t *testing.T) {
	Convey("Given the players endpoint", t, func() {
		deps := newMockDependencies()
		mux := newTestMux(deps)

		Convey("When registering a player with an empty body", func() {
			req := httptest.NewRequest("POST", "/players", strings.NewReader(""))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should create the player", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)

				var resp map[string]uint64
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["player_id"], ShouldEqual, 1)
			})
		})

		Convey("When registering a player with a custom start rating", func() {
			body := `{"rating": 1800, "deviation": 200, "volatility": 0.06}`
			req := httptest.NewRequest("POST", "/players", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should create the player", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
			})
		})

		Convey("When registering a player with an invalid start rating", func() {
			body := `{"rating": 1500, "deviation": -10, "volatility": 0.06}`
			req := httptest.NewRequest("POST", "/players", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should reject the request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When using the wrong method", func() {
			req := httptest.NewRequest("GET", "/players", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should respond not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestRatingEndpoint(t *testing.T) {
	Convey("Given the rating endpoint", t, func() {
		deps := newMockDependencies()
		deps.ratings[42] = glicko.Rating{Rating: 1500, Deviation: 350, Volatility: 0.06}
		mux := newTestMux(deps)

		Convey("When querying a known player", func() {
			req := httptest.NewRequest("GET", "/rating/42", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should return the rating", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var resp map[string]float64
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["player_id"], ShouldEqual, 42)
				So(resp["rating"], ShouldEqual, 1500.0)
				So(resp["deviation"], ShouldEqual, 350.0)
			})
		})

		Convey("When querying an unknown player", func() {
			req := httptest.NewRequest("GET", "/rating/999", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should return 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When querying with a malformed id", func() {
			req := httptest.NewRequest("GET", "/rating/abc", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should return 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When querying with an empty id", func() {
			req := httptest.NewRequest("GET", "/rating/", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should return 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestMatchesEndpoint(t *testing.T) {
	Convey("Given the matches endpoint", t, func() {
		deps := newMockDependencies()
		mux := newTestMux(deps)

		Convey("When submitting a valid match", func() {
			body := `{"match_id": "m-1", "player_a": 1, "player_b": 2, "outcome": "win"}`
			req := httptest.NewRequest("POST", "/matches", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should accept the match", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(len(deps.enqueued), ShouldEqual, 1)
				So(deps.enqueued[0].PlayerA, ShouldEqual, engine.PlayerID(1))
				So(deps.enqueued[0].Outcome, ShouldEqual, engine.Win)
			})
		})

		Convey("When submitting the same match twice", func() {
			body := `{"match_id": "m-dup", "player_a": 1, "player_b": 2, "outcome": "draw"}`
			req1 := httptest.NewRequest("POST", "/matches", strings.NewReader(body))
			w1 := httptest.NewRecorder()
			mux.ServeHTTP(w1, req1)

			req2 := httptest.NewRequest("POST", "/matches", strings.NewReader(body))
			w2 := httptest.NewRecorder()
			mux.ServeHTTP(w2, req2)

			Convey("Then the second submission should be flagged as duplicate", func() {
				So(w1.Code, ShouldEqual, http.StatusAccepted)
				So(w2.Code, ShouldEqual, http.StatusOK)

				var resp map[string]interface{}
				So(json.Unmarshal(w2.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["duplicate"], ShouldBeTrue)
				So(len(deps.enqueued), ShouldEqual, 1)
			})
		})

		Convey("When submitting without a match id", func() {
			body := `{"player_a": 1, "player_b": 2, "outcome": "loss"}`
			req := httptest.NewRequest("POST", "/matches", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the server should mint one", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)

				var resp map[string]interface{}
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["match_id"], ShouldNotBeEmpty)
			})
		})

		Convey("When the queue is full", func() {
			deps.enqueueSuccess = false

			body := `{"match_id": "m-backpressure", "player_a": 1, "player_b": 2, "outcome": "win"}`
			req := httptest.NewRequest("POST", "/matches", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should report backpressure and allow a retry", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				// Unrecord must have rolled back the idempotency mark.
				So(deps.seen["m-backpressure"], ShouldBeFalse)
			})
		})

		Convey("When submitting invalid matches", func() {
			cases := []string{
				`{"player_a": 0, "player_b": 2, "outcome": "win"}`,
				`{"player_a": 1, "player_b": 0, "outcome": "win"}`,
				`{"player_a": 1, "player_b": 1, "outcome": "win"}`,
				`{"player_a": 1, "player_b": 2}`,
				`{"player_a": 1, "player_b": 2, "outcome": "crush"}`,
				`{"player_a": 1, "player_b": 2, "outcome": "win", "ts": "not-a-time"}`,
				`{not json`,
			}

			Convey("Then every case should be rejected", func() {
				for _, body := range cases {
					req := httptest.NewRequest("POST", "/matches", strings.NewReader(body))
					w := httptest.NewRecorder()
					mux.ServeHTTP(w, req)
					So(w.Code, ShouldEqual, http.StatusBadRequest)
				}
				So(len(deps.enqueued), ShouldEqual, 0)
			})
		})
	})
}

func TestLeaderboardEndpoint(t *testing.T) {
	Convey("Given the leaderboard endpoint", t, func() {
		deps := newMockDependencies()
		deps.topN = []api.Entry{
			{Rank: 1, PlayerID: 3, Rating: 1720.5, Deviation: 120.0, Volatility: 0.06},
			{Rank: 2, PlayerID: 1, Rating: 1650.0, Deviation: 150.0, Volatility: 0.06},
		}
		mux := newTestMux(deps)

		Convey("When requesting the top players", func() {
			req := httptest.NewRequest("GET", "/leaderboard?limit=2", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should return the entries in order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var entries []api.Entry
				So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
				So(len(entries), ShouldEqual, 2)
				So(entries[0].PlayerID, ShouldEqual, 3)
				So(entries[0].Rating, ShouldBeGreaterThan, entries[1].Rating)
			})
		})

		Convey("When requesting without a limit", func() {
			req := httptest.NewRequest("GET", "/leaderboard", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should return 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When requesting more than the configured maximum", func() {
			req := httptest.NewRequest("GET", "/leaderboard?limit=1000", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should return 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}
