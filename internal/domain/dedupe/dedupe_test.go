package dedupe_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	dedupe "github.com/gpluscb/instant-glicko-2/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should have default configuration", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording match ids", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the match is new", func() {
				seen := d.SeenAndRecord(context.Background(), "match-1")

				Convey("Then it should return false and record the match", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the match was already seen", func() {
				d.SeenAndRecord(context.Background(), "match-1")

				seen := d.SeenAndRecord(context.Background(), "match-1")

				Convey("Then it should return true", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And multiple matches are recorded", func() {
				matches := []string{"match-1", "match-2", "match-3", "match-4", "match-5"}

				for _, id := range matches {
					seen := d.SeenAndRecord(context.Background(), id)
					So(seen, ShouldBeFalse)
				}

				Convey("Then all matches should be recorded", func() {
					So(d.Size(), ShouldEqual, int64(len(matches)))

					for _, id := range matches {
						seen := d.SeenAndRecord(context.Background(), id)
						So(seen, ShouldBeTrue)
					}
				})
			})
		})

		Convey("When unrecording matches", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the match exists", func() {
				d.SeenAndRecord(context.Background(), "match-1")
				So(d.Size(), ShouldEqual, 1)

				d.Unrecord(context.Background(), "match-1")

				Convey("Then it should be removed", func() {
					So(d.Size(), ShouldEqual, 0)

					seen := d.SeenAndRecord(context.Background(), "match-1")
					So(seen, ShouldBeFalse)
				})
			})

			Convey("And the match doesn't exist", func() {
				d.Unrecord(context.Background(), "nonexistent")

				Convey("Then it should not affect the size", func() {
					So(d.Size(), ShouldEqual, 0)
				})
			})
		})

		Convey("When using bounded mode with eviction", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

			Convey("And the deduper is at capacity", func() {
				matches := []string{"match-1", "match-2", "match-3"}
				for _, id := range matches {
					seen := d.SeenAndRecord(context.Background(), id)
					So(seen, ShouldBeFalse)
				}
				So(d.Size(), ShouldEqual, 3)

				seen := d.SeenAndRecord(context.Background(), "match-4")

				Convey("Then it should evict the oldest and add the new one", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 3)

					// match-1 was the oldest and got evicted, so it
					// records again without growing the set.
					seen1 := d.SeenAndRecord(context.Background(), "match-1")
					So(seen1, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 3)

					// match-4 arrived last and must still be seen.
					seen4 := d.SeenAndRecord(context.Background(), "match-4")
					So(seen4, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 3)
				})
			})
		})

		Convey("When using unbounded mode", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

			Convey("And many matches are recorded", func() {
				const numMatches = 1000
				for i := 0; i < numMatches; i++ {
					id := fmt.Sprintf("match-%d", i)
					seen := d.SeenAndRecord(context.Background(), id)
					So(seen, ShouldBeFalse)
				}

				Convey("Then all matches should be recorded without eviction", func() {
					So(d.Size(), ShouldEqual, int64(numMatches))

					for i := 0; i < numMatches; i++ {
						id := fmt.Sprintf("match-%d", i)
						seen := d.SeenAndRecord(context.Background(), id)
						So(seen, ShouldBeTrue)
					}
				})
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const numGoroutines = 10
		const matchesPerGoroutine = 100

		Convey("When multiple goroutines record matches concurrently", func() {
			var wg sync.WaitGroup

			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func(goroutineID int) {
					defer wg.Done()
					for j := 0; j < matchesPerGoroutine; j++ {
						id := fmt.Sprintf("match-%d-%d", goroutineID, j)
						d.SeenAndRecord(context.Background(), id)
					}
				}(i)
			}

			wg.Wait()

			Convey("Then all matches should be recorded successfully", func() {
				So(d.Size(), ShouldEqual, int64(numGoroutines*matchesPerGoroutine))
			})
		})

		Convey("When multiple goroutines unrecord matches concurrently", func() {
			const numMatches = 500
			for i := 0; i < numMatches; i++ {
				d.SeenAndRecord(context.Background(), fmt.Sprintf("match-%d", i))
			}

			So(d.Size(), ShouldEqual, int64(numMatches))

			var wg sync.WaitGroup
			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func(goroutineID int) {
					defer wg.Done()
					for j := 0; j < numMatches/numGoroutines; j++ {
						id := fmt.Sprintf("match-%d", goroutineID*(numMatches/numGoroutines)+j)
						d.Unrecord(context.Background(), id)
					}
				}(i)
			}

			wg.Wait()

			Convey("Then all matches should be unrecorded successfully", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})
}

func TestDedupeEdgeCases(t *testing.T) {
	Convey("Given a deduper with edge cases", t, func() {
		Convey("When recording empty string", func() {
			d := dedupe.NewInMemoryDeduper()

			seen := d.SeenAndRecord(context.Background(), "")

			Convey("Then it should handle empty string", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)

				seen2 := d.SeenAndRecord(context.Background(), "")
				So(seen2, ShouldBeTrue)
			})
		})

		Convey("When recording very long strings", func() {
			d := dedupe.NewInMemoryDeduper()

			longString := strings.Repeat("a", 10000)
			seen := d.SeenAndRecord(context.Background(), longString)

			Convey("Then it should handle long strings", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)

				seen2 := d.SeenAndRecord(context.Background(), longString)
				So(seen2, ShouldBeTrue)
			})
		})

		Convey("When using very small max size", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1))

			Convey("And adding multiple matches", func() {
				seen1 := d.SeenAndRecord(context.Background(), "match-1")
				So(seen1, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)

				// Second match evicts the first.
				seen2 := d.SeenAndRecord(context.Background(), "match-2")
				So(seen2, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)

				seen1Again := d.SeenAndRecord(context.Background(), "match-1")
				So(seen1Again, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When unrecord interleaves with eviction", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))

			d.SeenAndRecord(context.Background(), "match-1")
			d.SeenAndRecord(context.Background(), "match-2")
			d.Unrecord(context.Background(), "match-1")

			Convey("Then the stale slot must not evict live entries", func() {
				So(d.Size(), ShouldEqual, 1)

				d.SeenAndRecord(context.Background(), "match-3")
				So(d.Size(), ShouldEqual, 2)

				// match-2 is still live after filling back up.
				seen2 := d.SeenAndRecord(context.Background(), "match-2")
				So(seen2, ShouldBeTrue)
			})
		})

		Convey("When using negative max size", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(-1))

			Convey("Then it should be unbounded", func() {
				const numMatches = 1000
				for i := 0; i < numMatches; i++ {
					id := fmt.Sprintf("match-%d", i)
					seen := d.SeenAndRecord(context.Background(), id)
					So(seen, ShouldBeFalse)
				}

				So(d.Size(), ShouldEqual, int64(numMatches))
			})
		})
	})
}

func TestDedupeOptions(t *testing.T) {
	Convey("Given dedupe options", t, func() {
		Convey("When using WithMaxSize", func() {
			Convey("Then it should set the max size", func() {
				d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(500))
				So(d, ShouldNotBeNil)
			})

			Convey("And when max size is zero", func() {
				d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
				So(d, ShouldNotBeNil)
			})
		})
	})
}
