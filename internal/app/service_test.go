package service_test

import (
	"context"
	"errors"
	"io"
	"maps"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/waffles/internal/adapters/ledger"
	"github.com/okian/waffles/internal/adapters/repository"
	service "github.com/okian/waffles/internal/app"
	"github.com/okian/waffles/internal/domain/model"
	"github.com/okian/waffles/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

const chat = `11-06-2025 12:00 - Messages and calls are end-to-end encrypted.
10-06-2025 09:00 - Alice: Video note
11-06-2025 10:00 - Alice: Video note
11-06-2025 18:00 - Alice: video NOTE
11-06-2025 11:00 - Bob: Video note
12-06-2025 08:00 - Carol: Video note
18-06-2025 09:30 - Alice: Video note
18-06-2025 09:31 - Bob: morning all
19-06-2025 07:00 - Bob: Video note
25-06-2025 23:59 - Alice: Video note
this line continues the previous message
`

func persons() model.Registry {
	return model.Registry{
		"Alice": {ID: "Alice", Name: "Alice", Color: "red", Avatar: "https://example.com/alice.png"},
		"Bob":   {ID: "Bob", Name: "Bob", Color: "blue"},
		"Carol": {ID: "Carol", Name: "Carol"},
		"Dave":  {ID: "Dave", Name: "Dave"},
	}
}

func fixedClock() time.Time { return time.Date(2025, 6, 25, 12, 0, 0, 0, time.UTC) }

// fakeLedger keeps the workbook in memory.
type fakeLedger struct {
	mu      sync.Mutex
	rows    model.DrinksLedger
	readErr error
}

func (f *fakeLedger) Read(context.Context) (model.DrinksLedger, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	return maps.Clone(f.rows), nil
}

func (f *fakeLedger) AddDrinks(_ context.Context, name string, n int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n == 0 {
		return 0, ledger.ErrInvalidDrinks
	}
	f.rows[name] += n
	return f.rows[name], nil
}

// brokenStore fails every operation.
type brokenStore struct{}

func (brokenStore) Load(context.Context) ([]model.Event, error) {
	return nil, repository.ErrCorrupt
}
func (brokenStore) Save(context.Context, []model.Event) error { return errors.New("disk full") }
func (brokenStore) Close() error                               { return nil }

func newService(opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithPersons(persons()),
		service.WithClock(fixedClock),
		service.WithStartDate(time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)),
		service.WithIDGenerator(func() string { return "import-1" }),
	}
	return service.New(append(base, opts...)...)
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		svc := newService()
		defer svc.Stop()

		Convey("When it is used before Start", func() {
			_, err := svc.Process(ctx, strings.NewReader(chat))

			Convey("Then it refuses to process", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When starting the service", func() {
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it is marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldBeTrue)
				So(stats["events"], ShouldEqual, 0)
				So(stats["referenceWeeks"], ShouldEqual, 3)
			})

			Convey("And starting again is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})
	})

	Convey("Given an unreadable store and ledger", t, func() {
		ctx := context.Background()
		svc := newService(
			service.WithStore(brokenStore{}),
			service.WithLedger(&fakeLedger{readErr: ledger.ErrCorrupt}),
		)
		defer svc.Stop()

		Convey("When starting", func() {
			err := svc.Start(ctx)

			Convey("Then the tracker comes up empty", func() {
				So(err, ShouldBeNil)
				So(svc.Events(ctx), ShouldBeEmpty)
				So(svc.Ledger(ctx), ShouldBeEmpty)
			})
		})
	})
}

func TestService_Process(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := newService(service.WithStore(store))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a chat export is uploaded", func() {
			res, err := svc.Process(ctx, strings.NewReader(chat))

			Convey("Then the import is summarized", func() {
				So(err, ShouldBeNil)
				So(res.ImportID, ShouldEqual, "import-1")
				So(res.Lines, ShouldEqual, 11)
				So(res.Records, ShouldEqual, 10)
				So(res.Matched, ShouldBeTrue)
				So(res.Kept, ShouldEqual, 7)
				So(res.Accepted, ShouldEqual, 6)
				So(res.Duplicates, ShouldEqual, 1)
				So(res.Total, ShouldEqual, 6)
			})

			Convey("And events are persisted in insertion order", func() {
				stored, err := store.Load(ctx)
				So(err, ShouldBeNil)
				So(stored, ShouldHaveLength, 6)
				So(stored[0].Title, ShouldEqual, "Alice")
				So(stored[0].Color, ShouldEqual, "red")
				So(stored[2].Title, ShouldEqual, "Carol")
				So(stored[2].Color, ShouldEqual, "gray")
			})

			Convey("And the end of a late-night event stays in its day", func() {
				events := svc.Events(ctx)
				last := events[len(events)-1]
				So(last.End, ShouldEqual, time.Date(2025, 6, 25, 23, 57, 0, 0, time.UTC))
			})

			Convey("And uploading the same export again adds nothing", func() {
				again, err := svc.Process(ctx, strings.NewReader(chat))
				So(err, ShouldBeNil)
				So(again.Accepted, ShouldEqual, 0)
				So(again.Duplicates, ShouldEqual, 7)
				So(svc.Events(ctx), ShouldHaveLength, 6)
			})
		})

		Convey("When the export has no keyword matches", func() {
			res, err := svc.Process(ctx, strings.NewReader("11-06-2025 10:00 - Alice: hello\n12-06-2025 10:00 - Bob: hi\n"))

			Convey("Then every dated message after the start counts", func() {
				So(err, ShouldBeNil)
				So(res.Matched, ShouldBeFalse)
				So(res.Accepted, ShouldEqual, 2)
			})
		})

		Convey("When the upload is empty", func() {
			_, err := svc.Process(ctx, strings.NewReader(""))

			Convey("Then it is rejected", func() {
				So(errors.Is(err, service.ErrEmptyUpload), ShouldBeTrue)
			})
		})

		Convey("When the upload cannot be read", func() {
			_, err := svc.Process(ctx, io.MultiReader(strings.NewReader("11-06-2025 10:00 - Alice: Video note\n"), errReader{}))

			Convey("Then nothing is merged", func() {
				So(errors.Is(err, service.ErrReadUpload), ShouldBeTrue)
				So(svc.Events(ctx), ShouldBeEmpty)
			})
		})
	})

	Convey("Given a store that cannot save", t, func() {
		ctx := context.Background()
		svc := newService(service.WithStore(brokenStore{}))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When an export is uploaded", func() {
			_, err := svc.Process(ctx, strings.NewReader(chat))

			Convey("Then the error surfaces and the calendar is unchanged", func() {
				So(errors.Is(err, service.ErrPersist), ShouldBeTrue)
				So(svc.Events(ctx), ShouldBeEmpty)
			})
		})
	})
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestService_Views(t *testing.T) {
	Convey("Given a service holding the sample export", t, func() {
		ctx := context.Background()
		led := &fakeLedger{rows: model.DrinksLedger{"bob": 1}}
		svc := newService(service.WithLedger(led))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		_, err := svc.Process(ctx, strings.NewReader(chat))
		So(err, ShouldBeNil)

		Convey("When reading the weekly table", func() {
			weeks := svc.Weeks(ctx)

			Convey("Then each person and ISO week has one row", func() {
				So(weeks, ShouldHaveLength, 6)
				So(weeks[0].Week, ShouldEqual, 24)
				So(weeks[0].Person, ShouldEqual, "Alice")
				So(weeks[2].Person, ShouldEqual, "Carol")
				So(weeks[2].Late, ShouldEqual, 1)
			})
		})

		Convey("When reading the ranking", func() {
			ranking := svc.Ranking(ctx)

			Convey("Then persons are ordered by on-time check-ins", func() {
				So(ranking, ShouldHaveLength, 4)
				So(ranking[0].Person, ShouldEqual, "Alice")
				So(ranking[0].OnTime, ShouldEqual, 3)
				So(ranking[0].Delta, ShouldEqual, 0)
				So(ranking[0].Avatar, ShouldEqual, "https://example.com/alice.png")
				So(ranking[1].Person, ShouldEqual, "Bob")
				So(ranking[1].Penalty, ShouldEqual, 2)
				So(ranking[2].Person, ShouldEqual, "Carol")
				So(ranking[2].Color, ShouldEqual, "gray")
			})

			Convey("And a person without events still appears", func() {
				So(ranking[3].Person, ShouldEqual, "Dave")
				So(ranking[3].Missed, ShouldEqual, 3)
				So(ranking[3].Rank, ShouldEqual, 4)
			})
		})

		Convey("When reading the drinks owed", func() {
			owed := svc.Owed(ctx)

			Convey("Then the ledger name is matched case-insensitively", func() {
				So(owed, ShouldHaveLength, 3)
				So(owed[0].Person, ShouldEqual, "Carol")
				So(owed[0].Owed, ShouldEqual, 3)
				So(owed[1].Person, ShouldEqual, "Dave")
				So(owed[2].Person, ShouldEqual, "Bob")
				So(owed[2].DrinksDone, ShouldEqual, 1)
				So(owed[2].Owed, ShouldEqual, 1)
			})
		})

		Convey("When drinks are recorded", func() {
			entry, err := svc.AddDrinks(ctx, "carol", 2)

			Convey("Then the ledger and owed list follow", func() {
				So(err, ShouldBeNil)
				So(entry.Person, ShouldEqual, "Carol")
				So(entry.DrinksDone, ShouldEqual, 2)
				So(led.rows["Carol"], ShouldEqual, 2)

				owed := svc.Owed(ctx)
				So(owed[0].Person, ShouldEqual, "Dave")
				So(owed[1].Person, ShouldEqual, "Bob")
				So(owed[2].Person, ShouldEqual, "Carol")
				So(owed[2].Owed, ShouldEqual, 1)
			})
		})

		Convey("When an invalid amount is recorded", func() {
			_, err := svc.AddDrinks(ctx, "Bob", 0)

			Convey("Then the ledger error is returned", func() {
				So(errors.Is(err, ledger.ErrInvalidDrinks), ShouldBeTrue)
			})
		})

		Convey("When reading the summary", func() {
			sum := svc.Summary(ctx)

			Convey("Then it bundles one recomputation", func() {
				So(sum.ReferenceWeeks, ShouldEqual, 3)
				So(sum.StartDate, ShouldEqual, "2025-06-11")
				So(sum.Weekday, ShouldEqual, "Wednesday")
				So(sum.Events, ShouldEqual, 6)
				So(sum.Ranking, ShouldHaveLength, 4)
				So(sum.Owed, ShouldHaveLength, 3)
			})
		})

		Convey("When listing persons", func() {
			So(svc.Persons(ctx)[0].ID, ShouldEqual, "Alice")
		})
	})

	Convey("Given a service without a ledger", t, func() {
		ctx := context.Background()
		svc := newService()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then recording drinks is refused", func() {
			_, err := svc.AddDrinks(ctx, "Alice", 1)
			So(errors.Is(err, service.ErrLedgerDisabled), ShouldBeTrue)
		})
	})
}
