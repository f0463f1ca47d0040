package service_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/waffles/internal/adapters/ledger"
	"github.com/okian/waffles/internal/adapters/repository"
	service "github.com/okian/waffles/internal/app"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	for _, driver := range []string{repository.DriverJSON, repository.DriverSQLite} {
		Convey("Given a service on a "+driver+" store and an xlsx ledger", t, func() {
			ctx := context.Background()
			dir := t.TempDir()
			storePath := filepath.Join(dir, "events."+driver)
			ledgerPath := filepath.Join(dir, "drinks.xlsx")

			open := func() *service.Service {
				store, err := repository.Open(ctx, driver, storePath)
				So(err, ShouldBeNil)
				led, err := ledger.New(ledgerPath)
				So(err, ShouldBeNil)
				svc := newService(service.WithStore(store), service.WithLedger(led))
				So(svc.Start(ctx), ShouldBeNil)
				return svc
			}

			svc := open()
			_, err := svc.Process(ctx, strings.NewReader(chat))
			So(err, ShouldBeNil)
			_, err = svc.AddDrinks(ctx, "Dave", 2)
			So(err, ShouldBeNil)
			svc.Stop()

			Convey("When the service is restarted", func() {
				again := open()
				defer again.Stop()

				Convey("Then the calendar is restored", func() {
					events := again.Events(ctx)
					So(events, ShouldHaveLength, 6)
					So(events[0].Title, ShouldEqual, "Alice")
				})

				Convey("And the ledger is read back from the workbook", func() {
					entries := again.Ledger(ctx)
					So(entries, ShouldHaveLength, 1)
					So(entries[0].Person, ShouldEqual, "Dave")
					So(entries[0].DrinksDone, ShouldEqual, 2)
				})

				Convey("And the owed list reflects both", func() {
					owed := again.Owed(ctx)
					So(owed, ShouldHaveLength, 3)
					So(owed[0].Person, ShouldEqual, "Carol")
					So(owed[1].Person, ShouldEqual, "Bob")
					So(owed[1].Owed, ShouldEqual, 2)
					So(owed[2].Person, ShouldEqual, "Dave")
					So(owed[2].Owed, ShouldEqual, 1)
				})

				Convey("And a newer export only appends new days", func() {
					res, err := again.Process(ctx, strings.NewReader(chat+"02-07-2025 09:00 - Dave: Video note\n"))
					So(err, ShouldBeNil)
					So(res.Accepted, ShouldEqual, 1)
					So(again.Events(ctx), ShouldHaveLength, 7)
				})
			})
		})
	}
}
