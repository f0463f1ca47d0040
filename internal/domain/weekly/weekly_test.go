package weekly_test

import (
	"testing"
	"time"

	"github.com/okian/waffles/internal/domain/model"
	"github.com/okian/waffles/internal/domain/weekly"
	. "github.com/smartystreets/goconvey/convey"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ev(person string, t time.Time) model.Event {
	return model.Event{Title: person, Start: t, End: t.Add(time.Minute)}
}

func TestCountWeekday(t *testing.T) {
	Convey("Given a Wednesday cadence", t, func() {
		Convey("When start is a Wednesday and end two weeks later", func() {
			n := weekly.CountWeekday(date(2025, 6, 11), date(2025, 6, 25), time.Wednesday)

			Convey("Then the 11th, 18th and 25th count", func() {
				So(n, ShouldEqual, 3)
			})
		})

		Convey("When start is after end", func() {
			Convey("Then nothing counts", func() {
				So(weekly.CountWeekday(date(2025, 6, 25), date(2025, 6, 11), time.Wednesday), ShouldEqual, 0)
			})
		})

		Convey("When the first Wednesday is past the end", func() {
			Convey("Then nothing counts", func() {
				So(weekly.CountWeekday(date(2025, 6, 12), date(2025, 6, 17), time.Wednesday), ShouldEqual, 0)
			})
		})

		Convey("When start and end are the same Wednesday", func() {
			Convey("Then it counts once", func() {
				So(weekly.CountWeekday(date(2025, 6, 11), date(2025, 6, 11), time.Wednesday), ShouldEqual, 1)
			})
		})

		Convey("When start is a Thursday", func() {
			Convey("Then counting begins at the next Wednesday", func() {
				So(weekly.CountWeekday(date(2025, 6, 12), date(2025, 6, 18), time.Wednesday), ShouldEqual, 1)
				So(weekly.CountWeekday(date(2025, 6, 12), date(2025, 7, 2), time.Wednesday), ShouldEqual, 3)
			})
		})

		Convey("When the clock part of the bounds differs", func() {
			start := time.Date(2025, 6, 11, 23, 0, 0, 0, time.UTC)
			end := time.Date(2025, 6, 25, 1, 0, 0, 0, time.UTC)

			Convey("Then only the calendar days matter", func() {
				So(weekly.CountWeekday(start, end, time.Wednesday), ShouldEqual, 3)
			})
		})

		Convey("When counting up to a fixed clock", func() {
			now := func() time.Time { return time.Date(2025, 6, 25, 8, 30, 0, 0, time.UTC) }

			Convey("Then today is included", func() {
				So(weekly.CountSince(date(2025, 6, 11), time.Wednesday, now), ShouldEqual, 3)
			})
		})
	})
}

func TestAggregate(t *testing.T) {
	Convey("Given events across two ISO weeks", t, func() {
		wed := date(2025, 6, 11)
		events := []model.Event{
			ev("alice", wed.Add(10*time.Hour)),
			ev("alice", wed.Add(7*24*time.Hour+9*time.Hour)),
			ev("alice", wed.Add(7*24*time.Hour+20*time.Hour)),
			ev("alice", wed.Add(8*24*time.Hour)),
			ev("bob", wed.Add(24*time.Hour)),
			ev("bob", wed.Add(2*24*time.Hour)),
		}
		agg := weekly.New()

		Convey("When aggregating", func() {
			buckets := agg.Aggregate(events)

			Convey("Then each (week, person) gets one bucket in order", func() {
				So(buckets, ShouldHaveLength, 3)
				So(buckets[0].Week, ShouldEqual, 24)
				So(buckets[0].Person, ShouldEqual, "alice")
				So(buckets[1].Week, ShouldEqual, 24)
				So(buckets[1].Person, ShouldEqual, "bob")
				So(buckets[2].Week, ShouldEqual, 25)
			})

			Convey("And counts split by reference weekday", func() {
				So(buckets[0].WednesdayCount, ShouldEqual, 1)
				So(buckets[0].OnTime(), ShouldEqual, 1)

				So(buckets[1].WednesdayCount, ShouldEqual, 0)
				So(buckets[1].OffDayCount, ShouldEqual, 2)
				So(buckets[1].Late(), ShouldEqual, 1)
				So(buckets[1].OnTime(), ShouldEqual, 0)

				So(buckets[2].WednesdayCount, ShouldEqual, 2)
				So(buckets[2].OffDayCount, ShouldEqual, 1)
				So(buckets[2].Double(), ShouldEqual, 1)
				So(buckets[2].Late(), ShouldEqual, 0)
				So(buckets[2].OnTime(), ShouldEqual, 1)
			})
		})

		Convey("When the reference weekday is Thursday", func() {
			buckets := weekly.New(weekly.WithWeekday(time.Thursday)).Aggregate(events)

			Convey("Then Bob's Thursday becomes on time", func() {
				So(buckets[1].Person, ShouldEqual, "bob")
				So(buckets[1].WednesdayCount, ShouldEqual, 1)
				So(buckets[1].OffDayCount, ShouldEqual, 1)
			})
		})
	})

	Convey("Given events in week 1 of two different years", t, func() {
		events := []model.Event{
			ev("alice", date(2025, 1, 1)),
			ev("alice", date(2026, 1, 1)),
		}

		Convey("Then they stay in separate buckets", func() {
			buckets := weekly.New().Aggregate(events)
			So(buckets, ShouldHaveLength, 2)
			So(buckets[0].Year, ShouldEqual, 2025)
			So(buckets[1].Year, ShouldEqual, 2026)
		})
	})

	Convey("Given no events", t, func() {
		Convey("Then there are no buckets", func() {
			So(weekly.New().Aggregate(nil), ShouldBeEmpty)
		})
	})
}

func TestParseWeekday(t *testing.T) {
	Convey("Given weekday names", t, func() {
		Convey("Then full and short names parse", func() {
			w, ok := weekly.ParseWeekday("Wednesday")
			So(ok, ShouldBeTrue)
			So(w, ShouldEqual, time.Wednesday)

			w, ok = weekly.ParseWeekday(" thu ")
			So(ok, ShouldBeTrue)
			So(w, ShouldEqual, time.Thursday)

			_, ok = weekly.ParseWeekday("funday")
			So(ok, ShouldBeFalse)
		})
	})
}
