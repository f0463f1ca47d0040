package scoring_test

import (
	"testing"

	"github.com/okian/waffles/internal/domain/model"
	scoring "github.com/okian/waffles/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func onTimeWeeks(person string, n int) []model.WeeklyBucket {
	out := make([]model.WeeklyBucket, n)
	for i := range out {
		out[i] = model.WeeklyBucket{Year: 2025, Week: 24 + i, Person: person, WednesdayCount: 1}
	}
	return out
}

func people(totals []model.PersonTotals) []string {
	out := make([]string, len(totals))
	for i, t := range totals {
		out[i] = t.Person
	}
	return out
}

func TestScorer_Totals(t *testing.T) {
	Convey("Given on-time totals of Alice 3, Bob 5 and Carol 3", t, func() {
		var buckets []model.WeeklyBucket
		buckets = append(buckets, onTimeWeeks("carol", 3)...)
		buckets = append(buckets, onTimeWeeks("alice", 3)...)
		buckets = append(buckets, onTimeWeeks("bob", 5)...)
		s := scoring.NewScorer(scoring.WithReferenceWeeks(5))

		Convey("When ranking", func() {
			totals := s.Totals(buckets)

			Convey("Then the most on-time comes first, ties alphabetical", func() {
				So(people(totals), ShouldResemble, []string{"bob", "alice", "carol"})
			})

			Convey("And missed weeks fill the gap to the cadence", func() {
				So(totals[0].Missed, ShouldEqual, 0)
				So(totals[1].Missed, ShouldEqual, 2)
				So(totals[1].Penalty, ShouldEqual, 2)
			})
		})
	})

	Convey("Given a person with late and double weeks", t, func() {
		buckets := []model.WeeklyBucket{
			{Year: 2025, Week: 24, Person: "dave", WednesdayCount: 2, OffDayCount: 1},
			{Year: 2025, Week: 25, Person: "dave", OffDayCount: 2},
			{Year: 2025, Week: 26, Person: "dave", WednesdayCount: 3},
		}
		s := scoring.NewScorer(scoring.WithReferenceWeeks(4))

		Convey("When summing", func() {
			totals := s.Totals(buckets)

			Convey("Then each category adds up", func() {
				So(totals, ShouldHaveLength, 1)
				d := totals[0]
				So(d.OnTime, ShouldEqual, 2)
				So(d.Late, ShouldEqual, 1)
				So(d.Double, ShouldEqual, 3)
				So(d.Missed, ShouldEqual, 1)
				So(d.Penalty, ShouldEqual, 5)
				So(d.Anomaly(), ShouldBeFalse)
			})
		})
	})

	Convey("Given more on-time weeks than the cadence allows", t, func() {
		s := scoring.NewScorer(scoring.WithReferenceWeeks(1))
		totals := s.Totals(onTimeWeeks("erin", 3))

		Convey("Then missed goes negative and is flagged", func() {
			So(totals[0].Missed, ShouldEqual, -2)
			So(totals[0].Anomaly(), ShouldBeTrue)
			So(totals[0].Penalty, ShouldEqual, -2)
		})
	})

	Convey("Given a roster with a silent member", t, func() {
		s := scoring.NewScorer(scoring.WithReferenceWeeks(3), scoring.WithRoster([]string{"alice", "zoe"}))
		totals := s.Totals(onTimeWeeks("alice", 2))

		Convey("Then the silent member still gets a row", func() {
			So(people(totals), ShouldResemble, []string{"alice", "zoe"})
			So(totals[1].OnTime, ShouldEqual, 0)
			So(totals[1].Missed, ShouldEqual, 3)
		})
	})
}

func TestScorer_Owed(t *testing.T) {
	Convey("Given totals and a drinks ledger", t, func() {
		s := scoring.NewScorer(scoring.WithReferenceWeeks(6))
		totals := []model.PersonTotals{
			{Person: "alice", OnTime: 6},
			{Person: "bob", OnTime: 2},
			{Person: "carol", OnTime: 3},
			{Person: "dave", OnTime: 1},
		}
		ledger := model.DrinksLedger{"bob": 1, "dave": 5}

		Convey("When computing drinks owed", func() {
			owed := s.Owed(totals, ledger)

			Convey("Then settled persons are excluded and the rest sorted descending", func() {
				So(owed, ShouldHaveLength, 2)
				So(owed[0], ShouldResemble, model.OwedEntry{Person: "bob", DrinksDone: 1, Owed: 3})
				So(owed[1], ShouldResemble, model.OwedEntry{Person: "carol", DrinksDone: 0, Owed: 3})
			})
		})

		Convey("When the ledger is empty", func() {
			owed := s.Owed(totals, nil)

			Convey("Then everything short of the cadence is owed", func() {
				So(owed, ShouldHaveLength, 3)
				So(owed[0].Person, ShouldEqual, "dave")
				So(owed[0].Owed, ShouldEqual, 5)
			})
		})
	})
}
