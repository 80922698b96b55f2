package normalize

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/pable/go-pbp-insights/internal/model"
)

func rawEvent(quarter, clock string, home, away int) model.RawEvent {
	return model.RawEvent{
		GameCode:   "g1",
		Quarter:    model.QuarterLabel(quarter),
		Time:       clock,
		ScoreHome:  model.Score(home),
		ScoreAway:  model.Score(away),
		Team:       "Home",
		Player:     "  Rossi  ",
		ActionType: "Tiro realizzato da 2 punti",
		HomeTeam:   "Home",
		AwayTeam:   "Away",
	}
}

func TestParseQuarter(t *testing.T) {
	Convey("Given quarter labels from the feed", t, func() {
		cases := map[string]int{
			"1": 1, "4": 4, "Q3": 3, "q2": 2, "4Q": 4, "4°": 4, "1st": 1,
			"OT": 5, "OT1": 5, "OT2": 6, "TS": 5, "ts 2": 6,
		}
		for label, want := range cases {
			got, ok := ParseQuarter(label)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, want)
		}

		Convey("Unrecoverable labels are rejected", func() {
			for _, label := range []string{"", "Q", "half", "0", "OT0", "-1"} {
				_, ok := ParseQuarter(label)
				So(ok, ShouldBeFalse)
			}
		})
	})
}

func TestParseClock(t *testing.T) {
	Convey("Given quarter clock strings", t, func() {
		Convey("mm:ss is converted to seconds", func() {
			secs, ok := ParseClock("09:59")
			So(ok, ShouldBeTrue)
			So(secs, ShouldEqual, 599)

			secs, ok = ParseClock("8:00")
			So(ok, ShouldBeTrue)
			So(secs, ShouldEqual, 480)
		})

		Convey("00:00 is the end of the quarter, not its start", func() {
			secs, ok := ParseClock("00:00")
			So(ok, ShouldBeTrue)
			So(secs, ShouldEqual, 600)
		})

		Convey("Garbage and out-of-range clocks are rejected", func() {
			for _, text := range []string{"", "10", "ab:cd", "05:75", "11:00", "-1:00"} {
				_, ok := ParseClock(text)
				So(ok, ShouldBeFalse)
			}
		})
	})
}

func TestNormalize(t *testing.T) {
	n := New(map[string]string{"Home Old Name": "Home"})

	Convey("Given a well-formed raw event", t, func() {
		e, err := n.Normalize(rawEvent("Q4", "09:59", 59, 69))

		Convey("It becomes a canonical GameEvent", func() {
			So(err, ShouldBeNil)
			So(e.Quarter, ShouldEqual, 4)
			So(e.TimeRemainingSeconds, ShouldEqual, 599)
			So(e.TotalElapsedSeconds, ShouldEqual, 3*600+599)
			So(e.ScoreHome, ShouldEqual, 59)
			So(e.ScoreAway, ShouldEqual, 69)
			So(e.Player, ShouldEqual, "Rossi")
			So(e.Gap(), ShouldEqual, -10)
		})
	})

	Convey("Given an end-of-quarter event in Q4", t, func() {
		e, err := n.Normalize(rawEvent("4", "00:00", 80, 78))

		Convey("The clock is remapped to 600", func() {
			So(err, ShouldBeNil)
			So(e.TimeRemainingSeconds, ShouldEqual, 600)
			So(e.TotalElapsedSeconds, ShouldEqual, 2400)
		})
	})

	Convey("Given the whole clock in the quarter field", t, func() {
		raw := rawEvent("Q2 03:15", "", 20, 18)
		e, err := n.Normalize(raw)

		So(err, ShouldBeNil)
		So(e.Quarter, ShouldEqual, 2)
		So(e.TimeRemainingSeconds, ShouldEqual, 195)
	})

	Convey("Given score text instead of numeric fields", t, func() {
		raw := rawEvent("1", "01:00", 0, 0)
		raw.ScoreHome = model.ScoreValue{}
		raw.ScoreAway = model.ScoreValue{}
		raw.Score = "12 - 9"
		e, err := n.Normalize(raw)

		So(err, ShouldBeNil)
		So(e.ScoreHome, ShouldEqual, 12)
		So(e.ScoreAway, ShouldEqual, 9)
	})

	Convey("Given malformed events", t, func() {
		noScore := rawEvent("1", "01:00", 0, 0)
		noScore.ScoreAway = model.ScoreValue{}
		noGame := rawEvent("1", "01:00", 2, 0)
		noGame.GameCode = " "

		for _, raw := range []model.RawEvent{
			rawEvent("??", "01:00", 2, 0),
			rawEvent("1", "", 2, 0),
			noScore,
			noGame,
		} {
			_, err := n.Normalize(raw)
			So(errors.Is(err, ErrMalformedEvent), ShouldBeTrue)
		}
	})

	Convey("Given team name variants", t, func() {
		raw := rawEvent("1", "01:00", 2, 0)
		raw.Team = "Home Old Name"
		raw.HomeTeam = " Home Old Name "
		e, err := n.Normalize(raw)

		So(err, ShouldBeNil)
		So(e.Team, ShouldEqual, "Home")
		So(e.HomeTeam, ShouldEqual, "Home")
		So(e.AwayTeam, ShouldEqual, "Away")
	})
}

func TestNormalizeAll(t *testing.T) {
	Convey("Given a batch with one corrupt row", t, func() {
		n := New(nil)
		raws := []model.RawEvent{
			rawEvent("1", "01:00", 2, 0),
			rawEvent("1", "bad", 2, 0),
			rawEvent("1", "02:00", 4, 0),
		}
		events, dropped := n.NormalizeAll(raws)

		So(dropped, ShouldEqual, 1)
		So(len(events), ShouldEqual, 2)
		So(events[1].ScoreHome, ShouldEqual, 4)
	})
}
