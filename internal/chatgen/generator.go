package chatgen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/okian/waffles/internal/domain/chatlog"
	"github.com/okian/waffles/pkg/logger"
)

// Kinds of planned check-ins.
const (
	KindOnTime = "on_time"
	KindLate   = "late"
	KindRepeat = "repeat" // second message on the same day
	KindExtra  = "extra"  // off-day message in a week already on time
)

// Probabilities of what a person does in a week. The rest of the mass skips.
const (
	pOnTime = 0.5
	pLate   = 0.2
	pRepeat = 0.08
	pExtra  = 0.07
)

var chatter = []string{
	"Morning all",
	"Who is bringing waffles?",
	"Running late today",
	"<Media omitted>",
	"Nice one",
	"See you next week",
}

type line struct {
	at   time.Time
	text string
}

// Generate builds a synthetic export for cfg. The result depends only on cfg.
func Generate(ctx context.Context, cfg *Config) (Export, error) {
	if len(cfg.Persons) == 0 {
		return Export{}, ErrNoPersons
	}
	if cfg.Weeks <= 0 {
		return Export{}, ErrNoWeeks
	}
	keyword := cfg.Keyword
	if keyword == "" {
		keyword = DefaultKeyword
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	first := alignTo(cfg.Start, cfg.Weekday)

	var (
		lines    []line
		checkins []Checkin
	)
	lines = append(lines, line{
		at:   first.Add(-time.Hour),
		text: "Messages and calls are end-to-end encrypted.",
	})

	for w := 0; w < cfg.Weeks; w++ {
		day := first.AddDate(0, 0, 7*w)
		for _, person := range cfg.Persons {
			if err := ctx.Err(); err != nil {
				return Export{}, err
			}
			onTime := atMinute(day, 7+rng.IntN(3), rng.IntN(60))
			late := atMinute(offDay(day, rng), 8+rng.IntN(10), rng.IntN(60))

			switch p := rng.Float64(); {
			case p < pOnTime:
				checkins = append(checkins, Checkin{Person: person, At: onTime, Kind: KindOnTime})
			case p < pOnTime+pLate:
				checkins = append(checkins, Checkin{Person: person, At: late, Kind: KindLate})
			case p < pOnTime+pLate+pRepeat:
				checkins = append(checkins,
					Checkin{Person: person, At: onTime, Kind: KindOnTime},
					Checkin{Person: person, At: onTime.Add(time.Duration(1+rng.IntN(90)) * time.Minute), Kind: KindRepeat})
			case p < pOnTime+pLate+pRepeat+pExtra:
				checkins = append(checkins,
					Checkin{Person: person, At: onTime, Kind: KindOnTime},
					Checkin{Person: person, At: late, Kind: KindExtra})
			}

			if rng.IntN(3) == 0 {
				at := atMinute(day, 12+rng.IntN(8), rng.IntN(60))
				lines = append(lines, line{at: at, text: fmt.Sprintf("%s: %s", person, chatter[rng.IntN(len(chatter))])})
			}
		}
	}

	for _, c := range checkins {
		text := fmt.Sprintf("%s: %s", c.Person, keyword)
		if c.Kind == KindOnTime && rng.IntN(4) == 0 {
			// Continuation lines do not parse and must not break the record.
			text += "\nwaffles are on me"
		}
		lines = append(lines, line{at: c.At, text: text})
		if cfg.Verbose {
			logger.Get().Debug(ctx, "check-in",
				logger.String("person", c.Person),
				logger.String("kind", c.Kind),
				logger.Time("at", c.At))
		}
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].at.Before(lines[j].at) })
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.at.Format(chatlog.TimestampLayout))
		b.WriteString(" - ")
		b.WriteString(l.text)
		b.WriteByte('\n')
	}
	text := b.String()
	return Export{Text: text, Lines: strings.Count(text, "\n"), Checkins: checkins}, nil
}

// alignTo returns the first weekday on or after t, at midnight.
func alignTo(t time.Time, weekday time.Weekday) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, (int(weekday)-int(d.Weekday())+7)%7)
}

// offDay picks another day of the ISO week that contains day.
func offDay(day time.Time, rng *rand.Rand) time.Time {
	iso := (int(day.Weekday()) + 6) % 7 // Monday is 0
	monday := day.AddDate(0, 0, -iso)
	k := rng.IntN(6)
	if k >= iso {
		k++
	}
	return monday.AddDate(0, 0, k)
}

func atMinute(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
}
