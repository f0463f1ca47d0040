package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/waffles/internal/config"
	"github.com/okian/waffles/internal/domain/chatlog"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StartDate, convey.ShouldEqual, "2025-06-11")
			convey.So(cfg.Keyword, convey.ShouldEqual, "Video note")
			convey.So(cfg.DefaultColor, convey.ShouldEqual, "gray")
			convey.So(cfg.EventStoreDriver, convey.ShouldEqual, "json")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then derived values parse", func() {
			start, err := cfg.Start()
			convey.So(err, convey.ShouldBeNil)
			convey.So(start, convey.ShouldEqual, time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC))
			convey.So(start.Weekday(), convey.ShouldEqual, time.Wednesday)

			w, err := cfg.Weekday()
			convey.So(err, convey.ShouldBeNil)
			convey.So(w, convey.ShouldEqual, time.Wednesday)

			re, err := cfg.Pattern()
			convey.So(err, convey.ShouldBeNil)
			convey.So(re.String(), convey.ShouldEqual, chatlog.DefaultPattern)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad field each", t, func() {
		cases := []struct {
			name   string
			mutate func(c *config.Config)
		}{
			{"start date", func(c *config.Config) { c.StartDate = "11-06-2025" }},
			{"weekday", func(c *config.Config) { c.ReferenceWeekday = "caturday" }},
			{"log format", func(c *config.Config) { c.LogFormat = "xml" }},
			{"upload cap", func(c *config.Config) { c.MaxUploadBytes = 0 }},
			{"driver", func(c *config.Config) { c.EventStoreDriver = "redis" }},
			{"store path", func(c *config.Config) { c.EventStorePath = "" }},
			{"empty address", func(c *config.Config) { c.Addr = "" }},
			{"line pattern", func(c *config.Config) { c.LinePattern = `^(\d+` }},
			{"line pattern groups", func(c *config.Config) { c.LinePattern = `^(.*)$` }},
		}

		for _, tc := range cases {
			cfg := config.New()
			tc.mutate(cfg)

			convey.Convey("Then "+tc.name+" is rejected as invalid", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("Then the memory driver needs no path", func() {
			cfg := config.New()
			cfg.EventStoreDriver = "memory"
			cfg.EventStorePath = ""
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Registry(t *testing.T) {
	convey.Convey("Given configured persons", t, func() {
		cfg := config.New()
		cfg.Persons = map[string]config.PersonConfig{
			"alice": {Name: "Alice", Color: "#ff4b4b", Avatar: "https://example.com/a.png"},
			"bob":   {},
		}

		convey.Convey("When building the registry", func() {
			reg := cfg.Registry()

			convey.Convey("Then attributes carry over and names default to ids", func() {
				convey.So(reg.IDs(), convey.ShouldResemble, []string{"alice", "bob"})
				convey.So(reg["alice"].Color, convey.ShouldEqual, "#ff4b4b")
				convey.So(reg["bob"].Name, convey.ShouldEqual, "bob")
			})
		})
	})
}
