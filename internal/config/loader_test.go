package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/waffles/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		_ = os.Setenv("WAFFLE_DOTENV", "off")
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.ReferenceWeekday, convey.ShouldEqual, "wednesday")
				convey.So(cfg.Persons, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("WAFFLE_ADDR", ":8080")
			_ = os.Setenv("WAFFLE_KEYWORD", "waffle")
			_ = os.Setenv("WAFFLE_EVENT_STORE_DRIVER", "sqlite")
			_ = os.Setenv("WAFFLE_EVENT_STORE_PATH", "/tmp/waffles.db")
			_ = os.Setenv("WAFFLE_MAX_UPLOAD_BYTES", "1024")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Keyword, convey.ShouldEqual, "waffle")
				convey.So(cfg.EventStoreDriver, convey.ShouldEqual, "sqlite")
				convey.So(cfg.EventStorePath, convey.ShouldEqual, "/tmp/waffles.db")
				convey.So(cfg.MaxUploadBytes, convey.ShouldEqual, 1024)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":9090"
start_date: "2025-07-02"
reference_weekday: thursday
persons:
  alice:
    name: Alice
    color: "#ff4b4b"
  bob:
    name: Bob
`)
			_ = os.Setenv("WAFFLE_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.StartDate, convey.ShouldEqual, "2025-07-02")
				convey.So(cfg.Persons, convey.ShouldHaveLength, 2)
				convey.So(cfg.Persons["alice"].Color, convey.ShouldEqual, "#ff4b4b")
				convey.So(cfg.Registry()["bob"].Name, convey.ShouldEqual, "Bob")
			})

			convey.Convey("And environment variables should override file values", func() {
				_ = os.Setenv("WAFFLE_ADDR", ":7070")

				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.StartDate, convey.ShouldEqual, "2025-07-02")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("WAFFLE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			cfg, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid values", func() {
			_ = os.Setenv("WAFFLE_START_DATE", "June 11th")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "start_date")
			})
		})

		convey.Convey("When loading config with an empty addr in YAML", func() {
			tmpFile := createTempConfigFile(t, "addr: \"\"\n")
			_ = os.Setenv("WAFFLE_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return validation error for empty addr", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a canceled context is passed", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()

			_, err := config.Load(canceled)

			convey.Convey("Then the context error is returned", func() {
				convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfigLoader_DotEnv(t *testing.T) {
	convey.Convey("Given a .env file in the working directory", t, func() {
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		dir := t.TempDir()
		wd, err := os.Getwd()
		convey.So(err, convey.ShouldBeNil)
		convey.So(os.Chdir(dir), convey.ShouldBeNil)
		defer func() { _ = os.Chdir(wd) }()

		convey.So(os.WriteFile(filepath.Join(dir, ".env"), []byte("WAFFLE_KEYWORD=gopher\nWAFFLE_ADDR=:6060\n"), 0o644), convey.ShouldBeNil)

		convey.Convey("When a variable is already set", func() {
			_ = os.Setenv("WAFFLE_ADDR", ":5050")

			cfg, err := config.Load(context.Background())

			convey.Convey("Then .env fills the gaps without overriding", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Keyword, convey.ShouldEqual, "gopher")
				convey.So(cfg.Addr, convey.ShouldEqual, ":5050")
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"WAFFLE_CONFIG",
		"WAFFLE_DOTENV",
		"WAFFLE_ADDR",
		"WAFFLE_KEYWORD",
		"WAFFLE_START_DATE",
		"WAFFLE_EVENT_STORE_DRIVER",
		"WAFFLE_EVENT_STORE_PATH",
		"WAFFLE_MAX_UPLOAD_BYTES",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "waffles.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
