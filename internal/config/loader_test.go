package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/cuscogo/huntd/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HUNTD_CONFIG",
		"HUNTD_LOG_LEVEL",
		"HUNTD_ADDR",
		"HUNTD_DATABASE_PATH",
		"HUNTD_BIOME_CATALOG_PATH",
		"HUNTD_ITEM_CATALOG_PATH",
		"HUNTD_QUEUE_SIZE",
		"HUNTD_WORKER_COUNT",
		"HUNTD_DEDUPE_SIZE",
		"HUNTD_RESOLVE_TIMEOUT_MS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars(t)

			cfg, err := config.Load()

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.DatabasePath, convey.ShouldEqual, "huntd.db")
				convey.So(cfg.BiomeCatalogPath, convey.ShouldEqual, "biomes.yaml")
				convey.So(cfg.ItemCatalogPath, convey.ShouldEqual, "items.yaml")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 10000)
				convey.So(cfg.ResolveTimeoutMS, convey.ShouldEqual, 30000)
			})
		})

		convey.Convey("When environment variables override defaults", func() {
			clearConfigEnvVars(t)
			t.Setenv("HUNTD_ADDR", ":8123")
			t.Setenv("HUNTD_QUEUE_SIZE", "64")
			t.Setenv("HUNTD_LOG_LEVEL", "debug")

			cfg, err := config.Load()

			convey.Convey("Then the overridden values win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8123")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				// untouched defaults survive
				convey.So(cfg.DatabasePath, convey.ShouldEqual, "huntd.db")
			})
		})

		convey.Convey("When a config file is provided", func() {
			clearConfigEnvVars(t)
			path := filepath.Join(t.TempDir(), "huntd.yaml")
			content := "addr: \":7001\"\nworker_count: 3\ndatabase_path: /tmp/hunt.db\n"
			convey.So(os.WriteFile(path, []byte(content), 0o600), convey.ShouldBeNil)
			t.Setenv("HUNTD_CONFIG", path)

			cfg, err := config.Load()

			convey.Convey("Then file values layer over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7001")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.DatabasePath, convey.ShouldEqual, "/tmp/hunt.db")
			})

			convey.Convey("And env vars still beat the file", func() {
				t.Setenv("HUNTD_ADDR", ":7002")
				cfg, err := config.Load()
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7002")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the config file path does not exist", func() {
			clearConfigEnvVars(t)
			t.Setenv("HUNTD_CONFIG", "/nonexistent/huntd.yaml")

			_, err := config.Load()

			convey.Convey("Then loading fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When validation fails", func() {
			clearConfigEnvVars(t)
			t.Setenv("HUNTD_QUEUE_SIZE", "0")

			_, err := config.Load()

			convey.Convey("Then an invalid config error is returned", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "queue_size")
			})
		})
	})
}
