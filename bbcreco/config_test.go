package main

import (
	"os"
	"path/filepath"
	"testing"

	bbcreco "github.com/next-exp/bbcreco_go/pkg"
	"github.com/smartystreets/goconvey/convey"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfiguration(t *testing.T) {
	convey.Convey("Given a configuration loader", t, func() {
		t.Setenv(bbcreco.CalibDirEnv, "/calib/from/env")

		convey.Convey("When the file only sets the input and output", func() {
			path := writeConfigFile(t, `{"file_in": "run.raw", "file_out": "run.h5"}`)
			config, err := LoadConfiguration(path)

			convey.Convey("Then the defaults are kept", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(config.FileIn, convey.ShouldEqual, "run.raw")
				convey.So(config.FileOut, convey.ShouldEqual, "run.h5")
				convey.So(config.MaxEvents, convey.ShouldEqual, 1000000000)
				convey.So(config.LockEvents, convey.ShouldEqual, bbcreco.DefaultLockEvents)
				convey.So(config.TimeResolution, convey.ShouldEqual, bbcreco.DefaultTimeResolution)
				convey.So(config.CalibSource, convey.ShouldEqual, bbcreco.CalibFromFiles)
				convey.So(config.WriteData, convey.ShouldBeTrue)
				convey.So(config.Discard, convey.ShouldBeTrue)
			})

			convey.Convey("Then the calibration directory comes from BBCCALIB", func() {
				convey.So(config.CalibDir, convey.ShouldEqual, "/calib/from/env")
			})
		})

		convey.Convey("When the file overrides processing parameters", func() {
			path := writeConfigFile(t, `{"file_in": "run.raw", "write_data": false, `+
				`"calib_dir": "/calib/from/file", "calib_source": "db", "db_driver": "sqlite", `+
				`"db_path": "calib.db", "lock_events": 20, "time_resolution": 0.1, "verbosity": 2}`)
			config, err := LoadConfiguration(path)

			convey.Convey("Then the file values are used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(config.WriteData, convey.ShouldBeFalse)
				convey.So(config.CalibDir, convey.ShouldEqual, "/calib/from/file")
				convey.So(config.CalibSource, convey.ShouldEqual, bbcreco.CalibFromDB)
				convey.So(config.DBDriver, convey.ShouldEqual, "sqlite")
				convey.So(config.LockEvents, convey.ShouldEqual, 20)
				convey.So(config.TimeResolution, convey.ShouldEqual, 0.1)
				convey.So(config.Verbosity, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When environment variables are set", func() {
			_ = os.Setenv("BBCRECO_FILE_IN", "env.raw")
			_ = os.Setenv("BBCRECO_LOCK_EVENTS", "7")
			defer clearConfigEnvVars()
			path := writeConfigFile(t, `{"file_in": "run.raw", "file_out": "run.h5", "lock_events": 20}`)
			config, err := LoadConfiguration(path)

			convey.Convey("Then they override the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(config.FileIn, convey.ShouldEqual, "env.raw")
				convey.So(config.LockEvents, convey.ShouldEqual, 7)
				convey.So(config.FileOut, convey.ShouldEqual, "run.h5")
			})
		})

		convey.Convey("When the configuration is invalid", func() {
			convey.Convey("Then an unknown calibration source is rejected", func() {
				path := writeConfigFile(t, `{"file_in": "a", "file_out": "b", "calib_source": "web"}`)
				_, err := LoadConfiguration(path)
				convey.So(err, convey.ShouldNotBeNil)
			})

			convey.Convey("Then a missing output file is rejected when writing", func() {
				path := writeConfigFile(t, `{"file_in": "a"}`)
				_, err := LoadConfiguration(path)
				convey.So(err, convey.ShouldNotBeNil)
			})

			convey.Convey("Then a non positive resolution is rejected", func() {
				path := writeConfigFile(t, `{"file_in": "a", "file_out": "b", "time_resolution": 0}`)
				_, err := LoadConfiguration(path)
				convey.So(err, convey.ShouldNotBeNil)
			})

			convey.Convey("Then a missing file is an error", func() {
				_, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.json"))
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	_ = os.Unsetenv("BBCRECO_FILE_IN")
	_ = os.Unsetenv("BBCRECO_LOCK_EVENTS")
}
