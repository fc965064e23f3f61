package bbcreco

type CalibSource string

const (
	CalibFromFiles CalibSource = "files"
	CalibFromDB    CalibSource = "db"
)

type Configuration struct {
	MaxEvents        int         `json:"max_events"`
	Skip             int         `json:"skip"`
	Verbosity        int         `json:"verbosity"`
	FileIn           string      `json:"file_in"`
	FileOut          string      `json:"file_out"`
	CalibDir         string      `json:"calib_dir"`
	CalibSource      CalibSource `json:"calib_source"`
	DBDriver         string      `json:"db_driver"`
	Host             string      `json:"host"`
	User             string      `json:"user"`
	Passwd           string      `json:"pass"`
	DBName           string      `json:"dbname"`
	DBPath           string      `json:"db_path"`
	RunNumber        int         `json:"run_number"`
	TimeResolution   float64     `json:"time_resolution"`
	LockEvents       int         `json:"lock_events"`
	WriteData        bool        `json:"write_data"`
	CompressionLevel int         `json:"compression_level"`
	MetricsAddr      string      `json:"metrics_addr"`
	Discard          bool        `json:"discard"`
}

var configuration = DefaultConfiguration()

// DefaultConfiguration holds the values used by the online monitor.
func DefaultConfiguration() Configuration {
	return Configuration{
		MaxEvents:        1000000000,
		CalibSource:      CalibFromFiles,
		DBDriver:         "mysql",
		Host:             "localhost",
		User:             "phnxrc",
		DBName:           "daq",
		TimeResolution:   DefaultTimeResolution,
		LockEvents:       DefaultLockEvents,
		WriteData:        true,
		CompressionLevel: 4,
		Discard:          true,
	}
}

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}
