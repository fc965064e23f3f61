package bbcreco

import (
	"fmt"
	"slices"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
	"golang.org/x/exp/maps"
	_ "modernc.org/sqlite"
)

// ConnectToDatabase opens the calibration database. The mysql driver is used
// for the online database, sqlite for a local copy at path.
func ConnectToDatabase(driver string, user string, pass string, host string, dbname string, path string) (*sqlx.DB, error) {
	switch driver {
	case "mysql":
		port := "3306"
		dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
		return sqlx.Connect("mysql", dbURI)
	case "sqlite":
		return sqlx.Connect("sqlite", path)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

const (
	gainQuery = "SELECT Pmt, Integral, Peak, Width, IntegralErr, PeakErr, WidthErr, Chi2NDF " +
		"FROM BbcGains WHERE MinRun <= ? and MaxRun >= ? ORDER BY Pmt"
	timeOffsetQuery = "SELECT Pmt, Mean, MeanErr, Sigma, SigmaErr " +
		"FROM BbcTimeOffsets WHERE MinRun <= ? and MaxRun >= ? ORDER BY Pmt"
	zOffsetQuery = "SELECT ZOffset FROM BbcZOffset WHERE MinRun <= ? and MaxRun >= ?"
)

// LoadCalibrationFromDB reads the calibration valid for runNumber.
func LoadCalibrationFromDB(db *sqlx.DB, runNumber int) (*CalibrationStore, error) {
	gains, err := getRecordsFromDB[GainRecord](db, gainQuery, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error getting gains from database: %w", err)
		logger.Error(errMessage.Error())
		return nil, errMessage
	}
	offsets, err := getRecordsFromDB[TimeOffsetRecord](db, timeOffsetQuery, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error getting time offsets from database: %w", err)
		logger.Error(errMessage.Error())
		return nil, errMessage
	}
	if err := checkPmtCoverage(gains, func(r GainRecord) int { return r.Pmt }); err != nil {
		return nil, fmt.Errorf("gains for run %d: %w", runNumber, err)
	}
	if err := checkPmtCoverage(offsets, func(r TimeOffsetRecord) int { return r.Pmt }); err != nil {
		return nil, fmt.Errorf("time offsets for run %d: %w", runNumber, err)
	}

	var zOffset float64
	if err := db.Get(&zOffset, zOffsetQuery, runNumber, runNumber); err != nil {
		errMessage := fmt.Errorf("error getting z offset from database: %w", err)
		logger.Error(errMessage.Error())
		return nil, errMessage
	}
	return NewCalibrationStore(gains, offsets, zOffset)
}

func getRecordsFromDB[T any](db *sqlx.DB, query string, runNumber int) ([]T, error) {
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s [run %d]", query, runNumber)
		logger.Info(message, "database")
	}
	rows, err := db.Queryx(query, runNumber, runNumber)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	records := make([]T, 0, NumPmts)
	for rows.Next() {
		var result T
		if err := rows.StructScan(&result); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		records = append(records, result)
	}
	return records, rows.Err()
}

// checkPmtCoverage reports the first missing or duplicated PMT.
func checkPmtCoverage[T any](records []T, pmtOf func(T) int) error {
	seen := make(map[int]int, len(records))
	for _, r := range records {
		seen[pmtOf(r)]++
	}
	for pmt := 0; pmt < NumPmts; pmt++ {
		switch seen[pmt] {
		case 0:
			return fmt.Errorf("%w: no record for pmt %d", ErrCalibrationMissing, pmt)
		case 1:
		default:
			return fmt.Errorf("%d records for pmt %d", seen[pmt], pmt)
		}
	}
	if len(seen) != NumPmts {
		ids := maps.Keys(seen)
		slices.Sort(ids)
		return fmt.Errorf("unexpected pmt ids in %v", ids)
	}
	return nil
}
