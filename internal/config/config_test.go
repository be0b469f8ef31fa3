package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{}
	cfg.Database = DatabaseConfig{
		Host:      "db.local",
		Port:      3306,
		User:      "registrar",
		Password:  "secret",
		Name:      "registrar_core",
		Charset:   "utf8mb4",
		ParseTime: true,
		Loc:       "UTC",
	}

	dsn := cfg.DatabaseDSN()
	assert.Contains(t, dsn, "registrar:secret@tcp(db.local:3306)/registrar_core")
	assert.Contains(t, dsn, "parseTime=true")

	// Matched-rows reporting keeps the compare-and-set updates sound when
	// a resubmission writes identical values.
	assert.Contains(t, dsn, "clientFoundRows=true")
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, 3.00, cfg.Grading.PassingThreshold)
	assert.Equal(t, 5.00, cfg.Grading.FailingGrade)
	assert.Equal(t, 180, cfg.Grading.IncDeadlineDays)
	assert.Equal(t, "23:30", cfg.Workers.Sweep.RunAt)
	assert.Equal(t, 200, cfg.Workers.Sweep.BatchSize)
}
