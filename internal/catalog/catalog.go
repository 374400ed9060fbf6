// Package catalog persists prepared samples to MariaDB so repeated
// ingests of the same corpus can be deduplicated by content hash.
package catalog

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"dataprep/internal/audio"
	"dataprep/internal/dataset"
)

type DB struct {
	conn *sql.DB
}

func New(host string, port int, user, password, dbname string) (*DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true",
		user, password, host, port, dbname)

	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	conn.SetMaxOpenConns(50)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// EnsureSchema creates the samples table if it does not exist yet.
func (db *DB) EnsureSchema() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS samples (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			dataset VARCHAR(128) NOT NULL,
			audio_file VARCHAR(1024) NOT NULL,
			file_hash CHAR(32) NOT NULL,
			text TEXT NOT NULL,
			snr DOUBLE NOT NULL DEFAULT -1,
			audio_len DOUBLE NOT NULL DEFAULT -1,
			sample_rate INT NOT NULL DEFAULT -1,
			speaker VARCHAR(64) NOT NULL DEFAULT '',
			gender VARCHAR(16) NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_file_hash (file_hash),
			KEY idx_dataset (dataset)
		)`)
	return err
}

func (db *DB) ExistsByHash(hash string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM samples WHERE file_hash = ?", hash).Scan(&count)
	return count > 0, err
}

// Ingest stores the samples under the given dataset name, skipping
// files whose content hash is already present. It returns the number
// of rows inserted.
func (db *DB) Ingest(datasetName string, samples []dataset.Sample) (int, error) {
	inserted := 0
	for _, s := range samples {
		hash, err := audio.MD5File(s.AudioFile)
		if err != nil {
			return inserted, fmt.Errorf("hash %s: %w", s.AudioFile, err)
		}

		exists, err := db.ExistsByHash(hash)
		if err != nil {
			return inserted, err
		}
		if exists {
			log.Printf("catalog: skip %s (hash already ingested)", s.AudioFile)
			continue
		}

		_, err = db.conn.Exec(`
			INSERT INTO samples (dataset, audio_file, file_hash, text, snr, audio_len, sample_rate, speaker, gender)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			datasetName, s.AudioFile, hash, s.Text, s.SNR, s.AudioLen, s.SampleRate, s.Speaker, s.Gender)
		if err != nil {
			return inserted, fmt.Errorf("insert %s: %w", s.AudioFile, err)
		}
		inserted++
	}
	return inserted, nil
}

// Stats summarizes the catalog per dataset.
type Stats struct {
	Dataset    string
	Samples    int
	TotalHours float64
}

func (db *DB) Stats() ([]Stats, error) {
	rows, err := db.conn.Query(`
		SELECT dataset, COUNT(*), COALESCE(SUM(GREATEST(audio_len, 0)), 0) / 3600
		FROM samples GROUP BY dataset ORDER BY dataset`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Stats
	for rows.Next() {
		var s Stats
		if err := rows.Scan(&s.Dataset, &s.Samples, &s.TotalHours); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
