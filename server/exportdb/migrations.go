package exportdb

import (
	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
)

func Migrations(log logs.Log) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE export_run(
			id INTEGER PRIMARY KEY,
			run_id TEXT NOT NULL,
			split TEXT NOT NULL,
			mode TEXT NOT NULL,
			format TEXT NOT NULL,
			ignore_condition TEXT,
			created_at INT NOT NULL,
			finished_at INT NOT NULL DEFAULT 0,
			frames INT NOT NULL DEFAULT 0,
			objects INT NOT NULL DEFAULT 0,
			ignored INT NOT NULL DEFAULT 0
		);
		CREATE UNIQUE INDEX idx_export_run_run_id ON export_run (run_id);

		CREATE TABLE frame_label(
			id INTEGER PRIMARY KEY,
			export_run_id INT NOT NULL,
			frame_index INT NOT NULL,
			frame_key TEXT NOT NULL,
			width INT NOT NULL,
			height INT NOT NULL,
			pairing TEXT NOT NULL,
			boxes TEXT
		);
		CREATE UNIQUE INDEX idx_frame_label_export_run_id_frame_index ON frame_label (export_run_id, frame_index);
	`))

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		ALTER TABLE export_run ADD COLUMN error TEXT NOT NULL DEFAULT '';
	`))

	return migs
}
