package score

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"git.lost.host/meutraa/tally/internal/chart"
	"git.lost.host/meutraa/tally/internal/engine"
	"git.lost.host/meutraa/tally/internal/replay"
)

type DefaultStore struct {
	// Path of the sqlite database, created when missing.
	Path string

	db *sql.DB
}

func (s *DefaultStore) Init() error {
	path := s.Path
	if path == "" {
		path = "./scores.db"
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return errors.Wrap(err, "unable to open score database")
	}

	initStatement := `
	create table if not exists runs
	  (
		  id integer not null primary key,
		  sum text,
		  player text,
		  instrument integer,
		  difficulty integer,
		  speed real,
		  date integer,
		  stats blob,
		  inputs blob
	  );
	create index if not exists runs_sum on runs(sum);
	`
	_, err = db.Exec(initStatement)
	if nil != err {
		db.Close()
		return errors.Wrap(err, "unable to create score tables")
	}

	s.db = db
	return nil
}

func (s *DefaultStore) Deinit() {
	if nil != s.db {
		s.db.Close()
	}
}

func (s *DefaultStore) Save(run *Run) {
	inputs, err := json.Marshal(run.Inputs)
	if nil != err {
		slog.Warn("unable to marshal inputs", "err", err)
		return
	}
	var stats []byte
	if nil != run.Stats {
		stats = replay.MarshalStats(run.Stats)
	}
	_, err = s.db.Exec(
		"insert into runs(sum, player, instrument, difficulty, speed, date, stats, inputs) values(?, ?, ?, ?, ?, ?, ?, ?)",
		run.Sum, run.Player, int(run.Instrument), int(run.Difficulty), run.Speed, run.Date.UnixNano(), stats, inputs,
	)
	if nil != err {
		slog.Warn("unable to save run", "sum", run.Sum, "err", err)
	}
}

func (s *DefaultStore) Load(sum string) []Run {
	runs := []Run{}
	rows, err := s.db.Query(
		"select sum, player, instrument, difficulty, speed, date, stats, inputs from runs where sum = ? order by date, id",
		sum,
	)
	if nil != err {
		slog.Warn("unable to load runs", "sum", sum, "err", err)
		return runs
	}
	defer rows.Close()
	for rows.Next() {
		var (
			run                    Run
			instrument, difficulty int
			date                   int64
			stats, inputs          []byte
		)
		err := rows.Scan(&run.Sum, &run.Player, &instrument, &difficulty, &run.Speed, &date, &stats, &inputs)
		if nil != err {
			slog.Warn("unable to scan run", "err", err)
			continue
		}
		run.Instrument = chart.Instrument(instrument)
		run.Difficulty = chart.Difficulty(difficulty)
		run.Date = time.Unix(0, date)

		if len(stats) > 0 {
			run.Stats, err = replay.UnmarshalStats(stats)
			if nil != err {
				slog.Warn("unable to read run stats", "err", err)
				continue
			}
		}
		run.Inputs = []engine.GameInput{}
		if err := json.Unmarshal(inputs, &run.Inputs); nil != err {
			slog.Warn("unable to unmarshal run inputs", "err", err)
			continue
		}
		runs = append(runs, run)
	}
	return runs
}
