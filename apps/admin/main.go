package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/scolarite/core"
	logsvc "github.com/trezcool/scolarite/services/logger"
	"github.com/trezcool/scolarite/storage/database"
	sqlxrepos "github.com/trezcool/scolarite/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := openDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		db:     db,
		engine: conf.Database.Engine,
		repo:   sqlxrepos.NewStore(sqlx.NewDb(db, driverName(conf.Database.Engine))),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}

func openDB(conf *core.Config) (*sql.DB, error) {
	switch conf.Database.Engine {
	case core.EnginePostgres:
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		return db, errors.Wrap(db.Ping(), "pinging database")
	case core.EngineSQLite:
		return database.OpenSQLite(conf.Database.Path)
	}
	return nil, errors.Errorf("engine %q has no persistent database to administer", conf.Database.Engine)
}

func driverName(engine string) string {
	if engine == core.EngineSQLite {
		return database.SQLiteDriver
	}
	return core.EnginePostgres
}
