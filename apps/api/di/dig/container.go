package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/scolarite/apps/api/echo"
	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/registration"
	emailsvc "github.com/trezcool/scolarite/services/email"
	logsvc "github.com/trezcool/scolarite/services/logger"
	"github.com/trezcool/scolarite/storage/database"
	dummydb "github.com/trezcool/scolarite/storage/database/dummy"
	gormrepos "github.com/trezcool/scolarite/storage/database/gorm"
	sqlxrepos "github.com/trezcool/scolarite/storage/database/sqlx"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// StoreCloser releases the connections held by the registration.Store.
	StoreCloser func() error

	storeResult struct {
		dig.Out
		Store  registration.Store
		Closer StoreCloser
	}
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

// newStore opens the registration.Store of the configured database engine.
func newStore(conf *core.Config, loggerParam DBLoggerParam) storeResult {
	setUp := func() (storeResult, error) {
		switch conf.Database.Engine {
		case core.EnginePostgres:
			if err := database.CreateIfNotExist(conf); err != nil {
				return storeResult{}, err
			}
			db, err := database.Open(conf)
			if err != nil {
				return storeResult{}, err
			}
			if err = database.Migrate(db, conf.Database.Engine); err != nil {
				_ = db.Close()
				return storeResult{}, err
			}
			xdb := sqlx.NewDb(db, core.EnginePostgres)
			return storeResult{Store: sqlxrepos.NewStore(xdb), Closer: xdb.Close}, nil

		case core.EngineSQLite:
			conn, err := gormrepos.Open(conf.Database.Path, conf.Debug)
			if err != nil {
				return storeResult{}, err
			}
			return storeResult{
				Store:  gormrepos.NewStore(conn),
				Closer: func() error { return gormrepos.Close(conn) },
			}, nil

		case core.EngineMemory:
			db, err := dummydb.Open()
			if err != nil {
				return storeResult{}, err
			}
			return storeResult{Store: dummydb.NewStore(db), Closer: func() error { return nil }}, nil
		}
		return storeResult{}, errors.Errorf("unknown database engine %q", conf.Database.Engine)
	}

	res, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return res
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	registration.InitValidators(validate, translator)
	return validate, translator
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	svc registration.ServiceInterface,
	translator ut.Translator,
) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:            conf,
		Logger:          logger,
		RegistrationSvc: svc,
		Translator:      translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStore))
	must(c.Provide(newEmailService))
	must(c.Provide(newValidator))
	must(c.Provide(registration.NewService, dig.As(new(registration.ServiceInterface))))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
