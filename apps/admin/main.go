package main

import (
	"database/sql"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	dig_container "github.com/trezcool/gradebook/apps/api/di/dig"
	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/session"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/core/user"
	pgstore "github.com/trezcool/gradebook/storage/docstore/postgres"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	code := 0
	c := dig_container.New()
	err := c.Invoke(func(
		conf *core.Config,
		appLogger core.Logger,
		validate *validator.Validate,
		translator ut.Translator,
		closers *dig_container.Closers,
		usrRepo user.Repository,
		students *student.Service,
		grades *grade.Service,
		auth session.Authority,
	) {
		defer func() {
			if err := closers.Close(); err != nil {
				logger.Printf("releasing resources: %v", err)
			}
		}()

		cli := commandLine{
			conf:       conf,
			logger:     appLogger,
			validate:   validate,
			translator: translator,
			usrRepo:    usrRepo,
			students:   students,
			grades:     grades,
			auth:       auth,
			openDB:     func() (*sql.DB, error) { return openDB(conf) },
			in:         os.Stdin,
			out:        os.Stdout,
		}
		if err := cli.run(os.Args); err != nil {
			if err != errHelp {
				logger.Printf("\nerror: %s\n", err)
			}
			code = 1
		}
	})
	if err != nil {
		logger.Printf("setting up: %v", err)
		code = 1
	}
	os.Exit(code)
}

// openDB connects to the postgres document store, creating it if needed.
func openDB(conf *core.Config) (*sql.DB, error) {
	if conf.Store.Engine != core.StorePostgres {
		return nil, errors.Errorf("migrations only apply to the %s store (current: %s)", core.StorePostgres, conf.Store.Engine)
	}
	if err := pgstore.CreateIfNotExist(conf); err != nil {
		return nil, err
	}
	db, err := pgstore.Open(conf)
	if err != nil {
		return nil, err
	}
	return db.DB, nil
}
