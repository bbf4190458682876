package main

import (
	"github.com/pkg/errors"
)

func (cli *commandLine) migrate(args []string) error {
	db, err := cli.openDB()
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()
	return migrateFunc(db, args[0], args[1:]...)
}
