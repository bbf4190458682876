package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/gradebook/apps/api/echo"
	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/session"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/core/teacher"
	"github.com/trezcool/gradebook/core/user"
	authsvc "github.com/trezcool/gradebook/services/auth"
	emailsvc "github.com/trezcool/gradebook/services/email"
	firebasesvc "github.com/trezcool/gradebook/services/firebase"
	logsvc "github.com/trezcool/gradebook/services/logger"
	blobstore "github.com/trezcool/gradebook/storage/blob"
	"github.com/trezcool/gradebook/storage/docrepos"
	fsstore "github.com/trezcool/gradebook/storage/docstore/firestore"
	"github.com/trezcool/gradebook/storage/docstore/inmem"
	pgstore "github.com/trezcool/gradebook/storage/docstore/postgres"
	redisstore "github.com/trezcool/gradebook/storage/redis"
)

type StoreLoggerParam struct {
	dig.In
	Logger core.Logger `name:"storeLogger"`
}

// Closers holds the cleanup functions of the resources opened by the container, in opening order.
type Closers struct {
	fns []func() error
}

func (c *Closers) add(fn func() error) { c.fns = append(c.fns, fn) }

// Close runs every cleanup function in reverse order and returns the first error.
func (c *Closers) Close() error {
	var first error
	for i := len(c.fns) - 1; i >= 0; i-- {
		if err := c.fns[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStoreLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "STORE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newCatalog(conf *core.Config, logger core.Logger) core.Catalog {
	cat, err := core.LoadCatalog(conf.CatalogFile)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading catalog: %v", err), err)
	}
	return cat
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newValidator(translator ut.Translator, catalog core.Catalog) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator, catalog)
	user.InitValidators(validate, translator)
	return validate
}

func newDocumentStore(conf *core.Config, fbApp *firebasesvc.LazyApp, closers *Closers, loggerParam StoreLoggerParam) core.DocumentStore {
	logger := loggerParam.Logger

	setUp := func() (core.DocumentStore, error) {
		switch conf.Store.Engine {
		case core.StoreMemory:
			logger.Warn("using the in-memory store: data is lost on shutdown")
			return inmem.NewStore(), nil

		case core.StoreFirestore:
			ctx := context.Background()
			app, err := fbApp.Get(ctx)
			if err != nil {
				return nil, err
			}
			client, err := app.Firestore(ctx)
			if err != nil {
				return nil, errors.Wrap(err, "connecting to firestore")
			}
			store := fsstore.NewStore(client)
			closers.add(store.Close)
			return store, nil

		case core.StorePostgres:
			if err := pgstore.CreateIfNotExist(conf); err != nil {
				return nil, err
			}
			db, err := pgstore.Open(conf)
			if err != nil {
				return nil, err
			}
			closers.add(db.Close)
			if err = pgstore.Migrate(db.DB); err != nil {
				return nil, err
			}
			return pgstore.NewStore(db), nil
		}
		return nil, errors.Errorf("unknown store engine %q", conf.Store.Engine)
	}

	store, err := setUp()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up document store: %v", err), err)
	}
	return store
}

func newBlobStore(conf *core.Config, fbApp *firebasesvc.LazyApp, logger core.Logger) core.BlobStore {
	if conf.Blob.Engine != core.BlobFirebase {
		return blobstore.NewLocalStore(conf.Blob.Dir, conf.Blob.BaseURL)
	}

	ctx := context.Background()
	app, err := fbApp.Get(ctx)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up blob store: %v", err), err)
	}
	client, err := app.Storage(ctx)
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to firebase storage: %v", err), err)
	}
	bucket, err := client.DefaultBucket()
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening storage bucket: %v", err), err)
	}
	return blobstore.NewFirebaseStore(bucket, conf.Firebase.StorageBucket)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// newUserService only exists with local accounts.
func newUserService(conf *core.Config, repo user.Repository, mailSvc core.EmailService) *user.Service {
	if conf.Auth.Provider != core.AuthLocal {
		return nil
	}
	return user.NewService(repo, mailSvc, conf)
}

func newAuthority(
	conf *core.Config,
	fbApp *firebasesvc.LazyApp,
	users *user.Service,
	mailSvc core.EmailService,
	logger core.Logger,
) session.Authority {
	switch conf.Auth.Provider {
	case core.AuthLocal:
		return authsvc.NewLocalAuthority(users)
	case core.AuthFirebase:
		ctx := context.Background()
		app, err := fbApp.Get(ctx)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up auth: %v", err), err)
		}
		client, err := app.Auth(ctx)
		if err != nil {
			logger.Fatal(fmt.Sprintf("connecting to firebase auth: %v", err), err)
		}
		return authsvc.NewFirebaseAuthority(client, conf, mailSvc)
	}
	logger.Fatal(fmt.Sprintf("unknown auth provider %q", conf.Auth.Provider))
	return nil
}

func newRevocations(conf *core.Config, closers *Closers, logger core.Logger) echoapi.Revocations {
	if conf.Redis.URL == "" {
		return echoapi.NewMemoryRevocations()
	}
	client, err := redisstore.Connect(context.Background(), conf.Redis.URL)
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
	}
	blacklist := redisstore.NewTokenBlacklist(client)
	closers.add(blacklist.Close)
	return blacklist
}

func newGradeService(students *student.Service, repo grade.Repository) *grade.Service {
	return grade.NewService(students, repo)
}

type serverParams struct {
	dig.In

	Conf        *core.Config
	Logger      core.Logger
	Validate    *validator.Validate
	Translator  ut.Translator
	Catalog     core.Catalog
	Authority   session.Authority
	Revocations echoapi.Revocations
	Users       *user.Service
	Students    *student.Service
	Grades      *grade.Service
	Teachers    *teacher.Service
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:        p.Conf,
		Logger:      p.Logger,
		Validate:    p.Validate,
		Translator:  p.Translator,
		Catalog:     p.Catalog,
		Authority:   p.Authority,
		Revocations: p.Revocations,
		Users:       p.Users,
		Students:    p.Students,
		Grades:      p.Grades,
		Teachers:    p.Teachers,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(func() *Closers { return new(Closers) }))
	must(c.Provide(newLogger))
	must(c.Provide(newStoreLogger, dig.Name("storeLogger")))
	must(c.Provide(newCatalog))
	must(c.Provide(newTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(firebasesvc.NewLazyApp))
	must(c.Provide(newDocumentStore))
	must(c.Provide(newBlobStore))
	must(c.Provide(newEmailService))

	must(c.Provide(docrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(docrepos.NewStudentRepository, dig.As(new(student.Repository))))
	must(c.Provide(docrepos.NewMarkRepository, dig.As(new(grade.Repository))))
	must(c.Provide(docrepos.NewProfileRepository, dig.As(new(teacher.Repository))))

	must(c.Provide(newUserService))
	must(c.Provide(newAuthority))
	must(c.Provide(newRevocations))
	must(c.Provide(student.NewService))
	must(c.Provide(newGradeService))
	must(c.Provide(teacher.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
