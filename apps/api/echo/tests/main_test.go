package tests

import (
	"context"
	"testing"

	. "github.com/trezcool/gradebook/apps/api/echo"
	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/student"
	"github.com/trezcool/gradebook/core/teacher"
	"github.com/trezcool/gradebook/core/user"
	authsvc "github.com/trezcool/gradebook/services/auth"
	"github.com/trezcool/gradebook/services/email"
	blobstore "github.com/trezcool/gradebook/storage/blob"
	"github.com/trezcool/gradebook/storage/docrepos"
	"github.com/trezcool/gradebook/storage/docstore/inmem"
	"github.com/trezcool/gradebook/tests"
)

type testEnv struct {
	conf     *core.Config
	srv      *Server
	store    core.DocumentStore
	usrRepo  user.Repository
	stRepo   student.Repository
	markRepo grade.Repository
	profiles teacher.Repository
}

// failingStore fails every document read and write.
type failingStore struct{ core.DocumentStore }

func (failingStore) GetDocuments(context.Context, string, ...core.Filter) ([]core.Document, error) {
	return nil, context.DeadlineExceeded
}

func (failingStore) SetDocument(context.Context, string, core.Fields) error {
	return context.DeadlineExceeded
}

func (failingStore) GetDocument(context.Context, string) (core.Document, error) {
	return core.Document{}, context.DeadlineExceeded
}

func setup(t *testing.T, store ...core.DocumentStore) testEnv {
	t.Helper()
	conf := testutil.NewConfig()
	conf.Blob.Engine = core.BlobLocal
	conf.Blob.Dir = t.TempDir()
	conf.Blob.BaseURL = "http://localhost:8000/media"
	validate, translator := testutil.NewValidator()
	logger := testutil.NopLogger{}

	// set up store & repos
	var docs core.DocumentStore = inmem.NewStore()
	if len(store) > 0 {
		docs = store[0]
	}
	env := testEnv{
		conf:     conf,
		store:    docs,
		usrRepo:  docrepos.NewUserRepository(docs),
		stRepo:   docrepos.NewStudentRepository(docs),
		markRepo: docrepos.NewMarkRepository(docs),
		profiles: docrepos.NewProfileRepository(docs),
	}

	// set up services
	emailsvc.ClearSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	usrSvc := user.NewService(env.usrRepo, mailSvc, conf)
	stSvc := student.NewService(env.stRepo)

	// set up server
	env.srv = NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		Catalog:    core.DefaultCatalog(),
		Authority:  authsvc.NewLocalAuthority(usrSvc),
		Users:      usrSvc,
		Students:   stSvc,
		Grades:     grade.NewService(stSvc, env.markRepo),
		Teachers:   teacher.NewService(env.profiles, blobstore.NewLocalStore(conf.Blob.Dir, conf.Blob.BaseURL)),
	})
	t.Cleanup(func() { _ = env.srv.Close() })
	return env
}
