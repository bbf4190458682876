package firebasesvc

import (
	"context"
	"sync"

	firebase "firebase.google.com/go/v4"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/trezcool/gradebook/core"
)

// NewApp initializes the Firebase app from the config.
// Without a credentials file, Application Default Credentials are used.
func NewApp(ctx context.Context, conf *core.Config) (*firebase.App, error) {
	var opts []option.ClientOption
	if conf.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(conf.Firebase.CredentialsFile))
	}
	fbConf := &firebase.Config{
		ProjectID:     conf.Firebase.ProjectID,
		StorageBucket: conf.Firebase.StorageBucket,
	}
	app, err := firebase.NewApp(ctx, fbConf, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "initializing firebase app")
	}
	return app, nil
}

// LazyApp initializes the Firebase app on first use, so that deployments not using Firebase never need credentials.
type LazyApp struct {
	conf *core.Config
	once sync.Once
	app  *firebase.App
	err  error
}

func NewLazyApp(conf *core.Config) *LazyApp {
	return &LazyApp{conf: conf}
}

func (l *LazyApp) Get(ctx context.Context) (*firebase.App, error) {
	l.once.Do(func() {
		l.app, l.err = NewApp(ctx, l.conf)
	})
	return l.app, l.err
}
