package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store engines
const (
	StoreMemory    = "memory"
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
)

// Auth providers
const (
	AuthLocal    = "local"
	AuthFirebase = "firebase"
)

// Blob engines
const (
	BlobLocal    = "local"
	BlobFirebase = "firebase"
)

type (
	Config struct {
		Debug                     bool
		TestMode                  bool
		AppName                   string
		Build                     string
		Env                       string
		SecretKey                 string
		FrontendBaseURL           string
		RollbarToken              string
		SendgridApiKey            string
		PasswordResetTimeoutDelta time.Duration
		CatalogFile               string

		defaultFromEmail string

		Server   serverConfig
		Store    storeConfig
		Database databaseConfig
		Firebase firebaseConfig
		Auth     authConfig
		Redis    redisConfig
		Blob     blobConfig
	}

	serverConfig struct {
		Host                      string
		Port                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		DisableReqLogs            bool
	}

	storeConfig struct {
		Engine string
	}

	databaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	firebaseConfig struct {
		ProjectID       string
		CredentialsFile string
		APIKey          string
		StorageBucket   string
	}

	authConfig struct {
		Provider string
	}

	redisConfig struct {
		URL string
	}

	blobConfig struct {
		Engine  string
		Dir     string
		BaseURL string
	}
)

// NewConfig loads the configuration from defaults, an optional `config/.env.<env>` file and the environment.
// Environment variables are prefixed by the current ENV, e.g.: DEV_SECRET_KEY, PROD_DATABASE_HOST.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "Gradebook")
	conf.SetDefault("build", "develop")
	conf.SetDefault("secretKey", "k3b!7wq2^x9zr+e)v_m4f0d6n&ahp*u8t1c5(yj$os-g=li")
	conf.SetDefault("defaultFromEmail", "Gradebook <noreply@localhost>")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	conf.SetDefault("catalogFile", "")

	conf.SetDefault("server.host", "0.0.0.0")
	conf.SetDefault("server.port", "8000")
	conf.SetDefault("server.debugHost", "0.0.0.0:4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("server.jwtRefreshExpirationDelta", 30*24*time.Hour)
	conf.SetDefault("server.disableReqLogs", false)

	conf.SetDefault("store.engine", StoreMemory)

	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.name", "gradebook")
	conf.SetDefault("database.user", "gradebook")
	conf.SetDefault("database.password", "gradebook")
	conf.SetDefault("database.adminUser", "postgres")
	conf.SetDefault("database.adminPassword", "postgres")
	conf.SetDefault("database.disableTLS", true)

	conf.SetDefault("firebase.projectID", "")
	conf.SetDefault("firebase.credentialsFile", "")
	conf.SetDefault("firebase.apiKey", "")
	conf.SetDefault("firebase.storageBucket", "")

	conf.SetDefault("auth.provider", AuthLocal)
	conf.SetDefault("redis.url", "")

	conf.SetDefault("blob.engine", BlobLocal)
	conf.SetDefault("blob.dir", filepath.Join(os.TempDir(), "gradebook", "media"))
	conf.SetDefault("blob.baseURL", "http://localhost:8000/media")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	if wd, err := Getwd(); err == nil {
		dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	conf.AutomaticEnv()

	return &Config{
		Debug:                     conf.GetBool("debug"),
		TestMode:                  conf.GetBool("testMode"),
		AppName:                   conf.GetString("appName"),
		Build:                     conf.GetString("build"),
		Env:                       env,
		SecretKey:                 conf.GetString("secretKey"),
		FrontendBaseURL:           conf.GetString("frontendBaseURL"),
		RollbarToken:              conf.GetString("rollbarToken"),
		SendgridApiKey:            conf.GetString("sendgridApiKey"),
		PasswordResetTimeoutDelta: conf.GetDuration("passwordResetTimeoutDelta"),
		CatalogFile:               conf.GetString("catalogFile"),
		defaultFromEmail:          conf.GetString("defaultFromEmail"),
		Server: serverConfig{
			Host:                      conf.GetString("server.host"),
			Port:                      conf.GetString("server.port"),
			DebugHost:                 conf.GetString("server.debugHost"),
			ShutdownTimeout:           conf.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("server.jwtRefreshExpirationDelta"),
			DisableReqLogs:            conf.GetBool("server.disableReqLogs"),
		},
		Store: storeConfig{
			Engine: conf.GetString("store.engine"),
		},
		Database: databaseConfig{
			Engine:        conf.GetString("database.engine"),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetString("database.port"),
			Name:          conf.GetString("database.name"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			DisableTLS:    conf.GetBool("database.disableTLS"),
		},
		Firebase: firebaseConfig{
			ProjectID:       conf.GetString("firebase.projectID"),
			CredentialsFile: conf.GetString("firebase.credentialsFile"),
			APIKey:          conf.GetString("firebase.apiKey"),
			StorageBucket:   conf.GetString("firebase.storageBucket"),
		},
		Auth: authConfig{
			Provider: conf.GetString("auth.provider"),
		},
		Redis: redisConfig{
			URL: conf.GetString("redis.url"),
		},
		Blob: blobConfig{
			Engine:  conf.GetString("blob.engine"),
			Dir:     conf.GetString("blob.dir"),
			BaseURL: conf.GetString("blob.baseURL"),
		},
	}
}

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
	}
	return *addr
}

// SetDefaultFromEmail overrides the sender address, e.g.: "Gradebook <noreply@school.edu>".
func (c *Config) SetDefaultFromEmail(addr string) {
	c.defaultFromEmail = addr
}

func (sc serverConfig) Address() string {
	return net.JoinHostPort(sc.Host, sc.Port)
}

func (dc databaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, dc.Port)
}
