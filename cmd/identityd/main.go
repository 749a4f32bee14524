package main

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	identity "github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/config"
	"github.com/goliatone/go-identity/middleware/restrictware"
	"github.com/goliatone/go-logger/glog"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-router"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

//go:embed data/fixtures/*.yml
var fixturesFS embed.FS

var version = "dev"

func main() {
	cobra.CheckErr(rootCmd.Execute())
}

var rootCmd = &cobra.Command{
	Use:           "identityd",
	Short:         "User identity and authorization service",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `identityd serves the user account JSON API: registration, login,
token refresh, profiles and attributes, with route access governed by a
permission level restriction table.`,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(hashCmd)
	rootCmd.Version = version
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		lgr := glog.NewLogger(
			glog.WithLoggerTypePretty(),
			glog.WithLevel(glog.Info),
			glog.WithName("identityd"),
			glog.WithAddSource(false),
			glog.WithRichErrorHandler(errors.ToSlogAttributes),
		)

		cfg := gconfig.New(&config.BaseConfig{}).
			WithLogger(lgr.GetLogger("config"))

		if err := cfg.Load(ctx); err != nil {
			return err
		}

		app := &App{config: cfg, logger: lgr}

		for id, name := range app.Config().GetAuth().GetCustomLevels() {
			identity.Levels.Register(id, name)
		}

		if err := app.WithPersistence(ctx); err != nil {
			return err
		}

		if err := app.WithTokenService(); err != nil {
			return err
		}

		app.WithMailer()
		app.WithHTTPServer()

		addr := app.Config().GetServer().GetAddress()
		app.logger.Info("listening", "addr", addr)
		app.srv.Serve(addr)

		WaitExitSignal()

		return app.srv.Shutdown(context.Background())
	},
}

// App wires the service collaborators together.
type App struct {
	config *gconfig.Container[*config.BaseConfig]
	logger *glog.BaseLogger
	bunDB  *bun.DB
	repo   identity.RepositoryManager
	tokens *identity.TokenService
	auther identity.Authenticator
	mailer identity.Mailer
	srv    router.Server[*fiber.App]
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func (a *App) WithPersistence(ctx context.Context) error {
	pcfg := a.Config().GetPersistence()

	db, err := sql.Open(sqliteshim.ShimName, pcfg.GetDSN())
	if err != nil {
		return err
	}

	persistence.RegisterModel((*identity.User)(nil))
	persistence.RegisterModel((*identity.Attribute)(nil))

	client, err := persistence.New(pcfg, db, sqlitedialect.New())
	if err != nil {
		return err
	}

	client.SetLogger(a.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(identity.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}
	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)
	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	if pcfg.GetSeed() {
		client.RegisterFixtures(fixturesFS).AddOptions(persistence.WithTrucateTables())
		if err := client.Seed(ctx); err != nil {
			return err
		}
	}

	a.bunDB = client.DB()
	a.repo = identity.NewRepositoryManager(client.DB())

	return nil
}

func (a *App) WithTokenService() error {
	acfg := a.Config().GetAuth()

	key, err := identity.NewSigningKeyFromConfig(acfg)
	if err != nil {
		return err
	}

	a.tokens = identity.NewTokenService(key,
		identity.WithIssuer(acfg.GetIssuer()),
		identity.WithAudience(acfg.GetAudience()...),
		identity.WithAccessTokenTTL(acfg.GetAccessTokenTTL()),
		identity.WithRefreshTokenTTL(acfg.GetRefreshTokenTTL()),
		identity.WithTokenLogger(a.GetLogger("tokens")),
	)

	provider := identity.NewUserProvider(a.repo.Users()).
		WithLogger(a.GetLogger("provider"))

	a.auther = identity.NewAuthenticator(provider, a.tokens).
		WithLogger(a.GetLogger("auth"))

	return nil
}

func (a *App) WithMailer() {
	mcfg := a.Config().GetMail()
	if mcfg.GetHost() == "" {
		a.mailer = identity.NewLogMailer(a.GetLogger("mailer"))
		return
	}

	a.mailer = identity.NewSMTPMailer(identity.SMTPConfig{
		Host:     mcfg.GetHost(),
		Port:     mcfg.GetPort(),
		Username: mcfg.GetUsername(),
		Password: mcfg.GetPassword(),
		From:     mcfg.GetFrom(),
	})
}

func (a *App) WithHTTPServer() {
	acfg := a.Config().GetAuth()

	srv := router.NewFiberAdapter(func(app *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
			AppName:       "identityd",
		}))
	})

	srv.Router().WithLogger(a.GetLogger("router"))

	evaluator := identity.NewEvaluator(
		identity.DefaultRestrictions(),
		identity.WithFailureStatus(acfg.GetRestrictedStatus()),
		identity.WithEvaluatorLogger(a.GetLogger("restrict")),
	)

	srv.Router().Use(restrictware.New(restrictware.Config{
		Verifier:    a.tokens,
		Evaluator:   evaluator,
		ContextKey:  acfg.GetContextKey(),
		TokenLookup: acfg.GetTokenLookup(),
		AuthScheme:  acfg.GetAuthScheme(),
		Logger:      a.GetLogger("restrict"),
	}))

	identity.RegisterUserRoutes(srv.Router(),
		identity.WithControllerLogger(a.GetLogger("users")),
		identity.WithControllerRepo(a.repo),
		identity.WithControllerAuthenticator(a.auther),
		identity.WithControllerMailer(a.mailer),
		identity.WithControllerContextKey(acfg.GetContextKey()),
		identity.WithActivationURL(acfg.GetAccountActivationURL()),
		identity.WithRequireConfirmation(acfg.GetRequireConfirmation()),
	)

	a.srv = srv
}

// WaitExitSignal blocks until the process receives an exit signal.
func WaitExitSignal() os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	fmt.Println("waiting for exit signal...")
	return <-sigCh
}
