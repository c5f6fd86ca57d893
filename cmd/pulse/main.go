package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/citypulse/pulse/internal/profile"
	"github.com/citypulse/pulse/internal/version"
	"github.com/citypulse/pulse/plugin/ai"
	"github.com/citypulse/pulse/server"
	"github.com/citypulse/pulse/store"
	"github.com/citypulse/pulse/store/db"
)

const greetingBanner = `
        _
 _ __  _   _ | | ___   ___
| '_ \| | | || |/ __| / _ \
| |_) | |_| || |\__ \|  __/
| .__/ \__,_||_||___/ \___|
|_|
`

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Zone-scoped feed ranking and ask engine",
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:        viper.GetString("mode"),
			Addr:        viper.GetString("addr"),
			Port:        viper.GetInt("port"),
			Data:        viper.GetString("data"),
			Driver:      viper.GetString("driver"),
			DSN:         viper.GetString("dsn"),
			InstanceURL: viper.GetString("instance-url"),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			slog.Error("invalid configuration", slog.String("error", err.Error()))
			os.Exit(1)
		}
		instanceProfile.Version = version.GetCurrentVersion(instanceProfile.Mode)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			slog.Error("failed to create db driver", slog.String("error", err.Error()))
			os.Exit(1)
		}

		storeInstance := store.New(dbDriver, instanceProfile)
		if err := storeInstance.Migrate(ctx); err != nil {
			slog.Error("failed to migrate db", slog.String("error", err.Error()))
			os.Exit(1)
		}

		embedder, llm, err := newAIServices(instanceProfile)
		if err != nil {
			slog.Error("failed to create ai services", slog.String("error", err.Error()))
			os.Exit(1)
		}

		s, err := server.NewServer(ctx, instanceProfile, storeInstance, embedder, llm)
		if err != nil {
			slog.Error("failed to create server", slog.String("error", err.Error()))
			os.Exit(1)
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-sigCh
			slog.Info("received signal, shutting down", slog.String("signal", sig.String()))
			s.Shutdown()
			cancel()
		}()

		printGreetings(instanceProfile)

		if err := s.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start server", slog.String("error", err.Error()))
			cancel()
		}

		<-ctx.Done()
	},
}

// newAIServices builds the embedding and chat providers. Demo mode without a
// configured provider gets deterministic mocks so the whole surface stays
// usable offline; outside demo mode a missing provider leaves both nil and
// the ask path degrades per its own rules.
func newAIServices(p *profile.Profile) (ai.EmbeddingService, ai.LLMService, error) {
	if p.IsAIEnabled() {
		cfg := ai.NewConfigFromProfile(p)
		if err := cfg.Validate(); err != nil {
			return nil, nil, errors.Wrap(err, "invalid ai config")
		}
		embedder, err := ai.NewEmbeddingService(&cfg.Embedding)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to create embedding service")
		}
		llm, err := ai.NewLLMService(&cfg.LLM)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to create llm service")
		}
		return embedder, llm, nil
	}

	if p.Mode == "demo" {
		return ai.NewMockEmbeddingService(), &ai.MockLLMService{}, nil
	}
	return nil, nil, nil
}

func printGreetings(p *profile.Profile) {
	fmt.Print(greetingBanner)
	fmt.Printf("Version %s has been started on port %d\n", p.Version, p.Port)
	if p.InstanceURL != "" {
		fmt.Printf("Instance URL: %s\n", p.InstanceURL)
	}
}

func init() {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("addr", "")
	viper.SetDefault("port", 8081)
	viper.SetDefault("data", "")

	rootCmd.PersistentFlags().String("mode", "demo", `mode of the server: "prod", "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of the server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of the server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", `database driver: "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database source name (aka. DSN)")
	rootCmd.PersistentFlags().String("instance-url", "", "the url of your pulse instance")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn", "instance-url"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("pulse")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
