package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"dauchez-konnector/lib/scrapers/dauchez"
	"dauchez-konnector/lib/serviceutil"
	"dauchez-konnector/lib/telemetry"
	"dauchez-konnector/services/konnector"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the connector once: login, scrape the listing and save the bills.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := serviceutil.SignalContext()

		config := loadConfig()
		telemetry.InitSlog(config.Debug)

		if config.Credentials.Username == "" || config.Credentials.Password == "" {
			serviceutil.Fatal("incomplete configuration", errors.New("credentials.username and credentials.password are required"))
		}

		tel, err := telemetry.SetupFromEnv(ctx, "dauchez-konnector")
		if err == nil {
			defer tel.Shutdown(context.Background())
			telemetry.InstrumentPerfStats(ctx)
		} else if !os.IsNotExist(err) {
			serviceutil.Fatal("failed to setup telemetry", err)
		}

		client, err := dauchez.NewClient(ctx, dauchez.ClientOptions{
			BaseUrl: config.BaseUrl,
		})
		if err != nil {
			serviceutil.Fatal("failed to create extranet client", err)
		}

		store := openStore(config)
		service := konnector.NewService(client, store)

		err = service.Run(ctx, konnector.Credentials{
			Username: config.Credentials.Username,
			Password: config.Credentials.Password,
		})
		if err != nil {
			serviceutil.Fatal("connector run failed", err)
		}

		slog.Info("connector run finished")
	},
}
