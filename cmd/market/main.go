package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/ninejamarkets/market-cli/internal/cli"
	"github.com/ninejamarkets/market-cli/internal/config"
	"github.com/ninejamarkets/market-cli/internal/gateway/market"
	"github.com/ninejamarkets/market-cli/internal/platform/logging"
	"github.com/ninejamarkets/market-cli/internal/service/profile"
)

var version = "dev"

func main() {
	settings, err := config.LoadSettings()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	store := config.NewStoreAt(settings.ConfigPath)

	logger := logging.NewCLI(os.Stderr, false)

	newMarket := func(apiURL string) market.API {
		return market.NewClient(apiURL,
			market.WithRequestMinInterval(settings.HTTPMinInterval),
			market.WithLogger(logger.With(zap.String("api_url", apiURL))),
		)
	}

	deps := cli.Dependencies{
		Market:    newMarket(settings.APIURL),
		NewMarket: newMarket,
		Profiles:  profile.NewResolver(store),
		Config:    store,
		Logger:    logger,
		Stdin:     os.Stdin,
		Version:   version,
	}

	exitCode := cli.Execute(context.Background(), os.Args[1:], deps, os.Stdout, os.Stderr)
	_ = logger.Sync()
	os.Exit(exitCode)
}
