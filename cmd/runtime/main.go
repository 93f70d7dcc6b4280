package main

import (
	"github.com/hxuan190/split-swapper/internal/common"
	"github.com/hxuan190/split-swapper/internal/config"
	"github.com/hxuan190/split-swapper/internal/http"
	"github.com/hxuan190/split-swapper/internal/swapper"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"
)

// @title Split Swapper API
// @version 1.0
// @description Value-routing engine: one inbound payment is split by weight into several output assets.
// @description
// @description ## - Session
// @description - The payer's gross amount is pulled into the engine's custody account
// @description - The protocol fee is taken once, on the gross amount, rounded down
// @description - The net amount is split by basis-point weights that sum to 10000; rounding dust goes to the last leg
// @description - Each leg is swapped through a pair factory pool or a shared registry pool and delivered to the recipient
// @description - Sessions are atomic: if any leg fails no balance changes
// @description
// @description ## - Engine versions
// @description - **v1**: every leg routes through the default venue
// @description - **v2**: each leg picks its venue, an optional pool and a minimum output
// @description - Upgrades keep the fee configuration
// @description
// @description ## - Usage Tips
// @description - Amounts are decimal strings in smallest units
// @description - Admin routes need the X-Wallet-Address header set to the engine admin
// @description
// @BasePath /
// @schemes https http
// @tag.name swap
// @tag.description Execute and quote split-swap sessions
// @tag.name pools
// @tag.description Pair factory and shared registry pools
// @tag.name fee
// @tag.description Protocol fee configuration
// @tag.name engine
// @tag.description Routing logic version
// @tag.name balances
// @tag.description Ledger balances
// @tag.name admin
// @tag.description Admin operations

func main() {
	common.InitRuntime()

	// load env
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file, using process environment")
	}

	// di container config
	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.EngineConfig{},
	)

	// di container
	dic, err := container.New(
		// config
		conf,

		// services
		&swapper.Service{},
		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Run blocks until SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
