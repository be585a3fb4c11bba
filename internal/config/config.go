package config

import (
	"encoding/json"
	"os"

	"github.com/caarlos0/env/v10"
	"github.com/intenus/preranker/pkg/types"
)

type (
	Config struct {
		Production bool    `json:"production" env:"PRODUCTION" envDefault:"false"`
		PrettyLogs bool    `json:"pretty_logs" env:"PRETTY_LOGS" envDefault:"false"`
		LogLevel   string  `json:"log_level" env:"LOG_LEVEL" envDefault:"info"`
		Server     Server  `json:"server" envPrefix:"SERVER_"`
		Ledger     Ledger  `json:"ledger" envPrefix:"LEDGER_"`
		Blob       Blob    `json:"blob" envPrefix:"BLOB_"`
		MongoDB    MongoDB `json:"mongodb" envPrefix:"MONGODB_"`
		State      State   `json:"state" envPrefix:"STATE_"`
		Results    Results `json:"results" envPrefix:"RESULTS_"`
	}

	Server struct {
		Address string `json:"address" env:"ADDRESS" envDefault:"0.0.0.0:3000"`
	}

	Ledger struct {
		Network          string                   `json:"network" env:"NETWORK" envDefault:"testnet"`
		RpcUrl           string                   `json:"rpc_url" env:"RPC_URL"`
		IntentPackageId  string                   `json:"intent_package_id" env:"INTENT_PACKAGE_ID"`
		PollInterval     types.MarshalledDuration `json:"poll_interval" env:"POLL_INTERVAL" envDefault:"2s"`
		PageLimit        int                      `json:"page_limit" env:"PAGE_LIMIT" envDefault:"50"`
		MaxPagesPerCycle int                      `json:"max_pages_per_cycle" env:"MAX_PAGES_PER_CYCLE" envDefault:"10"`
		AutoStart        bool                     `json:"auto_start" env:"AUTO_START" envDefault:"true"`
	}

	Blob struct {
		Endpoint       string                   `json:"endpoint" env:"ENDPOINT"`
		RequestTimeout types.MarshalledDuration `json:"request_timeout" env:"REQUEST_TIMEOUT" envDefault:"10s"`
	}

	MongoDB struct {
		URI          string `json:"uri" env:"URI"`
		DatabaseName string `json:"database_name" env:"DATABASE_NAME"`
	}

	State struct {
		Path string `json:"path" env:"PATH" envDefault:"state.db"`
	}

	Results struct {
		TTL           types.MarshalledDuration `json:"ttl" env:"TTL" envDefault:"1h"`
		SweepInterval types.MarshalledDuration `json:"sweep_interval" env:"SWEEP_INTERVAL" envDefault:"5m"`
	}
)

func Load() (Config, error) {
	var conf Config

	// Try to load JSON config file, but fallback to environment variables if it does not exist
	if _, err := os.Stat("config.json"); err == nil {
		bytes, err := os.ReadFile("config.json")
		if err != nil {
			return Config{}, err
		}

		if err := json.Unmarshal(bytes, &conf); err != nil {
			return Config{}, err
		}

		return conf, nil
	}

	if err := env.Parse(&conf); err != nil {
		return Config{}, err
	}

	return conf, nil
}
