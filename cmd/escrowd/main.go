package main

import (
	"flag"
	"fmt"
	"os"

	"swapescrow/config"
	"swapescrow/core/events"
	"swapescrow/core/state"
	"swapescrow/core/types"
	"swapescrow/native/common"
	"swapescrow/native/escrow"
	"swapescrow/observability/logging"
	"swapescrow/rpc"
	"swapescrow/storage"
)

func main() {
	configPath := flag.String("config", "./config.toml", "path to the escrowd config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup("escrowd", cfg.Env)

	programID, err := cfg.ProgramIDBytes()
	if err != nil {
		logger.Error("invalid program id", "err", err)
		os.Exit(1)
	}

	var db storage.Database
	if cfg.DataDir == "" {
		logger.Warn("no data dir configured, state will not survive restarts")
		db = storage.NewMemDB()
	} else {
		ldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			logger.Error("open database", "dir", cfg.DataDir, "err", err)
			os.Exit(1)
		}
		db = ldb
	}
	defer db.Close()

	manager := state.NewManager(db)
	if err := seedState(manager, cfg); err != nil {
		logger.Error("seed state", "err", err)
		os.Exit(1)
	}

	engine := escrow.NewEngine(programID)
	engine.SetState(manager)
	engine.SetPauses(common.NewStaticPauses(cfg.PausedModules))
	engine.SetEmitter(events.EmitterFunc(func(evt events.Event) {
		logger.Info("escrow event", "type", evt.EventType())
	}))

	server := rpc.NewServer(engine)
	logger.Info("starting JSON-RPC server",
		"addr", cfg.RPCAddress,
		"network", cfg.NetworkName,
		"program", cfg.ProgramID,
	)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("rpc server stopped", "err", err)
		os.Exit(1)
	}
}

// seedState registers the configured token mints and, on the first run
// against an empty state, credits the genesis balances.
func seedState(manager *state.Manager, cfg *config.Config) error {
	for _, token := range cfg.Tokens {
		mint, err := config.ParseAddress(token.Mint)
		if err != nil {
			return err
		}
		meta := &types.TokenMetadata{
			Mint:     mint,
			Symbol:   token.Symbol,
			Name:     token.Name,
			Decimals: token.Decimals,
		}
		if err := manager.RegisterToken(meta); err != nil {
			return err
		}
	}
	initialized, err := manager.Initialized()
	if err != nil {
		return err
	}
	if initialized {
		return nil
	}
	for _, entry := range cfg.Genesis {
		account, err := config.ParseAddress(entry.Account)
		if err != nil {
			return err
		}
		mint, err := config.ParseAddress(entry.Mint)
		if err != nil {
			return err
		}
		amount, err := config.ParseAmount(entry.Amount)
		if err != nil {
			return err
		}
		if err := manager.Credit(account, mint, amount); err != nil {
			return err
		}
	}
	return manager.SetInitialized()
}
