package main

import (
	"flag"
	"net/http"

	"github.com/joho/godotenv"

	"voicechat/core"
	"voicechat/factories"
	wstransport "voicechat/transports/websocket"
)

func main() {
	var (
		configPath string
		listenAddr string
	)
	flag.StringVar(&configPath, "config", "setup.json", "path to the setup JSON file (system prompt + chat parameters)")
	flag.StringVar(&listenAddr, "listen", ":8080", "address for the gateway to listen on")
	flag.Parse()

	logger := core.GetLogger()

	if err := godotenv.Load(); err != nil {
		logger.Warn("no .env file found, using process environment")
	}

	appCfg, err := factories.LoadAppConfig(configPath)
	if err != nil {
		logger.Fatal("loading configuration failed", "error", err)
	}

	creds, err := factories.CredentialsFromEnv()
	if err != nil {
		logger.Fatal("resolving credentials failed", "error", err)
	}

	manager, err := factories.BuildSessionManager(appCfg, creds, logger)
	if err != nil {
		logger.Fatal("building pipeline failed", "error", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", wstransport.NewGateway(manager, logger))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	logger.Info("gateway listening",
		"addr", listenAddr,
		"deployment", appCfg.Params.Deployment,
		"speak_replies", appCfg.SpeakReplies,
	)
	if err := http.ListenAndServe(listenAddr, mux); err != nil {
		logger.Fatal("server stopped", "error", err)
	}
}
