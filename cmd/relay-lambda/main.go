package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"msgrelay/internal/config"
	"msgrelay/internal/constants"
	"msgrelay/internal/display"
	"msgrelay/internal/extractor"
	"msgrelay/internal/invocation"
	"msgrelay/internal/logger"
	"msgrelay/pkg/logging"
	"msgrelay/pkg/metrics"
)

func main() {
	earlyLog := logging.NewEarlyLog()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		earlyLog.Fatal("Failed to load config: %v", err)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		earlyLog.Fatal("Failed to init logger: %v", err)
	}
	defer log.Sync()

	if sl, ok := log.(*logger.SugaredLogger); ok {
		sl.SetServiceName(constants.ServiceNameLambda)
	}

	metrics.Register()

	handler := invocation.NewHandler(extractor.New(log), display.Stdout(), log)
	lambda.Start(handler.Handle)
}
