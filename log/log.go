package log

import (
	"os"

	"go.uber.org/zap"
)

func init() {
	var (
		logger *zap.Logger
		err    error
	)
	if os.Getenv("IMPOSTOR_ENV") == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
}
