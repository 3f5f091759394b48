// Package logger provee un logger estructurado (zap) con patrón singleton
// y propagación por contexto.
//
// Uso típico:
//
//	logger.Init(logger.Config{Env: "prod", Level: "info", ServiceName: "taskboard"})
//	defer logger.Sync()
//
//	log := logger.From(ctx)
//	log.Info("task created", logger.TaskID(42))
package logger
