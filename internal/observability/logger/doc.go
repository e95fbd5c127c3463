// Package logger provides the process-wide zap logger and request scoping.
//
// Inicialización (una vez en main):
//
//	logger.Init(logger.Config{Env: cfg.Logging.Env, Level: cfg.Logging.Level, ServiceName: "fedlogin"})
//	defer logger.Sync()
//
// En controllers/services el logger viaja en el contexto. El middleware de logging
// inyecta uno con request_id, method y path:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("social.broker"))
//	log.Info("login completed", logger.Provider("google"), logger.AccountID(id))
//
// Los emails nunca se loguean en claro: usar EmailMasked.
package logger
