// Package logger builds *slog.Logger instances for the notification client and
// its development backend.
//
// New takes functional options for format, level, static attributes and
// context extractors; WithEnvironment picks a preset (text/debug for
// development, JSON/info for staging and production). FromConfig turns the
// env-driven Config into options so binaries can do:
//
//	var cfg logger.Config
//	config.MustLoad(&cfg)
//	log := logger.New(logger.FromConfig(cfg)...)
//	logger.SetAsDefault(log)
//
// Attribute helpers (Error, Role, NotificationID, Component, Attempt, ...) keep
// key names consistent across packages. Error and Errors return an empty
// attribute for nil errors, so they can be passed unconditionally:
//
//	log.WarnContext(ctx, "mark-read failed", logger.NotificationID(id), logger.Error(err))
package logger
