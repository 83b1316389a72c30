// Package config loads typed configuration from environment variables.
//
// Each package in this module declares its own Config struct with
// github.com/caarlos0/env tags; binaries load them through Load or MustLoad.
// A .env file in the working directory is read once, on the first Load,
// through github.com/joho/godotenv. Parsed values are cached per type.
//
//	var apiCfg backend.Config
//	config.MustLoad(&apiCfg)
//
//	var chanCfg livechannel.Config
//	config.MustLoad(&chanCfg)
package config
