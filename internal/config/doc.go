// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation,
// so a player id or server origin can come from the environment:
//
//	player:
//	  id: ${PLAYER_ID}
//	server:
//	  origin: https://game.example.com
package config
