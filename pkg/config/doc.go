// Package config loads mockforce configuration files.
//
// A config file is YAML or JSON (chosen by extension) and may reference
// environment variables as ${VAR} or ${VAR:-default}:
//
//	relations: ./relations.yaml
//	seed:
//	  - seed/accounts.yaml
//	  - seed/**/*.yaml
//	log:
//	  level: ${LOG_LEVEL:-info}
//	  format: text
//
// Files are validated against embedded JSON schemas before decoding.
// Relative paths resolve against the directory of the config file. The
// relations file maps relationship aliases to sObject type names; seed files
// map type names to lists of records and keep field order.
package config
