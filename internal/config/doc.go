// Package config loads and validates the curation-gateway YAML configuration.
//
// Configuration is static: it is read once at process start. ${VAR_NAME}
// patterns in the raw file are expanded from the environment before parsing,
// and duration fields are given as Go duration strings ("30s", "2m").
//
// Example:
//
//	server:
//	  http_addr: ":3001"
//	storage:
//	  data_dir: "public/data"
//	  backup_dir: "backups"
//	  max_examples: 10
//	backends:
//	  cognos: "http://cognos-api:8001"
//	  microstrategy: "http://mstr-api:8002"
//	  tableau: "http://tableau-api:8003"
//	  request_timeout: "30s"
//	audit:
//	  path: "curation-audit.db"
//	logging:
//	  level: "info"
//	  format: "text"
package config
