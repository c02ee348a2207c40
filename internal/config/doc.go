// Package config loads the tide.yaml / tide.json project configuration.
//
// Load looks for tide.yaml, tide.yml and then tide.json in a directory.
// YAML and JSON share one schema; durations are strings such as "30s".
//
//	server:
//	  host: ""
//	  port: 8080
//	  title: Tide
//	  readTimeout: 60s
//	  heartbeatInterval: 30s
//	  maxSessions: 1000
//	runtime:
//	  maxFlushRounds: 100
//	  queueSize: 256
//	log:
//	  level: info
//	  format: text
//	  file: logs/tide.json
//	metrics:
//	  enabled: true
//	  path: /metrics
//	tracing:
//	  enabled: false
//	snapshot:
//	  backend: redis
//	  redisAddr: localhost:6379
//	  ttl: 24h
//
// Errors carry codes from internal/errors: E120 when no file is found,
// E122 for syntax errors (with the offending line), E121 and E123 from
// Validate.
package config
