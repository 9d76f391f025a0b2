// Package config loads and watches the pccalc configuration file (config.yaml).
//
// Top-level types:
//   - Config{LogLevel, Event, Source, Server, Store, Alerts} parsed from YAML
//   - EventConfig: event name, bib_order (ascending|descending) and the target
//     time per section ("PC1": "00:05:00.00" or plain seconds)
//   - SourceConfig: where CSV files come from (dir | github), the refresh interval
//     and whether to watch a local directory for changes
//   - ServerConfig: HTTP/gRPC ports, API key auth and the WebSocket broadcast interval
//   - AlertsConfig: data-quality rules and webhook targets
//
// Load(path) reads the YAML file, applies defaults (120s refresh, ports 8080/50051,
// descending bib order), then validates enums, ports and target times.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. Invalid reloads are logged and skipped.
package config
