// Package config loads the application configuration and the column
// catalog that drives export parsing.
//
// # Configuration Sources
//
// Load layers three sources, later ones winning:
//
//  1. Default values
//  2. A YAML file: COPILOT_CONFIG, else config.yaml or configs/config.yaml
//     in the working directory, else the same names next to the executable
//  3. Environment variables
//
// Environment variables are read with envconfig under the COPILOT prefix:
//
//	COPILOT_SERVER_PORT=8080
//	COPILOT_SERVER_RATE_LIMIT_ENABLED=false
//	COPILOT_LOGGING_LEVEL=debug
//	COPILOT_ANALYSIS_INBOX_DIR=/data/inbox
//	COPILOT_ANALYSIS_MANUFACTURER=CATERPILLAR
//
// # Column Catalog
//
// The catalog maps the raw headers of each export kind to canonical field
// names and gives the file name patterns used to classify an inbox. The
// default is embedded from columns.yaml; COPILOT_ANALYSIS_COLUMN_CATALOG
// points at a replacement file with the same layout.
//
//	cat, err := config.LoadCatalog(cfg.Analysis.ColumnCatalog)
//	kind, ok := cat.ClassifyFile("pointage_mars.xlsx")
package config
