// Package config provides configuration loading for the ridership event-effect tools.
//
// # Configuration Sources
//
// Configuration is layered in the following order of precedence:
//
//	1. Environment variables (highest priority, prefix RIDERSHIP_)
//	2. YAML configuration file (path from -config or RIDERSHIP_CONFIG)
//	3. Default values (lowest priority)
//
// A .env file in the working directory is loaded into the environment first
// when present.
//
// # Environment Variables
//
//	RIDERSHIP_LOGGING_LEVEL=debug
//	RIDERSHIP_PATHS_DATA_DIR=/srv/ridership/data
//	RIDERSHIP_REGRESSION_SCORING=r2
//	RIDERSHIP_WAREHOUSE_DSN=postgres://planning@warehouse/ridership
//
// # Stations and Venues
//
// The station → event column mapping and the venue filters are only read
// from the YAML file:
//
//	stations:
//	  - name: addison
//	    station_ids: ["1420"]
//	    event_columns:
//	      - sport_game_attendance_fri
//	      - sport_game_attendance_sat
//	venues:
//	  - name: Wrigley Field
//	    slug: wrigley
//	    home_teams: ["Chicago Cubs"]
//	    seasons: [2023]
//
// # Paths
//
// NewPaths resolves every directory relative to an explicit base directory
// and returns a Paths value that is handed to each stage. Nothing in the
// tools reads the process working directory to find data.
package config
