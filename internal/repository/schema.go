package repository

// Schema definitions for the Kestrel database.
// Compatible with both SQLite and PostgreSQL.

// schemaObservations holds scored rows. seq is the row's position in the
// imported file and defines Record Store order.
const schemaObservations = `
CREATE TABLE IF NOT EXISTS observations (
    dataset TEXT NOT NULL,
    seq INTEGER NOT NULL,
    year INTEGER NOT NULL,
    statement_type TEXT NOT NULL,
    mad DOUBLE PRECISION NOT NULL,
    chi_square DOUBLE PRECISION NOT NULL,
    avg_z_score DOUBLE PRECISION NOT NULL,
    anomaly_score DOUBLE PRECISION NOT NULL,
    fraud_flag INTEGER NOT NULL,
    PRIMARY KEY (dataset, seq)
);

CREATE INDEX IF NOT EXISTS idx_observations_facets ON observations(dataset, year, statement_type);
`

const schemaDatasets = `
CREATE TABLE IF NOT EXISTS datasets (
    name TEXT PRIMARY KEY,
    row_count INTEGER NOT NULL,
    imported_at TIMESTAMP NOT NULL
);
`

const schemaScreens = `
CREATE TABLE IF NOT EXISTS screens (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    expression TEXT NOT NULL,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaObservations,
		schemaDatasets,
		schemaScreens,
	}
}
