package warehouse

// Schema is a minimal rendition of the warehouse tables this package
// reads. The production warehouse is maintained elsewhere; the schema
// here exists so tests and local fixtures can build a compatible
// database.
const Schema = `
CREATE TABLE IF NOT EXISTS study (
    id_study_tmp  INTEGER PRIMARY KEY AUTOINCREMENT,
    id_lims       TEXT NOT NULL DEFAULT 'SQSCP',
    id_study_lims TEXT NOT NULL,
    name          TEXT
);

CREATE TABLE IF NOT EXISTS study_users (
    id_study_users_tmp INTEGER PRIMARY KEY AUTOINCREMENT,
    id_study_tmp       INTEGER NOT NULL REFERENCES study(id_study_tmp),
    role               TEXT,
    email              TEXT
);

CREATE TABLE IF NOT EXISTS oseq_flowcell (
    id_oseq_flowcell_tmp INTEGER PRIMARY KEY AUTOINCREMENT,
    id_study_tmp         INTEGER NOT NULL REFERENCES study(id_study_tmp),
    experiment_name      TEXT NOT NULL,
    instrument_slot      INTEGER NOT NULL,
    flowcell_id          TEXT
);
`
