package storage

const initSchemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    start_time   DATETIME NOT NULL,
    camera_model TEXT     NOT NULL,
    camera_id    TEXT     NOT NULL,
    config       TEXT
);

CREATE TABLE IF NOT EXISTS captures (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id INTEGER  NOT NULL REFERENCES sessions (id),
    path       TEXT     NOT NULL,
    timestamp  DATETIME NOT NULL,
    size_bytes INTEGER  NOT NULL
);

CREATE TABLE IF NOT EXISTS speed_samples (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id   INTEGER  NOT NULL REFERENCES sessions (id),
    image_a      TEXT     NOT NULL,
    image_b      TEXT     NOT NULL,
    timestamp    DATETIME NOT NULL,
    distance_km  REAL     NOT NULL,
    duration_sec REAL     NOT NULL,
    speed_kms    REAL     NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
    session_id    INTEGER PRIMARY KEY REFERENCES sessions (id),
    sample_count  INTEGER NOT NULL,
    average_kms   REAL    NOT NULL,
    corrected_kms REAL    NOT NULL
);`

const initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_captures_session ON captures (session_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_samples_session ON speed_samples (session_id, timestamp);`

const (
	insertSessionSQL = `
INSERT INTO sessions (
                      start_time,
                      camera_model,
                      camera_id,
                      config)
VALUES (CURRENT_TIMESTAMP, ?, ?, ?)`

	selectSessionSQL = `
SELECT
    id,
    start_time,
    camera_model,
    camera_id,
    config
FROM sessions
WHERE
    id = ?`

	selectSessionsSQL = `
SELECT
    id,
    start_time,
    camera_model,
    camera_id,
    config
FROM sessions
ORDER BY start_time`

	insertCaptureSQL = `
INSERT INTO captures (session_id,
                      path,
                      timestamp,
                      size_bytes)
VALUES (?, ?, ?, ?)`

	selectCapturesSQL = `
SELECT
    path,
    timestamp,
    size_bytes
FROM captures
WHERE
    session_id = ?
ORDER BY timestamp, id`

	selectSamplesSQL = `
SELECT
    id,
    session_id,
    image_a,
    image_b,
    timestamp,
    distance_km,
    duration_sec,
    speed_kms
FROM speed_samples
WHERE
    session_id = ?
ORDER BY timestamp, id`

	insertResultSQL = `
INSERT INTO results (session_id,
                     sample_count,
                     average_kms,
                     corrected_kms)
VALUES (?, ?, ?, ?)`

	selectResultSQL = `
SELECT
    session_id,
    sample_count,
    average_kms,
    corrected_kms
FROM results
WHERE
    session_id = ?`
)
