package pkgdb

const schema = `
CREATE TABLE IF NOT EXISTS packages (
    name TEXT PRIMARY KEY,
    version TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS scripts (
    package TEXT NOT NULL,
    type TEXT NOT NULL,
    script TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
    package TEXT NOT NULL,
    path TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    checksum TEXT,
    uid INTEGER,
    gid INTEGER,
    flags INTEGER,
    mode INTEGER
);

CREATE INDEX IF NOT EXISTS idx_scripts_package ON scripts(package);
CREATE INDEX IF NOT EXISTS idx_files_package ON files(package);
`
