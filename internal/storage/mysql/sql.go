package mysql

// Values are opaque JSON documents keyed by string.
const createKVSQL = `
CREATE TABLE IF NOT EXISTS kv_entries (
  k          VARCHAR(255) NOT NULL PRIMARY KEY,
  v          JSON         NOT NULL,
  updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`

const upsertKVSQL = `
INSERT INTO kv_entries (k, v)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE
  v          = VALUES(v),
  updated_at = CURRENT_TIMESTAMP
`

const getKVSQL = `SELECT v FROM kv_entries WHERE k = ?`

const deleteKVSQL = `DELETE FROM kv_entries WHERE k = ?`
