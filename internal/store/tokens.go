package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// Representation names stored in the tokens table.
const (
	RepresentationCBOR = "cbor"
	RepresentationJWT  = "jwt"
)

// Token is a cached UCAN: its CID, the issuer/audience DIDs and expiry
// extracted for querying, and the encoded bytes themselves.
type Token struct {
	Cid            string `json:"cid"`
	Iss            string `json:"iss"`
	Aud            string `json:"aud"`
	Exp            *int64 `json:"exp"`
	Representation string `json:"representation"`
	Data           []byte `json:"data"`
	CachedAt       string `json:"cached_at,omitempty"`
}

// QueryFilters holds filters for FindBy.
type QueryFilters struct {
	Iss           *string
	Aud           *string
	ExpiresAfter  *int64
	ExpiresBefore *int64
}

// Insert caches a token. Re-inserting the same CID overwrites the
// cached row (a token's bytes are a pure function of its CID, so this
// can only ever be the same value written again).
func Insert(db *sql.DB, t Token) error {
	stmt, err := db.Prepare(`
		INSERT OR REPLACE INTO tokens (cid, iss, aud, exp, representation, data)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare token insert: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(t.Cid, t.Iss, t.Aud, t.Exp, t.Representation, t.Data); err != nil {
		return fmt.Errorf("failed to insert token: %w", err)
	}

	return nil
}

// GetByCID retrieves a cached token by its CID, or nil if not cached.
func GetByCID(db *sql.DB, cid string) (*Token, error) {
	var t Token
	err := db.QueryRow(`
		SELECT cid, iss, aud, exp, representation, data, cached_at
		FROM tokens WHERE cid = ?
	`, cid).Scan(&t.Cid, &t.Iss, &t.Aud, &t.Exp, &t.Representation, &t.Data, &t.CachedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token by cid: %w", err)
	}

	return &t, nil
}

// FindByIssuer finds all cached tokens issued by iss.
func FindByIssuer(db *sql.DB, iss string) ([]Token, error) {
	rows, err := db.Query(`
		SELECT cid, iss, aud, exp, representation, data, cached_at
		FROM tokens WHERE iss = ? ORDER BY cached_at DESC
	`, iss)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens by issuer: %w", err)
	}
	defer rows.Close()

	return scanTokens(rows)
}

// FindByAudience finds all cached tokens addressed to aud.
func FindByAudience(db *sql.DB, aud string) ([]Token, error) {
	rows, err := db.Query(`
		SELECT cid, iss, aud, exp, representation, data, cached_at
		FROM tokens WHERE aud = ? ORDER BY cached_at DESC
	`, aud)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens by audience: %w", err)
	}
	defer rows.Close()

	return scanTokens(rows)
}

// FindBy finds cached tokens using combined filters.
func FindBy(db *sql.DB, filters QueryFilters) ([]Token, error) {
	var conditions []string
	var params []interface{}

	if filters.Iss != nil {
		conditions = append(conditions, "iss = ?")
		params = append(params, *filters.Iss)
	}
	if filters.Aud != nil {
		conditions = append(conditions, "aud = ?")
		params = append(params, *filters.Aud)
	}
	if filters.ExpiresAfter != nil {
		conditions = append(conditions, "exp >= ?")
		params = append(params, *filters.ExpiresAfter)
	}
	if filters.ExpiresBefore != nil {
		conditions = append(conditions, "exp <= ?")
		params = append(params, *filters.ExpiresBefore)
	}

	query := `
		SELECT cid, iss, aud, exp, representation, data, cached_at
		FROM tokens
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY cached_at DESC"

	rows, err := db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens with filters: %w", err)
	}
	defer rows.Close()

	return scanTokens(rows)
}

// Delete removes a cached token by its CID.
func Delete(db *sql.DB, cid string) error {
	if _, err := db.Exec("DELETE FROM tokens WHERE cid = ?", cid); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

func scanTokens(rows *sql.Rows) ([]Token, error) {
	var tokens []Token

	for rows.Next() {
		var t Token
		if err := rows.Scan(&t.Cid, &t.Iss, &t.Aud, &t.Exp, &t.Representation, &t.Data, &t.CachedAt); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating token rows: %w", err)
	}

	return tokens, nil
}
