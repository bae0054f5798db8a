package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the log-only view of an error: the typed code, every layer
// of the wrap chain, and Postgres diagnostics when a driver error is inside.
// None of it is sent to clients.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`
	Postgres   *PGInfo  `json:"postgres,omitempty"`
}

type PGInfo struct {
	Code       string `json:"code"`
	Message    string `json:"message,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Constraint string `json:"constraint,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error(), Code: CodeOf(err), Postgres: pgInfo(err)}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	return d
}

// pgInfo understands both pgx (gorm's postgres driver) and lib/pq errors.
func pgInfo(err error) *PGInfo {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &PGInfo{
			Code:       pgxErr.Code,
			Message:    pgxErr.Message,
			Detail:     pgxErr.Detail,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Constraint: pgxErr.ConstraintName,
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &PGInfo{
			Code:       string(pqErr.Code),
			Message:    pqErr.Message,
			Detail:     pqErr.Detail,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Constraint: pqErr.Constraint,
		}
	}
	return nil
}

// Fields flattens the dump for structured logging.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{"error_chain": d.Chain}
	if d.Code != "" {
		fields["error_code"] = string(d.Code)
	}
	if pg := d.Postgres; pg != nil {
		fields["pg_code"] = pg.Code
		fields["pg_message"] = pg.Message
		if pg.Constraint != "" {
			fields["pg_constraint"] = pg.Constraint
		}
		if pg.Table != "" {
			fields["pg_table"] = pg.Table
		}
		if pg.Detail != "" {
			fields["pg_detail"] = pg.Detail
		}
	}
	return fields
}
