package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/lib/pq"

	"github.com/seuros/funnelscope/internal/dataset"
	"github.com/seuros/funnelscope/internal/logging"
)

// SnapshotChannel is the NOTIFY channel announcing a completed import.
const SnapshotChannel = "funnelscope_snapshot"

// ImportEvent is the NOTIFY payload of SnapshotChannel.
type ImportEvent struct {
	Months     []string  `json:"months"`
	ImportedAt time.Time `json:"imported_at"`
}

var errNoDB = errors.New("database is not connected")

// LoadSnapshot reads the stored snapshot. With no months every stored month
// is loaded.
func LoadSnapshot(ctx context.Context, months []string) (*dataset.Snapshot, error) {
	if DB == nil {
		return nil, errNoDB
	}

	filter := ""
	var args []any
	if len(months) > 0 {
		filter = "WHERE month = ANY($1)"
		args = append(args, pq.Array(months))
	}

	snapshot := &dataset.Snapshot{}
	if err := loadStages(ctx, snapshot, filter, args); err != nil {
		return nil, err
	}
	if err := loadErrorCodes(ctx, snapshot, filter, args); err != nil {
		return nil, err
	}
	if err := loadFailureReasons(ctx, snapshot, filter, args); err != nil {
		return nil, err
	}
	if err := loadLoginPageURLs(ctx, snapshot, filter, args); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func closeRows(rows *sql.Rows, table string) {
	if err := rows.Close(); err != nil {
		logging.L().Warn("failed to close rows", "table", table, "error", err)
	}
}

func loadStages(ctx context.Context, snapshot *dataset.Snapshot, filter string, args []any) error {
	rows, err := DB.QueryContext(ctx, `
		SELECT month, country, definition
		FROM funnel_stage `+filter+`
		ORDER BY month, country, position`, args...)
	if err != nil {
		return fmt.Errorf("failed to query funnel stages: %w", err)
	}
	defer closeRows(rows, "funnel_stage")

	for rows.Next() {
		var month, country string
		var definition []byte
		if err := rows.Scan(&month, &country, &definition); err != nil {
			return fmt.Errorf("failed to scan funnel stage: %w", err)
		}
		stage, err := dataset.DecodeStage(definition)
		if err != nil {
			return fmt.Errorf("funnel stage %s/%s: %w", month, country, err)
		}
		snapshot.AddStage(month, dataset.Country(country), stage)
	}
	return rows.Err()
}

func loadErrorCodes(ctx context.Context, snapshot *dataset.Snapshot, filter string, args []any) error {
	rows, err := DB.QueryContext(ctx, `
		SELECT month, country, txn_type, code, count
		FROM error_code `+filter+`
		ORDER BY month, country, txn_type, position`, args...)
	if err != nil {
		return fmt.Errorf("failed to query error codes: %w", err)
	}
	defer closeRows(rows, "error_code")

	for rows.Next() {
		var key dataset.Key
		var rec dataset.ErrorCodeRecord
		if err := rows.Scan(&key.Month, &key.Country, &key.TxnType, &rec.Code, &rec.Count); err != nil {
			return fmt.Errorf("failed to scan error code: %w", err)
		}
		snapshot.AddErrorCode(key, rec)
	}
	return rows.Err()
}

func loadFailureReasons(ctx context.Context, snapshot *dataset.Snapshot, filter string, args []any) error {
	rows, err := DB.QueryContext(ctx, `
		SELECT month, country, txn_type, mth, cnt, last_intrnl_err_code, failure_reason
		FROM failure_reason `+filter+`
		ORDER BY month, country, txn_type, position`, args...)
	if err != nil {
		return fmt.Errorf("failed to query failure reasons: %w", err)
	}
	defer closeRows(rows, "failure_reason")

	for rows.Next() {
		var key dataset.Key
		var rec dataset.FailureReasonRecord
		if err := rows.Scan(&key.Month, &key.Country, &key.TxnType, &rec.Month, &rec.Count, &rec.LastInternalErrCode, &rec.FailureReason); err != nil {
			return fmt.Errorf("failed to scan failure reason: %w", err)
		}
		snapshot.AddFailureReason(key, rec)
	}
	return rows.Err()
}

func loadLoginPageURLs(ctx context.Context, snapshot *dataset.Snapshot, filter string, args []any) error {
	rows, err := DB.QueryContext(ctx, `
		SELECT month, country, bucket, pu_grouped, cnt
		FROM login_page_url `+filter+`
		ORDER BY month, country, bucket, position`, args...)
	if err != nil {
		return fmt.Errorf("failed to query login page urls: %w", err)
	}
	defer closeRows(rows, "login_page_url")

	for rows.Next() {
		var key dataset.Key
		var bucket string
		var rec dataset.LoginPageURLRecord
		if err := rows.Scan(&key.Month, &key.Country, &bucket, &rec.PageURL, &rec.Count); err != nil {
			return fmt.Errorf("failed to scan login page url: %w", err)
		}
		snapshot.AddLoginPageURL(key, bucket, rec)
	}
	return rows.Err()
}

// ImportSnapshot replaces every month present in snapshot with its content
// and announces the import on SnapshotChannel. Months not in snapshot are
// left untouched.
func ImportSnapshot(ctx context.Context, snapshot *dataset.Snapshot) (ImportEvent, error) {
	if DB == nil {
		return ImportEvent{}, errNoDB
	}
	event := ImportEvent{Months: importMonths(snapshot), ImportedAt: nowFunc().UTC()}
	if len(event.Months) == 0 {
		return event, errors.New("snapshot contains no months")
	}

	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return event, fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, table := range []string{"funnel_stage", "error_code", "failure_reason", "login_page_url"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE month = ANY($1)", pq.Array(event.Months)); err != nil {
			return event, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := insertStages(ctx, tx, snapshot); err != nil {
		return event, err
	}
	if err := insertErrorCodes(ctx, tx, snapshot); err != nil {
		return event, err
	}
	if err := insertFailureReasons(ctx, tx, snapshot); err != nil {
		return event, err
	}
	if err := insertLoginPageURLs(ctx, tx, snapshot); err != nil {
		return event, err
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO snapshot_import (months, imported_at) VALUES ($1, $2)",
		pq.Array(event.Months), event.ImportedAt); err != nil {
		return event, fmt.Errorf("failed to record import: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return event, fmt.Errorf("failed to encode import event: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "SELECT pg_notify($1, $2)", SnapshotChannel, string(payload)); err != nil {
		return event, fmt.Errorf("failed to notify import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return event, fmt.Errorf("failed to commit import: %w", err)
	}
	logging.L().Info("snapshot imported", "months", event.Months)
	return event, nil
}

var nowFunc = time.Now

// importMonths lists every month named by any table, ascending.
func importMonths(snapshot *dataset.Snapshot) []string {
	seen := map[string]struct{}{}
	for month := range snapshot.Funnels {
		seen[month] = struct{}{}
	}
	for month := range snapshot.ErrorCodeTable {
		seen[month] = struct{}{}
	}
	for month := range snapshot.FailureReasonTable {
		seen[month] = struct{}{}
	}
	for month := range snapshot.LoginPageURLTable {
		seen[month] = struct{}{}
	}
	return sortedKeys(seen)
}

func insertStages(ctx context.Context, tx *sql.Tx, snapshot *dataset.Snapshot) error {
	for _, month := range sortedKeys(snapshot.Funnels) {
		for _, country := range sortedKeys(snapshot.Funnels[month]) {
			for position, stage := range snapshot.Funnels[month][country] {
				definition, err := json.Marshal(stage)
				if err != nil {
					return fmt.Errorf("failed to encode stage %s: %w", stage.Stage, err)
				}
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO funnel_stage (month, country, position, stage, definition)
					VALUES ($1, $2, $3, $4, $5)`,
					month, string(country), position, stage.Stage, definition); err != nil {
					return fmt.Errorf("failed to insert stage %s/%s/%s: %w", month, country, stage.Stage, err)
				}
			}
		}
	}
	return nil
}

func insertErrorCodes(ctx context.Context, tx *sql.Tx, snapshot *dataset.Snapshot) error {
	for _, month := range sortedKeys(snapshot.ErrorCodeTable) {
		for _, country := range sortedKeys(snapshot.ErrorCodeTable[month]) {
			for _, txn := range sortedKeys(snapshot.ErrorCodeTable[month][country]) {
				for position, rec := range snapshot.ErrorCodeTable[month][country][txn] {
					if _, err := tx.ExecContext(ctx, `
						INSERT INTO error_code (month, country, txn_type, position, code, count)
						VALUES ($1, $2, $3, $4, $5, $6)`,
						month, string(country), string(txn), position, rec.Code, rec.Count); err != nil {
						return fmt.Errorf("failed to insert error code %s: %w", rec.Code, err)
					}
				}
			}
		}
	}
	return nil
}

func insertFailureReasons(ctx context.Context, tx *sql.Tx, snapshot *dataset.Snapshot) error {
	for _, month := range sortedKeys(snapshot.FailureReasonTable) {
		for _, country := range sortedKeys(snapshot.FailureReasonTable[month]) {
			for _, txn := range sortedKeys(snapshot.FailureReasonTable[month][country]) {
				for position, rec := range snapshot.FailureReasonTable[month][country][txn] {
					if _, err := tx.ExecContext(ctx, `
						INSERT INTO failure_reason (month, country, txn_type, position, mth, cnt, last_intrnl_err_code, failure_reason)
						VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
						month, string(country), string(txn), position, rec.Month, rec.Count, rec.LastInternalErrCode, rec.FailureReason); err != nil {
						return fmt.Errorf("failed to insert failure reason %s: %w", rec.LastInternalErrCode, err)
					}
				}
			}
		}
	}
	return nil
}

func insertLoginPageURLs(ctx context.Context, tx *sql.Tx, snapshot *dataset.Snapshot) error {
	for _, month := range sortedKeys(snapshot.LoginPageURLTable) {
		for _, country := range sortedKeys(snapshot.LoginPageURLTable[month]) {
			for _, bucket := range sortedKeys(snapshot.LoginPageURLTable[month][country]) {
				for position, rec := range snapshot.LoginPageURLTable[month][country][bucket] {
					if _, err := tx.ExecContext(ctx, `
						INSERT INTO login_page_url (month, country, bucket, position, pu_grouped, cnt)
						VALUES ($1, $2, $3, $4, $5, $6)`,
						month, string(country), bucket, position, rec.PageURL, rec.Count); err != nil {
						return fmt.Errorf("failed to insert login page url %s: %w", rec.PageURL, err)
					}
				}
			}
		}
	}
	return nil
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
