package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/history"
	"stockroom/internal/core/id"
)

// CompressionAlgo specifies how history payloads are stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

const defaultCompressThreshold = 8 * 1024

type historyRow struct {
	ID                id.ID           `db:"id"`
	EntityType        string          `db:"entity_type"`
	EntityID          id.ID           `db:"entity_id"`
	Action            history.Action  `db:"action"`
	UserID            id.ID           `db:"user_id"`
	Changes           json.RawMessage `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// HistoryRecorder writes sys_history rows. Payloads above the threshold
// are zstd-compressed into changes_compressed.
type HistoryRecorder struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var _ history.Recorder = (*HistoryRecorder)(nil)

// NewHistoryRecorder creates a recorder with the default 8 KiB threshold.
func NewHistoryRecorder(txManager *TxManager) (*HistoryRecorder, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &HistoryRecorder{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: defaultCompressThreshold,
	}, nil
}

// Record implements history.Recorder.
func (r *HistoryRecorder) Record(ctx context.Context, entityType string, entityID id.ID, action history.Action, changes any) error {
	payload, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("marshal history changes: %w", err)
	}

	row := historyRow{
		ID:              id.New(),
		EntityType:      entityType,
		EntityID:        entityID,
		Action:          action,
		UserID:          appctx.GetUserID(ctx),
		Changes:         payload,
		CompressionAlgo: CompressionNone,
		CreatedAt:       time.Now().UTC(),
	}
	if len(payload) > r.compressThreshold {
		row.ChangesCompressed = r.encoder.EncodeAll(payload, nil)
		row.Changes = nil
		row.CompressionAlgo = CompressionZstd
	}

	query, args, err := sq.Insert("sys_history").
		SetMap(StructToMap(row)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("build history insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// EntityHistory returns the newest entries first, decompressing payloads.
func (r *HistoryRecorder) EntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]history.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	query, args, err := sq.Select(ExtractDBColumns[historyRow]()...).
		From("sys_history").
		Where(sq.Eq{"entity_type": entityType, "entity_id": entityID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history select: %w", err)
	}

	var rows []historyRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}

	entries := make([]history.Entry, 0, len(rows))
	for _, row := range rows {
		payload := []byte(row.Changes)
		if row.CompressionAlgo == CompressionZstd && len(row.ChangesCompressed) > 0 {
			payload, err = r.decoder.DecodeAll(row.ChangesCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress history %s: %w", row.ID, err)
			}
		}
		entries = append(entries, history.Entry{
			ID:         row.ID,
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			Action:     row.Action,
			UserID:     row.UserID,
			Changes:    json.RawMessage(payload),
			CreatedAt:  row.CreatedAt,
		})
	}
	return entries, nil
}
