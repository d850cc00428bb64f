package repository

import (
	"context"

	"slot-reservation-engine/internal/domain/reservation"
	"slot-reservation-engine/internal/domain/slot"
	"slot-reservation-engine/internal/infra"
	"slot-reservation-engine/internal/infra/db"
	"slot-reservation-engine/internal/pkg/pgconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	reservationColumns = `id, subject_id, activity_id, slot_index, attachment_ref, created_at`

	// released at commit or rollback
	lockSubject = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`

	insertReservation = `INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`

	listReservationsBySubject = `SELECT ` + reservationColumns + ` FROM reservations
		WHERE subject_id = $1
		ORDER BY created_at, activity_id`

	deleteReservationsBySubject = `DELETE FROM reservations
		WHERE subject_id = $1
		RETURNING ` + reservationColumns

	deleteReservation = `DELETE FROM reservations
		WHERE subject_id = $1 AND activity_id = $2
		RETURNING ` + reservationColumns

	countReservationsByActivity = `SELECT count(*) FROM reservations WHERE activity_id = $1`
)

type LedgerRepository struct {
	db db.DBTX
}

func NewLedgerRepository(dbtx db.DBTX) *LedgerRepository {
	return &LedgerRepository{db: dbtx}
}

func (r *LedgerRepository) LockSubject(ctx context.Context, subject reservation.SubjectID) error {
	if _, err := r.db.Exec(ctx, lockSubject, subject.String()); err != nil {
		return infra.WrapRepoErr("failed to lock subject", err)
	}
	return nil
}

func (r *LedgerRepository) Insert(ctx context.Context, rec *reservation.Record) error {
	_, err := r.db.Exec(ctx, insertReservation,
		pgconv.UUIDToPgtype(rec.ID()),
		rec.SubjectID().String(),
		rec.ActivityID(),
		rec.SlotIndex(),
		pgconv.StringPtrToPgtype(rec.Attachment().Ptr()),
		pgconv.TimeToPgtype(rec.CreatedAt()),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to insert reservation", err)
	}
	return nil
}

func (r *LedgerRepository) ListBySubject(ctx context.Context, subject reservation.SubjectID) ([]*reservation.Record, error) {
	rows, err := r.db.Query(ctx, listReservationsBySubject, subject.String())
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list reservations", err)
	}
	return collectRecords(rows, "failed to list reservations")
}

func (r *LedgerRepository) DeleteBySubject(ctx context.Context, subject reservation.SubjectID) ([]*reservation.Record, error) {
	rows, err := r.db.Query(ctx, deleteReservationsBySubject, subject.String())
	if err != nil {
		return nil, infra.WrapRepoErr("failed to delete reservations", err)
	}
	return collectRecords(rows, "failed to delete reservations")
}

func (r *LedgerRepository) Delete(ctx context.Context, subject reservation.SubjectID, activityID string) (*reservation.Record, error) {
	rec, err := scanRecord(r.db.QueryRow(ctx, deleteReservation, subject.String(), activityID))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to delete reservation", err)
	}
	return rec, nil
}

func (r *LedgerRepository) CountByActivity(ctx context.Context, activityID string) (int, error) {
	var n int64
	if err := r.db.QueryRow(ctx, countReservationsByActivity, activityID).Scan(&n); err != nil {
		return 0, infra.WrapRepoErr("failed to count reservations", err)
	}
	return int(n), nil
}

func collectRecords(rows pgx.Rows, msg string) ([]*reservation.Record, error) {
	defer rows.Close()

	var result []*reservation.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, infra.WrapRepoErr(msg, err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(msg, err)
	}
	return result, nil
}

func scanRecord(row pgx.Row) (*reservation.Record, error) {
	var (
		id         pgtype.UUID
		subjectID  string
		activityID string
		slotIndex  int32
		attachment pgtype.Text
		createdAt  pgtype.Timestamptz
	)
	if err := row.Scan(&id, &subjectID, &activityID, &slotIndex, &attachment, &createdAt); err != nil {
		return nil, err
	}
	return reservation.ReconstructRecord(
		pgconv.UUIDFromPgtype(id),
		subjectID,
		slot.ComposeKey(activityID, int(slotIndex)),
		pgconv.StringPtrFromPgtype(attachment),
		pgconv.TimeFromPgtype(createdAt),
	), nil
}
