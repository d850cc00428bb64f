package commands

//go:generate mockgen -source=admission.go -destination=../../../tests/mock/commands/mock_admission.go -package=commandsmock

import (
	"context"
	"log/slog"
	"sort"

	"slot-reservation-engine/internal/domain/activity"
	"slot-reservation-engine/internal/domain/reservation"
	"slot-reservation-engine/internal/domain/slot"
	"slot-reservation-engine/internal/infra"
	"slot-reservation-engine/internal/pkg/clock"
	"slot-reservation-engine/internal/pkg/errs"
	"slot-reservation-engine/internal/usecase/shared"
)

// SlotRequest is one booking as the request layer received it.
type SlotRequest struct {
	// ActivityRef is a row id ("42"), a textual id ("yoga", "yoga-2") or empty,
	// in which case the time slot's prefix names the activity.
	ActivityRef string
	TimeSlotID  string
	// ExplicitRowID wins over ActivityRef when set; it must still exist.
	ExplicitRowID *int64
	Attachment    *string
}

type ReserveParams struct {
	SubjectID string
	SlotRequest
	ReplaceAll bool
}

type ReserveResult struct {
	Records []*reservation.Record
	// Replaced holds the records removed by a replace-all, empty otherwise.
	Replaced []*reservation.Record
}

type AdmissionCommands interface {
	Reserve(ctx context.Context, p ReserveParams) (*ReserveResult, error)
	// ReplaceAllForSubject swaps the subject's whole reservation set for reqs in one
	// transaction. An empty reqs clears the set.
	// The subject's current seats are released before capacity is checked, so a
	// subject holding the last seat of a full activity may book it again. Any
	// failure rolls the release back with the rest.
	ReplaceAllForSubject(ctx context.Context, subjectID string, reqs []SlotRequest) (*ReserveResult, error)
	Cancel(ctx context.Context, subjectID, activityKey string) (bool, error)
}

type admissionUseCaseImpl struct {
	uow   shared.UnitOfWork
	cache shared.CapacityCache
	codec slot.Codec
	clock clock.Clock
}

func NewAdmissionUseCase(
	uow shared.UnitOfWork,
	cache shared.CapacityCache,
	codec slot.Codec,
	clock clock.Clock,
) AdmissionCommands {
	return &admissionUseCaseImpl{
		uow:   uow,
		cache: cache,
		codec: codec,
		clock: clock,
	}
}

type parsedRequest struct {
	explicit   slot.Ref
	req        slot.Request
	attachment *reservation.AttachmentRef
}

func (u *admissionUseCaseImpl) Reserve(ctx context.Context, p ReserveParams) (*ReserveResult, error) {
	return u.admit(ctx, p.SubjectID, []SlotRequest{p.SlotRequest}, p.ReplaceAll)
}

func (u *admissionUseCaseImpl) ReplaceAllForSubject(ctx context.Context, subjectID string, reqs []SlotRequest) (*ReserveResult, error) {
	return u.admit(ctx, subjectID, reqs, true)
}

func (u *admissionUseCaseImpl) admit(ctx context.Context, rawSubject string, reqs []SlotRequest, replaceAll bool) (*ReserveResult, error) {
	subject, err := reservation.NewSubjectID(rawSubject)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 && !replaceAll {
		return nil, errs.Wrap(errs.ErrInvalidSlotIdentifier, "no slot requested")
	}

	parsed := make([]parsedRequest, 0, len(reqs))
	for _, r := range reqs {
		pr, err := u.parse(r)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, pr)
	}

	var (
		result  *ReserveResult
		touched []string
	)
	err = u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		// every attempt starts from scratch and re-reads the store
		result, touched = nil, nil

		res, ids, err := u.admitInTx(ctx, tx, subject, parsed, replaceAll)
		if err != nil {
			return err
		}
		result, touched = res, ids
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.cache.Invalidate(ctx, touched...)

	for _, rec := range result.Records {
		slog.Info("reservation admitted",
			"subject_id", subject.String(),
			"slot_key", rec.Key().String(),
			"replace_all", replaceAll,
		)
	}
	return result, nil
}

func (u *admissionUseCaseImpl) parse(r SlotRequest) (parsedRequest, error) {
	req, err := u.codec.Resolve(r.ActivityRef, r.TimeSlotID)
	if err != nil {
		return parsedRequest{}, err
	}

	var explicit slot.Ref
	if r.ExplicitRowID != nil {
		if *r.ExplicitRowID < 1 {
			return parsedRequest{}, errs.Wrapf(errs.ErrInvalidSlotIdentifier, "explicit activity key %d out of range", *r.ExplicitRowID)
		}
		explicit = slot.RowRef(*r.ExplicitRowID)
	}

	attachment, err := reservation.NewAttachmentRef(r.Attachment)
	if err != nil {
		return parsedRequest{}, err
	}

	return parsedRequest{explicit: explicit, req: req, attachment: attachment}, nil
}

func (u *admissionUseCaseImpl) admitInTx(
	ctx context.Context,
	tx shared.Tx,
	subject reservation.SubjectID,
	parsed []parsedRequest,
	replaceAll bool,
) (*ReserveResult, []string, error) {
	if err := tx.Ledger().LockSubject(ctx, subject); err != nil {
		return nil, nil, err
	}

	keys := make([]slot.Key, 0, len(parsed))
	for _, pr := range parsed {
		key, err := u.resolveKey(ctx, tx.Activities(), pr)
		if err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
	}

	existing, err := tx.Ledger().ListBySubject(ctx, subject)
	if err != nil {
		return nil, nil, err
	}

	lockIDs := make([]string, 0, len(keys)+len(existing))
	for _, k := range keys {
		lockIDs = append(lockIDs, k.ActivityID)
	}
	if replaceAll {
		for _, rec := range existing {
			lockIDs = append(lockIDs, rec.ActivityID())
		}
	}
	lockIDs = uniqueSorted(lockIDs)

	locked, err := tx.Activities().LockByIDs(ctx, lockIDs)
	if err != nil {
		return nil, nil, err
	}

	for _, k := range keys {
		if _, ok := locked[k.ActivityID]; !ok {
			return nil, nil, errs.Wrapf(errs.ErrSlotNotFound, "activity %q", k.ActivityID)
		}
		ok, err := tx.Activities().HasSlot(ctx, k)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, errs.Wrapf(errs.ErrSlotNotFound, "time slot %s", k.String())
		}
	}

	changed := make(map[string]*activity.Activity)
	result := &ReserveResult{}

	if replaceAll {
		removed, err := tx.Ledger().DeleteBySubject(ctx, subject)
		if err != nil {
			return nil, nil, err
		}
		for _, rec := range removed {
			a, ok := locked[rec.ActivityID()]
			if !ok {
				continue
			}
			if !a.Release() {
				slog.Warn("participant counter already at zero on release",
					"activity_id", a.ID(),
					"subject_id", subject.String(),
				)
			}
			changed[a.ID()] = a
		}
		result.Replaced = removed
	} else {
		for _, rec := range existing {
			for _, k := range keys {
				if rec.ActivityID() == k.ActivityID {
					return nil, nil, errs.Wrapf(errs.ErrAlreadyReserved, "subject %q on %q", subject.String(), k.ActivityID)
				}
			}
		}
	}

	seen := make(map[string]struct{}, len(keys))
	for i, k := range keys {
		if _, dup := seen[k.ActivityID]; dup {
			return nil, nil, errs.Wrapf(errs.ErrAlreadyReserved, "activity %q requested twice", k.ActivityID)
		}
		seen[k.ActivityID] = struct{}{}

		a := locked[k.ActivityID]
		if err := a.Admit(); err != nil {
			return nil, nil, err
		}
		changed[a.ID()] = a

		rec := reservation.NewRecord(subject, k, parsed[i].attachment, u.clock.Now())
		if err := tx.Ledger().Insert(ctx, rec); err != nil {
			return nil, nil, translateRepoErr(err)
		}
		result.Records = append(result.Records, rec)
	}

	touched := make([]string, 0, len(changed))
	for id := range changed {
		touched = append(touched, id)
	}
	sort.Strings(touched)
	for _, id := range touched {
		if err := tx.Activities().SaveCounter(ctx, changed[id]); err != nil {
			return nil, nil, translateRepoErr(err)
		}
	}

	return result, touched, nil
}

// resolveKey turns a parsed request into the canonical key of an existing activity.
func (u *admissionUseCaseImpl) resolveKey(ctx context.Context, repo shared.ActivityRepository, pr parsedRequest) (slot.Key, error) {
	ref := pr.req.Activity
	if pr.explicit.IsRow() {
		ref = pr.explicit
	}

	id, err := u.activityIDFor(ctx, repo, ref)
	if err != nil {
		return slot.Key{}, err
	}
	return u.codec.KeyFor(id, pr.req.Slot)
}

// activityIDFor loads ref and applies the variant policy to the stored id, so a
// row reference to "foo-2" lands on "foo" when variants share one pool.
func (u *admissionUseCaseImpl) activityIDFor(ctx context.Context, repo shared.ActivityRepository, ref slot.Ref) (string, error) {
	if !ref.IsRow() {
		return ref.ActivityID, nil
	}
	a, err := repo.Resolve(ctx, ref)
	if err != nil {
		return "", translateRepoErr(err)
	}
	return u.codec.Canonicalize(a.ID()), nil
}

func (u *admissionUseCaseImpl) Cancel(ctx context.Context, subjectID, activityKey string) (bool, error) {
	subject, err := reservation.NewSubjectID(subjectID)
	if err != nil {
		return false, err
	}
	ref, err := u.codec.ParseRef(activityKey)
	if err != nil {
		return false, err
	}

	var removed *reservation.Record
	err = u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		removed = nil

		if err := tx.Ledger().LockSubject(ctx, subject); err != nil {
			return err
		}

		id, err := u.activityIDFor(ctx, tx.Activities(), ref)
		if err != nil {
			if errs.Is(err, errs.ErrSlotNotFound) {
				return nil
			}
			return err
		}

		locked, err := tx.Activities().LockByIDs(ctx, []string{id})
		if err != nil {
			return err
		}
		a, ok := locked[id]
		if !ok {
			return nil
		}

		rec, err := tx.Ledger().Delete(ctx, subject, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}

		if !a.Release() {
			slog.Warn("participant counter already at zero on cancel",
				"activity_id", a.ID(),
				"subject_id", subject.String(),
			)
		}
		if err := tx.Activities().SaveCounter(ctx, a); err != nil {
			return translateRepoErr(err)
		}
		removed = rec
		return nil
	})
	if err != nil {
		return false, err
	}
	if removed == nil {
		return false, nil
	}

	u.cache.Invalidate(ctx, removed.ActivityID())
	slog.Info("reservation cancelled",
		"subject_id", subject.String(),
		"slot_key", removed.Key().String(),
	)
	return true, nil
}

// translateRepoErr marks storage kinds with the matching domain sentinel. The
// repository error stays in the chain so retry classification still works.
func translateRepoErr(err error) error {
	switch {
	case infra.IsKind(err, infra.KindNotFound), infra.IsKind(err, infra.KindForeignKeyViolated):
		return errs.Mark(err, errs.ErrSlotNotFound)
	case infra.IsKind(err, infra.KindDuplicateKey):
		return errs.Mark(err, errs.ErrAlreadyReserved)
	default:
		return err
	}
}

func uniqueSorted(ids []string) []string {
	sort.Strings(ids)
	out := ids[:0]
	for _, id := range ids {
		if len(out) > 0 && out[len(out)-1] == id {
			continue
		}
		out = append(out, id)
	}
	return out
}
