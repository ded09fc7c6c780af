package plandb

import (
	"fmt"

	"github.com/gokando/tempnet/internal/engine"
	"github.com/gokando/tempnet/internal/txlog"
)

// Replay re-executes every record in log against pdb, in order,
// reconstructing the same sequence of objects/tokens/transitions. It
// lives here rather than in internal/txlog because replay needs both
// engine and plandb, and txlog must not import either (see txlog.go's
// package doc).
//
// Keys are reassigned deterministically by pdb's own registry as each
// create-kind record is replayed, so a record referencing an earlier
// key (e.g. a merge's "onto") is resolved through the objKeys/tokKeys
// maps built up along the way rather than trusting the original key to
// still be valid.
func Replay(log *txlog.Log, pdb *PlanDatabase) error {
	objKeys := map[int64]*Object{}
	tokKeys := map[int64]*Token{}

	for _, r := range log.Records() {
		payload, _ := r.Payload.(map[string]any)
		switch r.Kind {
		case "createObject":
			typ, _ := payload["type"].(string)
			name, _ := payload["name"].(string)
			timeline, _ := payload["timeline"].(bool)
			objKeys[r.TargetKey] = pdb.CreateObject(typ, name, nil, timeline)

		case "createToken":
			predicate, _ := payload["predicate"].(string)
			rejectable, _ := payload["rejectable"].(bool)
			tokKeys[r.TargetKey] = pdb.CreateToken(predicate, rejectable)

		case "addToken":
			o := objKeys[r.TargetKey]
			tk, ok := keyOf(payload["token"])
			if o == nil || !ok {
				continue
			}
			if err := pdb.AddToken(o, tokKeys[tk]); err != nil {
				return fmt.Errorf("replay addToken: %w", err)
			}

		case "activate":
			if t := tokKeys[r.TargetKey]; t != nil {
				if err := pdb.Activate(t); err != nil {
					return fmt.Errorf("replay activate: %w", err)
				}
			}

		case "reject":
			if t := tokKeys[r.TargetKey]; t != nil {
				if err := pdb.Reject(t); err != nil {
					return fmt.Errorf("replay reject: %w", err)
				}
			}

		case "merge":
			onto, ok := keyOf(payload["onto"])
			t := tokKeys[r.TargetKey]
			if t == nil || !ok {
				continue
			}
			if err := pdb.Merge(t, tokKeys[onto]); err != nil {
				return fmt.Errorf("replay merge: %w", err)
			}

		case "cancel":
			if t := tokKeys[r.TargetKey]; t != nil {
				if err := pdb.Cancel(t); err != nil {
					return fmt.Errorf("replay cancel: %w", err)
				}
			}

		case "constrain":
			o := objKeys[r.TargetKey]
			predK, ok1 := keyOf(payload["pred"])
			succK, ok2 := keyOf(payload["succ"])
			if o == nil || !ok1 || !ok2 {
				continue
			}
			if _, err := pdb.Constrain(o, tokKeys[predK], tokKeys[succK]); err != nil {
				return fmt.Errorf("replay constrain: %w", err)
			}

		case "free":
			o := objKeys[r.TargetKey]
			tk, ok := keyOf(payload["token"])
			if o == nil || !ok {
				continue
			}
			pdb.Free(o, tokKeys[tk])
		}
	}
	return nil
}

// keyOf extracts an entity key from a payload value regardless of
// whether it arrived as a live engine.Key (in-process replay) or a
// json.Unmarshal-produced float64 (replay from a file sink), since
// Record.Payload's static type is `any` either way.
func keyOf(v any) (int64, bool) {
	switch n := v.(type) {
	case engine.Key:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
