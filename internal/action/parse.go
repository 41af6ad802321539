package action

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/jobstate/internal/state"
)

// ErrUnknownType is returned by Parse for tags it cannot decode.
var ErrUnknownType = errors.New("unknown action type")

// Parse decodes a JSON payload into the typed payload for tag typ.
// Unknown JSON fields are rejected to catch typos in hand-written payloads.
// Async markers are accepted with their payload left undecoded.
func Parse(typ Type, payload []byte) (Action, error) {
	payload = bytes.TrimSpace(payload)
	a := Action{Type: typ}

	if strings.HasPrefix(string(typ), AsyncPrefix) {
		return a, nil
	}

	var err error
	switch typ {
	case TypeSetJobs:
		var jobs []state.Job
		err = decodeStrict(payload, &jobs)
		a.Payload = jobs
	case TypeAddJob:
		var job state.Job
		err = decodeStrict(payload, &job)
		a = AddJob(job)
	case TypeUpdateJob:
		var p JobUpdate
		err = decodeStrict(payload, &p)
		a.Payload = p
	case TypeDeleteJob:
		var id string
		err = decodeStrict(payload, &id)
		a.Payload = id
	case TypeSetCurrentJob:
		var job *state.Job
		err = decodeStrict(payload, &job)
		a.Payload = job
	case TypeAddJobMaterial:
		var p MaterialAdd
		err = decodeStrict(payload, &p)
		a = AddJobMaterial(p.JobID, p.Material)
	case TypeUpdateJobMaterial:
		var p MaterialUpdate
		err = decodeStrict(payload, &p)
		a.Payload = p
	case TypeAddUploadedFiles:
		var p UploadAdd
		err = decodeStrict(payload, &p)
		a.Payload = p
	case TypeUpdateUploadedFile:
		var p UploadUpdate
		err = decodeStrict(payload, &p)
		a.Payload = p
	case TypeRemoveUploadedFile:
		var p UploadRemove
		err = decodeStrict(payload, &p)
		a.Payload = p
	case TypeSetLoading:
		var loading bool
		err = decodeStrict(payload, &loading)
		a.Payload = loading
	default:
		return Action{}, fmt.Errorf("parse %q: %w", typ, ErrUnknownType)
	}
	if err != nil {
		return Action{}, fmt.Errorf("parse %q payload: %w", typ, err)
	}
	return a, nil
}

func decodeStrict(data []byte, v any) error {
	if len(data) == 0 {
		return errors.New("empty payload")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
