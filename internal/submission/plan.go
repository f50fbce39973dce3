package submission

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
)

// Kind classifies a call within a plan.
type Kind string

const (
	KindDelete Kind = "delete"
	KindUpdate Kind = "update"
	KindCreate Kind = "create"
	KindParent Kind = "parent"
)

// RunFunc issues one request. key is the idempotency key of the call and must
// be forwarded to the backend.
type RunFunc func(ctx context.Context, key string) error

// Call is one request of a submission.
type Call struct {
	Kind     Kind
	Resource string
	ID       string
	Key      string
	// Fingerprint digests the payload of updates so an edited retry is not
	// answered with the response of the previous attempt.
	Fingerprint string
	Run         RunFunc
}

// Label identifies the call in logs and reports.
func (c Call) Label() string {
	parts := []string{string(c.Kind), c.Resource}
	if c.ID != "" {
		parts = append(parts, c.ID)
	}
	return strings.Join(parts, ":")
}

// Plan lists the calls a submission issues together. When Token is set,
// call keys derive from it so resubmitting the same form replays the calls
// the backend already accepted instead of repeating them.
type Plan struct {
	Name           string
	Token          string
	Calls          []Call
	Redirect       string
	SuccessMessage string
}

// NewPlan starts an empty plan named name, typically the resource key.
func NewPlan(name string) *Plan {
	return &Plan{Name: name}
}

// Add appends a call.
func (p *Plan) Add(call Call) *Plan {
	if call.Run != nil {
		p.Calls = append(p.Calls, call)
	}
	return p
}

// Delete schedules the removal of a sub-record.
func (p *Plan) Delete(resource, id string, run RunFunc) *Plan {
	return p.Add(Call{Kind: KindDelete, Resource: resource, ID: id, Run: run})
}

// Update schedules the update of an existing sub-record.
func (p *Plan) Update(resource, id string, run RunFunc) *Plan {
	return p.Add(Call{Kind: KindUpdate, Resource: resource, ID: id, Run: run})
}

// Create schedules the creation of a new sub-record.
func (p *Plan) Create(resource string, run RunFunc) *Plan {
	return p.Add(Call{Kind: KindCreate, Resource: resource, Run: run})
}

// Parent schedules the write of the parent record itself.
func (p *Plan) Parent(resource, id string, run RunFunc) *Plan {
	return p.Add(Call{Kind: KindParent, Resource: resource, ID: id, Run: run})
}

// WithToken sets the submission token the call keys derive from.
func (p *Plan) WithToken(token string) *Plan {
	p.Token = strings.TrimSpace(token)
	return p
}

// WithRedirect sets where the operator goes after success.
func (p *Plan) WithRedirect(target string) *Plan {
	p.Redirect = target
	return p
}

// WithSuccessMessage sets the toast shown after success.
func (p *Plan) WithSuccessMessage(message string) *Plan {
	p.SuccessMessage = message
	return p
}

// Count returns the number of calls of kind.
func (p *Plan) Count(kind Kind) int {
	n := 0
	for _, call := range p.Calls {
		if call.Kind == kind {
			n++
		}
	}
	return n
}

// Fingerprint digests v into a short hex string. Values that do not encode
// yield "".
func Fingerprint(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}

// callKey is token, label and the position of the call among calls with the
// same label, plus the fingerprint when there is one.
func callKey(token string, call Call, ordinal int) string {
	parts := []string{token, call.Label(), strconv.Itoa(ordinal)}
	if call.Fingerprint != "" {
		parts = append(parts, call.Fingerprint)
	}
	return strings.Join(parts, ":")
}
