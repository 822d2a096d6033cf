package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type refKind int

const (
	refInvalid refKind = iota
	refLegacy
	refUUID
)

// OrderRef identifies an order by either of its two identifier forms while
// the integer to UUID key migration is in progress.
type OrderRef struct {
	kind   refKind
	legacy int64
	uuid   string
}

func LegacyRef(id int64) OrderRef { return OrderRef{kind: refLegacy, legacy: id} }

func UUIDRef(id string) OrderRef { return OrderRef{kind: refUUID, uuid: strings.ToLower(id)} }

// ParseOrderRef reads a path or metadata value. UUIDs win over integers.
func ParseOrderRef(raw string) (OrderRef, error) {
	raw = strings.TrimSpace(raw)
	if id, err := uuid.Parse(raw); err == nil {
		return UUIDRef(id.String()), nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
		return LegacyRef(n), nil
	}
	return OrderRef{}, fmt.Errorf("%w: order id %q", ErrInvalidInput, raw)
}

// CandidateRefs lists every interpretation of raw in match precedence order.
func CandidateRefs(raw string) []OrderRef {
	raw = strings.TrimSpace(raw)
	var refs []OrderRef
	if id, err := uuid.Parse(raw); err == nil {
		refs = append(refs, UUIDRef(id.String()))
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
		refs = append(refs, LegacyRef(n))
	}
	return refs
}

func (r OrderRef) IsLegacy() bool { return r.kind == refLegacy }
func (r OrderRef) IsUUID() bool   { return r.kind == refUUID }
func (r OrderRef) Legacy() int64  { return r.legacy }
func (r OrderRef) UUID() string   { return r.uuid }

func (r OrderRef) String() string {
	switch r.kind {
	case refLegacy:
		return fmt.Sprintf("legacy:%d", r.legacy)
	case refUUID:
		return "uuid:" + r.uuid
	}
	return "invalid"
}
