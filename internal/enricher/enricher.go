package enricher

import (
	"Go2FlowID/internal/config"
	"Go2FlowID/internal/engine/protocol"
	"Go2FlowID/internal/metrics"
	"Go2FlowID/internal/model"
	"Go2FlowID/pkg/communityid"

	"github.com/google/gopacket/layers"
	"go.uber.org/zap"
)

// Tags added to records that could not be fingerprinted.
const (
	TagTargetNotSet    = "community_id_target_field_not_set"
	TagTargetConflict  = "community_id_target_field_conflict"
	TagFamilyMismatch  = "community_id_address_family_mismatch"
	SuffixNotFound     = "_not_found"
	SuffixParseFailure = "_parse_failure"
)

const (
	reasonTargetNotSet   = "target_not_set"
	reasonTargetConflict = "target_conflict"
)

// Result describes what Enrich did to a record.
type Result struct {
	CommunityID string
	Tag         string
	Err         error
}

// OK reports whether the fingerprint was written.
func (r Result) OK() bool {
	return r.Err == nil && r.CommunityID != ""
}

// Enricher writes the community ID of each record's 5-tuple into the target
// field, or tags the record when it cannot. It is safe for concurrent use.
type Enricher struct {
	hasher  communityid.Hasher
	fields  config.FieldSet
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates an Enricher. logger and m may be nil.
func New(cfg config.CommunityIDConfig, logger *zap.Logger, m *metrics.Metrics) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		hasher:  communityid.New(uint16(cfg.Seed)),
		fields:  cfg.Fields,
		logger:  logger,
		metrics: m,
	}
}

// Fields returns the field mapping in use.
func (e *Enricher) Fields() config.FieldSet {
	return e.fields
}

// Hasher returns the hasher bound to the configured seed.
func (e *Enricher) Hasher() communityid.Hasher {
	return e.hasher
}

// Enrich fingerprints rec in place. Failures never abort: the record is tagged
// and the target field is left unset.
func (e *Enricher) Enrich(rec model.Record) Result {
	if e.fields.Target == "" {
		rec.Tag(TagTargetNotSet)
		e.metrics.Failed(reasonTargetNotSet)
		return Result{Tag: TagTargetNotSet}
	}

	tuple, err := protocol.ParseTuple(rec, e.fields)
	if err != nil {
		return e.fail(rec, err)
	}
	id, err := e.hasher.HashTuple(tuple)
	if err != nil {
		return e.fail(rec, err)
	}

	if err := rec.Set(e.fields.Target, id); err != nil {
		rec.Tag(TagTargetConflict)
		e.metrics.Failed(reasonTargetConflict)
		e.logger.Debug("Cannot write community ID to target field", zap.String("target", e.fields.Target), zap.Error(err))
		return Result{Tag: TagTargetConflict, Err: err}
	}

	e.metrics.Enriched()
	if ce := e.logger.Check(zap.DebugLevel, "Record enriched"); ce != nil {
		ce.Write(
			zap.String("community_id", id),
			zap.Stringer("protocol", layers.IPProtocol(tuple.Proto)),
		)
	}
	return Result{CommunityID: id}
}

func (e *Enricher) fail(rec model.Record, err error) Result {
	tag := TagFor(err)
	rec.Tag(tag)
	e.metrics.Failed(communityid.KindOf(err).String())
	e.logger.Debug("Record not enriched", zap.String("tag", tag), zap.Error(err))
	return Result{Tag: tag, Err: err}
}

// TagFor maps a fingerprinting error to the tag put on the record.
func TagFor(err error) string {
	switch communityid.KindOf(err) {
	case communityid.KindMissingField:
		return communityid.FieldOf(err) + SuffixNotFound
	case communityid.KindFamilyMismatch:
		return TagFamilyMismatch
	default:
		field := communityid.FieldOf(err)
		if field == "" {
			field = "community_id"
		}
		return field + SuffixParseFailure
	}
}
