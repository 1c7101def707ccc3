package telemetry

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys.
const (
	AttrCycleID        = "purge.cycle_id"
	AttrCycleStatus    = "purge.status"
	AttrTotalUsage     = "purge.total_bytes"
	AttrBytesToRecover = "purge.bytes_to_recover"
	AttrUnallocated    = "purge.unallocated_bytes"
	AttrDirCount       = "purge.dir_count"

	AttrPolicy     = "purge.policy"
	AttrPolicyKind = "purge.policy_kind"
	AttrAllocated  = "purge.allocated_bytes"
	AttrLotCount   = "purge.lot_count"

	AttrListing   = "lotman.listing"
	AttrDeltaMode = "lotman.delta"
	AttrDropped   = "lotman.dropped_dirs"
)

func CycleID(id string) attribute.KeyValue         { return attribute.String(AttrCycleID, id) }
func CycleStatus(status string) attribute.KeyValue { return attribute.String(AttrCycleStatus, status) }
func TotalUsage(n int64) attribute.KeyValue        { return attribute.Int64(AttrTotalUsage, n) }
func BytesToRecover(n int64) attribute.KeyValue    { return attribute.Int64(AttrBytesToRecover, n) }
func Unallocated(n int64) attribute.KeyValue       { return attribute.Int64(AttrUnallocated, n) }
func DirCount(n int) attribute.KeyValue            { return attribute.Int(AttrDirCount, n) }

// Policy and PolicyKind label a single allocation pass.
func Policy(name string) attribute.KeyValue     { return attribute.String(AttrPolicy, name) }
func PolicyKind(kind string) attribute.KeyValue { return attribute.String(AttrPolicyKind, kind) }
func Allocated(n int64) attribute.KeyValue      { return attribute.Int64(AttrAllocated, n) }
func LotCount(n int) attribute.KeyValue         { return attribute.Int(AttrLotCount, n) }

func Listing(past string) attribute.KeyValue { return attribute.String(AttrListing, past) }
func DeltaMode(on bool) attribute.KeyValue   { return attribute.Bool(AttrDeltaMode, on) }
func Dropped(n int) attribute.KeyValue       { return attribute.Int(AttrDropped, n) }
