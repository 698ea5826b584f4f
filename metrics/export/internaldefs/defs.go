package internaldefs

import (
	"strconv"
	"strings"

	"github.com/peanechestate/estateauth"
)

type CounterDef struct {
	ID   estateauth.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   estateauth.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "estateauth_audit_dropped_total"

var CounterDefs = []CounterDef{
	{ID: estateauth.MetricLoginSuccess, Name: "estateauth_login_success_total", Help: "Successful logins."},
	{ID: estateauth.MetricLoginFailure, Name: "estateauth_login_failure_total", Help: "Failed logins, including persistence failures."},
	{ID: estateauth.MetricRegisterSuccess, Name: "estateauth_register_success_total", Help: "Successful registrations."},
	{ID: estateauth.MetricRegisterFailure, Name: "estateauth_register_failure_total", Help: "Failed registrations."},
	{ID: estateauth.MetricLogout, Name: "estateauth_logout_total", Help: "Logouts."},
	{ID: estateauth.MetricSessionRecovered, Name: "estateauth_session_recovered_total", Help: "Sessions restored at startup."},
	{ID: estateauth.MetricSessionAbsent, Name: "estateauth_session_absent_total", Help: "Startups with no persisted session."},
	{ID: estateauth.MetricSessionMalformed, Name: "estateauth_session_malformed_total", Help: "Persisted sessions discarded as malformed."},
	{ID: estateauth.MetricOperationRejected, Name: "estateauth_operation_rejected_total", Help: "Operations rejected while another was in flight."},
	{ID: estateauth.MetricPersistenceFailure, Name: "estateauth_persistence_failure_total", Help: "Session store read, write or delete failures."},
}

var HistogramDefs = []HistogramDef{
	{ID: estateauth.MetricVerifyLatency, Name: "estateauth_verify_latency_seconds", Help: "Credential verifier round trip."},
}

// HistogramBounds are the finite upper bounds in seconds, in bucket order.
var HistogramBounds = boundsSeconds()

// HistogramBoundLabels are the le label values, "+Inf" last.
var HistogramBoundLabels = boundLabels()

// HistogramBoundSuffix are the bounds made safe for instrument names.
var HistogramBoundSuffix = boundSuffixes()

const bucketCount = len(estateauth.HistogramBounds) + 1

func boundsSeconds() []float64 {
	out := make([]float64, 0, len(estateauth.HistogramBounds))
	for _, d := range estateauth.HistogramBounds {
		out = append(out, d.Seconds())
	}
	return out
}

func boundLabels() []string {
	out := make([]string, 0, bucketCount)
	for _, s := range boundsSeconds() {
		out = append(out, strconv.FormatFloat(s, 'f', -1, 64))
	}
	return append(out, "+Inf")
}

func boundSuffixes() []string {
	labels := boundLabels()
	out := make([]string, 0, len(labels))
	for _, l := range labels[:len(labels)-1] {
		out = append(out, strings.ReplaceAll(l, ".", "_"))
	}
	return append(out, "inf")
}

// NormalizeBuckets pads or truncates raw to the bucket count.
func NormalizeBuckets(raw []uint64) [bucketCount]uint64 {
	var out [bucketCount]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [bucketCount]uint64) [bucketCount]uint64 {
	var out [bucketCount]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
