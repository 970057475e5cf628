// Package trace records the simulation event timeline in a stable,
// diffable text form. Two runs with the same seed and configuration must
// produce byte-identical trace output.
package trace

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Record kinds, mirroring the engine's event vocabulary.
const (
	KindArrival        = "ORDER_ARRIVAL"
	KindOfferSent      = "OFFER_SENT"
	KindOfferAccepted  = "OFFER_ACCEPTED"
	KindOfferDeclined  = "OFFER_DECLINED"
	KindOfferTimeout   = "OFFER_TIMEOUT"
	KindAssigned       = "ASSIGNED"
	KindPickedUp       = "PICKED_UP"
	KindDelivered      = "DELIVERED"
	KindRetryScheduled = "RETRY_SCHEDULED"
	KindUnassignable   = "UNASSIGNABLE"
	KindSimulationEnd  = "SIMULATION_END"
)

// Record is one timeline entry.
type Record struct {
	T       float64
	Kind    string
	OrderID string
	AssetID string
	Detail  string
}

// Line renders the record in the stable trace format.
func (r Record) Line() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%08.2f] %-16s", r.T, r.Kind)
	if r.OrderID != "" {
		fmt.Fprintf(&b, " order=%s", r.OrderID)
	}
	if r.AssetID != "" {
		fmt.Fprintf(&b, " asset=%s", r.AssetID)
	}
	if r.Detail != "" {
		fmt.Fprintf(&b, " %s", r.Detail)
	}
	return b.String()
}

// Log is an append-only event log. Not safe for concurrent use; the
// engine is single-threaded and production mode appends under its own
// lock.
type Log struct {
	records []Record
}

// NewLog builds an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append adds a record.
func (l *Log) Append(r Record) {
	l.records = append(l.records, r)
}

// Records returns a copy of the timeline.
func (l *Log) Records() []Record {
	return append([]Record(nil), l.records...)
}

// Len is the number of records.
func (l *Log) Len() int { return len(l.records) }

// Lines renders every record.
func (l *Log) Lines() []string {
	out := make([]string, len(l.records))
	for i, r := range l.records {
		out[i] = r.Line()
	}
	return out
}

// WriteTo renders the whole log to w, one record per line.
func (l *Log) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, r := range l.records {
		m, err := fmt.Fprintln(w, r.Line())
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// Summary counts records by kind, rendered kind=count in sorted order.
func (l *Log) Summary() string {
	counts := make(map[string]int)
	for _, r := range l.records {
		counts[r.Kind]++
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, " ")
}
