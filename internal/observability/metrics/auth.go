package metrics

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/escolafut/escola-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// LoginAttempt counts one login attempt for role. reason is empty on success.
func LoginAttempt(sink statsd.Sink, role, result, reason string, elapsed time.Duration) {
	if sink == nil {
		return
	}
	tags := map[string]string{"role": role, "result": result}
	if reason != "" {
		tags["reason"] = reason
	}
	sink.Count("auth.login", 1, tags)
	if elapsed > 0 {
		sink.Timing("auth.login_duration", elapsed, CloneTags(tags))
	}
}

// GuardRejected counts a request refused by a role guard.
func GuardRejected(sink statsd.Sink, role, reason string) {
	if sink == nil {
		return
	}
	sink.Count("auth.guard_rejected", 1, map[string]string{"role": role, "reason": reason})
}

// CrossTenantAccess counts an attempt to reach another tenant's record.
// Every increment is alert-worthy.
func CrossTenantAccess(sink statsd.Sink, role, resource, operation string) {
	if sink == nil {
		return
	}
	sink.Count("tenant.cross_access", 1, map[string]string{
		"role":      role,
		"resource":  resource,
		"operation": operation,
	})
}

// SessionBackendError counts a failed or timed-out session store call.
func SessionBackendError(sink statsd.Sink, operation string, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"operation": operation}
	if class := ErrorClass(err); class != "" {
		tags["error_class"] = class
	}
	sink.Count("session.backend_error", 1, tags)
}

// SessionSweep records one sweeper pass.
func SessionSweep(sink statsd.Sink, deleted int64, elapsed time.Duration, err error) {
	if sink == nil {
		return
	}
	result := ResultSuccess
	switch {
	case err != nil:
		result = ResultError
	case deleted == 0:
		result = ResultNoop
	}
	tags := map[string]string{"result": result}
	if class := ErrorClass(err); class != "" {
		tags["error_class"] = class
	}
	sink.Count("session.sweep", 1, tags)
	if deleted > 0 {
		sink.Count("session.swept", deleted, nil)
	}
	sink.Timing("session.sweep_duration", elapsed, CloneTags(tags))
	if err == nil {
		sink.Gauge("session.sweep_last_success_epoch", float64(time.Now().Unix()), nil)
	}
}

// ErrorClass returns the innermost concrete error type as a snake-cased tag value.
func ErrorClass(err error) string {
	if err == nil {
		return ""
	}
	for {
		inner := errors.Unwrap(err)
		if inner == nil {
			break
		}
		err = inner
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := strings.ToLower(strings.ReplaceAll(t.String(), ".", "_"))
	if name == "" {
		return "unknown"
	}
	return name
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
