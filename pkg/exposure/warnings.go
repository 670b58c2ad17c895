package exposure

import "fmt"

// WarningCode identifies a data-quality finding.
type WarningCode string

const (
	WarnInsufficientSamples     WarningCode = "insufficient_samples"
	WarnExcessiveSpread         WarningCode = "excessive_spread"
	WarnTaskWithoutMeasurements WarningCode = "task_without_measurements"
	WarnInvalidTaskDuration     WarningCode = "invalid_task_duration"
	WarnTaskWithoutID           WarningCode = "task_without_id"
	WarnTaskDurationMismatch    WarningCode = "task_duration_mismatch"
	WarnMeasurementPlanRevision WarningCode = "measurement_plan_revision"
	WarnAttenuationUnknown      WarningCode = "ppe_attenuation_unknown"
	WarnNoProtectionData        WarningCode = "no_protection_data"
	WarnTooManyProtectors       WarningCode = "too_many_protectors"
)

// Warning is a non-fatal finding attached to a result.
type Warning struct {
	Code    WarningCode `json:"code" msgpack:"code"`
	TaskID  string      `json:"task_id,omitempty" msgpack:"task_id,omitempty"`
	Message string      `json:"message" msgpack:"message"`
}

func warnf(code WarningCode, taskID, format string, args ...any) Warning {
	return Warning{Code: code, TaskID: taskID, Message: fmt.Sprintf(format, args...)}
}
