package model

import "time"

// ServiceState is the coarse availability of a backend service.
type ServiceState string

const (
	ServiceStateUp       ServiceState = "up"
	ServiceStateDegraded ServiceState = "degraded"
	ServiceStateDown     ServiceState = "down"
)

// ServiceStatus is the result of the latest probe of one service.
// UserMessage is set iff Status is not up.
type ServiceStatus struct {
	ServiceName  string       `json:"service_name"`
	Status       ServiceState `json:"status"`
	LastChecked  time.Time    `json:"last_checked"`
	ResponseTime float64      `json:"response_time"` // milliseconds, 0 if unmeasured
	Endpoint     string       `json:"endpoint"`
	UserMessage  string       `json:"user_message,omitempty"`
}

// IsUp reports whether the service answered the last probe with a success status.
func (s ServiceStatus) IsUp() bool {
	return s.Status == ServiceStateUp
}
