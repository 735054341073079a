package model

import "encoding/json"

// ProxyRequest describes one request to forward to a registered backend.
type ProxyRequest struct {
	TargetService string            `json:"target_service" validate:"required"`
	Endpoint      string            `json:"endpoint"`
	Method        string            `json:"method" validate:"required"`
	Data          map[string]any    `json:"data,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
}

// UnmarshalJSON accepts both target_service and targetService.
func (p *ProxyRequest) UnmarshalJSON(b []byte) error {
	type plain ProxyRequest
	var aux struct {
		plain
		TargetServiceCamel string `json:"targetService"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*p = ProxyRequest(aux.plain)
	if p.TargetService == "" {
		p.TargetService = aux.TargetServiceCamel
	}
	return nil
}

// ProxyResult is the pass-through envelope returned for any upstream answer.
// ErrorID references the error log entry written when the upstream status was >= 400.
type ProxyResult struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Data       any               `json:"data"`
	Service    string            `json:"service"`
	ErrorID    *int              `json:"error_id,omitempty"`
}
