package dto

import "encoding/json"

type TrafficData struct {
	Congestion int               `json:"congestion"`
	Details    []json.RawMessage `json:"details"`
	Source     string            `json:"source"`
}

type TrafficResponse struct {
	Success bool        `json:"success"`
	Data    TrafficData `json:"data"`
}

type ClosuresResponse struct {
	Success  bool              `json:"success"`
	Closures []ClosureResponse `json:"closures"`
	Error    string            `json:"error,omitempty"`
}
