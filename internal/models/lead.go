package models

// LeadRequest is the public lead submission payload.
type LeadRequest struct {
	LeadType string         `json:"lead_type"`
	Type     string         `json:"type"`
	Page     string         `json:"page"`
	Phone    string         `json:"phone"`
	UTM      map[string]any `json:"utm"`
	Fields   map[string]any `json:"fields"`
}
