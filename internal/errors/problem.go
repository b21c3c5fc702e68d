package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
)

// ProblemDetails is an RFC 7807 error body.
type ProblemDetails struct {
	Type     string
	Title    string
	Status   int
	Detail   string
	Instance string
	Ext      map[string]any
}

// NewProblemDetails creates a problem details response.
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:     problemType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	}
}

// WithExtension adds an extension member to the problem.
func (p *ProblemDetails) WithExtension(key string, value any) *ProblemDetails {
	if p.Ext == nil {
		p.Ext = make(map[string]any)
	}
	p.Ext[key] = value
	return p
}

// Render implements render.Renderer.
func (p *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/problem+json")
	render.Status(r, p.Status)
	return nil
}

// MarshalJSON flattens extension members into the problem object.
func (p *ProblemDetails) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"type":   p.Type,
		"title":  p.Title,
		"status": p.Status,
	}
	if p.Detail != "" {
		out["detail"] = p.Detail
	}
	if p.Instance != "" {
		out["instance"] = p.Instance
	}
	for k, v := range p.Ext {
		out[k] = v
	}
	return json.Marshal(out)
}
