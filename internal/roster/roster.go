// Package roster manages the flat JSON credential file that holds the
// registered agents and their API keys.
package roster

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrCreatedTemplate is returned by Load when the roster file did not exist
// and a placeholder template was written in its place.
var ErrCreatedTemplate = errors.New("roster file not found, template created")

// minKeyLength is the shortest string we accept as a real API key.
// Anything shorter is treated as a placeholder left in the template.
const minKeyLength = 10

// Agent is a single roster entry.
type Agent struct {
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
}

// IsPlaceholder reports whether the entry still carries the template name.
func (a Agent) IsPlaceholder() bool {
	return a.Name == "name" || a.Name == "YourAgentName"
}

// NeedsRegistration reports whether the entry has no usable API key.
func (a Agent) NeedsRegistration() bool {
	return a.APIKey == "" || a.APIKey == "key" || len(a.APIKey) < minKeyLength
}

// Roster is the list of agents loaded from disk.
type Roster struct {
	Agents []Agent
	path   string
}

// Load reads the roster from path. If the file does not exist a single-entry
// template is written and ErrCreatedTemplate is returned so the caller can
// tell the operator to edit it.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read roster: %w", err)
		}
		template := []Agent{{Name: "YourAgentName", APIKey: ""}}
		out, merr := json.MarshalIndent(template, "", "    ")
		if merr != nil {
			return nil, fmt.Errorf("failed to marshal roster template: %w", merr)
		}
		if werr := os.WriteFile(path, out, 0600); werr != nil {
			return nil, fmt.Errorf("failed to write roster template: %w", werr)
		}
		return nil, fmt.Errorf("%w: %s", ErrCreatedTemplate, path)
	}

	var agents []Agent
	if err := json.Unmarshal(data, &agents); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}

	return &Roster{Agents: agents, path: path}, nil
}

// Save writes the roster back to the file it was loaded from.
func (r *Roster) Save() error {
	data, err := json.MarshalIndent(r.Agents, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal roster: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write roster: %w", err)
	}
	return nil
}

// SetKey records a freshly issued API key for the named agent.
func (r *Roster) SetKey(name, apiKey string) bool {
	for i := range r.Agents {
		if r.Agents[i].Name == name {
			r.Agents[i].APIKey = apiKey
			return true
		}
	}
	return false
}

// Valid returns the entries that are neither placeholders nor un-keyed.
func (r *Roster) Valid() []Agent {
	var out []Agent
	for _, a := range r.Agents {
		if a.IsPlaceholder() || a.NeedsRegistration() {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Pending returns the non-placeholder entries that still need registration.
func (r *Roster) Pending() []Agent {
	var out []Agent
	for _, a := range r.Agents {
		if a.IsPlaceholder() || !a.NeedsRegistration() {
			continue
		}
		out = append(out, a)
	}
	return out
}
