// Package catalog holds the remembered clients and the parts and services
// price lists. It learns from saved work orders and never forgets an entry
// on its own.
package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Vehicle is a client car as remembered by the catalog.
type Vehicle struct {
	Model string `json:"model"`
	Plate string `json:"plate"`
}

// Label is the composite text stored on work orders ("model - plate").
func (v Vehicle) Label() string {
	if v.Plate == "" {
		return v.Model
	}

	return fmt.Sprintf("%s - %s", v.Model, v.Plate)
}

// ParseVehicle splits a "model - plate" label back into its parts.
func ParseVehicle(label string) Vehicle {
	label = strings.TrimSpace(label)

	i := strings.LastIndex(label, " - ")
	if i < 0 {
		return Vehicle{Model: label}
	}

	return Vehicle{Model: strings.TrimSpace(label[:i]), Plate: strings.TrimSpace(label[i+3:])}
}

func (v Vehicle) same(o Vehicle) bool {
	return strings.EqualFold(v.Model, o.Model) && strings.EqualFold(v.Plate, o.Plate)
}

type Client struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Phone    string    `json:"phone"`
	Notes    string    `json:"notes"`
	Vehicles []Vehicle `json:"vehicles"`
}

// Item is a catalog part or service.
type Item struct {
	Description string `json:"description"`
	Price       int64  `json:"price"`          // Price in cents
	Cost        *int64 `json:"cost,omitempty"` // Cost in cents
}

// Key is the case-insensitive identity used by indexes and by the mirror.
func Key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ClientInput is what a saved work order tells the catalog about a client.
type ClientInput struct {
	Name    string
	Phone   string
	Notes   string
	Vehicle Vehicle
}

// LearnClient merges in into clients and returns the new collection.
// Phone and notes are only overwritten by non-empty values; a vehicle is
// appended when no known one matches by model and plate.
func LearnClient(clients []Client, in ClientInput) []Client {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return clients
	}

	vehicle := Vehicle{Model: strings.TrimSpace(in.Vehicle.Model), Plate: strings.TrimSpace(in.Vehicle.Plate)}
	phone := strings.TrimSpace(in.Phone)
	notes := strings.TrimSpace(in.Notes)

	out := make([]Client, len(clients), len(clients)+1)
	copy(out, clients)

	for i, c := range out {
		if !strings.EqualFold(c.Name, name) {
			continue
		}

		if phone != "" {
			c.Phone = phone
		}

		if notes != "" {
			c.Notes = notes
		}

		if vehicle.Model != "" && !hasVehicle(c.Vehicles, vehicle) {
			c.Vehicles = append(append([]Vehicle(nil), c.Vehicles...), vehicle)
		}

		out[i] = c

		return out
	}

	c := Client{ID: uuid.NewString(), Name: name, Phone: phone, Notes: notes, Vehicles: []Vehicle{}}
	if vehicle.Model != "" {
		c.Vehicles = append(c.Vehicles, vehicle)
	}

	return append(out, c)
}

func hasVehicle(vs []Vehicle, v Vehicle) bool {
	for _, known := range vs {
		if known.same(v) {
			return true
		}
	}

	return false
}

// LearnItems appends the descriptions not yet in the catalog. Existing
// entries keep their price.
func LearnItems(catalog []Item, items []Item) []Item {
	seen := make(map[string]bool, len(catalog))
	for _, it := range catalog {
		seen[Key(it.Description)] = true
	}

	out := append(make([]Item, 0, len(catalog)+len(items)), catalog...)

	for _, it := range items {
		desc := strings.TrimSpace(it.Description)
		k := Key(desc)

		if k == "" || seen[k] {
			continue
		}

		seen[k] = true
		it.Description = desc
		out = append(out, it)
	}

	return out
}

// FindClient returns the index of the client with the given id, or -1.
func FindClient(clients []Client, id string) int {
	for i, c := range clients {
		if c.ID == id {
			return i
		}
	}

	return -1
}

// FindItem returns the index of the item with the given description
// (case-insensitive), or -1.
func FindItem(items []Item, description string) int {
	k := Key(description)

	for i, it := range items {
		if Key(it.Description) == k {
			return i
		}
	}

	return -1
}
