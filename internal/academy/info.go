// Package academy provides read-only academy metadata used to render
// confirmation and notification copy.
package academy

// NotificationContacts lists the staff contacts tried, in order, when a new
// booking comes in.
type NotificationContacts struct {
	PrimaryWhatsApp   string `json:"primary_whatsapp"`
	SecondaryWhatsApp string `json:"secondary_whatsapp"`
	Email             string `json:"email"`
}

// Info is the academy's public metadata.
type Info struct {
	Name        string               `json:"name"`
	Location    string               `json:"location"`
	WazeLink    string               `json:"waze_link"`
	Phone       string               `json:"phone"`
	WhatToBring []string             `json:"what_to_bring"`
	Contacts    NotificationContacts `json:"contacts"`
}

// DefaultInfo returns the academy metadata the system ships with. It is the
// fallback when no stored configuration exists.
func DefaultInfo() *Info {
	return &Info{
		Name:     "BJJ Mingo",
		Location: "Santo Domingo de Heredia, Costa Rica",
		WazeLink: "https://waze.com/ul/hd1u0y3qpc",
		Phone:    "+506-7015-0369",
		WhatToBring: []string{
			"Ropa deportiva cómoda (pantaloneta/lycra, camisa deportiva)",
			"Sin zapatos",
			"Agua",
			"Si tenés gi, podés traerlo",
		},
	}
}
