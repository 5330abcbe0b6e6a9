// Package views renders view-model pages as HTML with templ components.
package views

//go:generate templ generate

import (
	"strconv"

	"github.com/a-h/templ"
)

func decimal(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func actionURL(sessionID, action string) templ.SafeURL {
	return templ.URL("/api/sessions/" + sessionID + "/" + action)
}

func messageClass(loading bool) string {
	if loading {
		return "loading-text"
	}
	return "itinerary-message"
}
