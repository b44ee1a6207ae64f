package validation

import (
	"fmt"
)

// customMessages overrides DefaultMessage for a json field name and tag.
var customMessages = map[string]map[string]string{
	"email": {
		"required": "This field is required.",
		"email":    "Enter a valid email address.",
	},
	"username": {
		"username": "Enter a valid username. This value may contain only letters and numbers",
	},
	"phone": {
		"phone": "Enter a valid phone number.",
	},
	"password": {
		"min": "This password is too short. It must contain at least 8 characters.",
	},
	"refresh": {
		"required": "This field is required.",
	},
	"code": {
		"required": "This field is required.",
	},
}

func CustomMessage(field string) map[string]string {
	return customMessages[field]
}

// DefaultMessage renders a validator tag failure in the wording clients of
// this API already expect.
func DefaultMessage(tag, param string) string {
	switch tag {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "numeric":
		return "A valid number is required."
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", param)
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", param)
	case "len":
		return fmt.Sprintf("Ensure this field has exactly %s characters.", param)
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", param)
	case "username":
		return "Enter a valid username."
	case "phone":
		return "Enter a valid phone number."
	case "dive":
		return "Invalid item."
	default:
		return "Invalid value."
	}
}
