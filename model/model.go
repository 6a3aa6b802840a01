package model

import "time"

type User struct {
	ID           int    `json:"id,omitempty"`
	Email        string `json:"email"`
	PasswordHash []byte `json:"-"`
}

type Form struct {
	ID        int         `json:"id,omitempty"`
	Title     string      `json:"title"`
	Theme     string      `json:"theme,omitempty"`
	Slug      string      `json:"slug"`
	Timestamp time.Time   `json:"timestamp"`
	UserID    int         `json:"-"`
	Fields    []FormField `json:"fields,omitempty"`
}

type FormField struct {
	ID       int      `json:"id,omitempty"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
}

type FormResponse struct {
	ID        int              `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	Answers   []ResponseAnswer `json:"answers"`
}

// ResponseAnswer holds one field's value for one response. FieldID is kept
// as a plain reference, not a checked join against the form's own fields.
type ResponseAnswer struct {
	ID      int    `json:"id,omitempty"`
	FieldID int    `json:"field_id"`
	Label   string `json:"label,omitempty"`
	Value   string `json:"value"`
}

// FieldDescriptor is the parsed representation of one generated field, as
// produced by the field parser and edited by the user before publishing.
type FieldDescriptor struct {
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Validation  string   `json:"validation"`
	Options     []string `json:"options,omitempty"`
}
