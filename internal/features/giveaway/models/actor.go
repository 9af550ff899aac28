package models

// Actor is the authenticated caller of an engine operation.
type Actor struct {
	ID     string
	Handle string
}
