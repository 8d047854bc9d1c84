// Package domain contains core concepts of the collaboration core.
// This file defines the authenticated identity attached to a connection.
// No runtime, network, or UI logic should be added here.
package domain

// Identity is the resolved result of a successful token verification.
type Identity struct {
	UserID      string
	Username    string
	DisplayName string
	Avatar      string
	Role        string
}

// UserDisplay is the subset of a user record needed to enrich a
// chat message before broadcast.
type UserDisplay struct {
	Username    string
	DisplayName string
	Avatar      string
}
