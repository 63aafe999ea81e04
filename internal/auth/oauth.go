package auth

import (
	"golang.org/x/oauth2"
)

// Strava OAuth endpoints.
const (
	AuthURL  = "https://www.strava.com/oauth/authorize"
	TokenURL = "https://www.strava.com/oauth/token"
)

// Scopes requested from Strava. activity:read_all covers private
// activities, which matters here: structured training rides with power
// data are frequently private. Strava wants its scopes comma-joined
// inside a single element rather than as separate entries.
var Scopes = []string{"read,activity:read_all"}

// Config holds the OAuth client credentials from the user's config file.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "http://localhost:8089/callback"
}

// NewOAuthConfig builds the oauth2.Config for the Strava endpoints
func NewOAuthConfig(cfg Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  AuthURL,
			TokenURL: TokenURL,
		},
		RedirectURL: cfg.RedirectURL,
		Scopes:      Scopes,
	}
}

// AuthResult is the outcome of a completed OAuth flow: the token plus
// the athlete whose rides will be synced.
type AuthResult struct {
	Token     *oauth2.Token
	AthleteID int64
}

// ExtractAthleteID pulls the athlete ID out of the token extras.
// Strava embeds a summary athlete object in its token response; 0 is
// returned when it is absent or malformed.
func ExtractAthleteID(token *oauth2.Token) int64 {
	if athlete, ok := token.Extra("athlete").(map[string]interface{}); ok {
		if id, ok := athlete["id"].(float64); ok {
			return int64(id)
		}
	}
	return 0
}
