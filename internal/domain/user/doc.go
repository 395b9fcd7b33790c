// Package user stores wallet-keyed user records with gorm.
//
// Records are keyed by the lowercase wallet address. Upsert only touches
// the GitHub fields the caller provides, so linking a GitHub account never
// clears data written earlier.
//
// The driver is picked from the URL: Postgres for postgres:// URLs, SQLite
// for everything else.
package user
