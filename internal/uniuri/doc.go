// Package uniuri generates random identifiers and initial passwords from crypto/rand.
package uniuri
