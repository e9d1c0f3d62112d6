// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost balances hashing strength against login latency.
const bcryptCost = 12

// CredentialChecker validates the admin username and password. The
// configured password may be plaintext (hashed at startup) or a
// pre-computed bcrypt hash.
type CredentialChecker struct {
	username     string
	passwordHash []byte
}

// NewCredentialChecker creates a checker for the configured admin
// account.
func NewCredentialChecker(username, password string) (*CredentialChecker, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("admin username and password are required")
	}

	var hash []byte
	if strings.HasPrefix(password, "$2a$") || strings.HasPrefix(password, "$2b$") || strings.HasPrefix(password, "$2y$") {
		// Already a bcrypt hash
		hash = []byte(password)
	} else {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
	}

	return &CredentialChecker{
		username:     username,
		passwordHash: hash,
	}, nil
}

// Check reports whether the supplied credentials match. Both the
// username comparison and the bcrypt comparison are timing-safe.
func (c *CredentialChecker) Check(username, password string) bool {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	passwordMatch := bcrypt.CompareHashAndPassword(c.passwordHash, []byte(password)) == nil
	return usernameMatch && passwordMatch
}
