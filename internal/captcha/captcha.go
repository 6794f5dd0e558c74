// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

// Package captcha issues and validates short-lived arithmetic challenges
// that gate the login endpoint once a (client, account) pair accumulates
// too many failed attempts. A challenge is consumable at most once:
// validating it invalidates it immediately, regardless of the outcome.
package captcha

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/citystroll/citystroll/internal/cache"
)

// DefaultTTL is how long an issued challenge remains solvable.
const DefaultTTL = 10 * time.Minute

// operators a challenge may use. Division is excluded so the answer is
// always an exact integer.
var operators = []string{"+", "-", "*"}

// Challenge is the public payload returned to the client. The expected
// answer stays server-side.
type Challenge struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Text     string `json:"text"`
}

// Store issues and validates arithmetic challenges backed by a TTL cache.
type Store struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewStore creates a challenge store on top of the given cache.
// A ttl of zero selects DefaultTTL.
func NewStore(c *cache.Cache, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{cache: c, ttl: ttl}
}

// Issue generates a new challenge: an operator picked uniformly from
// {+, -, *} and two operands uniformly from [1,10]. The stringified answer
// is stored under a globally-unique id with the store's TTL.
func (s *Store) Issue() Challenge {
	a := rand.IntN(10) + 1
	b := rand.IntN(10) + 1
	op := operators[rand.IntN(len(operators))]

	var answer int
	switch op {
	case "+":
		answer = a + b
	case "-":
		answer = a - b
	case "*":
		answer = a * b
	}

	id := fmt.Sprintf("captcha_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
	question := fmt.Sprintf("%d %s %d", a, op, b)

	s.cache.Set(id, fmt.Sprintf("%d", answer), s.ttl)

	return Challenge{
		ID:       id,
		Question: question,
		Text:     fmt.Sprintf("Solve: %s = ?", question),
	}
}

// Verify consumes the challenge with the given id and reports whether the
// submitted answer matches. It returns false when id or answer is empty,
// when no entry exists (never issued, already consumed, or expired), or
// when the trimmed submission differs from the stored answer. The entry is
// deleted on the first validation attempt no matter the outcome, and the
// delete is atomic with the read, so concurrent validators settle on at
// most one success.
func (s *Store) Verify(id, answer string) bool {
	if id == "" || answer == "" {
		return false
	}

	stored, ok := s.cache.GetAndDelete(id)
	if !ok {
		return false
	}

	expected, ok := stored.(string)
	if !ok {
		return false
	}

	return strings.TrimSpace(answer) == expected
}
