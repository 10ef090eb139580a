// Package auth resolves the caller of a request to a user id.
package auth

import (
	"errors"
	"net/http"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Resolver extracts and validates one kind of credential.
type Resolver interface {
	Resolve(r *http.Request) (uint, error)
}

// Chain tries each resolver in order and returns the first user id found.
type Chain []Resolver

func (c Chain) Resolve(r *http.Request) (uint, error) {
	for _, res := range c {
		userID, err := res.Resolve(r)
		if err == nil {
			return userID, nil
		}
		if !errors.Is(err, ErrUnauthenticated) {
			return 0, err
		}
	}
	return 0, ErrUnauthenticated
}
