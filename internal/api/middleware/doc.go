// Package middleware holds the gin middleware of the inspection API.
package middleware
